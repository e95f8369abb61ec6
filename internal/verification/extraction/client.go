// Package extraction talks to the document extraction collaborator and
// inspects emailed clearance documents locally.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"carematch/internal/verification/models"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/circuit"
)

const (
	extractPath          = "/v1/extract-and-judge"
	maxResponseBytes     = 1 << 20
	defaultClientTimeout = 90 * time.Second
)

// extractRequest is the collaborator's request body.
type extractRequest struct {
	SubmissionID string                  `json:"submission_id"`
	Phase        models.Phase            `json:"phase"`
	DocumentRefs []string                `json:"document_refs"`
	Expected     models.ExpectedIdentity `json:"expected"`
}

// HTTPClient calls the extraction collaborator over HTTP. Repeated outages open
// a circuit breaker so workers fail fast instead of queuing behind timeouts.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuit.Breaker
	logger     *slog.Logger
	tracer     trace.Tracer
}

type ClientOption func(*HTTPClient)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

func WithBreaker(b *circuit.Breaker) ClientOption {
	return func(h *HTTPClient) {
		h.breaker = b
	}
}

func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(h *HTTPClient) {
		h.logger = logger
	}
}

func NewHTTPClient(baseURL, apiKey string, opts ...ClientOption) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("extraction base URL is required")
	}
	c := &HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
		breaker:    circuit.New("extraction"),
		logger:     slog.Default(),
		tracer:     otel.Tracer("carematch/verification/extraction"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ExtractAndJudge sends the job's documents and expected identity and returns the verdict.
// Outages and timeouts are returned as retryable coded errors.
func (c *HTTPClient) ExtractAndJudge(ctx context.Context, job models.ExtractionJob) (result *models.ExtractionResult, err error) {
	ctx, span := c.tracer.Start(ctx, "extraction.extract_and_judge", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("verification.phase", string(job.Phase)),
			attribute.Int("verification.document_count", len(job.DocumentRefs)),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "extraction failed")
		}
		span.End()
	}()

	if !c.breaker.Allow() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "extraction collaborator circuit open")
	}

	result, err = c.call(ctx, job)
	if err != nil && dErrors.IsRetryable(err) {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "extraction circuit opened", "error", err)
		}
		return nil, err
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "extraction circuit closed")
	}
	return result, err
}

func (c *HTTPClient) call(ctx context.Context, job models.ExtractionJob) (*models.ExtractionResult, error) {
	body, err := json.Marshal(extractRequest{
		SubmissionID: job.SubmissionID.String(),
		Phase:        job.Phase,
		DocumentRefs: job.DocumentRefs,
		Expected:     job.Expected,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode extraction request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+extractPath, bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build extraction request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "extraction timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "extraction collaborator unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read extraction response")
	}
	return parseResponse(resp.StatusCode, payload)
}

// parseResponse maps the collaborator's status code and body to a verdict or coded error.
func parseResponse(status int, payload []byte) (*models.ExtractionResult, error) {
	switch {
	case status == http.StatusOK:
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return nil, dErrors.New(dErrors.CodeTimeout, fmt.Sprintf("extraction returned %d", status))
	case status == http.StatusTooManyRequests || status >= 500:
		return nil, dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("extraction returned %d", status))
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("extraction rejected the request with %d", status))
	}

	var result models.ExtractionResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "malformed extraction response")
	}
	if !result.Pass && result.Outcome == "" && len(result.Issues) == 0 && result.Reasoning == "" {
		return nil, dErrors.New(dErrors.CodeUnavailable, "extraction response carried no verdict")
	}
	return &result, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
