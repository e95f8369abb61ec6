package extraction

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carematch/internal/verification/models"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/circuit"
)

func testJob() models.ExtractionJob {
	return models.ExtractionJob{
		ProviderID:   id.UserID(uuid.New()),
		SubmissionID: id.NewSubmissionID(),
		Phase:        models.PhaseIdentity,
		DocumentRefs: []string{"uploads/passport.jpg", "uploads/selfie.jpg"},
		Expected: models.ExpectedIdentity{
			Surname:        "Nguyen",
			GivenNames:     "Thi Mai",
			DateOfBirth:    "1995-01-01",
			CountryOfIssue: "Vietnam",
		},
	}
}

func TestHTTPClient_ExtractAndJudge(t *testing.T) {
	t.Run("sends the job and decodes the verdict", func(t *testing.T) {
		job := testJob()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, extractPath, r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			var req extractRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, job.SubmissionID.String(), req.SubmissionID)
			assert.Equal(t, job.Expected, req.Expected)

			_ = json.NewEncoder(w).Encode(models.ExtractionResult{
				Pass:     true,
				Identity: models.IdentityExtraction{Surname: "NGUYEN", Nationality: "Vietnamese"},
			})
		}))
		defer srv.Close()

		client, err := NewHTTPClient(srv.URL+"/", "secret")
		require.NoError(t, err)

		result, err := client.ExtractAndJudge(context.Background(), job)
		require.NoError(t, err)
		assert.True(t, result.Pass)
		assert.Equal(t, "Vietnamese", result.Identity.Nationality)
	})

	t.Run("status codes map to coded errors", func(t *testing.T) {
		tests := []struct {
			status int
			code   dErrors.Code
		}{
			{http.StatusServiceUnavailable, dErrors.CodeUnavailable},
			{http.StatusTooManyRequests, dErrors.CodeUnavailable},
			{http.StatusGatewayTimeout, dErrors.CodeTimeout},
			{http.StatusUnprocessableEntity, dErrors.CodeBadRequest},
		}
		for _, tc := range tests {
			_, err := parseResponse(tc.status, nil)
			assert.True(t, dErrors.HasCode(err, tc.code), "status %d: got %v", tc.status, err)
		}
	})

	t.Run("empty verdict is retryable", func(t *testing.T) {
		_, err := parseResponse(http.StatusOK, []byte(`{"pass":false}`))
		assert.True(t, dErrors.IsRetryable(err))
	})

	t.Run("deadline is reported as timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
		}))
		defer srv.Close()

		client, err := NewHTTPClient(srv.URL, "")
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err = client.ExtractAndJudge(ctx, testJob())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout), "got %v", err)
	})

	t.Run("repeated outages open the breaker", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client, err := NewHTTPClient(srv.URL, "", WithBreaker(circuit.New("extraction-test",
			circuit.WithFailureThreshold(2),
			circuit.WithCooldown(time.Hour),
		)))
		require.NoError(t, err)

		for range 2 {
			_, err = client.ExtractAndJudge(context.Background(), testJob())
			require.Error(t, err)
		}
		_, err = client.ExtractAndJudge(context.Background(), testJob())

		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		assert.Contains(t, err.Error(), "circuit open")
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("base URL is required", func(t *testing.T) {
		_, err := NewHTTPClient("  ", "")
		assert.Error(t, err)
	})
}
