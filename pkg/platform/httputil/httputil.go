// Package httputil holds the JSON request/response helpers shared by handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "carematch/pkg/domain-errors"
)

// maxBodyBytes caps request bodies; submissions carry references, never file bytes.
const maxBodyBytes = 64 << 10

// Validatable is implemented by request bodies that normalise and check themselves.
type Validatable interface {
	Validate() error
}

// ErrorResponse is the error envelope written for every failed request.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// DetailedError lets an error contribute extra JSON fields to the envelope.
type DetailedError interface {
	error
	Details() map[string]any
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into an HTTP status and error envelope.
// Internal errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := ""
	if de, ok := dErrors.As(err); ok {
		code = de.Code
		message = de.Message
	}
	status := dErrors.HTTPStatus(code)
	if status == http.StatusInternalServerError {
		message = ""
	}

	var detailed DetailedError
	if errors.As(err, &detailed) && status != http.StatusInternalServerError {
		body := map[string]any{"error": string(code)}
		if message != "" {
			body["error_description"] = message
		}
		for k, v := range detailed.Details() {
			body[k] = v
		}
		WriteJSON(w, status, body)
		return
	}

	WriteJSON(w, status, ErrorResponse{Error: string(code), ErrorDescription: message})
}

// DecodeAndPrepare decodes a JSON body into T and runs its validation.
// On failure it writes the error response and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return nil, false
	}
	if err := PT(&req).Validate(); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request validation failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}
