package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "carematch/pkg/domain-errors"
)

type guidanceErr struct {
	error
}

func (g guidanceErr) Unwrap() error { return g.error }

func (g guidanceErr) Details() map[string]any {
	return map[string]any{"guidance": map[string]any{"title": "Upload a clearer photo"}}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
	}{
		{"stage locked", dErrors.New(dErrors.CodeStageLocked, "credential is locked until identity is verified"), http.StatusLocked, "stage_locked", "credential is locked until identity is verified"},
		{"manual entry required", dErrors.New(dErrors.CodeManualEntryRequired, "enter the clearance manually"), http.StatusUnprocessableEntity, "manual_entry_required", "enter the clearance manually"},
		{"validation", dErrors.New(dErrors.CodeValidation, "postcode must be 4 digits"), http.StatusBadRequest, "validation_error", "postcode must be 4 digits"},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "address lookup is temporarily unavailable"), http.StatusServiceUnavailable, "unavailable", "address lookup is temporarily unavailable"},
		{"internal hides the message", dErrors.New(dErrors.CodeInternal, "pq: connection reset"), http.StatusInternalServerError, "internal_error", ""},
		{"uncoded error is internal", errors.New("boom"), http.StatusInternalServerError, "internal_error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.code, body["error"])
			if tt.description == "" {
				assert.NotContains(t, body, "error_description")
			} else {
				assert.Equal(t, tt.description, body["error_description"])
			}
		})
	}
}

func TestWriteErrorMergesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, guidanceErr{dErrors.New(dErrors.CodeValidation, "document was unreadable")})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "validation_error", body["error"])
	assert.Equal(t, map[string]any{"title": "Upload a clearer photo"}, body["guidance"])
}

type noteRequest struct {
	Note string `json:"note"`
}

func (r *noteRequest) Validate() error {
	if len(r.Note) > 10 {
		return dErrors.New(dErrors.CodeValidation, "note is too long")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	run := func(body string) (*noteRequest, *httptest.ResponseRecorder) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		w := httptest.NewRecorder()
		req, _ := DecodeAndPrepare[noteRequest](w, r, nil, r.Context(), "req-1")
		return req, w
	}

	req, _ := run(`{"note":"ok"}`)
	require.NotNil(t, req)
	assert.Equal(t, "ok", req.Note)

	req, w := run(`{"note":"ok","extra":1}`)
	assert.Nil(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", decode(t, w)["error"])

	req, w = run(`{"note":"far too long for this"}`)
	assert.Nil(t, req)
	assert.Equal(t, "validation_error", decode(t, w)["error"])
}
