package apperror

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrix/apiresponder/pkg/apiresponse"
	"github.com/orchestrix/apiresponder/pkg/validation"
)

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		errors  any
	}{
		{
			name:    "not found",
			err:     NotFound("note"),
			status:  http.StatusNotFound,
			message: "note not found",
		},
		{
			name:    "wrapped not found",
			err:     errors.Wrap(NotFoundWithID("note", "42"), "load note"),
			status:  http.StatusNotFound,
			message: "note 42 not found",
		},
		{
			name:    "validation error from the rule engine",
			err:     &validation.ValidationError{Fields: validation.Errors{"title": {"title is required"}}},
			status:  http.StatusUnprocessableEntity,
			message: "Validation Failed!",
			errors:  map[string]any{"title": []any{"title is required"}},
		},
		{
			name:    "validation without fields",
			err:     Validation("cannot parse id"),
			status:  http.StatusUnprocessableEntity,
			message: "cannot parse id",
		},
		{
			name:    "conflict keeps its status",
			err:     Conflict("note already archived"),
			status:  http.StatusConflict,
			message: "note already archived",
		},
		{
			name:    "unavailable keeps its status and hides the message",
			err:     Wrap(errors.New("dial tcp: connection refused"), CodeUnavailable, "database down"),
			status:  http.StatusServiceUnavailable,
			message: "Internal Error.",
		},
		{
			name:    "unknown errors are internal and hidden",
			err:     errors.New("pq: connection refused"),
			status:  http.StatusInternalServerError,
			message: "Internal Error.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
			h := NewHandler(apiresponse.NewFactory(apiresponse.WithLogger(logger)), logger)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/notes/42", nil)

			h.Handle(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "error", body["status"])
			member := body["error"].(map[string]any)
			assert.Equal(t, tt.message, member["message"])
			assert.Equal(t, float64(tt.status), member["code"])
			if tt.errors != nil {
				assert.Equal(t, tt.errors, body["errors"])
			} else {
				assert.NotContains(t, body, "errors")
			}

			if tt.status >= 500 {
				assert.Contains(t, logs.String(), "internal error")
				assert.Contains(t, logs.String(), "connection refused")
			}
		})
	}
}

func TestAppError(t *testing.T) {
	t.Run("is compares codes", func(t *testing.T) {
		err := errors.Wrap(NotFound("note"), "service")
		assert.True(t, errors.Is(err, New(CodeNotFound, "")))
		assert.False(t, errors.Is(err, New(CodeConflict, "")))
	})

	t.Run("http status", func(t *testing.T) {
		assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(Validation("x")))
		assert.Equal(t, http.StatusTooManyRequests, GetHTTPStatus(New(CodeTooManyRequests, "slow down")))
		assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
	})

	t.Run("error string includes fields", func(t *testing.T) {
		err := ValidationWithFields(validation.Errors{"title": {"title is required"}})
		assert.Equal(t, "VALIDATION_ERROR: validation failed: title: title is required", err.Error())
	})

	t.Run("unwrap exposes cause", func(t *testing.T) {
		cause := errors.New("disk full")
		assert.ErrorIs(t, Internal(cause), cause)
	})
}
