package apiresponse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/orchestrix/apiresponder/pkg/observability"
	"github.com/orchestrix/apiresponder/pkg/validation"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestResponder_StatusCode(t *testing.T) {
	r := New(httptest.NewRecorder())

	assert.Equal(t, http.StatusOK, r.StatusCode())
	assert.Equal(t, r.StatusCode(), r.StatusCode())

	for _, code := range []int{0, -1, 201, 299, 418, 999} {
		assert.Equal(t, code, r.SetStatusCode(code).StatusCode())
	}
}

func TestResponder_Envelopes(t *testing.T) {
	tests := []struct {
		name    string
		prior   int
		call    func(r *Responder) error
		status  int
		kind    string
		message string
	}{
		{
			name:    "success keeps current status",
			prior:   http.StatusAccepted,
			call:    func(r *Responder) error { return r.RespondSuccess("queued") },
			status:  http.StatusAccepted,
			kind:    StatusSuccess,
			message: "queued",
		},
		{
			name:    "created default message",
			call:    func(r *Responder) error { return r.RespondCreated("") },
			status:  http.StatusCreated,
			kind:    StatusSuccess,
			message: "Created Successfully.",
		},
		{
			name:    "created custom message",
			prior:   http.StatusTeapot,
			call:    func(r *Responder) error { return r.RespondCreated("note stored") },
			status:  http.StatusCreated,
			kind:    StatusSuccess,
			message: "note stored",
		},
		{
			name:    "updated resets to 200",
			prior:   http.StatusNotFound,
			call:    func(r *Responder) error { return r.RespondUpdated("") },
			status:  http.StatusOK,
			kind:    StatusSuccess,
			message: "Updated Successfully",
		},
		{
			name:    "deleted is success shaped 204",
			call:    func(r *Responder) error { return r.RespondDeleted("") },
			status:  http.StatusNoContent,
			kind:    StatusSuccess,
			message: "Delete Successful.",
		},
		{
			name:    "error keeps current status",
			prior:   http.StatusConflict,
			call:    func(r *Responder) error { return r.RespondWithError("already exists") },
			status:  http.StatusConflict,
			kind:    StatusError,
			message: "already exists",
		},
		{
			name:    "not found default",
			prior:   http.StatusCreated,
			call:    func(r *Responder) error { return r.RespondNotFound("") },
			status:  http.StatusNotFound,
			kind:    StatusError,
			message: "Resource not found.",
		},
		{
			name:    "not found custom",
			call:    func(r *Responder) error { return r.RespondNotFound("note 7 not found") },
			status:  http.StatusNotFound,
			kind:    StatusError,
			message: "note 7 not found",
		},
		{
			name:    "no content is error shaped 204",
			call:    func(r *Responder) error { return r.RespondNoContent("") },
			status:  http.StatusNoContent,
			kind:    StatusError,
			message: "No Content.",
		},
		{
			name:    "internal error",
			call:    func(r *Responder) error { return r.RespondInternalError("") },
			status:  http.StatusInternalServerError,
			kind:    StatusError,
			message: "Internal Error.",
		},
		{
			name:    "unprocessable entity",
			call:    func(r *Responder) error { return r.RespondUnprocessableEntity("") },
			status:  http.StatusUnprocessableEntity,
			kind:    StatusError,
			message: "Unprocessable Entity!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := New(rec)
			if tt.prior != 0 {
				r.SetStatusCode(tt.prior)
			}

			require.NoError(t, tt.call(r))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, r.StatusCode())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			body := decode(t, rec)
			assert.Equal(t, tt.kind, body["status"])
			member, ok := body[tt.kind].(map[string]any)
			require.True(t, ok, "missing %q member in %v", tt.kind, body)
			assert.Equal(t, tt.message, member["message"])
			assert.Equal(t, float64(tt.status), member["code"])
			assert.NotContains(t, body, "errors")
			assert.Len(t, body, 2)
		})
	}
}

func TestResponder_ValidationFailed(t *testing.T) {
	t.Run("uses stored errors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := New(rec)
		errs := validation.Errors{"title": {"title is required"}}
		r.SetValidationErrors(errs)

		require.NoError(t, r.RespondValidationFailed(""))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{
			"status": "error",
			"error": {"message": "Validation Failed!", "code": 422},
			"errors": {"title": ["title is required"]}
		}`, rec.Body.String())
	})

	t.Run("errors member is null when validation never ran", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := New(rec)

		require.NoError(t, r.SetStatusCode(http.StatusBadRequest).RespondWithErrorBag("bad input"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{
			"status": "error",
			"error": {"message": "bad input", "code": 400},
			"errors": null
		}`, rec.Body.String())
	})

	t.Run("after validating against rules", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := New(rec)

		result := r.ValidateAgainstRules(map[string]any{"age": "x"}, validation.Rules{
			"name": "required",
			"age":  "numeric",
		})
		require.True(t, result.Fails())
		require.NoError(t, r.RespondValidationFailed("Check your input"))

		body := decode(t, rec)
		assert.Equal(t, map[string]any{
			"name": []any{"name is required"},
			"age":  []any{"age must be a number"},
		}, body["errors"])
		assert.Equal(t, "Check your input", body["error"].(map[string]any)["message"])
	})
}

func TestResponder_ValidateAgainstRules(t *testing.T) {
	t.Run("stores errors even on success", func(t *testing.T) {
		r := New(httptest.NewRecorder())
		assert.Nil(t, r.ValidationErrors())

		result := r.ValidateAgainstRules(map[string]any{"name": "a"}, validation.Rules{"name": "required"})

		assert.True(t, result.Passes())
		assert.NotNil(t, r.ValidationErrors())
		assert.Empty(t, r.ValidationErrors())
	})

	t.Run("overwrites previous errors", func(t *testing.T) {
		r := New(httptest.NewRecorder())
		r.SetValidationErrors(validation.Errors{"old": {"stale"}})

		r.ValidateAgainstRules(map[string]any{}, validation.Rules{"name": "required"})

		assert.Equal(t, validation.Errors{"name": {"name is required"}}, r.ValidationErrors())
	})
}

type recordingValidator struct {
	rules validation.Rules
}

func (v *recordingValidator) Validate(input map[string]any, rules validation.Rules) *validation.Result {
	v.rules = rules
	return validation.NewEngine().Validate(input, rules)
}

func TestResponder_ValidateAgainstReducedRules(t *testing.T) {
	t.Run("only present fields are evaluated", func(t *testing.T) {
		spy := &recordingValidator{}
		r := New(httptest.NewRecorder(), WithValidator(spy))

		result := r.ValidateAgainstReducedRules(
			map[string]any{"name": "a"},
			validation.Rules{"name": "required", "age": "required"},
		)

		assert.True(t, result.Passes())
		assert.Equal(t, validation.Rules{"name": "required"}, spy.rules)
	})

	t.Run("no matching keys passes trivially", func(t *testing.T) {
		r := New(httptest.NewRecorder())

		result := r.ValidateAgainstReducedRules(map[string]any{"other": 1}, validation.Rules{"name": "required"})

		assert.True(t, result.Passes())
		assert.Empty(t, r.ValidationErrors())
	})

	t.Run("present fields still fail", func(t *testing.T) {
		r := New(httptest.NewRecorder())

		result := r.ValidateAgainstReducedRules(map[string]any{"name": ""}, validation.Rules{"name": "required"})

		assert.True(t, result.Fails())
		assert.True(t, r.ValidationErrors().Has("name"))
	})
}

func TestResponder_Respond(t *testing.T) {
	t.Run("writes arbitrary body with headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		headers := http.Header{}
		headers.Set("X-Total-Count", "95")

		err := New(rec).SetStatusCode(http.StatusPartialContent).Respond(map[string]any{"data": []int{1, 2}}, headers)

		require.NoError(t, err)
		assert.Equal(t, http.StatusPartialContent, rec.Code)
		assert.Equal(t, "95", rec.Header().Get("X-Total-Count"))
		assert.JSONEq(t, `{"data":[1,2]}`, rec.Body.String())
	})

	t.Run("serialization failure writes nothing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, nil))

		err := New(rec, WithLogger(logger)).Respond(map[string]any{"ch": make(chan int)}, nil)

		require.Error(t, err)
		var unsupported *json.UnsupportedTypeError
		assert.True(t, errors.As(err, &unsupported))
		assert.Zero(t, rec.Body.Len())
		assert.False(t, rec.Flushed)
		assert.Contains(t, logs.String(), "failed to serialize response")
	})
}

type failingSerializer struct{}

func (failingSerializer) Marshal(any) ([]byte, error) { return nil, errors.New("boom") }

func TestResponder_CustomSerializer(t *testing.T) {
	rec := httptest.NewRecorder()

	err := New(rec, WithSerializer(failingSerializer{}), WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))).RespondNotFound("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "serialize response")
	assert.Zero(t, rec.Body.Len())
}

func TestResponder_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	factory := NewFactory(WithMetrics(metrics))

	req := httptest.NewRequest(http.MethodPost, "/notes", nil)

	r := factory.For(httptest.NewRecorder(), req)
	r.ValidateAgainstRules(map[string]any{}, validation.Rules{"title": "required", "body": "required"})
	require.NoError(t, r.RespondValidationFailed(""))
	require.NoError(t, factory.For(httptest.NewRecorder(), req).RespondCreated(""))
	require.NoError(t, factory.For(httptest.NewRecorder(), req).RespondNotFound(""))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResponsesTotal.WithLabelValues("422", KindErrorBag)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResponsesTotal.WithLabelValues("201", KindSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResponsesTotal.WithLabelValues("404", KindError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ValidationFailuresTotal.WithLabelValues("title")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ValidationFailuresTotal.WithLabelValues("body")))
}

func TestResponder_Tracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "handler")
	req := httptest.NewRequest(http.MethodGet, "/notes/1", nil).WithContext(ctx)

	require.NoError(t, NewFactory().For(httptest.NewRecorder(), req).RespondNotFound(""))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	attrs := map[string]any{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, int64(404), attrs["response.status_code"])
	assert.Equal(t, KindError, attrs["response.envelope"])
}

type page struct {
	total   int64
	perPage int
	current int
}

func (p page) Total() int64     { return p.total }
func (p page) PerPage() int     { return p.perPage }
func (p page) CurrentPage() int { return p.current }

func TestPageInfo(t *testing.T) {
	tests := []struct {
		name string
		page page
		want PageInfo
	}{
		{name: "rounds up", page: page{total: 95, perPage: 20, current: 3}, want: PageInfo{Pages: 5, Items: 95, Current: 3, Limit: 20}},
		{name: "exact", page: page{total: 40, perPage: 20, current: 1}, want: PageInfo{Pages: 2, Items: 40, Current: 1, Limit: 20}},
		{name: "empty", page: page{total: 0, perPage: 20, current: 1}, want: PageInfo{Pages: 0, Items: 0, Current: 1, Limit: 20}},
		{name: "zero per page", page: page{total: 10, perPage: 0, current: 1}, want: PageInfo{Pages: 0, Items: 10, Current: 1, Limit: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(httptest.NewRecorder())
			assert.Equal(t, tt.want, r.PageInfo(tt.page))
			assert.Equal(t, http.StatusOK, r.StatusCode())
		})
	}

	data, err := json.Marshal(NewPageInfo(page{total: 95, perPage: 20, current: 3}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"pages":5,"items":95,"current":3,"limit":20}`, string(data))
}
