// Package apiresponse renders handler outcomes as uniform JSON envelopes and
// runs request input through a validation rule set.
//
// A Responder belongs to exactly one request. It remembers the status code
// to send (200 unless changed) and the error bag from the last validation
// run, and is not safe for concurrent use.
package apiresponse

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/orchestrix/apiresponder/pkg/httputil"
	"github.com/orchestrix/apiresponder/pkg/observability"
	"github.com/orchestrix/apiresponder/pkg/validation"
)

// Default messages used when a Respond method is given an empty message.
const (
	MessageCreated             = "Created Successfully."
	MessageUpdated             = "Updated Successfully"
	MessageDeleted             = "Delete Successful."
	MessageNotFound            = "Resource not found."
	MessageNoContent           = "No Content."
	MessageInternalError       = "Internal Error."
	MessageUnprocessableEntity = "Unprocessable Entity!"
	MessageValidationFailed    = "Validation Failed!"
)

// Validator applies a rule set to request input.
type Validator interface {
	Validate(input map[string]any, rules validation.Rules) *validation.Result
}

// Option configures a Responder or Factory.
type Option func(*options)

type options struct {
	serializer httputil.Serializer
	validator  Validator
	logger     *slog.Logger
	metrics    *observability.Metrics
}

func defaultOptions() options {
	return options{
		serializer: httputil.JSONSerializer{},
		validator:  validation.NewEngine(),
	}
}

// WithSerializer replaces the JSON serializer.
func WithSerializer(s httputil.Serializer) Option {
	return func(o *options) { o.serializer = s }
}

// WithValidator replaces the validation engine.
func WithValidator(v Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithLogger sets the logger. Defaults to observability.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records written envelopes and validation failures.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Responder writes envelopes for a single request.
type Responder struct {
	w    http.ResponseWriter
	ctx  context.Context
	opts options

	statusCode       int
	validationErrors validation.Errors
}

// New creates a Responder writing to w.
func New(w http.ResponseWriter, opts ...Option) *Responder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newResponder(context.Background(), w, o)
}

func newResponder(ctx context.Context, w http.ResponseWriter, o options) *Responder {
	return &Responder{
		w:          w,
		ctx:        ctx,
		opts:       o,
		statusCode: http.StatusOK,
	}
}

// WithContext sets the context used for logging and tracing.
func (r *Responder) WithContext(ctx context.Context) *Responder {
	r.ctx = ctx
	return r
}

// StatusCode returns the status code the next envelope is sent with.
func (r *Responder) StatusCode() int {
	return r.statusCode
}

// SetStatusCode sets the status code. Any integer is accepted.
func (r *Responder) SetStatusCode(code int) *Responder {
	r.statusCode = code
	return r
}

// ValidationErrors returns the bag stored by the last validation run, or
// nil if none ran.
func (r *Responder) ValidationErrors() validation.Errors {
	return r.validationErrors
}

// SetValidationErrors stores errs as-is.
func (r *Responder) SetValidationErrors(errs validation.Errors) {
	r.validationErrors = errs
}

// ValidateAgainstRules validates input against rules and always replaces
// the stored error bag with the result's, even when validation passed.
func (r *Responder) ValidateAgainstRules(input map[string]any, rules validation.Rules) *validation.Result {
	result := r.opts.validator.Validate(input, rules)
	r.SetValidationErrors(result.Errors())

	if result.Fails() {
		fields := result.Errors().Fields()
		r.opts.metrics.ObserveValidationFailure(fields)
		r.logger().Debug("validation failed", "fields", fields)
	}

	return result
}

// ValidateAgainstReducedRules validates only the rules whose field is
// present in input. With no matching keys the rule set is empty and
// validation passes.
func (r *Responder) ValidateAgainstReducedRules(input map[string]any, rules validation.Rules) *validation.Result {
	return r.ValidateAgainstRules(input, validation.Reduce(rules, input))
}

// Respond serializes body and writes it with the current status code.
// Nothing is written when serialization fails.
func (r *Responder) Respond(body any, headers http.Header) error {
	payload, err := r.opts.serializer.Marshal(body)
	if err != nil {
		r.logger().Error("failed to serialize response", "error", err, "status", r.statusCode)
		observability.RecordError(r.ctx, err)
		return errors.Wrap(err, "serialize response")
	}

	kind := KindRaw
	if env, ok := body.(Envelope); ok {
		kind = env.Kind()
	}

	if err := httputil.Write(r.w, r.statusCode, headers, payload); err != nil {
		r.logger().Warn("failed to write response", "error", err, "status", r.statusCode)
		return err
	}

	r.opts.metrics.ObserveResponse(r.statusCode, kind)
	observability.AnnotateResponse(r.ctx, r.statusCode, kind)
	return nil
}

// RespondSuccess sends a success envelope with the current status code.
func (r *Responder) RespondSuccess(message string) error {
	return r.Respond(Success(message, r.statusCode), nil)
}

// RespondCreated sends a 201 success envelope.
func (r *Responder) RespondCreated(message string) error {
	return r.SetStatusCode(http.StatusCreated).RespondSuccess(orDefault(message, MessageCreated))
}

// RespondUpdated sends a 200 success envelope.
func (r *Responder) RespondUpdated(message string) error {
	return r.SetStatusCode(http.StatusOK).RespondSuccess(orDefault(message, MessageUpdated))
}

// RespondDeleted sends a success envelope with status 204.
func (r *Responder) RespondDeleted(message string) error {
	return r.SetStatusCode(http.StatusNoContent).RespondSuccess(orDefault(message, MessageDeleted))
}

// RespondWithError sends an error envelope with the current status code.
func (r *Responder) RespondWithError(message string) error {
	return r.Respond(Failure(message, r.statusCode), nil)
}

// RespondNotFound sends a 404 error envelope.
func (r *Responder) RespondNotFound(message string) error {
	return r.SetStatusCode(http.StatusNotFound).RespondWithError(orDefault(message, MessageNotFound))
}

// RespondNoContent sends an error envelope with status 204. Note the shape
// differs from RespondDeleted, which also uses 204.
func (r *Responder) RespondNoContent(message string) error {
	return r.SetStatusCode(http.StatusNoContent).RespondWithError(orDefault(message, MessageNoContent))
}

// RespondInternalError sends a 500 error envelope.
func (r *Responder) RespondInternalError(message string) error {
	return r.SetStatusCode(http.StatusInternalServerError).RespondWithError(orDefault(message, MessageInternalError))
}

// RespondUnprocessableEntity sends a 422 error envelope.
func (r *Responder) RespondUnprocessableEntity(message string) error {
	return r.SetStatusCode(http.StatusUnprocessableEntity).RespondWithError(orDefault(message, MessageUnprocessableEntity))
}

// RespondWithErrorBag sends an error envelope with the stored validation
// errors under "errors", using the current status code.
func (r *Responder) RespondWithErrorBag(message string) error {
	return r.Respond(FailureWithErrors(message, r.statusCode, r.validationErrors), nil)
}

// RespondValidationFailed sends a 422 error envelope with the stored
// validation errors.
func (r *Responder) RespondValidationFailed(message string) error {
	return r.SetStatusCode(http.StatusUnprocessableEntity).RespondWithErrorBag(orDefault(message, MessageValidationFailed))
}

// PageInfo returns pagination metadata for p. It does not touch the
// Responder's state.
func (r *Responder) PageInfo(p PaginatedResult) PageInfo {
	return NewPageInfo(p)
}

func (r *Responder) logger() *slog.Logger {
	if r.opts.logger != nil {
		return observability.Enrich(r.ctx, r.opts.logger)
	}
	return observability.WithContext(r.ctx)
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// Factory holds the collaborators shared by every request and hands out
// one Responder per request.
type Factory struct {
	opts options
}

// NewFactory creates a Factory.
func NewFactory(opts ...Option) *Factory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Factory{opts: o}
}

// For creates a Responder for one request, bound to the request context.
func (f *Factory) For(w http.ResponseWriter, r *http.Request) *Responder {
	return newResponder(r.Context(), w, f.opts)
}
