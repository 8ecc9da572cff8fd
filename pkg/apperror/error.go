package apperror

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/orchestrix/apiresponder/pkg/validation"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Client errors (4xx)
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeUnprocessable   ErrorCode = "UNPROCESSABLE_ENTITY"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeForbidden       ErrorCode = "FORBIDDEN"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"

	// Server errors (5xx)
	CodeInternal    ErrorCode = "INTERNAL_ERROR"
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError is an error that knows which envelope and status it renders as
type AppError struct {
	Code       ErrorCode
	Message    string
	Fields     validation.Errors
	HTTPStatus int
	Err        error
}

func (e *AppError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Code, (&validation.ValidationError{Fields: e.Fields}).Error())
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for AppError comparison
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap wraps an existing error with AppError context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// WithFields attaches a field error bag
func (e *AppError) WithFields(fields validation.Errors) *AppError {
	e.Fields = fields
	return e
}

// NotFound reports a missing resource, e.g. NotFound("note")
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// NotFoundWithID reports a missing resource by identifier
func NotFoundWithID(resource string, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s %s not found", resource, id))
}

// Validation reports invalid input without a field bag
func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// ValidationWithFields carries a field error bag. The message is left empty
// so the default validation message is used when rendered.
func ValidationWithFields(fields validation.Errors) *AppError {
	return New(CodeValidation, "").WithFields(fields)
}

func Unprocessable(message string) *AppError {
	return New(CodeUnprocessable, message)
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, orDefault(message, "authentication required"))
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, orDefault(message, "access denied"))
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequests, message)
}

func Unavailable(message string) *AppError {
	return New(CodeUnavailable, message)
}

// Internal hides err behind a generic message
func Internal(err error) *AppError {
	return Wrap(err, CodeInternal, "an internal error occurred")
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// codeToHTTPStatus maps error codes to HTTP status codes
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeValidation, CodeUnprocessable:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the HTTP status code for an error
func GetHTTPStatus(err error) int {
	if appErr, ok := GetAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
