package apperror

import (
	"log/slog"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/orchestrix/apiresponder/pkg/apiresponse"
	"github.com/orchestrix/apiresponder/pkg/validation"
)

// Handler renders errors returned by handlers as response envelopes
type Handler struct {
	responses *apiresponse.Factory
	logger    *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(responses *apiresponse.Factory, logger *slog.Logger) *Handler {
	return &Handler{responses: responses, logger: logger}
}

// Handle writes the envelope matching err
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	h.Render(h.responses.For(w, r), r, err)
}

// Render writes the envelope matching err through an existing Responder.
// Validation errors carry their field bag; 5xx errors never expose their
// message to the client.
func (h *Handler) Render(res *apiresponse.Responder, r *http.Request, err error) {
	appErr := ToAppError(err)

	if appErr.HTTPStatus >= 500 {
		h.logger.Error("internal error",
			"error", appErr.Error(),
			"code", appErr.Code,
			"path", r.URL.Path,
			"method", r.Method,
		)
	} else {
		h.logger.Debug("client error",
			"code", appErr.Code,
			"message", appErr.Message,
			"path", r.URL.Path,
		)
	}

	var writeErr error
	switch {
	case appErr.Code == CodeValidation && appErr.Fields != nil:
		res.SetValidationErrors(appErr.Fields)
		writeErr = res.RespondValidationFailed(appErr.Message)
	case appErr.HTTPStatus == http.StatusNotFound:
		writeErr = res.RespondNotFound(appErr.Message)
	case appErr.HTTPStatus == http.StatusUnprocessableEntity:
		writeErr = res.RespondUnprocessableEntity(appErr.Message)
	case appErr.HTTPStatus == http.StatusInternalServerError:
		writeErr = res.RespondInternalError("")
	case appErr.HTTPStatus > 500:
		writeErr = res.SetStatusCode(appErr.HTTPStatus).RespondWithError(apiresponse.MessageInternalError)
	default:
		writeErr = res.SetStatusCode(appErr.HTTPStatus).RespondWithError(appErr.Message)
	}

	if writeErr != nil {
		h.logger.Error("failed to write error response", "error", writeErr)
	}
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if appErr, ok := GetAppError(err); ok {
		return appErr
	}

	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		return ValidationWithFields(verr.Fields)
	}

	return Internal(err)
}
