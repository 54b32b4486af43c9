package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FromError maps the shared error taxonomy to an HTTP response. All handlers
// route domain errors through here so a given failure always produces the
// same status and code.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		Error(c, http.StatusBadRequest, "validation_error", userMessage(err, "invalid request"), nil)
	case errors.Is(err, apperr.ErrUnsupportedFormat):
		Error(c, http.StatusBadRequest, "unsupported_format", "Unsupported file format. Please upload PDF, DOCX, TXT, or RTF.", nil)
	case errors.Is(err, apperr.ErrExtractionFailed):
		Error(c, http.StatusUnprocessableEntity, "extraction_failed", "Could not read text from the uploaded file", nil)
	case errors.Is(err, apperr.ErrMalformedProviderResponse):
		Error(c, http.StatusBadGateway, "malformed_provider_response", "The analysis provider returned an unexpected response", nil)
	case errors.Is(err, apperr.ErrProviderTimeout):
		Error(c, http.StatusGatewayTimeout, "provider_timeout", "The analysis provider took too long to respond", nil)
	case errors.Is(err, apperr.ErrPersistenceFailed):
		Error(c, http.StatusInternalServerError, "persistence_failed", "Some records could not be saved. Please retry the request.", nil)
	case errors.Is(err, apperr.ErrUnauthorized):
		Error(c, http.StatusUnauthorized, "unauthorized", userMessage(err, "Invalid authentication token"), nil)
	case errors.Is(err, apperr.ErrForbidden):
		Error(c, http.StatusForbidden, "forbidden", "Not authorized to access this resume", nil)
	case errors.Is(err, apperr.ErrNotFound):
		Error(c, http.StatusNotFound, "not_found", userMessage(err, "Resume not found"), nil)
	case errors.Is(err, apperr.ErrInsufficientCredits):
		Error(c, http.StatusPaymentRequired, "insufficient_credits", "Insufficient credits", nil)
	case errors.Is(err, apperr.ErrApplicationLimit):
		Error(c, http.StatusForbidden, "application_limit", "Free user application limit reached", nil)
	default:
		Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
	}
}

// userMessage prefers the wrapping context over the bare sentinel text when
// the error carries a caller-facing detail.
func userMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	msg := err.Error()
	if msg == "" {
		return fallback
	}
	return msg
}
