package http

import (
	"errors"
	"net/http"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/services"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	NewResponse().Status(status).JSON(v).Write(w, r)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Error: msg, RequestID: trace.FromRequest(r)})
}

// writeServiceError maps service errors to HTTP statuses. It is the only
// place where that mapping happens.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{RequestID: trace.FromRequest(r)}
	status := http.StatusInternalServerError
	errorType := log.ErrorTypeInternal

	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		status, errorType = http.StatusUnprocessableEntity, log.ErrorTypeValidation
		body.Error, body.Field = verr.Reason, verr.Field
	case errors.Is(err, core.ErrValidation):
		status, errorType = http.StatusUnprocessableEntity, log.ErrorTypeValidation
		body.Error = err.Error()
	case errors.Is(err, core.ErrUnauthenticated):
		status, errorType = http.StatusUnauthorized, log.ErrorTypeAuth
		body.Error = "authentication required"
	case errors.Is(err, core.ErrCredential):
		status, errorType = http.StatusUnauthorized, log.ErrorTypeAuth
		body.Error = credentialMessage(err)
	case errors.Is(err, core.ErrNotFound):
		status, errorType = http.StatusNotFound, log.ErrorTypeNotFound
		body.Error = "not found"
	case errors.Is(err, services.ErrExportDisabled):
		status, errorType = http.StatusServiceUnavailable, log.ErrorTypeConfiguration
		body.Error = "export is not configured"
	case errors.Is(err, core.ErrStorageUnavailable), errors.Is(err, core.ErrAuthService):
		status, errorType = http.StatusServiceUnavailable, log.ErrorTypeDatabase
		body.Error = "service temporarily unavailable, please retry"
		body.Retryable = true
	default:
		body.Error = "internal server error"
	}

	logger := log.FromContext(r.Context())
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, errorType,
			log.FieldStatusCode, status)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldError, err.Error(),
			log.FieldErrorType, errorType,
			log.FieldStatusCode, status)
	}

	writeJSON(w, r, status, body)
}

// credentialMessage keeps sign-in failures indistinguishable while still
// telling a new user that their email is taken.
func credentialMessage(err error) string {
	if strings.Contains(err.Error(), "already registered") {
		return "email already registered"
	}
	return "invalid email or password"
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
