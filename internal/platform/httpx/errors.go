package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the auth layer.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ErrorEnvelope is the body of every failed JSON response.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Fail writes an error envelope carrying a fixed message and the raw cause.
// Details are not sanitized.
func Fail(w http.ResponseWriter, status int, message string, err error) {
	JSON(w, status, ErrorEnvelope{Error: message, Details: Details(err)})
}

// RespondError maps auth errors to their status codes and everything else to 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, "Unauthorized", err)
	case errors.Is(err, ErrForbidden):
		Fail(w, http.StatusForbidden, "Forbidden", err)
	default:
		Fail(w, http.StatusInternalServerError, "Internal Error", err)
	}
}

// DetailsProvider is implemented by errors that carry a structured body.
type DetailsProvider interface {
	Details() any
}

// Details renders an error for the envelope: the structured body when the
// error chain has one, otherwise the message.
func Details(err error) any {
	if err == nil {
		return nil
	}
	var provider DetailsProvider
	if errors.As(err, &provider) {
		return provider.Details()
	}
	return err.Error()
}
