package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// APIError is the structured error returned by the service for non-2xx responses.
type APIError struct {
	Name    string `json:"name"`
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("supabase: %s (status %d)", e.Message, e.Status)
}

// parseAPIError understands both GoTrue ({code, error_code, msg}) and
// PostgREST ({code, message, details, hint}) error bodies.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Name: "AuthApiError", Status: status}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		apiErr.Name = "UnknownError"
		apiErr.Message = http.StatusText(status)
		if len(body) > 0 {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	for _, key := range []string{"msg", "message", "error_description", "error"} {
		if msg, ok := fields[key].(string); ok && msg != "" {
			apiErr.Message = msg
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	if code, ok := fields["error_code"].(string); ok {
		apiErr.Code = code
	}
	if apiErr.Code == "" {
		switch code := fields["code"].(type) {
		case string:
			// PostgREST codes look like PGRST202.
			apiErr.Code = code
			apiErr.Name = "PostgrestError"
		case float64:
			apiErr.Code = strconv.Itoa(int(code))
		}
	}
	return apiErr
}

// Details exposes the error body for JSON error envelopes.
func (e *APIError) Details() any {
	return e
}
