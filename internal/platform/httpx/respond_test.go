package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type bodyErr struct {
	Code string `json:"code"`
}

func (e *bodyErr) Error() string { return "body error " + e.Code }
func (e *bodyErr) Details() any  { return e }

func TestFailWritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, http.StatusInternalServerError, "Database connection failed", errors.New("dial tcp: refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Database connection failed","details":"dial tcp: refused"}`, rec.Body.String())
}

func TestFailUsesStructuredDetailsThroughWrapping(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, http.StatusInternalServerError, "Failed", fmt.Errorf("wrapped: %w", &bodyErr{Code: "x1"}))
	assert.JSONEq(t, `{"error":"Failed","details":{"code":"x1"}}`, rec.Body.String())
}

func TestRespondErrorMapsAuthErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("missing token: %w", ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("role anon: %w", ErrForbidden), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestText(t *testing.T) {
	rec := httptest.NewRecorder()
	Text(rec, http.StatusOK, "hello")
	assert.Equal(t, "hello", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}
