package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/supabase-admin/internal/supabase"
)

// ============================================================================
// MOCK DEPENDENCIES
// ============================================================================

type mockUserAdmin struct {
	page       *supabase.UserPage
	created    *supabase.User
	listErr    error
	createErr  error
	listCalls  []supabase.ListUsersParams
	lastCreate supabase.CreateUserParams
}

func (m *mockUserAdmin) ListUsers(ctx context.Context, params supabase.ListUsersParams) (*supabase.UserPage, error) {
	m.listCalls = append(m.listCalls, params)
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.page, nil
}

func (m *mockUserAdmin) CreateUser(ctx context.Context, params supabase.CreateUserParams) (*supabase.User, error) {
	m.lastCreate = params
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.created, nil
}

type mockInspector struct {
	info DatabaseInfo
	err  error
}

func (m *mockInspector) DatabaseInfo(ctx context.Context) (DatabaseInfo, error) {
	return m.info, m.err
}

func newTestRouter(users UserAdmin, db DatabaseInspector) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", NewHandler(nil, users, db).MountRoutes)
	return r
}

func serve(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func decodeUsers(t *testing.T, raw string) []supabase.User {
	t.Helper()
	var users []supabase.User
	require.NoError(t, json.Unmarshal([]byte(raw), &users))
	return users
}

// ============================================================================
// TESTS
// ============================================================================

func TestTestSupabase_ReportsPageCountIndependentOfTotal(t *testing.T) {
	users := decodeUsers(t, `[
		{"id":"8d0f6b7e-3c1a-4f7e-9a43-0a1d2b3c4d5e","email":"a@example.com"},
		{"id":"1b2c3d4e-5f60-4a7b-8c9d-0e1f2a3b4c5d","email":"b@example.com"},
		{"id":"2b2c3d4e-5f60-4a7b-8c9d-0e1f2a3b4c5d","email":"c@example.com"}
	]`)
	svc := &mockUserAdmin{page: &supabase.UserPage{Users: users, Total: 120}}

	rec, body := serve(t, newTestRouter(svc, &mockInspector{}), http.MethodGet, "/api/test-supabase", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Supabase service role working!", body["message"])
	assert.EqualValues(t, 3, body["userCount"])
	assert.EqualValues(t, 120, body["totalUsers"])
	_, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string))
	assert.NoError(t, err)

	require.Len(t, svc.listCalls, 1)
	assert.Equal(t, supabase.ListUsersParams{Page: 1, PerPage: 5}, svc.listCalls[0])
}

func TestListUsers_TotalMatchesUsers(t *testing.T) {
	users := decodeUsers(t, `[
		{"id":"8d0f6b7e-3c1a-4f7e-9a43-0a1d2b3c4d5e","email":"a@example.com"},
		{"id":"1b2c3d4e-5f60-4a7b-8c9d-0e1f2a3b4c5d","email":"b@example.com"}
	]`)
	svc := &mockUserAdmin{page: &supabase.UserPage{Users: users, Total: 99}}

	rec, body := serve(t, newTestRouter(svc, &mockInspector{}), http.MethodGet, "/api/admin/users", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	list, ok := body["users"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 2)
	assert.EqualValues(t, len(list), body["total"])
	require.Len(t, svc.listCalls, 1)
	assert.Equal(t, supabase.ListUsersParams{}, svc.listCalls[0], "admin listing is unpaged")
}

func TestCreateUser_ReturnsServiceUserUnmodified(t *testing.T) {
	const echoed = `{"id":"8d0f6b7e-3c1a-4f7e-9a43-0a1d2b3c4d5e","email":"new@example.com","user_metadata":{"plan":"pro"},"factors":null,"custom_field":42}`
	var created supabase.User
	require.NoError(t, json.Unmarshal([]byte(echoed), &created))
	svc := &mockUserAdmin{created: &created}

	rec, body := serve(t, newTestRouter(svc, &mockInspector{}), http.MethodPost, "/api/admin/create-user",
		`{"email":"new@example.com","password":"hunter22","user_metadata":{"plan":"pro"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User created successfully", body["message"])

	var raw struct {
		User json.RawMessage `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.JSONEq(t, echoed, string(raw.User))

	assert.Equal(t, "new@example.com", svc.lastCreate.Email)
	assert.Equal(t, "hunter22", svc.lastCreate.Password)
	assert.Equal(t, map[string]any{"plan": "pro"}, svc.lastCreate.UserMetadata)
	assert.True(t, svc.lastCreate.EmailConfirm)
}

func TestCreateUser_DoesNotValidateLocally(t *testing.T) {
	svc := &mockUserAdmin{createErr: &supabase.APIError{Name: "AuthApiError", Status: 400, Code: "validation_failed", Message: "Unable to validate email address: invalid format"}}

	rec, body := serve(t, newTestRouter(svc, &mockInspector{}), http.MethodPost, "/api/admin/create-user", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to create user", body["error"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "validation_failed", details["code"])
	assert.Empty(t, svc.lastCreate.Email)
}

func TestTestDB_ReturnsRow(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	inspector := &mockInspector{info: DatabaseInfo{Database: "postgres", User: "postgres", Version: "PostgreSQL 15.1", Timestamp: ts}}

	rec, body := serve(t, newTestRouter(&mockUserAdmin{}, inspector), http.MethodGet, "/api/test-db", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Direct database connection working!", body["message"])
	assert.Equal(t, map[string]any{
		"database":  "postgres",
		"user":      "postgres",
		"version":   "PostgreSQL 15.1",
		"timestamp": "2024-05-01T10:00:00Z",
	}, body["data"])
}

func TestEveryRouteReturns500OnExternalFailure(t *testing.T) {
	failing := errors.New("connection reset by peer")
	router := newTestRouter(
		&mockUserAdmin{listErr: failing, createErr: failing},
		&mockInspector{err: failing},
	)

	cases := []struct {
		method, path, body, message string
	}{
		{http.MethodGet, "/api/test-supabase", "", "Supabase connection failed"},
		{http.MethodPost, "/api/admin/create-user", `{"email":"a@example.com","password":"x"}`, "Failed to create user"},
		{http.MethodGet, "/api/admin/users", "", "Failed to retrieve users"},
		{http.MethodGet, "/api/test-db", "", "Database connection failed"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec, body := serve(t, router, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tc.message, body["error"])
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, "connection reset by peer", body["details"])
		})
	}
}
