package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/supabase-admin/internal/platform/httpx"
	"github.com/noah-isme/supabase-admin/internal/supabase"
)

// testPageSize bounds the connectivity listing on /test-supabase.
const testPageSize = 5

// UserAdmin is the managed-service surface used by the handlers.
type UserAdmin interface {
	ListUsers(ctx context.Context, params supabase.ListUsersParams) (*supabase.UserPage, error)
	CreateUser(ctx context.Context, params supabase.CreateUserParams) (*supabase.User, error)
}

// DatabaseInspector reads database identity over the direct connection.
type DatabaseInspector interface {
	DatabaseInfo(ctx context.Context) (DatabaseInfo, error)
}

// Handler exposes the administrative API endpoints.
type Handler struct {
	logger *slog.Logger
	users  UserAdmin
	db     DatabaseInspector
	now    func() time.Time
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, users UserAdmin, db DatabaseInspector) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, users: users, db: db, now: time.Now}
}

// MountRoutes registers the API routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/test-supabase", h.testSupabase)
	r.Get("/test-db", h.testDB)
	r.Route("/admin", func(r chi.Router) {
		r.Post("/create-user", h.createUser)
		r.Get("/users", h.listUsers)
	})
}

func (h *Handler) testSupabase(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.ListUsers(r.Context(), supabase.ListUsersParams{Page: 1, PerPage: testPageSize})
	if err != nil {
		h.fail(w, "Supabase connection failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":    "Supabase service role working!",
		"userCount":  len(page.Users),
		"totalUsers": page.Total,
		"timestamp":  h.now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if r.Body != nil {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			h.logger.Debug("create user body not decoded", slog.Any("error", err))
		}
	}

	user, err := h.users.CreateUser(r.Context(), supabase.CreateUserParams{
		Email:        req.Email,
		Password:     req.Password,
		UserMetadata: req.UserMetadata,
		EmailConfirm: true,
	})
	if err != nil {
		h.fail(w, "Failed to create user", err)
		return
	}
	h.logger.Info("user created", slog.String("user_id", user.ID), slog.Bool("confirmed", user.Confirmed()))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "User created successfully",
		"user":    user,
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.ListUsers(r.Context(), supabase.ListUsersParams{})
	if err != nil {
		h.fail(w, "Failed to retrieve users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Users retrieved successfully",
		"users":   page.Users,
		"total":   len(page.Users),
	})
}

func (h *Handler) testDB(w http.ResponseWriter, r *http.Request) {
	info, err := h.db.DatabaseInfo(r.Context())
	if err != nil {
		h.fail(w, "Database connection failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Direct database connection working!",
		"data":    info,
	})
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.Fail(w, http.StatusInternalServerError, message, err)
}
