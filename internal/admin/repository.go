package admin

import (
	"context"
	"fmt"

	"github.com/noah-isme/supabase-admin/internal/platform/db"
)

const databaseInfoQuery = `
SELECT
	current_database() AS database,
	current_user AS "user",
	version() AS version,
	NOW() AS timestamp`

// Repository runs literal queries over the direct connection pool.
type Repository struct {
	db db.Querier
}

// NewRepository constructs a repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// DatabaseInfo returns the identity of the connected database.
func (r *Repository) DatabaseInfo(ctx context.Context) (DatabaseInfo, error) {
	var info DatabaseInfo
	err := r.db.QueryRow(ctx, databaseInfoQuery).Scan(&info.Database, &info.User, &info.Version, &info.Timestamp)
	if err != nil {
		return DatabaseInfo{}, fmt.Errorf("admin: database info: %w", err)
	}
	return info, nil
}
