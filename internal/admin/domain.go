package admin

import "time"

// DatabaseInfo describes the database reached through the direct connection.
type DatabaseInfo struct {
	Database  string    `json:"database"`
	User      string    `json:"user"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateUserRequest is the create-user request body. Fields are forwarded
// as-is; presence is left for the service to enforce.
type CreateUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	UserMetadata map[string]any `json:"user_metadata"`
}
