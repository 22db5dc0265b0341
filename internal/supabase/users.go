package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// User is an auth user owned by the service. The original JSON document is
// the source of truth and is forwarded unchanged; the typed fields are a
// best-effort view and stay empty when the service sends an unexpected shape.
type User struct {
	ID               string         `json:"id"`
	Aud              string         `json:"aud,omitempty"`
	Role             string         `json:"role,omitempty"`
	Email            string         `json:"email,omitempty"`
	EmailConfirmedAt string         `json:"email_confirmed_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	AppMetadata      map[string]any `json:"app_metadata,omitempty"`
	CreatedAt        string         `json:"created_at,omitempty"`

	raw json.RawMessage
}

type userFields User

// UnmarshalJSON retains the raw document and fills the typed fields it can.
// Only malformed JSON is an error.
func (u *User) UnmarshalJSON(data []byte) error {
	var fields userFields
	if err := json.Unmarshal(data, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return err
		}
	}
	*u = User(fields)
	u.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON re-emits the document received from the service when present.
func (u User) MarshalJSON() ([]byte, error) {
	if len(u.raw) > 0 {
		return u.raw, nil
	}
	return json.Marshal(userFields(u))
}

// Confirmed reports whether the email address has been confirmed.
func (u User) Confirmed() bool {
	return u.EmailConfirmedAt != ""
}

// ListUsersParams selects a page of users. Zero values leave paging to the server.
type ListUsersParams struct {
	Page    int
	PerPage int
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users    []User `json:"users"`
	Aud      string `json:"aud,omitempty"`
	Total    int    `json:"total"`
	NextPage int    `json:"nextPage,omitempty"`
	LastPage int    `json:"lastPage,omitempty"`
}

// CreateUserParams is the admin create-user payload.
type CreateUserParams struct {
	Email        string         `json:"email,omitempty"`
	Password     string         `json:"password,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	EmailConfirm bool           `json:"email_confirm"`
}

// ListUsers lists auth users through the admin API.
func (c *Client) ListUsers(ctx context.Context, params ListUsersParams) (*UserPage, error) {
	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(params.PerPage))
	}

	var page UserPage
	resp, err := c.do(ctx, http.MethodGet, authAdminPath+"/users", query, nil, &page)
	if err != nil {
		return nil, err
	}
	if page.Users == nil {
		page.Users = []User{}
	}
	if total, err := strconv.Atoi(resp.Header.Get("X-Total-Count")); err == nil {
		page.Total = total
	}
	page.NextPage, page.LastPage = parseLinkPages(resp.Header.Get("Link"))
	return &page, nil
}

// CreateUser creates an auth user through the admin API.
func (c *Client) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	var user User
	if _, err := c.do(ctx, http.MethodPost, authAdminPath+"/users", nil, params, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// parseLinkPages extracts the next and last page numbers from a Link header
// such as `</admin/users?page=2&per_page=5>; rel="next"`.
func parseLinkPages(header string) (next, last int) {
	if header == "" {
		return 0, 0
	}
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		rel := strings.TrimSpace(segments[1])
		parsed, err := url.Parse(target)
		if err != nil {
			continue
		}
		page, err := strconv.Atoi(parsed.Query().Get("page"))
		if err != nil {
			continue
		}
		switch rel {
		case `rel="next"`:
			next = page
		case `rel="last"`:
			last = page
		}
	}
	return next, last
}
