// internal/domain/models/user.go
package models

import "strings"

// User represents a staff user managed by the backend.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Roles  []Role `json:"roles"`
}

// Role is a backend role assignment.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RoleNames returns the names of the user's roles.
func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Matches reports whether the user's name or email contains q, case-insensitively.
func (u User) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.Name), q) ||
		strings.Contains(strings.ToLower(u.Email), q)
}

// UserInput is the create/update payload. Passwords are never part of it.
type UserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PasswordChange is the payload for the dedicated password endpoint.
type PasswordChange struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// MinPasswordLength is enforced before a password change is sent.
const MinPasswordLength = 8

// LoginResult is the backend's response to a successful sign-in.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	User        LoginUser `json:"user"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	Message     string    `json:"message"`
}

// LoginUser is the user block inside LoginResult.
type LoginUser struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profile_image"`
}

// Dashboard holds the summary metrics on the landing page.
type Dashboard struct {
	UserCount      int              `json:"user_count"`
	SEOPageCount   int              `json:"seo_page_count"`
	RecentSEOPages []RecentPageInfo `json:"recent_seo_pages"`
}

// RecentPageInfo is a row in the dashboard's recent pages table.
type RecentPageInfo struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	PageType  PageType `json:"page_type"`
	SEOStatus Flag     `json:"seo_status"`
	IsActive  Flag     `json:"is_active"`
	CreatedAt string   `json:"created_at"`
}
