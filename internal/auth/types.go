// Package auth is the access-control core of the panel: the credential store,
// the permission resolver, signed access/refresh tokens revoked by a per-user
// token version, and the single-use ticket broker for the streaming console.
package auth

import "time"

// User is a panel account. The password hash and token version are excluded
// from JSON serialization.
type User struct {
	Username     string `json:"username"`
	RoleID       string `json:"role_id"`
	TokenVersion int64  `json:"-"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
	CreatedBy    string `json:"created_by,omitempty"`
}

// UserWithSensitive includes the password hash for internal use.
// It must never be serialized into an API response.
type UserWithSensitive struct {
	User
	PasswordHash string `json:"-"`
	// AccountID is fixed at creation and never reused. Tokens carry it, so a
	// deleted and recreated username does not inherit old tokens.
	AccountID string `json:"-"`
}

// Role groups a permission set under a display name.
type Role struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Color       string        `json:"color"`
	IsSystem    bool          `json:"is_system"`
	Permissions PermissionSet `json:"permissions"`
	CreatedAt   int64         `json:"created_at"`
	UpdatedAt   int64         `json:"updated_at"`
}

// RoleInput carries the mutable fields of a role.
type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Permissions []string `json:"permissions"`
}

// Identity is the resolved identity of a request bearing a valid access token.
// It is attached to the request context by the auth middleware.
type Identity struct {
	Username     string
	TokenVersion int64
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Ticket is a single-use credential for the streaming channel handshake.
// The plaintext ID only exists in the value returned by Broker.Issue.
type Ticket struct {
	ID        string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTL returns the ticket lifetime.
func (t *Ticket) TTL() time.Duration {
	return t.ExpiresAt.Sub(t.IssuedAt)
}
