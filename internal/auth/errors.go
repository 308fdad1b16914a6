package auth

import "errors"

// Authentication and authorization outcomes. Validation failures are collapsed
// into a single error per credential kind so callers cannot tell which check
// failed.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidTicket         = errors.New("invalid ticket")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrConfigurationInsecure = errors.New("insecure configuration")
	ErrTicketCapacity        = errors.New("too many outstanding tickets")
)

// Credential store errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrUsernameInvalid = errors.New("invalid username")
	ErrPasswordWeak    = errors.New("password does not meet requirements")
	ErrSelfDelete      = errors.New("cannot delete own account")
	ErrRoleNotFound    = errors.New("role not found")
	ErrRoleExists      = errors.New("role name already taken")
	ErrRoleInvalid     = errors.New("invalid role")
	ErrRoleInUse       = errors.New("role is assigned to users")
	ErrSystemRole      = errors.New("system role cannot be modified this way")
)
