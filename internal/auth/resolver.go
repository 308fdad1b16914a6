package auth

import (
	"context"

	"gamepanel/internal/logger"
	"gamepanel/internal/metrics"
)

// Resolver answers permission queries against live credential state.
// Nothing is cached: a role edit is visible on the very next check.
type Resolver struct {
	source  CredentialSource
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewResolver creates a resolver. m may be nil.
func NewResolver(source CredentialSource, log *logger.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{source: source, logger: log, metrics: m}
}

// Check reports whether username holds required. Any lookup failure denies.
func (r *Resolver) Check(ctx context.Context, username, required string) bool {
	set, err := r.permissionSet(ctx, username)
	if err != nil {
		r.logger.Debug("Auth: permission %q denied for %q: %v", required, username, err)
		r.metrics.PermissionCheck(false)
		return false
	}

	allowed := set.Allows(required)
	if !allowed {
		r.logger.Debug("Auth: permission %q not held by %q", required, username)
	}
	r.metrics.PermissionCheck(allowed)
	return allowed
}

// Require is Check returning ErrPermissionDenied on denial.
func (r *Resolver) Require(ctx context.Context, username, required string) error {
	if !r.Check(ctx, username, required) {
		return ErrPermissionDenied
	}
	return nil
}

// ListPermissions returns the user's resolved permissions for display.
// A wildcard role expands to the full catalogue.
func (r *Resolver) ListPermissions(ctx context.Context, username string) ([]string, error) {
	set, err := r.permissionSet(ctx, username)
	if err != nil {
		return nil, err
	}
	return set.Expanded(), nil
}

// RoleOf returns the user's current role.
func (r *Resolver) RoleOf(ctx context.Context, username string) (*Role, error) {
	user, err := r.source.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return r.source.GetRole(ctx, user.RoleID)
}

func (r *Resolver) permissionSet(ctx context.Context, username string) (PermissionSet, error) {
	role, err := r.RoleOf(ctx, username)
	if err != nil {
		return PermissionSet{}, err
	}
	return role.Permissions, nil
}
