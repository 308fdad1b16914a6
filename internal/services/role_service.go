package services

import (
	"context"

	"gamepanel/internal/audit"
	"gamepanel/internal/auth"
	"gamepanel/internal/constants"
)

// RoleService manages roles and their permission sets.
type RoleService struct {
	deps *Deps
}

// Catalogue returns every grantable permission, in display order.
func (s *RoleService) Catalogue() []string {
	out := make([]string, len(constants.AllPermissions))
	copy(out, constants.AllPermissions)
	return out
}

// List returns all roles, system roles first.
func (s *RoleService) List(ctx context.Context) ([]auth.Role, error) {
	roles, err := s.deps.Store.ListRoles(ctx)
	if err != nil {
		return nil, WrapInternalError(err)
	}
	return roles, nil
}

// Get returns one role.
func (s *RoleService) Get(ctx context.Context, id string) (*auth.Role, error) {
	role, err := s.deps.Store.GetRole(ctx, id)
	if err != nil {
		return nil, FromAuthError(err)
	}
	return role, nil
}

// Create adds a custom role.
func (s *RoleService) Create(ctx context.Context, actor Actor, in auth.RoleInput) (*auth.Role, error) {
	d := s.deps

	role, err := d.Store.CreateRole(ctx, in)
	if err != nil {
		return nil, FromAuthError(err)
	}
	d.audit(constants.AuditActionRoleCreated, actor, roleDetails(role))
	return role, nil
}

// Update replaces a role's fields. Members of the role have their tokens
// revoked by the store.
func (s *RoleService) Update(ctx context.Context, actor Actor, id string, in auth.RoleInput) (*auth.Role, error) {
	d := s.deps

	role, err := d.Store.UpdateRole(ctx, id, in)
	if err != nil {
		return nil, FromAuthError(err)
	}
	d.recheckStreams(ctx)
	d.audit(constants.AuditActionRoleUpdated, actor, roleDetails(role))
	return role, nil
}

// Delete removes a custom role that no user is assigned to.
func (s *RoleService) Delete(ctx context.Context, actor Actor, id string) error {
	d := s.deps

	role, err := d.Store.GetRole(ctx, id)
	if err != nil {
		return FromAuthError(err)
	}
	if err := d.Store.DeleteRole(ctx, id); err != nil {
		return FromAuthError(err)
	}
	d.audit(constants.AuditActionRoleDeleted, actor, roleDetails(role))
	return nil
}

func roleDetails(r *auth.Role) audit.RoleDetails {
	return audit.RoleDetails{
		RoleID:      r.ID,
		Name:        r.Name,
		Permissions: r.Permissions.Stored(),
	}
}
