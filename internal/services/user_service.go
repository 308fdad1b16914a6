package services

import (
	"context"

	"gamepanel/internal/audit"
	"gamepanel/internal/auth"
	"gamepanel/internal/constants"
)

// UserService manages panel accounts. Callers must hold users.view for
// List and users.manage for everything else.
type UserService struct {
	deps *Deps
}

// List returns every account, ordered by username.
func (s *UserService) List(ctx context.Context) ([]auth.User, error) {
	users, err := s.deps.Store.ListUsers(ctx)
	if err != nil {
		return nil, WrapInternalError(err)
	}
	return users, nil
}

// Create adds an account with the given role.
func (s *UserService) Create(ctx context.Context, actor Actor, username, password, roleID string) (*auth.User, error) {
	d := s.deps

	user, err := d.Store.CreateUser(ctx, username, password, roleID, actor.Username)
	if err != nil {
		return nil, FromAuthError(err)
	}

	d.Logger.Info("Auth: %s created user %s (role %s)", actor.Username, user.Username, user.RoleID)
	d.audit(constants.AuditActionUserCreated, actor, audit.UserCreatedDetails{
		CreatedUsername: user.Username,
		RoleID:          user.RoleID,
	})
	return user, nil
}

// SetRole moves a user to another role. The user's tokens are revoked by the
// store so the new permission set applies immediately.
func (s *UserService) SetRole(ctx context.Context, actor Actor, username, roleID string) error {
	d := s.deps

	current, err := d.Store.GetUser(ctx, username)
	if err != nil {
		return FromAuthError(err)
	}
	if err := d.Store.SetRole(ctx, username, roleID); err != nil {
		return FromAuthError(err)
	}

	d.dropStreams(username)
	d.audit(constants.AuditActionRoleChanged, actor, audit.RoleChangedDetails{
		TargetUsername: username,
		OldRoleID:      current.RoleID,
		NewRoleID:      roleID,
	})
	return nil
}

// SetPassword resets another user's password. All of their tokens are revoked.
func (s *UserService) SetPassword(ctx context.Context, actor Actor, username, password string) error {
	d := s.deps

	if err := d.Store.SetPassword(ctx, username, password); err != nil {
		return FromAuthError(err)
	}
	d.dropStreams(username)
	d.audit(constants.AuditActionPasswordChanged, actor, audit.UserTargetDetails{TargetUsername: username})
	return nil
}

// Delete removes an account. Users cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor Actor, username string) error {
	d := s.deps

	if err := d.Store.DeleteUser(ctx, actor.Username, username); err != nil {
		return FromAuthError(err)
	}
	d.Logger.Info("Auth: %s deleted user %s", actor.Username, username)
	d.dropStreams(username)
	d.audit(constants.AuditActionUserDeleted, actor, audit.UserTargetDetails{TargetUsername: username})
	return nil
}
