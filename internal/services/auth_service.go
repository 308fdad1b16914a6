package services

import (
	"context"
	"errors"

	"gamepanel/internal/audit"
	"gamepanel/internal/auth"
	"gamepanel/internal/constants"
)

// AuthService handles login, token refresh, logout, ticket issuance and
// per-route authorization.
type AuthService struct {
	deps *Deps
}

// LoginResult is returned by Login.
type LoginResult struct {
	*auth.TokenPair
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Profile describes the calling user.
type Profile struct {
	Username    string     `json:"username"`
	Role        *auth.Role `json:"role"`
	Permissions []string   `json:"permissions"`
	CreatedAt   int64      `json:"created_at"`
}

// TicketResult is returned by IssueTicket. ExpiresIn is in seconds.
type TicketResult struct {
	Ticket    string `json:"ticket"`
	ExpiresIn int    `json:"expiresIn"`
}

// ============================================================================
// Authentication
// ============================================================================

// Login verifies credentials and issues an access/refresh token pair.
// Every failure returns ErrAuthInvalidCredentials, whether or not the
// username exists.
func (s *AuthService) Login(ctx context.Context, username, password string, actor Actor) (*LoginResult, error) {
	d := s.deps
	actor.Username = username

	user, err := d.Store.VerifyCredentials(ctx, username, password)
	if err != nil {
		d.Metrics.Login(false)
		reason := constants.ErrCodeAuthInvalidCredentials
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			reason = constants.ErrCodeInternalError
			d.Logger.Error("Auth: credential check failed for %s: %v", username, err)
		}
		d.Logger.Info("Auth: login failed for %s from %s", username, actor.IP)
		d.audit(constants.AuditActionLoginFailed, actor, audit.LoginFailedDetails{
			AttemptedUsername: username,
			Reason:            reason,
			UserAgent:         actor.UserAgent,
		})
		return nil, ErrAuthInvalidCredentials
	}

	pair, err := d.Tokens.IssuePair(ctx, user.Username)
	if err != nil {
		return nil, WrapInternalError(err)
	}
	perms, err := d.Resolver.ListPermissions(ctx, user.Username)
	if err != nil {
		return nil, WrapInternalError(err)
	}

	d.Metrics.Login(true)
	d.Logger.Info("Auth: %s logged in from %s", user.Username, actor.IP)
	d.audit(constants.AuditActionLoginSuccess, actor, audit.LoginSuccessDetails{UserAgent: actor.UserAgent})

	return &LoginResult{
		TokenPair:   pair,
		Username:    user.Username,
		Role:        user.RoleID,
		Permissions: perms,
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, actor Actor) (*auth.TokenPair, error) {
	d := s.deps

	identity, err := d.Tokens.Validate(ctx, refreshToken, constants.TokenKindRefresh)
	if err != nil {
		return nil, ErrAuthInvalidToken
	}

	pair, err := d.Tokens.IssuePair(ctx, identity.Username)
	if err != nil {
		return nil, FromAuthError(err)
	}

	actor.Username = identity.Username
	d.audit(constants.AuditActionTokenRefresh, actor, nil)
	return pair, nil
}

// Logout revokes every token issued to the actor so far.
func (s *AuthService) Logout(ctx context.Context, actor Actor) error {
	d := s.deps
	if err := d.Tokens.InvalidateAll(ctx, actor.Username); err != nil {
		return FromAuthError(err)
	}
	d.dropStreams(actor.Username)
	d.Logger.Info("Auth: %s logged out, all tokens revoked", actor.Username)
	d.audit(constants.AuditActionLogout, actor, audit.LogoutDetails{})
	return nil
}

// Me returns the caller's profile with the effective permission list.
func (s *AuthService) Me(ctx context.Context, username string) (*Profile, error) {
	d := s.deps

	user, err := d.Store.GetUser(ctx, username)
	if err != nil {
		return nil, FromAuthError(err)
	}
	role, err := d.Resolver.RoleOf(ctx, username)
	if err != nil {
		return nil, FromAuthError(err)
	}
	perms, err := d.Resolver.ListPermissions(ctx, username)
	if err != nil {
		return nil, FromAuthError(err)
	}

	return &Profile{
		Username:    user.Username,
		Role:        role,
		Permissions: perms,
		CreatedAt:   user.CreatedAt,
	}, nil
}

// ChangeOwnPassword replaces the actor's password after re-checking the
// current one. All existing tokens die with the old password; a fresh pair
// is returned so the caller's session continues.
func (s *AuthService) ChangeOwnPassword(ctx context.Context, actor Actor, current, next string) (*auth.TokenPair, error) {
	d := s.deps

	if _, err := d.Store.VerifyCredentials(ctx, actor.Username, current); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, WrapInternalError(err)
	}
	if err := d.Store.SetPassword(ctx, actor.Username, next); err != nil {
		return nil, FromAuthError(err)
	}

	d.dropStreams(actor.Username)
	d.audit(constants.AuditActionPasswordChanged, actor, audit.UserTargetDetails{TargetUsername: actor.Username})

	pair, err := d.Tokens.IssuePair(ctx, actor.Username)
	if err != nil {
		return nil, FromAuthError(err)
	}
	return pair, nil
}

// ============================================================================
// Authorization
// ============================================================================

// Authorize checks that actor holds permission. Denials are audited with the
// requested path and returned as ErrAuthForbidden.
func (s *AuthService) Authorize(ctx context.Context, actor Actor, permission, path string) error {
	d := s.deps
	if d.Resolver.Check(ctx, actor.Username, permission) {
		return nil
	}
	d.audit(constants.AuditActionPermissionDenied, actor, audit.PermissionDeniedDetails{
		Permission: permission,
		Path:       path,
	})
	return ErrAuthForbidden
}

// ============================================================================
// Streaming tickets
// ============================================================================

// IssueTicket issues a single-use streaming ticket bound to the actor.
// The caller must already hold console.view.
func (s *AuthService) IssueTicket(ctx context.Context, actor Actor) (*TicketResult, error) {
	d := s.deps

	ticket, err := d.Tickets.Issue(actor.Username)
	if err != nil {
		return nil, FromAuthError(err)
	}

	d.audit(constants.AuditActionTicketIssued, actor, audit.TicketIssuedDetails{
		TicketPrefix: auth.LogPrefix(ticket.ID),
		ExpiresAt:    ticket.ExpiresAt.Unix(),
	})

	return &TicketResult{
		Ticket:    ticket.ID,
		ExpiresIn: int(ticket.TTL().Seconds()),
	}, nil
}

// RedeemTicket consumes a ticket for the given stream and returns the bound
// username. The user must still hold console.view at redemption time.
func (s *AuthService) RedeemTicket(ctx context.Context, id, stream string, actor Actor) (string, error) {
	d := s.deps

	username, err := d.Tickets.Redeem(id)
	if err != nil {
		d.Logger.Debug("Auth: ticket redemption failed from %s", actor.IP)
		return "", ErrAuthInvalidTicket
	}

	actor.Username = username
	if !d.Resolver.Check(ctx, username, constants.PermConsoleView) {
		d.audit(constants.AuditActionPermissionDenied, actor, audit.PermissionDeniedDetails{
			Permission: constants.PermConsoleView,
			Path:       stream,
		})
		return "", ErrAuthForbidden
	}

	d.audit(constants.AuditActionStreamConnected, actor, audit.StreamConnectedDetails{Stream: stream})
	return username, nil
}
