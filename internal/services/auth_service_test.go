package services

import (
	"context"
	"testing"

	"gamepanel/internal/auth"
	"gamepanel/internal/constants"
)

func TestLogin(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	res, err := env.svc.Auth.Login(ctx, "alice", testPassword, actor(""))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("token pair missing")
	}
	if res.Role != constants.RoleAdministrator {
		t.Errorf("expected administrator, got %s", res.Role)
	}
	if len(res.Permissions) != len(constants.AllPermissions) {
		t.Errorf("administrator should hold every permission, got %v", res.Permissions)
	}
	env.requireAudited(t, constants.AuditActionLoginSuccess)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	_, wrongPass := env.svc.Auth.Login(ctx, "alice", "not-the-password", actor(""))
	_, noUser := env.svc.Auth.Login(ctx, "mallory", testPassword, actor(""))

	requireCode(t, wrongPass, constants.ErrCodeAuthInvalidCredentials)
	requireCode(t, noUser, constants.ErrCodeAuthInvalidCredentials)
	if wrongPass.Error() != noUser.Error() {
		t.Errorf("failures differ: %q vs %q", wrongPass, noUser)
	}

	failed := 0
	for _, a := range env.auditActions(t) {
		if a == constants.AuditActionLoginFailed {
			failed++
		}
	}
	if failed != 2 {
		t.Errorf("expected 2 login_failed entries, got %d", failed)
	}
}

func TestRefresh(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	res, err := env.svc.Auth.Login(ctx, "bob", testPassword, actor(""))
	if err != nil {
		t.Fatal(err)
	}

	pair, err := env.svc.Auth.Refresh(ctx, res.RefreshToken, actor(""))
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := env.deps.Tokens.Validate(ctx, pair.AccessToken, constants.TokenKindAccess); err != nil {
		t.Errorf("refreshed access token invalid: %v", err)
	}

	_, err = env.svc.Auth.Refresh(ctx, res.AccessToken, actor(""))
	requireCode(t, err, constants.ErrCodeAuthInvalidToken)
	env.requireAudited(t, constants.AuditActionTokenRefresh)
}

func TestLogoutRevokesTokens(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	res, err := env.svc.Auth.Login(ctx, "bob", testPassword, actor(""))
	if err != nil {
		t.Fatal(err)
	}
	if err := env.svc.Auth.Logout(ctx, actor("bob")); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := env.deps.Tokens.Validate(ctx, res.AccessToken, constants.TokenKindAccess); err == nil {
		t.Error("access token survived logout")
	}
	if _, err := env.svc.Auth.Refresh(ctx, res.RefreshToken, actor("")); err == nil {
		t.Error("refresh token survived logout")
	}
	env.requireAudited(t, constants.AuditActionLogout)
}

func TestMe(t *testing.T) {
	env := setupServices(t)

	p, err := env.svc.Auth.Me(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if p.Username != "bob" || p.Role == nil || p.Role.ID != constants.RoleViewer {
		t.Errorf("unexpected profile %+v", p)
	}
	for _, perm := range p.Permissions {
		if perm == constants.PermConsoleExecute {
			t.Error("viewer should not hold console.execute")
		}
	}

	_, err = env.svc.Auth.Me(context.Background(), "ghost")
	requireCode(t, err, constants.ErrCodeUserNotFound)
}

func TestChangeOwnPassword(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	old, err := env.svc.Auth.Login(ctx, "bob", testPassword, actor(""))
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.svc.Auth.ChangeOwnPassword(ctx, actor("bob"), "wrong-current-pass", "another-long-password")
	requireCode(t, err, constants.ErrCodeAuthInvalidCredentials)

	_, err = env.svc.Auth.ChangeOwnPassword(ctx, actor("bob"), testPassword, "short")
	requireCode(t, err, constants.ErrCodePasswordWeak)

	pair, err := env.svc.Auth.ChangeOwnPassword(ctx, actor("bob"), testPassword, "another-long-password")
	if err != nil {
		t.Fatalf("ChangeOwnPassword failed: %v", err)
	}
	if _, err := env.deps.Tokens.Validate(ctx, old.AccessToken, constants.TokenKindAccess); err == nil {
		t.Error("old token survived password change")
	}
	if _, err := env.deps.Tokens.Validate(ctx, pair.AccessToken, constants.TokenKindAccess); err != nil {
		t.Errorf("new token rejected: %v", err)
	}
	if _, err := env.svc.Auth.Login(ctx, "bob", "another-long-password", actor("")); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	env.requireAudited(t, constants.AuditActionPasswordChanged)
}

func TestAuthorize(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	if err := env.svc.Auth.Authorize(ctx, actor("bob"), constants.PermConsoleView, "/api/console"); err != nil {
		t.Errorf("viewer denied console.view: %v", err)
	}
	err := env.svc.Auth.Authorize(ctx, actor("bob"), constants.PermConsoleExecute, "/api/console/command")
	requireCode(t, err, constants.ErrCodeAuthForbidden)

	// Unknown users fail closed.
	err = env.svc.Auth.Authorize(ctx, actor("ghost"), constants.PermConsoleView, "/api/console")
	requireCode(t, err, constants.ErrCodeAuthForbidden)

	env.requireAudited(t, constants.AuditActionPermissionDenied)
}

func TestTicketRoundTrip(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	res, err := env.svc.Auth.IssueTicket(ctx, actor("bob"))
	if err != nil {
		t.Fatalf("IssueTicket failed: %v", err)
	}
	if res.Ticket == "" || res.ExpiresIn != int(constants.TicketTTL.Seconds()) {
		t.Fatalf("unexpected ticket %+v", res)
	}

	username, err := env.svc.Auth.RedeemTicket(ctx, res.Ticket, "console", actor(""))
	if err != nil {
		t.Fatalf("RedeemTicket failed: %v", err)
	}
	if username != "bob" {
		t.Errorf("ticket bound to %q, want bob", username)
	}

	_, err = env.svc.Auth.RedeemTicket(ctx, res.Ticket, "console", actor(""))
	requireCode(t, err, constants.ErrCodeAuthInvalidTicket)

	env.requireAudited(t, constants.AuditActionTicketIssued)
	env.requireAudited(t, constants.AuditActionStreamConnected)
}

func TestRedeemTicketRechecksPermission(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	res, err := env.svc.Auth.IssueTicket(ctx, actor("bob"))
	if err != nil {
		t.Fatal(err)
	}

	// Strip console.view between issue and redemption.
	_, err = env.deps.Store.UpdateRole(ctx, constants.RoleViewer, auth.RoleInput{
		Name:        "Viewer",
		Color:       constants.DefaultRoleColor,
		Permissions: []string{constants.PermServerView},
	})
	if err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}

	_, err = env.svc.Auth.RedeemTicket(ctx, res.Ticket, "console", actor(""))
	requireCode(t, err, constants.ErrCodeAuthForbidden)
}

func TestRedeemUnknownTicket(t *testing.T) {
	env := setupServices(t)
	_, err := env.svc.Auth.RedeemTicket(context.Background(), "deadbeef", "console", actor(""))
	requireCode(t, err, constants.ErrCodeAuthInvalidTicket)
}
