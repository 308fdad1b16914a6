package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"gamepanel/internal/constants"
	"gamepanel/internal/database"
	"gamepanel/internal/logger"
)

func emptyStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.InitPanelDBAt(filepath.Join(t.TempDir(), constants.CredentialsDB))
	if err != nil {
		t.Fatalf("failed to init panel db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, bcrypt.MinCost)
}

func TestBootstrapGeneratesAdmin(t *testing.T) {
	store := emptyStore(t)
	ctx := context.Background()

	result, err := Bootstrap(ctx, store, "", logger.NewDiscard())
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if result == nil || !result.Generated || result.Username != constants.AuthBootstrapUsername {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := store.VerifyCredentials(ctx, result.Username, result.Password); err != nil {
		t.Errorf("generated credentials do not work: %v", err)
	}

	r := NewResolver(store, logger.NewDiscard(), nil)
	if !r.Check(ctx, result.Username, constants.PermRolesManage) {
		t.Error("bootstrap admin lacks full permissions")
	}

	roles, _ := store.ListRoles(ctx)
	if len(roles) != len(SystemRoles) {
		t.Errorf("expected %d system roles, got %d", len(SystemRoles), len(roles))
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	store := emptyStore(t)
	ctx := context.Background()

	if _, err := Bootstrap(ctx, store, "", logger.NewDiscard()); err != nil {
		t.Fatalf("first Bootstrap failed: %v", err)
	}
	result, err := Bootstrap(ctx, store, "", logger.NewDiscard())
	if err != nil {
		t.Fatalf("second Bootstrap failed: %v", err)
	}
	if result != nil {
		t.Error("second bootstrap created credentials")
	}
	if n, _ := store.CountUsers(ctx); n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestBootstrapConfiguredPassword(t *testing.T) {
	store := emptyStore(t)
	ctx := context.Background()

	if _, err := Bootstrap(ctx, store, "admin", logger.NewDiscard()); !errors.Is(err, ErrConfigurationInsecure) {
		t.Fatalf("default password accepted: %v", err)
	}

	result, err := Bootstrap(ctx, store, "a-reasonable-passphrase", logger.NewDiscard())
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if result.Generated || result.Password != "a-reasonable-passphrase" {
		t.Errorf("unexpected result %+v", result)
	}
}
