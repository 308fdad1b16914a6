package auth

import (
	"context"
	"fmt"

	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
)

// SystemRoles are the built-in roles seeded on first start. Administrators
// may edit the permissions of all but the administrator role; none can be
// deleted or renamed.
var SystemRoles = []struct {
	ID    string
	Input RoleInput
}{
	{constants.RoleAdministrator, RoleInput{
		Name:        "Administrator",
		Description: "Full access to every panel feature",
		Color:       "#e74c3c",
		Permissions: []string{constants.PermissionWildcard},
	}},
	{constants.RoleModerator, RoleInput{
		Name:        "Moderator",
		Description: "Runs console commands and reviews activity",
		Color:       "#9b59b6",
		Permissions: []string{
			constants.PermConsoleView,
			constants.PermConsoleExecute,
			constants.PermServerView,
			constants.PermFilesView,
			constants.PermFilesSearch,
			constants.PermModsView,
			constants.PermBackupsView,
			constants.PermSchedulerView,
			constants.PermUsersView,
			constants.PermAuditView,
		},
	}},
	{constants.RoleOperator, RoleInput{
		Name:        "Operator",
		Description: "Operates the server, its files, mods and backups",
		Color:       "#3498db",
		Permissions: []string{
			constants.PermConsoleView,
			constants.PermConsoleExecute,
			constants.PermServerView,
			constants.PermServerControl,
			constants.PermFilesView,
			constants.PermFilesEdit,
			constants.PermFilesUpload,
			constants.PermFilesDelete,
			constants.PermFilesSearch,
			constants.PermModsView,
			constants.PermModsManage,
			constants.PermBackupsView,
			constants.PermBackupsCreate,
			constants.PermBackupsRestore,
			constants.PermSchedulerView,
			constants.PermSchedulerManage,
		},
	}},
	{constants.RoleViewer, RoleInput{
		Name:        "Viewer",
		Description: "Read-only access",
		Color:       constants.DefaultRoleColor,
		Permissions: []string{
			constants.PermConsoleView,
			constants.PermServerView,
			constants.PermFilesView,
			constants.PermModsView,
			constants.PermBackupsView,
			constants.PermSchedulerView,
		},
	}},
}

// BootstrapResult contains the credentials generated during bootstrap.
// These are shown once and never again.
type BootstrapResult struct {
	Username  string
	Password  string
	Generated bool
}

// Bootstrap seeds the system roles and, if no users exist, creates the
// initial administrator. initialPassword may be empty, in which case one is
// generated. Returns nil when users already exist.
func Bootstrap(ctx context.Context, store *Store, initialPassword string, log *logger.Logger) (*BootstrapResult, error) {
	for _, sr := range SystemRoles {
		created, err := store.EnsureSystemRole(ctx, sr.ID, sr.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to seed role %s: %w", sr.ID, err)
		}
		if created {
			log.Info("Auth: seeded system role '%s'", sr.ID)
		}
	}

	count, err := store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check user count: %w", err)
	}
	if count > 0 {
		log.Debug("Auth: %d user(s) exist, skipping bootstrap", count)
		return nil, nil
	}

	log.Info("Auth: no users found, bootstrapping admin account...")

	if err := CheckInitialPassword(initialPassword); err != nil {
		return nil, err
	}
	password := initialPassword
	generated := false
	if password == "" {
		password, err = GeneratePassword()
		if err != nil {
			return nil, err
		}
		generated = true
	}

	if _, err := store.CreateUser(ctx, constants.AuthBootstrapUsername, password, constants.RoleAdministrator, ""); err != nil {
		return nil, fmt.Errorf("failed to create bootstrap user: %w", err)
	}
	log.Info("Auth: bootstrap user '%s' created with the administrator role", constants.AuthBootstrapUsername)

	return &BootstrapResult{
		Username:  constants.AuthBootstrapUsername,
		Password:  password,
		Generated: generated,
	}, nil
}
