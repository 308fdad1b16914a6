package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"gamepanel/internal/constants"
)

var (
	usernameRegex  = regexp.MustCompile(constants.AuthUsernameRegex)
	roleColorRegex = regexp.MustCompile(constants.RoleColorRegex)
)

// CredentialSource is the read side of the credential store consulted by the
// permission resolver and the token service. Implementations must read live
// state on every call; caching a user record across requests would let a
// revoked token version keep validating.
type CredentialSource interface {
	GetUser(ctx context.Context, username string) (*UserWithSensitive, error)
	GetRole(ctx context.Context, roleID string) (*Role, error)
}

// Store persists users and roles in the panel database.
type Store struct {
	db         *sql.DB
	bcryptCost int
	now        func() time.Time
}

// NewStore creates a store backed by db. bcryptCost <= 0 selects the default cost.
func NewStore(db *sql.DB, bcryptCost int) *Store {
	if bcryptCost <= 0 {
		bcryptCost = constants.AuthBcryptCost
	}
	return &Store{db: db, bcryptCost: bcryptCost, now: time.Now}
}

// BcryptCost returns the cost used for new password hashes.
func (s *Store) BcryptCost() int {
	return s.bcryptCost
}

// ============================================================================
// Users
// ============================================================================

// GetUser loads a user by username. Returns ErrUserNotFound when absent.
func (s *Store) GetUser(ctx context.Context, username string) (*UserWithSensitive, error) {
	var u UserWithSensitive
	var createdBy sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password_hash, role_id, token_version, created_at, updated_at, created_by, account_id
		FROM users WHERE username = ?
	`, username).Scan(&u.Username, &u.PasswordHash, &u.RoleID, &u.TokenVersion,
		&u.CreatedAt, &u.UpdatedAt, &createdBy, &u.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	u.CreatedBy = createdBy.String
	return &u, nil
}

// ListUsers returns all users without sensitive fields, ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, role_id, token_version, created_at, updated_at, created_by
		FROM users ORDER BY username ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var createdBy sql.NullString
		if err := rows.Scan(&u.Username, &u.RoleID, &u.TokenVersion, &u.CreatedAt, &u.UpdatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.CreatedBy = createdBy.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateUser validates and inserts a new user with token version 0.
// createdBy is empty for bootstrap accounts.
func (s *Store) CreateUser(ctx context.Context, username, password, roleID, createdBy string) (*User, error) {
	if !usernameRegex.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := roleExists(ctx, tx, roleID); err != nil {
		return nil, err
	}

	now := s.now().Unix()
	var creator sql.NullString
	if createdBy != "" {
		creator = sql.NullString{String: createdBy, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role_id, token_version, created_at, updated_at, created_by, account_id)
		VALUES (?, ?, ?, 0, ?, ?, ?, ?)
	`, username, hash, roleID, now, now, creator, uuid.NewString())
	if isUniqueViolation(err) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &User{
		Username:  username,
		RoleID:    roleID,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: createdBy,
	}, nil
}

// VerifyCredentials returns the user when password matches. Unknown users and
// wrong passwords both yield ErrInvalidCredentials after comparable work.
func (s *Store) VerifyCredentials(ctx context.Context, username, password string) (*UserWithSensitive, error) {
	user, err := s.GetUser(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		burnPasswordCheck(password, s.bcryptCost)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SetPassword replaces the password hash and bumps the token version in the
// same statement, so no token issued before the change survives it.
func (s *Store) SetPassword(ctx context.Context, username, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, token_version = token_version + 1, updated_at = ?
		WHERE username = ?
	`, hash, s.now().Unix(), username)
	return expectOneRow(res, err, ErrUserNotFound)
}

// SetRole assigns a new role and bumps the token version.
func (s *Store) SetRole(ctx context.Context, username, roleID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := roleExists(ctx, tx, roleID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE users SET role_id = ?, token_version = token_version + 1, updated_at = ?
		WHERE username = ?
	`, roleID, s.now().Unix(), username)
	if err := expectOneRow(res, err, ErrUserNotFound); err != nil {
		return err
	}
	return tx.Commit()
}

// IncrementTokenVersion invalidates every outstanding token of the user.
func (s *Store) IncrementTokenVersion(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET token_version = token_version + 1, updated_at = ? WHERE username = ?
	`, s.now().Unix(), username)
	return expectOneRow(res, err, ErrUserNotFound)
}

// DeleteUser removes target. An actor may not delete their own account.
func (s *Store) DeleteUser(ctx context.Context, actor, target string) error {
	if actor == target {
		return ErrSelfDelete
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, target)
	return expectOneRow(res, err, ErrUserNotFound)
}

// ValidatePassword enforces the length policy.
func ValidatePassword(password string) error {
	if len(password) < constants.AuthMinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordWeak, constants.AuthMinPasswordLength)
	}
	if len(password) > constants.AuthMaxPasswordLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrPasswordWeak, constants.AuthMaxPasswordLength)
	}
	return nil
}

// ============================================================================
// Roles
// ============================================================================

// roleQuery joins each role with its permissions. A single statement reads
// one WAL snapshot, so a role is never seen with a half-replaced set, and it
// takes no write lock: permission checks must not queue behind writers.
const roleQuery = `
	SELECT r.id, r.name, r.description, r.color, r.is_system, r.created_at, r.updated_at, rp.permission
	FROM roles r LEFT JOIN role_permissions rp ON rp.role_id = r.id
`

// GetRole loads a role and its permission set.
func (s *Store) GetRole(ctx context.Context, roleID string) (*Role, error) {
	rows, err := s.db.QueryContext(ctx, roleQuery+` WHERE r.id = ?`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	roles, err := scanRoles(rows)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, ErrRoleNotFound
	}
	return &roles[0], nil
}

// ListRoles returns every role with its permissions, system roles first.
func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, roleQuery+`
		ORDER BY r.is_system DESC, r.created_at ASC, r.name ASC, r.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return scanRoles(rows)
}

// CreateRole inserts a non-system role with a generated id.
func (s *Store) CreateRole(ctx context.Context, in RoleInput) (*Role, error) {
	if err := validateRoleInput(&in); err != nil {
		return nil, err
	}
	return s.insertRole(ctx, uuid.NewString(), in, false)
}

// UpdateRole replaces a role's fields and permission set in one transaction.
// System roles keep their name, and the administrator role keeps the full set.
func (s *Store) UpdateRole(ctx context.Context, roleID string, in RoleInput) (*Role, error) {
	if err := validateRoleInput(&in); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := scanRole(tx.QueryRowContext(ctx, `
		SELECT id, name, description, color, is_system, created_at, updated_at
		FROM roles WHERE id = ?
	`, roleID))
	if err != nil {
		return nil, err
	}
	if current.IsSystem {
		if in.Name != current.Name {
			return nil, fmt.Errorf("%w: system roles cannot be renamed", ErrSystemRole)
		}
		if current.ID == constants.RoleAdministrator && !ParsePermissionSet(in.Permissions).IsAll() {
			return nil, fmt.Errorf("%w: administrator permissions are fixed", ErrSystemRole)
		}
	}

	now := s.now().Unix()
	_, err = tx.ExecContext(ctx, `
		UPDATE roles SET name = ?, description = ?, color = ?, updated_at = ? WHERE id = ?
	`, in.Name, in.Description, in.Color, now, roleID)
	if isUniqueViolation(err) {
		return nil, ErrRoleExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if err := replacePermissions(ctx, tx, roleID, in.Permissions); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	current.Name = in.Name
	current.Description = in.Description
	current.Color = in.Color
	current.Permissions = ParsePermissionSet(in.Permissions)
	current.UpdatedAt = now
	return current, nil
}

// DeleteRole removes a non-system role that no user references.
func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var isSystem bool
	err = tx.QueryRowContext(ctx, `SELECT is_system FROM roles WHERE id = ?`, roleID).Scan(&isSystem)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoleNotFound
	}
	if err != nil {
		return err
	}
	if isSystem {
		return ErrSystemRole
	}

	var users int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role_id = ?`, roleID).Scan(&users); err != nil {
		return err
	}
	if users > 0 {
		return ErrRoleInUse
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = ?`, roleID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, roleID); err != nil {
		return err
	}
	return tx.Commit()
}

// EnsureSystemRole creates a built-in role with its default permissions if it
// does not exist yet. Existing system roles are left as administrators edited them.
func (s *Store) EnsureSystemRole(ctx context.Context, id string, in RoleInput) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists > 0 {
		return false, nil
	}
	if _, err := s.insertRole(ctx, id, in, true); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) insertRole(ctx context.Context, id string, in RoleInput, system bool) (*Role, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := s.now().Unix()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO roles (id, name, description, color, is_system, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, in.Name, in.Description, in.Color, system, now, now)
	if isUniqueViolation(err) {
		return nil, ErrRoleExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	if err := replacePermissions(ctx, tx, id, in.Permissions); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Role{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		IsSystem:    system,
		Permissions: ParsePermissionSet(in.Permissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func validateRoleInput(in *RoleInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || len(in.Name) > constants.RoleNameMaxLength {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrRoleInvalid, constants.RoleNameMaxLength)
	}
	if len(in.Description) > constants.RoleDescMaxLength {
		return fmt.Errorf("%w: description too long", ErrRoleInvalid)
	}
	if in.Color == "" {
		in.Color = constants.DefaultRoleColor
	}
	if !roleColorRegex.MatchString(in.Color) {
		return fmt.Errorf("%w: color must be #rrggbb", ErrRoleInvalid)
	}
	return ValidatePermissions(in.Permissions)
}

// ============================================================================
// Helpers
// ============================================================================

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func scanRole(row *sql.Row) (*Role, error) {
	var r Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Color, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return &r, nil
}

// scanRoles folds roleQuery rows into roles, keeping row order. Rows of one
// role are contiguous.
func scanRoles(rows *sql.Rows) ([]Role, error) {
	defer rows.Close()

	var roles []Role
	var perms [][]string
	for rows.Next() {
		var r Role
		var perm sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Color, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt, &perm); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if n := len(roles); n == 0 || roles[n-1].ID != r.ID {
			roles = append(roles, r)
			perms = append(perms, nil)
		}
		if perm.Valid {
			perms[len(perms)-1] = append(perms[len(perms)-1], perm.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range roles {
		roles[i].Permissions = ParsePermissionSet(perms[i])
	}
	return roles, nil
}

func replacePermissions(ctx context.Context, tx *sql.Tx, roleID string, perms []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = ?`, roleID); err != nil {
		return fmt.Errorf("failed to clear permissions: %w", err)
	}
	for _, p := range ParsePermissionSet(perms).Stored() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO role_permissions (role_id, permission) VALUES (?, ?)
		`, roleID, p); err != nil {
			return fmt.Errorf("failed to store permission: %w", err)
		}
	}
	return nil
}

func roleExists(ctx context.Context, q queryer, roleID string) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles WHERE id = ?`, roleID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func expectOneRow(res sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
