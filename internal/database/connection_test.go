package database

import (
	"path/filepath"
	"testing"

	"gamepanel/internal/constants"
)

func TestInitPanelDB(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	db, err := InitPanelDB(dir)
	if err != nil {
		t.Fatalf("InitPanelDB failed: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"roles", "role_permissions", "users", "audit_log"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Errorf("expected user_version %d, got %d", SchemaVersion, version)
	}
}

func TestInitPanelDBReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), constants.CredentialsDB)

	db, err := InitPanelDBAt(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO roles (id, name, created_at, updated_at) VALUES ('r', 'R', 1, 1)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = InitPanelDBAt(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	var n int
	db.QueryRow("SELECT COUNT(*) FROM roles").Scan(&n)
	if n != 1 {
		t.Errorf("expected data to survive reopen, got %d roles", n)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := InitPanelDBAt(filepath.Join(t.TempDir(), constants.CredentialsDB))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	_, err = db.Exec(`INSERT INTO users (username, password_hash, role_id, created_at, updated_at)
		VALUES ('ghost', 'x', 'no-such-role', 1, 1)`)
	if err == nil {
		t.Error("user with unknown role accepted")
	}
}

func TestMigrateFromVersion1(t *testing.T) {
	path := filepath.Join(t.TempDir(), constants.CredentialsDB)

	old, err := OpenDatabase(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		`CREATE TABLE roles (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE, description TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '#808080', is_system INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL, updated_at INTEGER NOT NULL)`,
		`CREATE TABLE users (username TEXT PRIMARY KEY, password_hash TEXT NOT NULL, role_id TEXT NOT NULL,
			token_version INTEGER NOT NULL DEFAULT 0, created_at INTEGER NOT NULL, updated_at INTEGER NOT NULL,
			created_by TEXT, FOREIGN KEY (role_id) REFERENCES roles(id))`,
		`INSERT INTO roles (id, name, created_at, updated_at) VALUES ('viewer', 'Viewer', 1, 1)`,
		`INSERT INTO users (username, password_hash, role_id, created_at, updated_at) VALUES ('alice', 'x', 'viewer', 1, 1)`,
		`INSERT INTO users (username, password_hash, role_id, created_at, updated_at) VALUES ('bob', 'x', 'viewer', 1, 1)`,
		`PRAGMA user_version = 1`,
	} {
		if _, err := old.Exec(stmt); err != nil {
			t.Fatalf("seeding v1 database: %v", err)
		}
	}
	old.Close()

	db, err := InitPanelDBAt(path)
	if err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	defer db.Close()

	ids := map[string]bool{}
	rows, err := db.Query(`SELECT account_id FROM users`)
	if err != nil {
		t.Fatalf("account_id missing after migration: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		rows.Scan(&id)
		if len(id) != 32 {
			t.Errorf("account id not backfilled: %q", id)
		}
		ids[id] = true
	}
	if len(ids) != 2 {
		t.Errorf("expected two distinct account ids, got %v", ids)
	}

	var version int
	db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != SchemaVersion {
		t.Errorf("expected user_version %d, got %d", SchemaVersion, version)
	}
}
