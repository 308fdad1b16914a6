package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"gamepanel/internal/constants"
)

// OpenDatabase opens a SQLite database at the given path and applies pragmas.
// _txlock=immediate makes BEGIN take the write lock up front, so the
// read-check-write sequences in the credential store serialize instead of
// failing with SQLITE_BUSY on upgrade. Busy timeout and foreign keys are
// per-connection settings and therefore go in the DSN.
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate&_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, err
	}

	if err := ApplyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// InitPanelDB opens or creates the panel database under dataDir and applies the schema.
func InitPanelDB(dataDir string) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, constants.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return InitPanelDBAt(filepath.Join(dataDir, constants.CredentialsDB))
}

// InitPanelDBAt opens or creates the panel database at an explicit path.
func InitPanelDBAt(path string) (*sql.DB, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(GetPanelSchema()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if err := migratePanelDB(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// migratePanelDB applies forward-compatible migrations to existing databases.
// Each migration is idempotent.
func migratePanelDB(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= SchemaVersion {
		return nil
	}

	// v2: per-account nonce bound into tokens
	has, err := hasColumn(db, "users", "account_id")
	if err != nil {
		return err
	}
	if !has {
		if _, err := db.Exec(`ALTER TABLE users ADD COLUMN account_id TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("failed to add users.account_id: %w", err)
		}
	}
	if _, err := db.Exec(`UPDATE users SET account_id = lower(hex(randomblob(16))) WHERE account_id = ''`); err != nil {
		return fmt.Errorf("failed to backfill users.account_id: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion))
	return err
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
