package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"gamepanel/internal/constants"
)

// QueryOptions for filtering audit logs
type QueryOptions struct {
	Limit              int
	Offset             int
	Action             string
	IPAddress          string
	Username           string // Filter by specific username
	Since              int64  // Unix timestamp
	Until              int64  // Unix timestamp
	Filter             string // "me" | "others" | ""
	RequestingUsername string // Username of the requesting client (used with Filter)
}

// IsValidFilter checks if a filter value is valid
func IsValidFilter(filter string) bool {
	return filter == constants.AuditFilterMe ||
		filter == constants.AuditFilterOthers ||
		filter == constants.AuditFilterAll
}

// where builds the shared WHERE clause for Query and Count.
func (opts QueryOptions) where() (string, []interface{}) {
	var conds []string
	var args []interface{}

	if opts.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, opts.Action)
	}
	if opts.Username != "" {
		conds = append(conds, "username = ?")
		args = append(args, opts.Username)
	}
	if opts.IPAddress != "" {
		conds = append(conds, "ip_address = ?")
		args = append(args, opts.IPAddress)
	}

	// Apply ME/OTHERS filter using username
	if opts.RequestingUsername != "" {
		switch opts.Filter {
		case constants.AuditFilterMe:
			conds = append(conds, "username = ?")
			args = append(args, opts.RequestingUsername)
		case constants.AuditFilterOthers:
			conds = append(conds, "username != ?")
			args = append(args, opts.RequestingUsername)
		}
	}

	if opts.Since > 0 {
		conds = append(conds, "timestamp >= ?")
		args = append(args, opts.Since)
	}
	if opts.Until > 0 {
		conds = append(conds, "timestamp <= ?")
		args = append(args, opts.Until)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Query retrieves audit log entries with filters, newest first
func Query(db *sql.DB, opts QueryOptions) ([]Entry, error) {
	// Apply defaults and limits
	if opts.Limit <= 0 {
		opts.Limit = constants.AuditDefaultQueryLimit
	}
	if opts.Limit > constants.AuditMaxQueryLimit {
		opts.Limit = constants.AuditMaxQueryLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	where, args := opts.where()
	query := `SELECT id, timestamp, action, ip_address, username, details_json
              FROM audit_log` + where + " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

// GetEntry retrieves a single audit entry by ID. Returns nil when absent.
func GetEntry(db *sql.DB, id int64) (*Entry, error) {
	row := db.QueryRow(`
		SELECT id, timestamp, action, ip_address, username, details_json
		FROM audit_log WHERE id = ?
	`, id)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entry, err
}

// Count returns total number of audit entries matching filters
func Count(db *sql.DB, opts QueryOptions) (int64, error) {
	where, args := opts.where()

	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM audit_log`+where, args...).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var detailsJSON sql.NullString

	if err := row.Scan(&entry.ID, &entry.Timestamp, &entry.Action,
		&entry.IPAddress, &entry.Username, &detailsJSON); err != nil {
		return nil, err
	}

	if detailsJSON.Valid {
		var details interface{}
		if err := json.Unmarshal([]byte(detailsJSON.String), &details); err == nil {
			entry.Details = details
		}
	}
	return &entry, nil
}
