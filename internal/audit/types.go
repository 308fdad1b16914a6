package audit

import (
	"gamepanel/internal/constants"
)

// Entry represents a single audit log entry
type Entry struct {
	ID        int64       `json:"id"`
	Timestamp int64       `json:"timestamp"`
	Action    string      `json:"action"`
	IPAddress string      `json:"ip_address"`
	Username  string      `json:"username"`
	Details   interface{} `json:"details,omitempty"`
}

// =============================================================================
// Detail Structs — Authentication
// =============================================================================

// LoginSuccessDetails holds details for login_success action
type LoginSuccessDetails struct {
	UserAgent string `json:"user_agent"`
}

// LoginFailedDetails holds details for login_failed action
type LoginFailedDetails struct {
	AttemptedUsername string `json:"attempted_username"`
	Reason            string `json:"reason"`
	UserAgent         string `json:"user_agent"`
}

// LogoutDetails holds details for logout action
type LogoutDetails struct{}

// PermissionDeniedDetails holds details for permission_denied action
type PermissionDeniedDetails struct {
	Permission string `json:"permission"`
	Path       string `json:"path"`
}

// =============================================================================
// Detail Structs — Users and Roles
// =============================================================================

// UserCreatedDetails holds details for user_created action
type UserCreatedDetails struct {
	CreatedUsername string `json:"created_username"`
	RoleID          string `json:"role_id"`
}

// UserTargetDetails holds details for user_deleted and password_changed actions
type UserTargetDetails struct {
	TargetUsername string `json:"target_username"`
}

// RoleChangedDetails holds details for role_changed action
type RoleChangedDetails struct {
	TargetUsername string `json:"target_username"`
	OldRoleID      string `json:"old_role_id"`
	NewRoleID      string `json:"new_role_id"`
}

// RoleDetails holds details for role_created, role_updated and role_deleted actions
type RoleDetails struct {
	RoleID      string   `json:"role_id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
}

// =============================================================================
// Detail Structs — Streaming, Console and Files
// =============================================================================

// TicketIssuedDetails holds details for ticket_issued action.
// Only a short prefix of the ticket id is ever recorded.
type TicketIssuedDetails struct {
	TicketPrefix string `json:"ticket_prefix"`
	ExpiresAt    int64  `json:"expires_at"`
}

// StreamConnectedDetails holds details for stream_connected action
type StreamConnectedDetails struct {
	Stream string `json:"stream"`
}

// CommandExecutedDetails holds details for command_executed action
type CommandExecutedDetails struct {
	Verb    string `json:"verb"`
	Success bool   `json:"success"`
}

// InputRejectedDetails holds details for input_rejected action.
// The rejected payload itself is never stored.
type InputRejectedDetails struct {
	Guard string `json:"guard"`
	Rule  string `json:"rule"`
}

// FileDetails holds details for file_uploaded and file_deleted actions
type FileDetails struct {
	Path string `json:"path"`
	Size int64  `json:"size,omitempty"`
}

// =============================================================================
// Validation
// =============================================================================

// ValidActions returns all valid audit action types
func ValidActions() []string {
	return constants.AllAuditActions
}

// IsValidAction checks if an action type is valid
func IsValidAction(action string) bool {
	for _, valid := range ValidActions() {
		if action == valid {
			return true
		}
	}
	return false
}
