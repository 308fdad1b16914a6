package constants

// Audit Log Action Types — Authentication
const (
	AuditActionLoginSuccess     = "login_success"
	AuditActionLoginFailed      = "login_failed"
	AuditActionLogout           = "logout"
	AuditActionTokenRefresh     = "token_refresh"
	AuditActionPermissionDenied = "permission_denied"
)

// Audit Log Action Types — Users and roles
const (
	AuditActionUserCreated     = "user_created"
	AuditActionUserDeleted     = "user_deleted"
	AuditActionPasswordChanged = "password_changed"
	AuditActionRoleChanged     = "role_changed"
	AuditActionRoleCreated     = "role_created"
	AuditActionRoleUpdated     = "role_updated"
	AuditActionRoleDeleted     = "role_deleted"
)

// Audit Log Action Types — Streaming, console and input guards
const (
	AuditActionTicketIssued    = "ticket_issued"
	AuditActionStreamConnected = "stream_connected"
	AuditActionCommandExecuted = "command_executed"
	AuditActionInputRejected   = "input_rejected"
	AuditActionFileUploaded    = "file_uploaded"
	AuditActionFileDeleted     = "file_deleted"
)

// AllAuditActions lists every accepted audit action.
var AllAuditActions = []string{
	AuditActionLoginSuccess,
	AuditActionLoginFailed,
	AuditActionLogout,
	AuditActionTokenRefresh,
	AuditActionPermissionDenied,
	AuditActionUserCreated,
	AuditActionUserDeleted,
	AuditActionPasswordChanged,
	AuditActionRoleChanged,
	AuditActionRoleCreated,
	AuditActionRoleUpdated,
	AuditActionRoleDeleted,
	AuditActionTicketIssued,
	AuditActionStreamConnected,
	AuditActionCommandExecuted,
	AuditActionInputRejected,
	AuditActionFileUploaded,
	AuditActionFileDeleted,
}

// Audit Log Configuration
const (
	AuditDefaultQueryLimit   = 100
	AuditMaxQueryLimit       = 1000
	AuditSubscriberBuffer    = 100
	AuditMaxLogSizeBytes     = 64 << 20
	AuditPurgePercentage     = 10
	AuditMinPurgeEntries     = 100
	AuditCleanupIntervalMins = 30
)

// Audit Log Filters
const (
	AuditFilterMe     = "me"
	AuditFilterOthers = "others"
	AuditFilterAll    = ""
)
