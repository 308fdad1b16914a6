package constants

// API Error Codes
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeInternalError  = "INTERNAL_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeRateLimited    = "RATE_LIMITED"

	// Authentication / authorization
	ErrCodeAuthRequired           = "AUTH_REQUIRED"
	ErrCodeAuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	ErrCodeAuthInvalidToken       = "AUTH_INVALID_TOKEN"
	ErrCodeAuthInvalidTicket      = "AUTH_INVALID_TICKET"
	ErrCodeAuthForbidden          = "AUTH_FORBIDDEN"
	ErrCodeConfigInsecure         = "CONFIG_INSECURE"
	ErrCodeTicketCapacity         = "TICKET_CAPACITY"

	// Input guards
	ErrCodeInputRejected = "INPUT_REJECTED"

	// Users and roles
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodeUserExists      = "USER_ALREADY_EXISTS"
	ErrCodeUsernameInvalid = "USERNAME_INVALID"
	ErrCodePasswordWeak    = "PASSWORD_TOO_WEAK"
	ErrCodeSelfDelete      = "SELF_DELETE"
	ErrCodeRoleNotFound    = "ROLE_NOT_FOUND"
	ErrCodeRoleExists      = "ROLE_ALREADY_EXISTS"
	ErrCodeRoleInvalid     = "ROLE_INVALID"
	ErrCodeRoleInUse       = "ROLE_IN_USE"
	ErrCodeSystemRole      = "SYSTEM_ROLE"

	// Files and console
	ErrCodeFileNotFound   = "FILE_NOT_FOUND"
	ErrCodeFileTooLarge   = "FILE_TOO_LARGE"
	ErrCodeConsoleError   = "CONSOLE_ERROR"
	ErrCodeSearchError    = "SEARCH_ERROR"
	ErrCodeAuditLogError  = "AUDIT_LOG_ERROR"
	ErrCodeAuditBadFilter = "AUDIT_INVALID_FILTER"
)
