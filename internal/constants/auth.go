package constants

import "time"

// Permissions. The wildcard is only meaningful inside a role's stored permission list;
// it is parsed once by the auth package and never compared against elsewhere.
const (
	PermissionWildcard = "*"

	PermConsoleView     = "console.view"
	PermConsoleExecute  = "console.execute"
	PermServerView      = "server.view"
	PermServerControl   = "server.control"
	PermFilesView       = "files.view"
	PermFilesEdit       = "files.edit"
	PermFilesUpload     = "files.upload"
	PermFilesDelete     = "files.delete"
	PermFilesSearch     = "files.search"
	PermModsView        = "mods.view"
	PermModsManage      = "mods.manage"
	PermBackupsView     = "backups.view"
	PermBackupsCreate   = "backups.create"
	PermBackupsRestore  = "backups.restore"
	PermSchedulerView   = "scheduler.view"
	PermSchedulerManage = "scheduler.manage"
	PermUsersView       = "users.view"
	PermUsersManage     = "users.manage"
	PermRolesManage     = "roles.manage"
	PermAuditView       = "audit.view"
	PermSettingsManage  = "settings.manage"
)

// AllPermissions is the permission catalogue, in display order.
var AllPermissions = []string{
	PermConsoleView,
	PermConsoleExecute,
	PermServerView,
	PermServerControl,
	PermFilesView,
	PermFilesEdit,
	PermFilesUpload,
	PermFilesDelete,
	PermFilesSearch,
	PermModsView,
	PermModsManage,
	PermBackupsView,
	PermBackupsCreate,
	PermBackupsRestore,
	PermSchedulerView,
	PermSchedulerManage,
	PermUsersView,
	PermUsersManage,
	PermRolesManage,
	PermAuditView,
	PermSettingsManage,
}

// System roles (seeded at startup, never deletable)
const (
	RoleAdministrator = "administrator"
	RoleModerator     = "moderator"
	RoleOperator      = "operator"
	RoleViewer        = "viewer"
)

// Token kinds
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
	TokenIssuer      = "gamepanel"
)

// Token lifetimes
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Token secret requirements
const (
	MinTokenSecretBytes = 32
)

// WeakSecrets are well-known defaults and placeholders that must never sign tokens.
var WeakSecrets = []string{
	"secret",
	"changeme",
	"change-me",
	"change_me",
	"password",
	"default_super_secret_key",
	"your-secret-key",
	"your_jwt_secret",
	"supersecret",
	"jwt_secret",
	"gamepanel",
}

// WeakPasswords are default credentials rejected for the bootstrap administrator.
var WeakPasswords = []string{
	"admin",
	"password",
	"changeme",
	"123456",
	"12345678",
	"administrator",
	"root",
	"gamepanel",
}

// Tickets (streaming channel handshake)
const (
	TicketTTL             = 30 * time.Second
	TicketRandomBytes     = 32 // 256 bits of entropy
	TicketMaxOutstanding  = 10000
	TicketSweepInterval   = time.Minute
	TicketLogPrefixLength = 8
	AuthQueryParamTicket  = "ticket"
)

// Credentials
const (
	AuthBcryptCost        = 12
	AuthMinPasswordLength = 10
	AuthMaxPasswordLength = 72 // bcrypt input limit
	AuthBootstrapUsername = "admin"
	AuthUsernameRegex     = `^[a-zA-Z0-9_-]{3,32}$`
	AuthPasswordGenLength = 24
	RoleNameMaxLength     = 48
	RoleDescMaxLength     = 256
	RoleColorRegex        = `^#[0-9a-fA-F]{6}$`
	DefaultRoleColor      = "#808080"
)

// Auth HTTP
const (
	HeaderAuthorization = "Authorization"
	AuthBearerPrefix    = "Bearer "
)

// Rate limits (per client IP)
const (
	LoginRatePerMinute  = 10
	LoginRateBurst      = 5
	TicketRatePerMinute = 30
	TicketRateBurst     = 10
	RateLimiterIdleTTL  = 10 * time.Minute
	RateLimiterSweep    = time.Minute
)
