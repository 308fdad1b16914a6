package constants

// Application
const (
	AppName        = "gamepanel"
	AppDisplayName = "GamePanel"
)

// Paths
const (
	ConfigDir        = ".config/gamepanel"
	ConfigFile       = "config.yaml"
	EnvFile          = ".env"
	DefaultDataDir   = "data"
	CredentialsDB    = "panel.db"
	DefaultServerDir = "server"
)

// Environment overrides (read after the optional .env file is loaded)
const (
	EnvTokenSecret    = "GAMEPANEL_TOKEN_SECRET"
	EnvStrictSecurity = "GAMEPANEL_STRICT_SECURITY"
	EnvPort           = "GAMEPANEL_PORT"
	EnvDataDir        = "GAMEPANEL_DATA_DIR"
)

// API
const (
	DefaultPort = 8420
)

// Database pragmas
var SQLitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Logging
const (
	DefaultLogLevel    = "info"
	LogsDir            = "logs"
	LogsDirDebug       = "debug"
	LogsDirInfo        = "info"
	LogsDirWarn        = "warn"
	LogsDirError       = "error"
	LogFileExtension   = ".log"
	LogTimestampFormat = "2006-01-02 15:04:05"
)

// Shutdown
const (
	ShutdownTimeoutSecs = 10
)

// Search
const (
	DefaultSearchMaxResults = 500
	MaxSearchMaxResults     = 10000
)

// Console
const (
	ConsoleHistoryLines     = 200
	ConsoleClientBufferSize = 256
	ConsolePlaceholder      = "{command}"
	ConsoleExecTimeoutSecs  = 10
	ConsoleMaxOutputBytes   = 64 * 1024
)

// Metrics
const (
	MetricsNamespace = "gamepanel"
	MetricsPath      = "/metrics"
)
