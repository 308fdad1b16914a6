package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
)

// AuthConfig holds token and credential settings.
type AuthConfig struct {
	TokenSecret          string `yaml:"token_secret,omitempty"`
	StrictSecurity       bool   `yaml:"strict_security"`
	AccessTTLMins        int    `yaml:"access_ttl_mins"`
	RefreshTTLHours      int    `yaml:"refresh_ttl_hours"`
	BcryptCost           int    `yaml:"bcrypt_cost"`
	InitialAdminPassword string `yaml:"initial_admin_password,omitempty"`
}

// AccessTTL returns the access token lifetime as time.Duration.
func (c *AuthConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMins) * time.Minute
}

// RefreshTTL returns the refresh token lifetime as time.Duration.
func (c *AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLHours) * time.Hour
}

// TicketConfig holds streaming ticket settings.
type TicketConfig struct {
	TTLSecs           int `yaml:"ttl_secs"`
	MaxOutstanding    int `yaml:"max_outstanding"`
	SweepIntervalSecs int `yaml:"sweep_interval_secs"`
}

// TTL returns the ticket lifetime as time.Duration.
func (c *TicketConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// SweepInterval returns the sweep period as time.Duration.
func (c *TicketConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSecs) * time.Second
}

// RateLimitConfig holds per-client request budgets.
type RateLimitConfig struct {
	LoginPerMinute  int `yaml:"login_per_minute"`
	LoginBurst      int `yaml:"login_burst"`
	TicketPerMinute int `yaml:"ticket_per_minute"`
	TicketBurst     int `yaml:"ticket_burst"`
}

// FilesConfig holds file manager settings.
type FilesConfig struct {
	AllowedRoots   []string `yaml:"allowed_roots"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// SearchConfig holds file search settings.
type SearchConfig struct {
	MaxResults int `yaml:"max_results"`
}

// ConsoleConfig holds console settings. ExecCommand is an argv template in
// which the {command} element is replaced by the validated command.
type ConsoleConfig struct {
	ExecCommand  []string `yaml:"exec_command"`
	HistoryLines int      `yaml:"history_lines"`
	AllowedVerbs []string `yaml:"allowed_verbs,omitempty"`
}

// AuditConfig holds audit log settings.
type AuditConfig struct {
	MaxLogSizeBytes int64 `yaml:"max_log_size_bytes"`
	PurgePercentage int   `yaml:"purge_percentage"`
}

// MetricsConfig holds the /metrics endpoint settings.
type MetricsConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether metrics are exposed. Defaults to true.
func (c *MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Config holds all application configuration.
type Config struct {
	Port      int             `yaml:"port"`
	DataDir   string          `yaml:"data_dir"`
	LogLevel  string          `yaml:"log_level"`
	Auth      AuthConfig      `yaml:"auth"`
	Tickets   TicketConfig    `yaml:"tickets"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Files     FilesConfig     `yaml:"files"`
	Search    SearchConfig    `yaml:"search"`
	Console   ConsoleConfig   `yaml:"console"`
	Audit     AuditConfig     `yaml:"audit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ApplyDefaults fills zero-valued fields with constant defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.Port == 0 {
		cfg.Port = constants.DefaultPort
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(GetConfigDir(), constants.DefaultDataDir)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = constants.DefaultLogLevel
	}

	// Auth defaults
	if cfg.Auth.AccessTTLMins == 0 {
		cfg.Auth.AccessTTLMins = int(constants.AccessTokenTTL.Minutes())
	}
	if cfg.Auth.RefreshTTLHours == 0 {
		cfg.Auth.RefreshTTLHours = int(constants.RefreshTokenTTL.Hours())
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = constants.AuthBcryptCost
	}

	// Ticket defaults
	if cfg.Tickets.TTLSecs == 0 {
		cfg.Tickets.TTLSecs = int(constants.TicketTTL.Seconds())
	}
	if cfg.Tickets.MaxOutstanding == 0 {
		cfg.Tickets.MaxOutstanding = constants.TicketMaxOutstanding
	}
	if cfg.Tickets.SweepIntervalSecs == 0 {
		cfg.Tickets.SweepIntervalSecs = int(constants.TicketSweepInterval.Seconds())
	}

	// Rate limit defaults
	if cfg.RateLimit.LoginPerMinute == 0 {
		cfg.RateLimit.LoginPerMinute = constants.LoginRatePerMinute
	}
	if cfg.RateLimit.LoginBurst == 0 {
		cfg.RateLimit.LoginBurst = constants.LoginRateBurst
	}
	if cfg.RateLimit.TicketPerMinute == 0 {
		cfg.RateLimit.TicketPerMinute = constants.TicketRatePerMinute
	}
	if cfg.RateLimit.TicketBurst == 0 {
		cfg.RateLimit.TicketBurst = constants.TicketRateBurst
	}

	// File defaults
	if len(cfg.Files.AllowedRoots) == 0 {
		cfg.Files.AllowedRoots = []string{filepath.Join(cfg.DataDir, constants.DefaultServerDir)}
	}
	if cfg.Files.MaxUploadBytes == 0 {
		cfg.Files.MaxUploadBytes = constants.DefaultMaxUploadBytes
	}

	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = constants.DefaultSearchMaxResults
	}

	if cfg.Console.HistoryLines == 0 {
		cfg.Console.HistoryLines = constants.ConsoleHistoryLines
	}

	// Audit defaults
	if cfg.Audit.MaxLogSizeBytes == 0 {
		cfg.Audit.MaxLogSizeBytes = constants.AuditMaxLogSizeBytes
	}
	if cfg.Audit.PurgePercentage == 0 {
		cfg.Audit.PurgePercentage = constants.AuditPurgePercentage
	}
}

// applyEnv overrides file values with GAMEPANEL_* environment variables.
func (cfg *Config) applyEnv() error {
	var errs []string

	if v := os.Getenv(constants.EnvTokenSecret); v != "" {
		cfg.Auth.TokenSecret = v
	}
	if v := os.Getenv(constants.EnvStrictSecurity); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, constants.EnvStrictSecurity+" must be a boolean")
		} else {
			cfg.Auth.StrictSecurity = strict
		}
	}
	if v := os.Getenv(constants.EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, constants.EnvPort+" must be an integer")
		} else {
			cfg.Port = port
		}
	}
	if v := os.Getenv(constants.EnvDataDir); v != "" {
		cfg.DataDir = v
	}

	if len(errs) > 0 {
		return fmt.Errorf("environment override failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// validate checks that all configurable values are within acceptable ranges.
func (cfg *Config) validate() error {
	var errs []string

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	// Auth validation
	if cfg.Auth.AccessTTLMins < 1 {
		errs = append(errs, "auth.access_ttl_mins must be >= 1")
	}
	if cfg.Auth.RefreshTTLHours*60 < cfg.Auth.AccessTTLMins {
		errs = append(errs, "auth.refresh_ttl_hours must cover auth.access_ttl_mins")
	}
	if cfg.Auth.BcryptCost < 10 || cfg.Auth.BcryptCost > 31 {
		errs = append(errs, "auth.bcrypt_cost must be between 10 and 31")
	}

	// Ticket validation
	if cfg.Tickets.TTLSecs < 1 || cfg.Tickets.TTLSecs > 300 {
		errs = append(errs, "tickets.ttl_secs must be between 1 and 300")
	}
	if cfg.Tickets.MaxOutstanding < 1 {
		errs = append(errs, "tickets.max_outstanding must be >= 1")
	}
	if cfg.Tickets.SweepIntervalSecs < 1 {
		errs = append(errs, "tickets.sweep_interval_secs must be >= 1")
	}

	// Rate limit validation
	if cfg.RateLimit.LoginPerMinute < 1 || cfg.RateLimit.LoginBurst < 1 {
		errs = append(errs, "rate_limit.login_per_minute and login_burst must be >= 1")
	}
	if cfg.RateLimit.TicketPerMinute < 1 || cfg.RateLimit.TicketBurst < 1 {
		errs = append(errs, "rate_limit.ticket_per_minute and ticket_burst must be >= 1")
	}

	// File validation
	for _, root := range cfg.Files.AllowedRoots {
		if strings.TrimSpace(root) == "" {
			errs = append(errs, "files.allowed_roots must not contain empty entries")
			break
		}
	}
	if cfg.Files.MaxUploadBytes < 1024 {
		errs = append(errs, "files.max_upload_bytes must be >= 1024 (1KB)")
	}

	if cfg.Search.MaxResults < 1 || cfg.Search.MaxResults > constants.MaxSearchMaxResults {
		errs = append(errs, fmt.Sprintf("search.max_results must be between 1 and %d", constants.MaxSearchMaxResults))
	}

	// Console validation
	if len(cfg.Console.ExecCommand) > 0 && !containsPlaceholder(cfg.Console.ExecCommand) {
		errs = append(errs, "console.exec_command must contain a "+constants.ConsolePlaceholder+" element")
	}
	if cfg.Console.HistoryLines < 1 {
		errs = append(errs, "console.history_lines must be >= 1")
	}
	for _, verb := range cfg.Console.AllowedVerbs {
		if !strings.HasPrefix(verb, "/") || strings.ContainsAny(verb, " \t"+constants.CommandForbiddenChars) {
			errs = append(errs, "console.allowed_verbs entries must be single words starting with /")
			break
		}
	}

	// Audit validation
	if cfg.Audit.MaxLogSizeBytes < 1048576 {
		errs = append(errs, "audit.max_log_size_bytes must be >= 1048576 (1MB)")
	}
	if cfg.Audit.PurgePercentage < 1 || cfg.Audit.PurgePercentage > 100 {
		errs = append(errs, "audit.purge_percentage must be between 1 and 100")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func containsPlaceholder(argv []string) bool {
	for _, arg := range argv {
		if arg == constants.ConsolePlaceholder {
			return true
		}
	}
	return false
}

// LogEffectiveValues logs all effective configuration values at startup.
// Secrets are reported as set/unset only.
func (cfg *Config) LogEffectiveValues(log *logger.Logger) {
	log.Info("config: port=%d", cfg.Port)
	log.Info("config: data_dir=%s", cfg.DataDir)
	log.Info("config: log_level=%s", cfg.LogLevel)
	log.Info("config: auth.token_secret=%s", setOrUnset(cfg.Auth.TokenSecret))
	log.Info("config: auth.strict_security=%t", cfg.Auth.StrictSecurity)
	log.Info("config: auth.access_ttl_mins=%d", cfg.Auth.AccessTTLMins)
	log.Info("config: auth.refresh_ttl_hours=%d", cfg.Auth.RefreshTTLHours)
	log.Info("config: auth.bcrypt_cost=%d", cfg.Auth.BcryptCost)
	log.Info("config: auth.initial_admin_password=%s", setOrUnset(cfg.Auth.InitialAdminPassword))
	log.Info("config: tickets.ttl_secs=%d", cfg.Tickets.TTLSecs)
	log.Info("config: tickets.max_outstanding=%d", cfg.Tickets.MaxOutstanding)
	log.Info("config: tickets.sweep_interval_secs=%d", cfg.Tickets.SweepIntervalSecs)
	log.Info("config: rate_limit.login=%d/min burst %d", cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst)
	log.Info("config: rate_limit.ticket=%d/min burst %d", cfg.RateLimit.TicketPerMinute, cfg.RateLimit.TicketBurst)
	log.Info("config: files.allowed_roots=%s", strings.Join(cfg.Files.AllowedRoots, ", "))
	log.Info("config: files.max_upload_bytes=%d", cfg.Files.MaxUploadBytes)
	log.Info("config: search.max_results=%d", cfg.Search.MaxResults)
	log.Info("config: console.exec_command=%q", cfg.Console.ExecCommand)
	log.Info("config: console.history_lines=%d", cfg.Console.HistoryLines)
	log.Info("config: audit.max_log_size_bytes=%d", cfg.Audit.MaxLogSizeBytes)
	log.Info("config: audit.purge_percentage=%d", cfg.Audit.PurgePercentage)
	log.Info("config: metrics.enabled=%t", cfg.Metrics.IsEnabled())
}

func setOrUnset(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "<set>"
}

func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, constants.ConfigDir)
}

func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), constants.ConfigFile)
}

func EnsureConfigDir() error {
	configDir := GetConfigDir()
	return os.MkdirAll(configDir, constants.DirPermissions)
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set are not overridden. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// LoadConfig loads the config from the default path.
func LoadConfig() (*Config, error) {
	if err := EnsureConfigDir(); err != nil {
		return nil, err
	}
	return LoadConfigFrom(GetConfigPath())
}

// LoadConfigFrom reads the YAML file at path, creating it with defaults when
// missing, then applies environment overrides, defaults and validation. The
// optional .env file next to the config is loaded first.
func LoadConfigFrom(configPath string) (*Config, error) {
	if err := LoadEnvFile(filepath.Join(filepath.Dir(configPath), constants.EnvFile)); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", constants.EnvFile, err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Create new config with defaults
		cfg.ApplyDefaults()
		if err := SaveConfigTo(configPath, cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	cfg.ApplyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	return SaveConfigTo(GetConfigPath(), cfg)
}

// SaveConfigTo writes cfg as YAML. The file may hold secrets, so it is
// created owner-readable only.
func SaveConfigTo(configPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), constants.DirPermissions); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, constants.SecretFilePermissions)
}
