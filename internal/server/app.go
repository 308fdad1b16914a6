package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gamepanel/internal/audit"
	"gamepanel/internal/auth"
	"gamepanel/internal/config"
	"gamepanel/internal/console"
	"gamepanel/internal/database"
	"gamepanel/internal/guard"
	"gamepanel/internal/logger"
	"gamepanel/internal/metrics"
	"gamepanel/internal/services"
)

// App holds all application state and dependencies
type App struct {
	Config      *config.Config
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	DB          *sql.DB
	AuditLogger *audit.Logger
	Tokens      *auth.TokenService
	Tickets     *auth.Broker
	Hub         *console.Hub
	StartedAt   time.Time

	// Bootstrap is set when this start created the initial administrator.
	Bootstrap *auth.BootstrapResult

	// Services layer for business logic
	Services *services.Services

	cancel context.CancelFunc
}

// NewApp opens the panel database, seeds roles and the bootstrap account,
// resolves the token secret and builds every service. The ticket sweeper
// runs until Close.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	if err := config.InitializeDataDirectory(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize data directory: %w", err)
	}

	secret, err := auth.ResolveSecret(cfg.Auth.TokenSecret, cfg.Auth.StrictSecurity, log)
	if err != nil {
		return nil, err
	}

	paths, err := guard.NewPathGuard(cfg.Files.AllowedRoots)
	if err != nil {
		return nil, fmt.Errorf("failed to set up allowed roots: %w", err)
	}

	db, err := database.InitPanelDB(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	store := auth.NewStore(db, cfg.Auth.BcryptCost)
	boot, err := auth.Bootstrap(context.Background(), store, cfg.Auth.InitialAdminPassword, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("auth bootstrap failed: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.IsEnabled() {
		m = metrics.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:      cfg,
		Logger:      log,
		Metrics:     m,
		DB:          db,
		AuditLogger: audit.NewLogger(db, cfg.Audit.MaxLogSizeBytes, cfg.Audit.PurgePercentage),
		Tokens: auth.NewTokenService(store, auth.TokenConfig{
			Secret:     secret,
			AccessTTL:  cfg.Auth.AccessTTL(),
			RefreshTTL: cfg.Auth.RefreshTTL(),
		}, log, m),
		Tickets: auth.NewBroker(auth.BrokerConfig{
			TTL:            cfg.Tickets.TTL(),
			MaxOutstanding: cfg.Tickets.MaxOutstanding,
			SweepInterval:  cfg.Tickets.SweepInterval(),
		}, log, m),
		Hub:       console.NewHub(cfg.Console.HistoryLines, log, m),
		StartedAt: time.Now(),
		Bootstrap: boot,
		cancel:    cancel,
	}
	app.Tickets.Start(ctx)

	app.Services = services.NewServices(&services.Deps{
		Config:   cfg,
		Logger:   log,
		Metrics:  m,
		Audit:    app.AuditLogger,
		Store:    store,
		Tokens:   app.Tokens,
		Resolver: auth.NewResolver(store, log, m),
		Tickets:  app.Tickets,
		Paths:    paths,
		Commands: guard.NewCommandGuard(cfg.Console.AllowedVerbs),
		Patterns: guard.DefaultPatternLimits,
		Executor: console.NewCommandExecutor(cfg.Console.ExecCommand),
		Hub:      app.Hub,
	})

	if len(cfg.Console.ExecCommand) == 0 {
		log.Warn("Console: no exec_command configured, console commands will be refused")
	}
	return app, nil
}

// Close stops background work and closes the database. Open websocket
// viewers are disconnected.
func (a *App) Close() {
	a.cancel()
	a.Tickets.Stop()
	a.Hub.Close()
	a.AuditLogger.Stop()
	if err := a.DB.Close(); err != nil {
		a.Logger.Warn("Failed to close database: %v", err)
	}
}
