package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"gamepanel/internal/auth"
	"gamepanel/internal/console"
	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
	"gamepanel/internal/services"
	"gamepanel/internal/version"
)

// Server wraps the HTTP server with graceful shutdown
type Server struct {
	httpServer *http.Server
	app        *App
	svc        *services.Services
	logger     *logger.Logger
	upgrader   *websocket.Upgrader

	loginLimiter  *RateLimiter
	ticketLimiter *RateLimiter
}

// NewServer creates a new HTTP server
func NewServer(app *App, addr string) *Server {
	mux := http.NewServeMux()
	cfg := app.Config

	s := &Server{
		app:           app,
		svc:           app.Services,
		logger:        app.Logger,
		upgrader:      console.NewUpgrader(),
		loginLimiter:  NewRateLimiter(constants.LimiterLogin, cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst, app.Metrics),
		ticketLimiter: NewRateLimiter(constants.LimiterTicket, cfg.RateLimit.TicketPerMinute, cfg.RateLimit.TicketBurst, app.Metrics),
	}

	// Register routes
	s.registerRoutes(mux)

	// Build middleware chain: RequestID → SecurityHeaders → MaxBody → Authenticate → handler.
	// Authenticate never blocks; handlers decide via requirePermission.
	authMW := auth.NewMiddleware(app.Tokens, app.Logger)
	handler := Chain(mux, RequestID, SecurityHeaders, MaxBody(constants.MaxJSONBodyBytes, filesUploadPath), authMW.Authenticate)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: constants.HTTPReadHeaderTimeout,
		ReadTimeout:       0, // No timeout for streaming uploads
		WriteTimeout:      0, // Websocket and SSE streams are long-lived
		IdleTimeout:       constants.HTTPIdleTimeout,
	}

	return s
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Auth routes
	mux.HandleFunc("POST /api/auth/login", s.loginLimiter.Wrap(s.handleAuthLogin))
	mux.HandleFunc("POST /api/auth/refresh", s.loginLimiter.Wrap(s.handleAuthRefresh))
	mux.HandleFunc("POST /api/auth/logout", s.handleAuthLogout)
	mux.HandleFunc("GET /api/auth/me", s.handleAuthMe)
	mux.HandleFunc("POST /api/auth/password", s.handleAuthPassword)

	// Streaming console
	mux.HandleFunc("POST /api/ws-ticket", s.ticketLimiter.Wrap(s.handleWSTicket))
	mux.HandleFunc("GET /ws/console", s.handleConsoleStream)
	mux.HandleFunc("GET /api/console", s.handleConsoleInfo)
	mux.HandleFunc("POST /api/console/command", s.handleConsoleCommand)

	// Files
	mux.HandleFunc("GET /api/files", s.handleFilesList)
	mux.HandleFunc("GET /api/files/content", s.handleFilesContent)
	mux.HandleFunc("POST "+filesUploadPath, s.handleFilesUpload)
	mux.HandleFunc("DELETE /api/files", s.handleFilesDelete)
	mux.HandleFunc("GET /api/files/search", s.handleFilesSearch)

	// Users and roles
	mux.HandleFunc("GET /api/users", s.handleUsersList)
	mux.HandleFunc("POST /api/users", s.handleUsersCreate)
	mux.HandleFunc("PUT /api/users/{name}/role", s.handleUsersSetRole)
	mux.HandleFunc("PUT /api/users/{name}/password", s.handleUsersSetPassword)
	mux.HandleFunc("DELETE /api/users/{name}", s.handleUsersDelete)
	mux.HandleFunc("GET /api/roles", s.handleRolesList)
	mux.HandleFunc("POST /api/roles", s.handleRolesCreate)
	mux.HandleFunc("GET /api/roles/permissions", s.handleRolesCatalogue)
	mux.HandleFunc("PUT /api/roles/{id}", s.handleRolesUpdate)
	mux.HandleFunc("DELETE /api/roles/{id}", s.handleRolesDelete)

	// Audit log routes
	mux.HandleFunc("GET /api/audit", s.handleAuditQuery)
	mux.HandleFunc("GET /api/audit/stream", s.handleAuditStream)
	mux.HandleFunc("GET /api/audit/actions", s.handleAuditActions)

	// Health and metrics
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.app.Metrics != nil {
		mux.Handle("GET "+constants.MetricsPath, s.app.Metrics.Handler())
	}
}

// Start runs the server and blocks until shutdown signal
func (s *Server) Start() error {
	// Channel for shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, shutdownSignals...)
	defer signal.Stop(stop)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case err := <-errChan:
		s.Close()
		return err
	case sig := <-stop:
		s.logger.Info("Received signal %v, shutting down...", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.ShutdownTimeoutSecs)*time.Second)
	defer cancel()

	s.Shutdown(ctx)
	s.logger.Info("Server stopped")
	return nil
}

// Shutdown drains HTTP connections, then stops every background component.
// Websocket viewers are hijacked connections and are closed by the hub.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Shutdown error: %v", err)
	}
	s.Close()
}

// Close stops the rate limiters and the application.
func (s *Server) Close() {
	s.loginLimiter.Stop()
	s.ticketLimiter.Stop()
	s.app.Close()
}

// Handler returns the HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleHealth handles GET /health. It is public and reveals nothing about
// users or configuration.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.app.DB.PingContext(r.Context()); err != nil {
		s.logger.Error("Health: database ping failed: %v", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, map[string]interface{}{
		"status":         status,
		"version":        version.Version,
		"uptime_seconds": int64(time.Since(s.app.StartedAt).Seconds()),
	})
}
