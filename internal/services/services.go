// Package services provides the business logic layer for the panel.
// Services orchestrate the access-control core, the input guards and the
// console/file collaborators, and record every security decision in the
// audit trail. HTTP handlers delegate to services for all business logic.
package services

import (
	"context"

	"gamepanel/internal/audit"
	"gamepanel/internal/auth"
	"gamepanel/internal/config"
	"gamepanel/internal/console"
	"gamepanel/internal/constants"
	"gamepanel/internal/guard"
	"gamepanel/internal/logger"
	"gamepanel/internal/metrics"
)

// Deps are the shared components services are built from. Audit and Metrics
// may be nil.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Audit    *audit.Logger
	Store    *auth.Store
	Tokens   *auth.TokenService
	Resolver *auth.Resolver
	Tickets  *auth.Broker
	Paths    *guard.PathGuard
	Commands *guard.CommandGuard
	Patterns guard.PatternLimits
	Executor console.Executor
	Hub      *console.Hub
}

// Actor identifies who performs an operation and from where.
type Actor struct {
	Username  string
	IP        string
	UserAgent string
}

// Services holds all service instances for the application.
// It acts as a service container that is initialized once at startup.
type Services struct {
	deps *Deps

	// Service instances
	Auth    *AuthService
	Users   *UserService
	Roles   *RoleService
	Console *ConsoleService
	Files   *FileService
}

// NewServices creates a new service container with all services initialized.
func NewServices(deps *Deps) *Services {
	return &Services{
		deps:    deps,
		Auth:    &AuthService{deps: deps},
		Users:   &UserService{deps: deps},
		Roles:   &RoleService{deps: deps},
		Console: &ConsoleService{deps: deps},
		Files:   &FileService{deps: deps},
	}
}

// Deps returns the shared components.
func (s *Services) Deps() *Deps {
	return s.deps
}

// audit records an entry. Failures are logged and never fail the operation.
func (d *Deps) audit(action string, actor Actor, details interface{}) {
	if d.Audit == nil {
		return
	}
	if err := d.Audit.Log(action, actor.IP, actor.Username, details); err != nil {
		d.Logger.Warn("Audit: failed to record %s: %v", action, err)
	}
}

// rejected records a guard refusal (metrics, audit, debug log) and converts
// it into an INPUT_REJECTED error. Errors that are not rejections pass
// through unchanged.
func (d *Deps) rejected(actor Actor, err error) error {
	rej, ok := guard.AsRejection(err)
	if !ok {
		return err
	}
	d.Metrics.GuardRejection(rej.Guard)
	d.Logger.Debug("Guard: %s rejected input from %s (%s)", rej.Guard, actor.Username, rej.Rule)
	d.audit(constants.AuditActionInputRejected, actor, audit.InputRejectedDetails{Guard: rej.Guard, Rule: rej.Rule})
	return RejectedInput(rej)
}

// dropStreams closes the console connections of username.
func (d *Deps) dropStreams(username string) {
	if d.Hub == nil {
		return
	}
	d.Hub.Disconnect(username)
}

// recheckStreams closes the connections of every viewer who no longer
// holds console.view.
func (d *Deps) recheckStreams(ctx context.Context) {
	if d.Hub == nil {
		return
	}
	for _, username := range d.Hub.Usernames() {
		if !d.Resolver.Check(ctx, username, constants.PermConsoleView) {
			d.Hub.Disconnect(username)
		}
	}
}
