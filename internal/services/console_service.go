package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gamepanel/internal/audit"
	"gamepanel/internal/console"
	"gamepanel/internal/constants"
)

// ConsoleService validates operator commands and forwards them to the game
// server. Every accepted command and its output is broadcast to viewers.
type ConsoleService struct {
	deps *Deps
}

// CommandResult is returned by Execute.
type CommandResult struct {
	Command string   `json:"command"`
	Output  []string `json:"output"`
}

// Verbs returns the allowed command verbs.
func (s *ConsoleService) Verbs() []string {
	return s.deps.Commands.Verbs()
}

// History returns the retained console lines.
func (s *ConsoleService) History() []console.Message {
	if s.deps.Hub == nil {
		return []console.Message{}
	}
	return s.deps.Hub.History()
}

// Execute runs command after it passes the command guard. Rejected commands
// never reach the executor.
func (s *ConsoleService) Execute(ctx context.Context, actor Actor, command string) (*CommandResult, error) {
	d := s.deps

	if err := d.Commands.Validate(command); err != nil {
		return nil, d.rejected(actor, err)
	}
	verb := strings.Fields(command)[0]

	d.broadcast(fmt.Sprintf("[%s] %s", actor.Username, command))

	output, err := d.Executor.Exec(ctx, command)
	if err != nil {
		d.audit(constants.AuditActionCommandExecuted, actor, audit.CommandExecutedDetails{Verb: verb, Success: false})
		if errors.Is(err, console.ErrNotConfigured) {
			return nil, WrapServiceError(constants.ErrCodeConsoleError, "console is not configured", err)
		}
		d.Logger.Warn("Console: %s from %s failed: %v", verb, actor.Username, err)
		return nil, WrapServiceError(ErrConsoleFailed.Code, ErrConsoleFailed.Message, err)
	}

	lines := console.SplitLines(output)
	if lines == nil {
		lines = []string{}
	}
	for _, line := range lines {
		d.broadcast(line)
	}

	d.Logger.Info("Console: %s ran %s", actor.Username, verb)
	d.audit(constants.AuditActionCommandExecuted, actor, audit.CommandExecutedDetails{Verb: verb, Success: true})

	return &CommandResult{Command: command, Output: lines}, nil
}

func (d *Deps) broadcast(line string) {
	if d.Hub != nil {
		d.Hub.Broadcast(line)
	}
}
