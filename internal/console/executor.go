package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"gamepanel/internal/constants"
)

// ErrNotConfigured is returned when no exec command template is configured.
var ErrNotConfigured = errors.New("console exec command not configured")

// Executor hands an approved command to the game server and returns its output.
// Callers must pass only strings accepted by the command guard.
type Executor interface {
	Exec(ctx context.Context, command string) (string, error)
}

// CommandExecutor runs an argv template, e.g.
// ["docker", "exec", "mc", "rcon-cli", "{command}"], without a shell. The
// {command} element is replaced by the command as a single argument.
type CommandExecutor struct {
	argv      []string
	timeout   time.Duration
	maxOutput int
}

// NewCommandExecutor creates an executor for argv. An empty argv yields an
// executor that always returns ErrNotConfigured.
func NewCommandExecutor(argv []string) *CommandExecutor {
	return &CommandExecutor{
		argv:      append([]string(nil), argv...),
		timeout:   time.Duration(constants.ConsoleExecTimeoutSecs) * time.Second,
		maxOutput: constants.ConsoleMaxOutputBytes,
	}
}

// Args returns the argv that would run for command.
func (e *CommandExecutor) Args(command string) []string {
	args := make([]string, len(e.argv))
	for i, a := range e.argv {
		if a == constants.ConsolePlaceholder {
			a = command
		}
		args[i] = a
	}
	return args
}

func (e *CommandExecutor) Exec(ctx context.Context, command string) (string, error) {
	if len(e.argv) == 0 {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := e.Args(command)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out := &limitedBuffer{max: e.maxOutput}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return out.String(), fmt.Errorf("command timed out: %w", ctx.Err())
		}
		return out.String(), fmt.Errorf("failed to execute command: %w", err)
	}
	return out.String(), nil
}

// limitedBuffer keeps the first max bytes written and discards the rest.
type limitedBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
			b.truncated = true
		} else {
			b.buf.Write(p)
		}
	} else if len(p) > 0 {
		b.truncated = true
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	s := strings.TrimRight(b.buf.String(), "\n")
	if b.truncated {
		s += "\n[output truncated]"
	}
	return s
}

// SplitLines splits executor output into display lines, dropping empty ones.
func SplitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
