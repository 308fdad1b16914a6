package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"gamepanel/internal/console"
	"gamepanel/internal/constants"
)

func TestConsoleExecute(t *testing.T) {
	env := setupServices(t)

	res, err := env.svc.Console.Execute(context.Background(), actor("alice"), "/list")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(res.Output) != 1 || !strings.HasPrefix(res.Output[0], "There are 0") {
		t.Errorf("unexpected output %v", res.Output)
	}
	if cmds := env.exec.Commands(); len(cmds) != 1 || cmds[0] != "/list" {
		t.Errorf("executor saw %v", cmds)
	}

	history := env.svc.Console.History()
	if len(history) != 2 || history[0].Line != "[alice] /list" {
		t.Errorf("unexpected console history %+v", history)
	}
	env.requireAudited(t, constants.AuditActionCommandExecuted)
}

func TestConsoleRejectsBeforeExecuting(t *testing.T) {
	env := setupServices(t)

	payloads := []string{
		"",
		"list",
		"/say hi; rm -rf /",
		"/say $(reboot)",
		"/say hi\n/op mallory",
		"/definitely-not-allowed",
	}
	for _, p := range payloads {
		_, err := env.svc.Console.Execute(context.Background(), actor("alice"), p)
		requireCode(t, err, constants.ErrCodeInputRejected)
		if svcErr, _ := AsServiceError(err); svcErr != nil && p != "" && strings.Contains(svcErr.Message, p) {
			t.Errorf("rejection echoed payload %q", p)
		}
	}

	if cmds := env.exec.Commands(); len(cmds) != 0 {
		t.Errorf("rejected commands reached the executor: %v", cmds)
	}
	if len(env.svc.Console.History()) != 0 {
		t.Error("rejected commands were broadcast")
	}
	got := testutil.ToFloat64(env.deps.Metrics.GuardRejectionsTotal.WithLabelValues(constants.GuardCommand))
	if got != float64(len(payloads)) {
		t.Errorf("expected %d command rejections, got %v", len(payloads), got)
	}
	env.requireAudited(t, constants.AuditActionInputRejected)
}

func TestConsoleExecutorErrors(t *testing.T) {
	env := setupServices(t)

	env.exec.err = console.ErrNotConfigured
	_, err := env.svc.Console.Execute(context.Background(), actor("alice"), "/list")
	requireCode(t, err, constants.ErrCodeConsoleError)

	env.exec.err = errors.New("container not running")
	_, err = env.svc.Console.Execute(context.Background(), actor("alice"), "/list")
	requireCode(t, err, constants.ErrCodeConsoleError)
	if svcErr, _ := AsServiceError(err); strings.Contains(svcErr.Message, "container") {
		t.Errorf("executor error leaked into message %q", svcErr.Message)
	}
}

func TestConsoleVerbs(t *testing.T) {
	env := setupServices(t)
	verbs := env.svc.Console.Verbs()
	if len(verbs) != len(constants.AllowedCommandVerbs) {
		t.Errorf("expected %d verbs, got %d", len(constants.AllowedCommandVerbs), len(verbs))
	}
}

func TestConsoleWithoutHub(t *testing.T) {
	env := setupServices(t)
	env.deps.Hub = nil
	if _, err := env.svc.Console.Execute(context.Background(), actor("alice"), "/list"); err != nil {
		t.Fatalf("Execute without hub failed: %v", err)
	}
	if h := env.svc.Console.History(); h == nil || len(h) != 0 {
		t.Errorf("expected empty history, got %v", h)
	}
}
