package console

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"gamepanel/internal/constants"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestCommandExecutorArgs(t *testing.T) {
	e := NewCommandExecutor([]string{"docker", "exec", "mc", "rcon-cli", constants.ConsolePlaceholder})
	args := e.Args("/say hello world")

	want := []string{"docker", "exec", "mc", "rcon-cli", "/say hello world"}
	if len(args) != len(want) {
		t.Fatalf("got %d args, want %d", len(args), len(want))
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, args[i], want[i])
		}
	}
}

func TestCommandExecutorNoShell(t *testing.T) {
	requireBinary(t, "echo")
	e := NewCommandExecutor([]string{"echo", constants.ConsolePlaceholder})

	// Passed as one argv element, never through a shell
	out, err := e.Exec(context.Background(), "/say $(id); ls")
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if out != "/say $(id); ls" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestCommandExecutorNotConfigured(t *testing.T) {
	e := NewCommandExecutor(nil)
	if _, err := e.Exec(context.Background(), "/list"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCommandExecutorTimeout(t *testing.T) {
	requireBinary(t, "sleep")
	e := NewCommandExecutor([]string{"sleep", "5"})
	e.timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := e.Exec(context.Background(), "/list")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout did not stop the command")
	}
}

func TestCommandExecutorFailure(t *testing.T) {
	requireBinary(t, "false")
	e := NewCommandExecutor([]string{"false", constants.ConsolePlaceholder})
	if _, err := e.Exec(context.Background(), "/list"); err == nil {
		t.Error("expected error for non-zero exit")
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{max: 5}
	n, err := b.Write([]byte("abc"))
	if n != 3 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
	b.Write([]byte("defgh"))
	b.Write([]byte("ijk"))

	got := b.String()
	if !strings.HasPrefix(got, "abcde") || !strings.Contains(got, "truncated") {
		t.Errorf("unexpected buffer %q", got)
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("There are 2 players online:\r\nAlice, Bob\n\n  \n")
	if len(got) != 2 || got[1] != "Alice, Bob" {
		t.Errorf("unexpected lines %q", got)
	}
	if SplitLines("") != nil {
		t.Error("empty output should yield no lines")
	}
}
