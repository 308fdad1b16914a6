package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gamepanel/internal/constants"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{LevelDebug, LevelDebug},
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"invalid", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithOptions(Options{Level: LevelWarn, Output: &buf})

	log.Debug("debug %d", 1)
	log.Info("info %d", 2)
	log.Warn("warn %d", 3)
	log.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below WARN were written: %q", out)
	}
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "warn 3") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR]") || !strings.Contains(out, "error 4") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithOptions(Options{Level: LevelError, Output: &buf})

	log.SetLevel("bogus")
	if log.Level() != LevelError {
		t.Fatalf("unknown level should be ignored, got %s", log.Level())
	}

	log.SetLevel(LevelDebug)
	log.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("expected debug line after SetLevel(DEBUG)")
	}
}

func TestLogFilename(t *testing.T) {
	t1 := time.Date(2024, 1, 15, 0, 0, 1, 0, time.UTC)
	t2 := time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC)
	t3 := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	if logFilename(t1) != logFilename(t2) {
		t.Error("same day should produce the same filename")
	}
	if logFilename(t1) == logFilename(t3) {
		t.Error("different days should produce different filenames")
	}
	if got := logFilename(t1); got != "2024-01-15"+constants.LogFileExtension {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestFileOutput(t *testing.T) {
	dir := t.TempDir()
	log := NewLoggerWithOptions(Options{Level: LevelDebug, Output: &bytes.Buffer{}})
	defer log.Close()

	if err := log.EnableFileOutput(dir); err != nil {
		t.Fatalf("EnableFileOutput failed: %v", err)
	}

	log.Info("hello file")
	log.Error("broken thing")

	infoFile := filepath.Join(dir, constants.LogsDir, constants.LogsDirInfo, logFilename(time.Now()))
	data, err := os.ReadFile(infoFile)
	if err != nil {
		t.Fatalf("expected info log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("info file missing message: %q", data)
	}

	errFile := filepath.Join(dir, constants.LogsDir, constants.LogsDirError, logFilename(time.Now()))
	data, err = os.ReadFile(errFile)
	if err != nil {
		t.Fatalf("expected error log file: %v", err)
	}
	if strings.Contains(string(data), "hello file") {
		t.Error("info line leaked into error file")
	}
}

func TestDisableFileOutput(t *testing.T) {
	dir := t.TempDir()
	log := NewLoggerWithOptions(Options{Level: LevelDebug, Output: &bytes.Buffer{}, DataDir: dir})

	log.Info("first")
	if err := log.EnableFileOutput(""); err != nil {
		t.Fatalf("EnableFileOutput(\"\") failed: %v", err)
	}
	if len(log.fileHandles) != 0 {
		t.Errorf("expected handles closed, got %d", len(log.fileHandles))
	}
	log.Info("second")

	data, _ := os.ReadFile(filepath.Join(dir, constants.LogsDir, constants.LogsDirInfo, logFilename(time.Now())))
	if strings.Contains(string(data), "second") {
		t.Error("line written after file output was disabled")
	}
}
