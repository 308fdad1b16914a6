package auth

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
)

func TestCheckSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		ok     bool
	}{
		{"absent", "", false},
		{"known default", "changeme", false},
		{"known default mixed case", "  SuperSecret ", false},
		{"short", "abc123XYZ", false},
		{"repetitive", strings.Repeat("ab", 32), false},
		{"strong", "9f2c1a7e4b8d0c3f6a5e2d1b7c9f0a8e", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSecret(tt.secret)
			if tt.ok && err != nil {
				t.Errorf("expected ok, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrConfigurationInsecure) {
				t.Errorf("expected ErrConfigurationInsecure, got %v", err)
			}
		})
	}
}

func TestCheckInitialPassword(t *testing.T) {
	if err := CheckInitialPassword(""); err != nil {
		t.Errorf("empty password should be allowed: %v", err)
	}
	if err := CheckInitialPassword("Admin"); !errors.Is(err, ErrConfigurationInsecure) {
		t.Errorf("default password accepted: %v", err)
	}
	if err := CheckInitialPassword("short"); !errors.Is(err, ErrConfigurationInsecure) {
		t.Errorf("short password accepted: %v", err)
	}
	if err := CheckInitialPassword("a-reasonable-passphrase"); err != nil {
		t.Errorf("good password rejected: %v", err)
	}
}

func TestResolveSecret(t *testing.T) {
	strong := "9f2c1a7e4b8d0c3f6a5e2d1b7c9f0a8e"

	t.Run("strong", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.NewLoggerWithOptions(logger.Options{Level: logger.LevelDebug, Output: &buf})
		key, err := ResolveSecret(strong, true, log)
		if err != nil || string(key) != strong {
			t.Fatalf("unexpected result %q %v", key, err)
		}
		if strings.Contains(buf.String(), strong) {
			t.Error("secret written to log")
		}
	})

	t.Run("strict rejects weak", func(t *testing.T) {
		if _, err := ResolveSecret("changeme", true, logger.NewDiscard()); !errors.Is(err, ErrConfigurationInsecure) {
			t.Errorf("expected ErrConfigurationInsecure, got %v", err)
		}
		if _, err := ResolveSecret("", true, logger.NewDiscard()); !errors.Is(err, ErrConfigurationInsecure) {
			t.Errorf("expected ErrConfigurationInsecure, got %v", err)
		}
	})

	t.Run("warn mode keeps weak", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.NewLoggerWithOptions(logger.Options{Level: logger.LevelWarn, Output: &buf})
		key, err := ResolveSecret("changeme", false, log)
		if err != nil || string(key) != "changeme" {
			t.Fatalf("unexpected result %q %v", key, err)
		}
		if !strings.Contains(buf.String(), "[WARN]") {
			t.Error("weak secret not warned about")
		}
	})

	t.Run("warn mode generates when absent", func(t *testing.T) {
		a, err := ResolveSecret("", false, logger.NewDiscard())
		if err != nil {
			t.Fatalf("ResolveSecret failed: %v", err)
		}
		b, _ := ResolveSecret("", false, logger.NewDiscard())
		if len(a) < constants.MinTokenSecretBytes || bytes.Equal(a, b) {
			t.Errorf("generated secrets weak or repeated: %q %q", a, b)
		}
		if err := CheckSecret(string(a)); err != nil {
			t.Errorf("generated secret fails own check: %v", err)
		}
	})
}
