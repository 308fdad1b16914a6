package search

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"gamepanel/internal/constants"
	"gamepanel/internal/guard"
)

// setupServerTree builds a small game server layout under a temp dir.
func setupServerTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"server.properties",
		"ops.json",
		"whitelist.json",
		"world/level.dat",
		"world/region/r.0.0.mca",
		"plugins/Essentials.jar",
		"plugins/Essentials/config.yml",
		"logs/latest.log",
	}
	for _, f := range files {
		p := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func compile(t *testing.T, expr, mode string) *guard.Pattern {
	t.Helper()
	p, err := guard.CompilePattern(expr, mode)
	if err != nil {
		t.Fatalf("CompilePattern(%q, %q) failed: %v", expr, mode, err)
	}
	return p
}

func TestSearchModes(t *testing.T) {
	root := setupServerTree(t)

	tests := []struct {
		name string
		expr string
		mode string
		want int
	}{
		{"plain substring", "essentials", constants.PatternModePlain, 2},
		{"glob json", "*.json", constants.PatternModeGlob, 2},
		{"glob single char", "r.?.?.mca", constants.PatternModeGlob, 1},
		{"regex", `^(level|latest)\.`, constants.PatternModeRegex, 2},
		{"no match", "nothing-here", constants.PatternModePlain, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Search(context.Background(), root, "", compile(t, tt.expr, tt.mode), 100)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(res.Matches) != tt.want {
				t.Errorf("got %d matches, want %d: %+v", len(res.Matches), tt.want, res.Matches)
			}
			if res.Truncated {
				t.Error("unexpected truncation")
			}
		})
	}
}

func TestSearchRelativePaths(t *testing.T) {
	root := setupServerTree(t)

	res, err := Search(context.Background(), filepath.Join(root, "world"), "world", compile(t, "level.dat", constants.PatternModePlain), 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Matches) != 1 || res.Matches[0].Path != "world/level.dat" {
		t.Errorf("unexpected matches %+v", res.Matches)
	}
	if res.Matches[0].Size != 1 {
		t.Errorf("size not reported: %+v", res.Matches[0])
	}
}

func TestSearchTruncates(t *testing.T) {
	root := setupServerTree(t)

	res, err := Search(context.Background(), root, "", compile(t, "*", constants.PatternModeGlob), 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Matches) != 3 || !res.Truncated {
		t.Errorf("expected 3 truncated matches, got %d (truncated=%v)", len(res.Matches), res.Truncated)
	}
}

func TestSearchDoesNotFollowSymlinks(t *testing.T) {
	root := setupServerTree(t)
	outside := t.TempDir()
	os.WriteFile(filepath.Join(outside, "secret.json"), []byte("x"), 0644)
	if err := os.Symlink(outside, filepath.Join(root, "escape")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	res, err := Search(context.Background(), root, "", compile(t, "secret", constants.PatternModePlain), 100)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Matches) != 0 {
		t.Errorf("search followed a symlink out of the root: %+v", res.Matches)
	}
}

func TestSearchCancelled(t *testing.T) {
	root := setupServerTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Search(ctx, root, "", compile(t, "*", constants.PatternModeGlob), 100); err == nil {
		t.Error("expected context error")
	}
}

func TestSearchMissingRoot(t *testing.T) {
	root := filepath.Join(setupServerTree(t), "no-such-dir")

	_, err := Search(context.Background(), root, "", compile(t, "*", constants.PatternModeGlob), 100)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}
