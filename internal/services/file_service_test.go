package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"gamepanel/internal/constants"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFileList(t *testing.T) {
	env := setupServices(t)
	writeFile(t, filepath.Join(env.root, "server.properties"), "motd=hi")
	writeFile(t, filepath.Join(env.root, "world", "level.dat"), "x")

	listing, err := env.svc.Files.List(context.Background(), actor("bob"), "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if listing.Path != "" || len(listing.Entries) != 2 {
		t.Fatalf("unexpected listing %+v", listing)
	}
	if !listing.Entries[0].IsDir || listing.Entries[0].Path != "world" {
		t.Errorf("directories should sort first, got %+v", listing.Entries[0])
	}

	sub, err := env.svc.Files.List(context.Background(), actor("bob"), "world")
	if err != nil {
		t.Fatalf("List(world) failed: %v", err)
	}
	if sub.Path != "world" || sub.Entries[0].Path != "world/level.dat" {
		t.Errorf("unexpected sub listing %+v", sub)
	}
}

func TestFilePathsAreConfined(t *testing.T) {
	env := setupServices(t)
	outside := filepath.Join(filepath.Dir(env.root), "secret.txt")
	writeFile(t, outside, "token")
	if err := os.Symlink(outside, filepath.Join(env.root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	paths := []string{"../secret.txt", outside, "link.txt", "world/../../secret.txt", "a\x00b"}
	for _, p := range paths {
		_, err := env.svc.Files.Read(context.Background(), actor("bob"), p)
		requireCode(t, err, constants.ErrCodeInputRejected)
	}
	env.requireAudited(t, constants.AuditActionInputRejected)
}

func TestFileRead(t *testing.T) {
	env := setupServices(t)
	writeFile(t, filepath.Join(env.root, "ops.json"), `[]`)

	fc, err := env.svc.Files.Read(context.Background(), actor("bob"), "ops.json")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(fc.Content) != "[]" || fc.Name != "ops.json" || fc.Path != "ops.json" {
		t.Errorf("unexpected content %+v", fc)
	}

	_, err = env.svc.Files.Read(context.Background(), actor("bob"), "missing.json")
	requireCode(t, err, constants.ErrCodeFileNotFound)

	_, err = env.svc.Files.Read(context.Background(), actor("bob"), "")
	requireCode(t, err, constants.ErrCodeInvalidRequest)
}

func TestFileUpload(t *testing.T) {
	env := setupServices(t)

	res, err := env.svc.Files.Upload(context.Background(), actor("alice"), "", "../../evil plugin.jar", strings.NewReader("jar"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !regexp.MustCompile(`^[0-9a-f]{8}_evil_plugin\.jar$`).MatchString(res.Name) {
		t.Errorf("unexpected stored name %q", res.Name)
	}
	data, err := os.ReadFile(filepath.Join(env.root, res.Name))
	if err != nil || string(data) != "jar" {
		t.Errorf("upload not stored: %q %v", data, err)
	}
	env.requireAudited(t, constants.AuditActionFileUploaded)
}

func TestFileUploadTooLarge(t *testing.T) {
	env := setupServices(t)
	env.deps.Config.Files.MaxUploadBytes = 16

	_, err := env.svc.Files.Upload(context.Background(), actor("alice"), "", "big.bin", bytes.NewReader(make([]byte, 17)))
	requireCode(t, err, constants.ErrCodeFileTooLarge)

	entries, _ := os.ReadDir(env.root)
	if len(entries) != 0 {
		t.Errorf("oversized upload left %d files behind", len(entries))
	}

	if _, err := env.svc.Files.Upload(context.Background(), actor("alice"), "", "ok.bin", bytes.NewReader(make([]byte, 16))); err != nil {
		t.Errorf("upload at the limit failed: %v", err)
	}
}

func TestFileDelete(t *testing.T) {
	env := setupServices(t)
	writeFile(t, filepath.Join(env.root, "logs", "latest.log"), "x")

	if err := env.svc.Files.Delete(context.Background(), actor("alice"), "logs"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.root, "logs")); !os.IsNotExist(err) {
		t.Error("directory not removed")
	}

	err := env.svc.Files.Delete(context.Background(), actor("alice"), "")
	requireCode(t, err, constants.ErrCodeInvalidRequest)
	if _, statErr := os.Stat(env.root); statErr != nil {
		t.Fatal("root was deleted")
	}

	err = env.svc.Files.Delete(context.Background(), actor("alice"), "missing")
	requireCode(t, err, constants.ErrCodeFileNotFound)

	env.requireAudited(t, constants.AuditActionFileDeleted)
}

func TestFileSearch(t *testing.T) {
	env := setupServices(t)
	writeFile(t, filepath.Join(env.root, "world", "level.dat"), "x")
	writeFile(t, filepath.Join(env.root, "world", "level.dat_old"), "x")
	writeFile(t, filepath.Join(env.root, "ops.json"), "[]")

	res, err := env.svc.Files.Search(context.Background(), actor("bob"), SearchRequest{Pattern: "level"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Matches) != 2 {
		t.Errorf("expected 2 plain matches, got %+v", res.Matches)
	}

	res, err = env.svc.Files.Search(context.Background(), actor("bob"), SearchRequest{Path: "world", Pattern: `^level\.dat$`, Mode: constants.PatternModeRegex})
	if err != nil {
		t.Fatalf("regex Search failed: %v", err)
	}
	if len(res.Matches) != 1 || res.Matches[0].Path != "world/level.dat" {
		t.Errorf("unexpected regex matches %+v", res.Matches)
	}
}

func TestFileSearchMissingDirectory(t *testing.T) {
	env := setupServices(t)

	_, err := env.svc.Files.Search(context.Background(), actor("bob"), SearchRequest{Path: "no/such/dir", Pattern: "level"})
	requireCode(t, err, constants.ErrCodeFileNotFound)
}

func TestFileSearchRejectsUnsafePatterns(t *testing.T) {
	env := setupServices(t)

	for _, p := range []string{"(a+)+$", "(a)\\1", strings.Repeat("a", constants.PatternMaxLength+1)} {
		_, err := env.svc.Files.Search(context.Background(), actor("bob"), SearchRequest{Pattern: p, Mode: constants.PatternModeRegex})
		requireCode(t, err, constants.ErrCodeInputRejected)
	}
	_, err := env.svc.Files.Search(context.Background(), actor("bob"), SearchRequest{Pattern: "x", Mode: "fuzzy"})
	requireCode(t, err, constants.ErrCodeInputRejected)
}

func TestFileDisplayPathOutsideDefaultRoot(t *testing.T) {
	env := setupServices(t)
	s := env.svc.Files
	root := env.deps.Paths.DefaultRoot()
	if got := s.displayPath(root); got != "" {
		t.Errorf("root display path %q", got)
	}
	if got := s.displayPath(filepath.Join(root, "a", "b")); got != "a/b" {
		t.Errorf("nested display path %q", got)
	}
	other := filepath.Join(filepath.Dir(root), "backups")
	if got := s.displayPath(other); got != filepath.ToSlash(other) {
		t.Errorf("foreign root display path %q", got)
	}
}
