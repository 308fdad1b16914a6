package guard

import (
	"regexp"
	"strings"
	"testing"

	"gamepanel/internal/constants"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// Normal filenames
		{"normal_file", "server.properties", "server.properties"},
		{"with_hyphens", "my-world-backup.zip", "my-world-backup.zip"},
		{"with_underscores", "ops_list.json", "ops_list.json"},
		{"no_extension", "README", "README"},
		{"multiple_dots", "world.tar.gz", "world.tar.gz"},
		{"spaces_replaced", "my file.txt", "my_file.txt"},

		// Path traversal
		{"unix_path_traversal", "../../../etc/passwd", "passwd"},
		{"windows_path_traversal", "..\\..\\..\\windows\\system32", "system32"},
		{"mixed_separators", "..\\../..\\../etc/passwd", "passwd"},
		{"double_dot_slash", "....//....//etc/passwd", "passwd"},
		{"absolute_unix_path", "/etc/passwd", "passwd"},
		{"absolute_windows_path", "C:\\Windows\\system32\\config", "config"},
		{"only_dotdot", "..", ""},
		{"only_slash", "/", ""},

		// Hidden files
		{"leading_dot", ".bashrc", "bashrc"},
		{"leading_dots", "...hidden", "hidden"},
		{"only_dots", "....", ""},

		// Null bytes and control characters
		{"null_byte_in_name", "file\x00evil.txt", "fileevil.txt"},
		{"only_null_bytes", "\x00\x00\x00", ""},
		{"control_chars", "file\x01\x02\x03.txt", "file___.txt"},

		// Shell and filesystem metacharacters
		{"shell_chars", "a;b|c$(d).sh", "a_b_c__d_.sh"},
		{"illegal_windows_chars", "a<b>c:d\"e|f?g*h", "a_b_c_d_e_f_g_h"},
		{"unicode", "café.txt", "caf_.txt"},
		{"only_replaced", "???", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.input); got != tt.expected {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFileNameTruncates(t *testing.T) {
	long := strings.Repeat("a", 300) + ".jar"
	got := SanitizeFileName(long)
	if len(got) != constants.MaxFilenameLength {
		t.Errorf("expected length %d, got %d", constants.MaxFilenameLength, len(got))
	}
	if !strings.HasSuffix(got, ".jar") {
		t.Errorf("extension lost: %q", got)
	}
}

func TestSanitizeFileNameSecurityPayloads(t *testing.T) {
	payloads := []string{
		"../../../etc/shadow",
		"..%2f..%2fetc%2fpasswd",
		"....//....//....//etc/hosts",
		"\x00../../etc/passwd",
		"file.txt\x00.exe",
		"..\\..\\boot.ini",
		"/dev/null",
		".htaccess",
	}
	safe := regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)
	for _, p := range payloads {
		got := SanitizeFileName(p)
		if got == "" {
			continue
		}
		if !safe.MatchString(got) {
			t.Errorf("SanitizeFileName(%q) = %q is not a safe segment", p, got)
		}
		if got == ".." || strings.HasPrefix(got, ".") {
			t.Errorf("SanitizeFileName(%q) = %q starts with a dot", p, got)
		}
	}
}

func TestUploadFileName(t *testing.T) {
	prefixed := regexp.MustCompile(`^[0-9a-f]{8}_server\.jar$`)

	a, err := UploadFileName("../server.jar")
	if err != nil {
		t.Fatalf("UploadFileName failed: %v", err)
	}
	if !prefixed.MatchString(a) {
		t.Errorf("unexpected upload name %q", a)
	}
	b, _ := UploadFileName("../server.jar")
	if a == b {
		t.Error("two uploads of the same name collided")
	}

	fallback, _ := UploadFileName("...")
	if !strings.HasSuffix(fallback, "_"+constants.DefaultUploadName) {
		t.Errorf("expected default name, got %q", fallback)
	}

	long, _ := UploadFileName(strings.Repeat("b", 500) + ".zip")
	if len(long) > constants.MaxFilenameLength || !strings.HasSuffix(long, ".zip") {
		t.Errorf("long upload name not bounded: %d %q", len(long), long[len(long)-8:])
	}
}

func TestContentDispositionFilename(t *testing.T) {
	if got := ContentDispositionFilename("evil\"\r\nSet-Cookie: x.txt"); strings.ContainsAny(got, "\"\r\n ") {
		t.Errorf("header-breaking characters kept: %q", got)
	}
	if got := ContentDispositionFilename(""); got != constants.DefaultUploadName {
		t.Errorf("expected fallback, got %q", got)
	}
}
