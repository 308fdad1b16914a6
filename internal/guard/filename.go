package guard

import (
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"strings"

	"gamepanel/internal/constants"
)

// SanitizeFileName reduces raw to a single safe path segment: directory
// components and null bytes are dropped, leading dots are stripped, every
// character outside [A-Za-z0-9._-] becomes the replacement character and the
// result is truncated, keeping the extension. Returns "" when nothing usable
// remains (caller decides fallback behavior).
func SanitizeFileName(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ReplaceAll(raw, "\x00", "")
	if s == "" {
		return ""
	}

	// Normalize backslashes so filepath.Base strips Windows-style paths on all platforms.
	s = strings.ReplaceAll(s, "\\", "/")
	s = filepath.Base(s)
	if s == "." || s == ".." || s == "/" {
		return ""
	}

	s = strings.TrimLeft(s, ".")
	s = replaceUnsafeChars(s)
	s = strings.Trim(s, " ")
	if strings.Trim(s, constants.FilenameReplacementChar+".") == "" {
		return ""
	}

	return truncateName(s, constants.MaxFilenameLength)
}

// UploadFileName sanitizes raw and prefixes a random hex string so uploaded
// names are unpredictable and never collide with existing files.
func UploadFileName(raw string) (string, error) {
	name := SanitizeFileName(raw)
	if name == "" {
		name = constants.DefaultUploadName
	}

	b := make([]byte, constants.UploadPrefixBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	prefix := hex.EncodeToString(b) + "_"
	return prefix + truncateName(name, constants.MaxFilenameLength-len(prefix)), nil
}

// ContentDispositionFilename sanitizes a filename for an HTTP
// Content-Disposition header.
func ContentDispositionFilename(raw string) string {
	name := SanitizeFileName(raw)
	if name == "" {
		return constants.DefaultUploadName
	}
	return name
}

func replaceUnsafeChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteString(constants.FilenameReplacementChar)
		}
	}
	return b.String()
}

// truncateName cuts s to max bytes, preserving a short extension.
func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	ext := filepath.Ext(s)
	if len(ext) >= max/2 {
		ext = ""
	}
	return s[:max-len(ext)] + ext
}
