package guard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gamepanel/internal/constants"
)

// PathGuard confines file operations to a set of allowed roots. Roots are
// canonicalized once; candidates are canonicalized on every call, following
// symlinks, and compared on path-segment boundaries.
type PathGuard struct {
	roots []string
}

// NewPathGuard canonicalizes roots. Every root must exist and be a directory.
func NewPathGuard(roots []string) (*PathGuard, error) {
	if len(roots) == 0 {
		return nil, errors.New("at least one allowed root is required")
	}
	g := &PathGuard{}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("invalid root %s: %w", root, err)
		}
		real, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
		}
		info, err := os.Stat(real)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("root %s is not a directory", root)
		}
		g.roots = append(g.roots, real)
	}
	return g, nil
}

// Roots returns the canonical roots.
func (g *PathGuard) Roots() []string {
	out := make([]string, len(g.roots))
	copy(out, g.roots)
	return out
}

// DefaultRoot returns the first root. Relative candidates resolve against it.
func (g *PathGuard) DefaultRoot() string {
	return g.roots[0]
}

// Resolve returns the canonical path of candidate if it lies within a root.
// Relative candidates are taken relative to the default root. The returned
// path is the one all I/O must use.
func (g *PathGuard) Resolve(candidate string) (string, error) {
	if strings.ContainsRune(candidate, 0) {
		return "", reject(constants.GuardPath, RuleInvalidName, "path contains a null byte")
	}
	if candidate == "" {
		candidate = "."
	}
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(g.roots[0], candidate)
	}

	real, err := canonicalize(candidate)
	if err != nil {
		return "", reject(constants.GuardPath, RuleUnresolvable, "path cannot be resolved")
	}
	if !withinAny(real, g.roots) {
		return "", reject(constants.GuardPath, RuleOutsideRoot, "path is outside the allowed directories")
	}
	return real, nil
}

// Rel returns real relative to the root containing it, slash-separated.
func (g *PathGuard) Rel(real string) string {
	for _, root := range g.roots {
		if within(real, root) {
			rel, err := filepath.Rel(root, real)
			if err == nil {
				return filepath.ToSlash(rel)
			}
		}
	}
	return ""
}

// IsRoot reports whether real is one of the roots.
func (g *PathGuard) IsRoot(real string) bool {
	for _, root := range g.roots {
		if real == root {
			return true
		}
	}
	return false
}

// IsPathSafe reports whether candidate, after symlink resolution, equals or
// descends from one of allowedRoots.
func IsPathSafe(candidate string, allowedRoots []string) bool {
	_, ok := GetRealPathIfSafe(candidate, allowedRoots)
	return ok
}

// GetRealPathIfSafe returns the canonical path of candidate when IsPathSafe
// holds. Roots that do not exist are canonicalized as far as they exist.
func GetRealPathIfSafe(candidate string, allowedRoots []string) (string, bool) {
	if candidate == "" || strings.ContainsRune(candidate, 0) {
		return "", false
	}
	real, err := canonicalize(candidate)
	if err != nil {
		return "", false
	}

	roots := make([]string, 0, len(allowedRoots))
	for _, root := range allowedRoots {
		if root == "" {
			continue
		}
		r, err := canonicalize(root)
		if err != nil {
			continue
		}
		roots = append(roots, r)
	}
	if !withinAny(real, roots) {
		return "", false
	}
	return real, true
}

// canonicalize makes p absolute and resolves symlinks in its longest existing
// prefix. Components below that prefix do not exist yet and are appended as
// is; a dangling symlink among them is an error since writing through it
// would land wherever it points.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	var missing []string
	cur := abs
	for {
		real, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				real = filepath.Join(real, missing[i])
			}
			return real, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if _, lerr := os.Lstat(cur); lerr == nil {
			return "", fmt.Errorf("dangling symlink")
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		missing = append(missing, filepath.Base(cur))
		cur = parent
	}
}

func withinAny(p string, roots []string) bool {
	for _, root := range roots {
		if within(p, root) {
			return true
		}
	}
	return false
}

// within compares on segment boundaries so /data-evil is not inside /data.
func within(p, root string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}
