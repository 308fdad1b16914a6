// Package search walks an approved file root and matches entry names
// against a pattern that has already passed the pattern safety checker.
package search

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"gamepanel/internal/guard"
)

// Result is one matching entry, relative to the searched root.
type Result struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	IsDir   bool   `json:"is_dir"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"`
}

// Results is a bounded result set.
type Results struct {
	Matches   []Result `json:"matches"`
	Truncated bool     `json:"truncated"`
	Scanned   int      `json:"scanned"`
}

var errLimitReached = errors.New("limit reached")

// Search walks root (a path already resolved by the path guard) and returns
// entries whose base name matches pattern, up to maxResults. Symlinks are
// reported but never followed. base is the prefix joined in front of every
// result path.
func Search(ctx context.Context, root, base string, pattern *guard.Pattern, maxResults int) (*Results, error) {
	res := &Results{Matches: []Result{}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable entries are skipped rather than aborting the walk
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		res.Scanned++

		if !pattern.Match(d.Name()) {
			return nil
		}
		if len(res.Matches) >= maxResults {
			res.Truncated = true
			return errLimitReached
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		r := Result{
			Path:  filepath.ToSlash(filepath.Join(base, rel)),
			Name:  d.Name(),
			IsDir: d.IsDir(),
		}
		if d.Type()&fs.ModeSymlink == 0 {
			if info, infoErr := d.Info(); infoErr == nil {
				r.ModTime = info.ModTime().Unix()
				if !d.IsDir() {
					r.Size = info.Size()
				}
			}
		}
		res.Matches = append(res.Matches, r)
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return res, err
	}
	return res, nil
}
