package services

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gamepanel/internal/audit"
	"gamepanel/internal/constants"
	"gamepanel/internal/guard"
	"gamepanel/internal/search"
)

// FileService exposes the game server's files. Every path passes through the
// path guard and every name created on disk through the filename sanitizer.
type FileService struct {
	deps *Deps
}

// FileEntry is one directory entry.
type FileEntry struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	IsDir   bool   `json:"is_dir"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"`
}

// Listing is the result of List.
type Listing struct {
	Path      string      `json:"path"`
	Entries   []FileEntry `json:"entries"`
	Truncated bool        `json:"truncated"`
}

// FileContent is the result of Read.
type FileContent struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Content []byte `json:"-"`
}

// UploadResult describes a stored upload.
type UploadResult struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// SearchRequest carries the search parameters. Mode defaults to plain.
type SearchRequest struct {
	Path    string
	Pattern string
	Mode    string
}

// resolve runs the path guard and records rejections.
func (s *FileService) resolve(actor Actor, path string) (string, error) {
	real, err := s.deps.Paths.Resolve(path)
	if err != nil {
		return "", s.deps.rejected(actor, err)
	}
	return real, nil
}

// displayPath is real relative to the default root, or the real path itself
// when it lies under another root.
func (s *FileService) displayPath(real string) string {
	rel, err := filepath.Rel(s.deps.Paths.DefaultRoot(), real)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(real)
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// Roots returns the allowed roots in display form.
func (s *FileService) Roots() []string {
	roots := s.deps.Paths.Roots()
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

// List returns the entries of a directory, directories first.
func (s *FileService) List(ctx context.Context, actor Actor, path string) (*Listing, error) {
	real, err := s.resolve(actor, path)
	if err != nil {
		return nil, err
	}

	dirents, err := os.ReadDir(real)
	if err != nil {
		return nil, mapFSError(err)
	}

	listing := &Listing{Path: s.displayPath(real), Entries: make([]FileEntry, 0, len(dirents))}
	for _, de := range dirents {
		if len(listing.Entries) >= constants.MaxListEntries {
			listing.Truncated = true
			break
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		listing.Entries = append(listing.Entries, FileEntry{
			Name:    de.Name(),
			Path:    s.displayPath(filepath.Join(real, de.Name())),
			IsDir:   de.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
	}

	sort.SliceStable(listing.Entries, func(i, j int) bool {
		a, b := listing.Entries[i], listing.Entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	return listing, nil
}

// Read returns the contents of a regular file up to MaxReadFileBytes.
func (s *FileService) Read(ctx context.Context, actor Actor, path string) (*FileContent, error) {
	real, err := s.resolve(actor, path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(real)
	if err != nil {
		return nil, mapFSError(err)
	}
	if info.IsDir() {
		return nil, NewServiceError(constants.ErrCodeInvalidRequest, "path is a directory")
	}
	if info.Size() > constants.MaxReadFileBytes {
		return nil, ErrFileTooLarge
	}

	data, err := os.ReadFile(real)
	if err != nil {
		return nil, mapFSError(err)
	}
	return &FileContent{
		Path:    s.displayPath(real),
		Name:    filepath.Base(real),
		Size:    int64(len(data)),
		Content: data,
	}, nil
}

// Upload stores r in directory dir under a sanitized, uniquely prefixed
// name. Uploads larger than the configured limit are removed.
func (s *FileService) Upload(ctx context.Context, actor Actor, dir, filename string, r io.Reader) (*UploadResult, error) {
	d := s.deps

	real, err := s.resolve(actor, dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, mapFSError(err)
	}
	if !info.IsDir() {
		return nil, NewServiceError(constants.ErrCodeInvalidRequest, "upload target is not a directory")
	}

	name, err := guard.UploadFileName(filename)
	if err != nil {
		return nil, WrapInternalError(err)
	}
	target := filepath.Join(real, name)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, constants.FilePermissions)
	if err != nil {
		return nil, WrapInternalError(err)
	}

	limit := d.Config.Files.MaxUploadBytes
	n, copyErr := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if copyErr == nil && n > limit {
		os.Remove(target)
		return nil, ErrFileTooLarge
	}
	if copyErr != nil || closeErr != nil {
		os.Remove(target)
		if copyErr == nil {
			copyErr = closeErr
		}
		return nil, WrapInternalError(copyErr)
	}

	display := s.displayPath(target)
	d.Logger.Info("Files: %s uploaded %s (%d bytes)", actor.Username, display, n)
	d.audit(constants.AuditActionFileUploaded, actor, audit.FileDetails{Path: display, Size: n})

	return &UploadResult{Path: display, Name: name, Size: n}, nil
}

// Delete removes a file or directory tree. The roots themselves cannot be
// deleted.
func (s *FileService) Delete(ctx context.Context, actor Actor, path string) error {
	d := s.deps

	real, err := s.resolve(actor, path)
	if err != nil {
		return err
	}
	if d.Paths.IsRoot(real) {
		return NewServiceError(constants.ErrCodeInvalidRequest, "cannot delete an allowed root")
	}
	if _, err := os.Lstat(real); err != nil {
		return mapFSError(err)
	}
	if err := os.RemoveAll(real); err != nil {
		return WrapInternalError(err)
	}

	display := s.displayPath(real)
	d.Logger.Info("Files: %s deleted %s", actor.Username, display)
	d.audit(constants.AuditActionFileDeleted, actor, audit.FileDetails{Path: display})
	return nil
}

// Search matches entry names under a directory. The pattern must pass the
// pattern safety checker before it is compiled.
func (s *FileService) Search(ctx context.Context, actor Actor, req SearchRequest) (*search.Results, error) {
	d := s.deps

	mode := req.Mode
	if mode == "" {
		mode = constants.PatternModePlain
	}
	pattern, err := d.Patterns.Compile(req.Pattern, mode)
	if err != nil {
		return nil, d.rejected(actor, err)
	}

	real, err := s.resolve(actor, req.Path)
	if err != nil {
		return nil, err
	}

	results, err := search.Search(ctx, real, s.displayPath(real), pattern, d.Config.Search.MaxResults)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, WrapServiceError(constants.ErrCodeSearchError, "search cancelled", err)
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, WrapServiceError(constants.ErrCodeSearchError, "search failed", err)
	}
	return results, nil
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrFileNotFound
	}
	return WrapInternalError(err)
}
