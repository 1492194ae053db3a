package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Root is the storage root directory. All public paths are relative to it
// and use '/' separators.
type Root struct {
	dir string
}

// NewRoot opens (and with create, makes) the storage root.
func NewRoot(dir string, create bool) (*Root, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage root is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist) && create:
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("create storage root %s: %w", abs, err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat storage root %s: %w", abs, err)
	case !info.IsDir():
		return nil, fmt.Errorf("storage root %s is not a directory", abs)
	}

	// Containment checks compare against the real path.
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root %s: %w", abs, err)
	}

	return &Root{dir: real}, nil
}

// Dir returns the absolute storage root.
func (r *Root) Dir() string {
	return r.dir
}

// Clean normalizes a client supplied relative path to NFC with '/'
// separators. It returns "" for the root itself and ErrForbidden when the
// path climbs out of the root.
func (r *Root) Clean(rel string) (string, error) {
	p := norm.NFC.String(strings.TrimSpace(rel))
	if strings.ContainsRune(p, 0) {
		return "", opErr("resolve", "", ErrValidation, fmt.Errorf("path contains NUL byte"))
	}
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return "", nil
	}

	p = path.Clean(p)
	if p == "." {
		return "", nil
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", opErr("resolve", rel, ErrForbidden, nil)
	}
	if filepath.VolumeName(filepath.FromSlash(p)) != "" {
		return "", opErr("resolve", rel, ErrForbidden, nil)
	}
	return p, nil
}

// Resolve maps a relative path to an absolute path inside the root.
func (r *Root) Resolve(rel string) (string, error) {
	clean, err := r.Clean(rel)
	if err != nil {
		return "", err
	}

	full := filepath.Join(r.dir, filepath.FromSlash(clean))
	if !r.contains(full) {
		return "", opErr("resolve", rel, ErrForbidden, nil)
	}
	if err := r.checkLinks(full); err != nil {
		return "", opErr("resolve", rel, ErrForbidden, err)
	}
	return full, nil
}

// Rel converts an absolute path inside the root back to its relative form.
func (r *Root) Rel(abs string) string {
	rel, err := filepath.Rel(r.dir, abs)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (r *Root) contains(full string) bool {
	if full == r.dir {
		return true
	}
	return strings.HasPrefix(full, r.dir+string(os.PathSeparator))
}

// checkLinks refuses paths whose deepest existing ancestor is a symlink
// pointing outside the root.
func (r *Root) checkLinks(full string) error {
	existing := full
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return nil
		}
		existing = parent
	}

	real, err := filepath.EvalSymlinks(existing)
	if err != nil {
		// Dangling link; nothing outside the root can be reached through it.
		return nil
	}
	if !r.contains(real) {
		return fmt.Errorf("symlink target %s is outside the storage root", real)
	}
	return nil
}
