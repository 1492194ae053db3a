package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
)

// Tree is a materialized listing of (part of) the storage root.
type Tree struct {
	Entries []types.Entry
	// Skipped lists relative paths that could not be read. Unreadable
	// directories still appear in Entries, without children.
	Skipped []string
}

// Tree walks the directory at rel ("" for the root) and returns its
// children as a nested tree, sorted by name at every level.
func (s *Store) Tree(ctx context.Context, rel string) (*Tree, error) {
	base, err := s.root.Resolve(rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, opErr("list", rel, ErrNotFound, nil)
		}
		return nil, opErr("list", rel, ErrIO, err)
	}
	if !info.IsDir() {
		return nil, opErr("list", rel, ErrValidation, errors.New("not a directory"))
	}
	// fastwalk reports an unreadable root through the callback; check it
	// up front so the whole listing fails instead of coming back empty.
	if _, err := os.ReadDir(base); err != nil {
		return nil, opErr("list", rel, ErrIO, err)
	}

	var (
		mu       sync.Mutex
		children = make(map[string][]types.Entry)
		dirs     = make(map[string]*types.DirectoryEntry)
		skipped  = make(map[string]struct{})
	)

	skip := func(p string, err error) {
		relPath := s.root.Rel(p)
		s.logger.Warn("Skipping unreadable entry", zap.String("path", relPath), zap.Error(err))
		mu.Lock()
		skipped[relPath] = struct{}{}
		mu.Unlock()
	}

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, base, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == base {
			return err
		}
		if err != nil {
			skip(p, err)
			return nil
		}
		if isTempName(d.Name()) {
			return nil
		}

		var node types.Entry
		switch {
		case d.IsDir():
			dir := &types.DirectoryEntry{
				Name:     d.Name(),
				Path:     s.root.Rel(p),
				Children: []types.Entry{},
			}
			mu.Lock()
			dirs[p] = dir
			mu.Unlock()
			node = dir
		case d.Type().IsRegular():
			fi, err := d.Info()
			if err != nil {
				skip(p, err)
				return nil
			}
			node = &types.FileEntry{
				Name:       d.Name(),
				Path:       s.root.Rel(p),
				Size:       fi.Size(),
				CreatedAt:  createdAt(p, fi),
				ModifiedAt: fi.ModTime(),
			}
		default:
			// Symlinks, sockets and devices are not served.
			return nil
		}

		parent := filepath.Dir(p)
		mu.Lock()
		children[parent] = append(children[parent], node)
		mu.Unlock()
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, opErr("list", rel, ErrIO, err)
	}

	for abs, dir := range dirs {
		dir.Children = sortEntries(children[abs])
	}

	tree := &Tree{Entries: sortEntries(children[base])}
	if len(skipped) > 0 {
		tree.Skipped = make([]string, 0, len(skipped))
		for p := range skipped {
			tree.Skipped = append(tree.Skipped, p)
		}
		sort.Strings(tree.Skipped)
	}
	return tree, nil
}

func sortEntries(entries []types.Entry) []types.Entry {
	if entries == nil {
		return []types.Entry{}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath() < entries[j].RelPath()
	})
	return entries
}

func isTempName(name string) bool {
	return strings.HasPrefix(name, ".landrop-") && strings.HasSuffix(name, ".part")
}
