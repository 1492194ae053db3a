package storage

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
)

func TestTreeFolderScenario(t *testing.T) {
	s := newTestStore(t, 0)
	writeFile(t, s, "docs/a.txt", 10)
	writeFile(t, s, "docs/sub/b.txt", 20)

	tree, err := s.Tree(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, tree.Entries, 1)
	assert.Empty(t, tree.Skipped)

	docs, ok := tree.Entries[0].(*types.DirectoryEntry)
	require.True(t, ok, "docs should be a directory")
	assert.Equal(t, "docs", docs.Name)
	assert.Equal(t, "docs", docs.Path)
	require.Len(t, docs.Children, 2)

	a, ok := docs.Children[0].(*types.FileEntry)
	require.True(t, ok)
	assert.Equal(t, "a.txt", a.Name)
	assert.Equal(t, "docs/a.txt", a.Path)
	assert.Equal(t, int64(10), a.Size)
	assert.False(t, a.ModifiedAt.IsZero())
	assert.False(t, a.CreatedAt.IsZero())

	sub, ok := docs.Children[1].(*types.DirectoryEntry)
	require.True(t, ok)
	assert.Equal(t, "sub", sub.Name)
	require.Len(t, sub.Children, 1)

	b, ok := sub.Children[0].(*types.FileEntry)
	require.True(t, ok)
	assert.Equal(t, "docs/sub/b.txt", b.Path)
	assert.Equal(t, int64(20), b.Size)
}

func TestTreeSortedByName(t *testing.T) {
	s := newTestStore(t, 0)
	for _, name := range []string{"zeta.txt", "alpha.txt", "mid/x.txt", "Beta.txt"} {
		writeFile(t, s, name, 1)
	}

	tree, err := s.Tree(context.Background(), "")
	require.NoError(t, err)

	var names []string
	for _, e := range tree.Entries {
		names = append(names, e.RelPath())
	}
	assert.Equal(t, []string{"Beta.txt", "alpha.txt", "mid", "zeta.txt"}, names)
}

func TestTreeEmptyRoot(t *testing.T) {
	s := newTestStore(t, 0)

	tree, err := s.Tree(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, tree.Entries)
	assert.Empty(t, tree.Entries)
}

func TestTreeEmptyDirectoryHasChildren(t *testing.T) {
	s := newTestStore(t, 0)
	require.NoError(t, os.Mkdir(filepath.Join(s.Root().Dir(), "empty"), 0o755))

	tree, err := s.Tree(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, tree.Entries, 1)

	dir := tree.Entries[0].(*types.DirectoryEntry)
	assert.NotNil(t, dir.Children)
	assert.Empty(t, dir.Children)
}

func TestTreeHidesInFlightUploads(t *testing.T) {
	s := newTestStore(t, 0)
	writeFile(t, s, "kept.txt", 1)
	writeFile(t, s, ".landrop-123.part", 1)

	tree, err := s.Tree(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, tree.Entries, 1)
	assert.Equal(t, "kept.txt", tree.Entries[0].RelPath())
}

func TestTreeSubtree(t *testing.T) {
	s := newTestStore(t, 0)
	writeFile(t, s, "docs/a.txt", 1)
	writeFile(t, s, "other.txt", 1)

	tree, err := s.Tree(context.Background(), "docs")
	require.NoError(t, err)
	require.Len(t, tree.Entries, 1)
	assert.Equal(t, "docs/a.txt", tree.Entries[0].RelPath())

	_, err = s.Tree(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Tree(context.Background(), "other.txt")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Tree(context.Background(), "../")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTreeSkipsUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	s := newTestStore(t, 0)
	writeFile(t, s, "locked/secret.txt", 1)
	writeFile(t, s, "open.txt", 1)

	locked := filepath.Join(s.Root().Dir(), "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	tree, err := s.Tree(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"locked"}, tree.Skipped)
	require.Len(t, tree.Entries, 2)
	assert.Empty(t, tree.Entries[0].(*types.DirectoryEntry).Children)
}

func TestTreeCancelled(t *testing.T) {
	s := newTestStore(t, 0)
	writeFile(t, s, "a.txt", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Tree(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
