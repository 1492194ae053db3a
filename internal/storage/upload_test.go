package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func part(name, rel, body string) Part {
	return Part{Filename: name, RelativePath: rel, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func readStored(t *testing.T, s *Store, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(s.Root().Dir(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestSaveFlatFile(t *testing.T) {
	s := newTestStore(t, 0)

	up, err := s.Save(context.Background(), part("notes.txt", "", "hello world"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", up.OriginalName)
	assert.Equal(t, "notes.txt", up.Filename)
	assert.Equal(t, "notes.txt", up.RelativePath)
	assert.Equal(t, int64(11), up.Size)
	assert.True(t, strings.HasPrefix(up.Mimetype, "text/plain"), up.Mimetype)
	assert.False(t, up.UploadTime.IsZero())
	assert.Equal(t, "hello world", readStored(t, s, "notes.txt"))
}

func TestSaveCreatesFolders(t *testing.T) {
	s := newTestStore(t, 0)

	up, err := s.Save(context.Background(), part("b.txt", "docs/sub/b.txt", "nested"))
	require.NoError(t, err)
	assert.Equal(t, "b.txt", up.OriginalName)
	assert.Equal(t, "docs/sub/b.txt", up.RelativePath)
	assert.Equal(t, filepath.Join(s.Root().Dir(), "docs", "sub", "b.txt"), up.FullPath)
	assert.Equal(t, "nested", readStored(t, s, "docs/sub/b.txt"))
}

func TestSaveRelativePathEqualToName(t *testing.T) {
	s := newTestStore(t, 0)

	up, err := s.Save(context.Background(), part("a.txt", "a.txt", "x"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", up.RelativePath)
}

func TestSaveOverwrites(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	_, err := s.Save(ctx, part("a.txt", "", "first version"))
	require.NoError(t, err)
	_, err = s.Save(ctx, part("a.txt", "", "second"))
	require.NoError(t, err)

	assert.Equal(t, "second", readStored(t, s, "a.txt"))
}

func TestSaveTooLarge(t *testing.T) {
	s := newTestStore(t, 8)
	ctx := context.Background()

	_, err := s.Save(ctx, part("big.bin", "", "0123456789"))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	// Undeclared size is caught while copying.
	_, err = s.Save(ctx, Part{Filename: "big.bin", Size: -1, Body: strings.NewReader("0123456789")})
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, "FileTooLarge", KindOf(err))

	entries, err := os.ReadDir(s.Root().Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial or temp file should remain")

	_, err = s.Save(ctx, part("ok.bin", "", "01234567"))
	assert.NoError(t, err, "exactly the limit is accepted")
}

func TestSaveRejectsTraversal(t *testing.T) {
	s := newTestStore(t, 0)

	_, err := s.Save(context.Background(), part("x.txt", "../../etc/x.txt", "x"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.Save(context.Background(), part("", "", "x"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSaveOntoDirectory(t *testing.T) {
	s := newTestStore(t, 0)
	require.NoError(t, os.Mkdir(filepath.Join(s.Root().Dir(), "docs"), 0o755))

	_, err := s.Save(context.Background(), part("docs", "", "x"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSaveRepairsNames(t *testing.T) {
	s := newTestStore(t, 0)
	mangled := string([]rune{0xe6, 0x96, 0x87, 0xe4, 0xbb, 0xb6}) + ".txt"

	up, err := s.Save(context.Background(), part(mangled, "", "x"))
	require.NoError(t, err)
	assert.Equal(t, "文件.txt", up.OriginalName)
	assert.Equal(t, "文件.txt", up.RelativePath)
	assert.FileExists(t, filepath.Join(s.Root().Dir(), "文件.txt"))
}

func TestSaveStripsClientDirectories(t *testing.T) {
	s := newTestStore(t, 0)

	up, err := s.Save(context.Background(), part(`C:\Users\me\photo.jpg`, "", "x"))
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", up.OriginalName)
	assert.Equal(t, "photo.jpg", up.RelativePath)
}

func TestSaveKeepsDeclaredTypeForBinary(t *testing.T) {
	s := newTestStore(t, 0)
	body := bytes.Repeat([]byte{0x00, 0x01, 0xfe}, 32)

	up, err := s.Save(context.Background(), Part{
		Filename:    "blob.dat",
		ContentType: "application/x-custom",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	})
	require.NoError(t, err)
	assert.Equal(t, "application/x-custom", up.Mimetype)
}

func TestSaveCancelled(t *testing.T) {
	s := newTestStore(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, part("a.txt", "", "x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(s.Root().Dir(), "a.txt"))
}

type countingBody struct {
	r    io.Reader
	read int64
}

func (c *countingBody) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	return n, err
}

func TestStageStopsReadingPastLimit(t *testing.T) {
	s := newTestStore(t, 1024)
	body := &countingBody{r: bytes.NewReader(make([]byte, 1<<20))}

	_, err := s.Stage(context.Background(), Part{Filename: "big.bin", Size: -1, Body: body})
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.LessOrEqual(t, body.read, int64(64<<10), "body must not be drained")

	entries, err := os.ReadDir(s.Root().Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStageThenCommitWithLatePath(t *testing.T) {
	s := newTestStore(t, 0)

	st, err := s.Stage(context.Background(), part("b.txt", "", "hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), st.Size())

	// Staged bytes are invisible to listings and conflict checks.
	tree, err := s.Tree(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, tree.Entries)

	up, err := s.Commit(st, "docs/sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "docs/sub/b.txt", up.RelativePath)
	assert.Equal(t, "hello", readStored(t, s, "docs/sub/b.txt"))

	_, err = s.Commit(st, "again.txt")
	assert.ErrorIs(t, err, ErrValidation)
	s.Discard(st)
}

func TestDiscardRemovesStagedBytes(t *testing.T) {
	s := newTestStore(t, 0)

	st, err := s.Stage(context.Background(), part("a.txt", "", "x"))
	require.NoError(t, err)
	s.Discard(st)
	s.Discard(st)
	s.Discard(nil)

	entries, err := os.ReadDir(s.Root().Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
