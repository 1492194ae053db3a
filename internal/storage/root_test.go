package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootClean(t *testing.T) {
	root, err := NewRoot(t.TempDir(), false)
	require.NoError(t, err)

	tests := []struct {
		name      string
		in        string
		want      string
		forbidden bool
	}{
		{name: "plain file", in: "a.txt", want: "a.txt"},
		{name: "nested", in: "docs/sub/b.txt", want: "docs/sub/b.txt"},
		{name: "leading slash", in: "/docs/a.txt", want: "docs/a.txt"},
		{name: "backslashes", in: `docs\sub\b.txt`, want: "docs/sub/b.txt"},
		{name: "inner dotdot stays inside", in: "docs/../a.txt", want: "a.txt"},
		{name: "decomposed accent", in: "cafe\u0301/a.txt", want: "caf\u00e9/a.txt"},
		{name: "empty is root", in: "", want: ""},
		{name: "dot is root", in: "./", want: ""},
		{name: "parent", in: "..", forbidden: true},
		{name: "climb out", in: "../secret.txt", forbidden: true},
		{name: "climb out deep", in: "docs/../../secret.txt", forbidden: true},
		{name: "climb out after slash", in: "/../etc/passwd", forbidden: true},
		{name: "windows climb", in: `..\..\secret.txt`, forbidden: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.Clean(tt.in)
			if tt.forbidden {
				assert.ErrorIs(t, err, ErrForbidden)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRootResolve(t *testing.T) {
	root, err := NewRoot(t.TempDir(), false)
	require.NoError(t, err)

	abs, err := root.Resolve("docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root.Dir(), "docs", "a.txt"), abs)
	assert.Equal(t, "docs/a.txt", root.Rel(abs))

	abs, err = root.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, root.Dir(), abs)
	assert.Equal(t, "", root.Rel(abs))

	_, err = root.Resolve("../outside")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Forbidden", KindOf(err))
}

func TestRootResolveRejectsEscapingSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	outside := t.TempDir()
	root, err := NewRoot(t.TempDir(), false)
	require.NoError(t, err)
	require.NoError(t, os.Symlink(outside, filepath.Join(root.Dir(), "link")))

	_, err = root.Resolve("link/secret.txt")
	assert.ErrorIs(t, err, ErrForbidden)
}
