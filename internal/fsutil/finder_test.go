package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.hcl", "a.hcl", "sub/c.hcl", "readme.md", "sub/d.hcl.bak"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	files, e := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, e)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "sub", "c.hcl"),
	}, files)

	files, e = FindFilesByExtension(filepath.Join(dir, "a.hcl"), ".hcl")
	require.NoError(t, e)
	assert.Equal(t, []string{filepath.Join(dir, "a.hcl")}, files)

	_, e = FindFilesByExtension(filepath.Join(dir, "missing"), ".hcl")
	assert.Error(t, e)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(dir, "") })
}
