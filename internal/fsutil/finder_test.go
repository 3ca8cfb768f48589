package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.hcl", "a.hcl", "notes.txt", "nested/c.hcl"} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o600))
	}

	got, err := FindFiles([]string{root, filepath.Join(root, "a.hcl"), filepath.Join(root, "notes.txt")}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested", "c.hcl"),
	}, got)

	_, err = FindFiles([]string{filepath.Join(root, "absent")}, ".hcl")
	assert.ErrorContains(t, err, "error accessing path")

	assert.Panics(t, func() { _, _ = FindFiles(nil, "") })
}
