package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter_Write(t *testing.T) {
	dir := t.TempDir()
	files := []File{
		{Path: filepath.Join(dir, "migrations", "20240101000000_Init.go"), Content: []byte("package migrations\n")},
		{Path: filepath.Join(dir, "migrations", "20240101000000_Init.designer.go"), Content: []byte("package migrations\n\n// designer\n")},
	}
	require.NoError(t, NewFileWriter().WithWorkers(1).Write(context.Background(), files...))

	for _, f := range files {
		got, err := os.ReadFile(f.Path)
		require.NoError(t, err)
		assert.Equal(t, f.Content, got)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "migrations"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no staged files are left behind")
}

func TestFileWriter_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.go")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, WriteFiles(context.Background(), File{Path: path, Content: []byte("new")}))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestFileWriter_Failure(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "snapshot.go")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))
	// A regular file where a directory is expected fails staging.
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := WriteFiles(context.Background(),
		File{Path: existing, Content: []byte("new")},
		File{Path: filepath.Join(blocker, "x.go"), Content: []byte("x")},
	)
	require.Error(t, err)

	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got), "no file is changed when one fails")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "staged files are removed")
}

func TestFileWriter_RenameFailure(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "snapshot.go")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))
	added := filepath.Join(dir, "20240101000000_Init.go")
	// A directory at the destination lets staging succeed but fails the rename.
	occupied := filepath.Join(dir, "20240101000000_Init.designer.go")
	require.NoError(t, os.Mkdir(occupied, 0o755))

	err := NewFileWriter().WithWorkers(1).Write(context.Background(),
		File{Path: existing, Content: []byte("new")},
		File{Path: added, Content: []byte("package migrations\n")},
		File{Path: occupied, Content: []byte("package migrations\n")},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rename")

	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got), "replaced files are restored")
	assert.NoFileExists(t, added, "new files are removed")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no staged or backup files are left behind")
}

func TestFileWriter_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "x.go")
	err := WriteFiles(ctx, File{Path: path, Content: []byte("x")})
	require.ErrorIs(t, err, context.Canceled)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
