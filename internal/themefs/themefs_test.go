package themefs

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecursiveMkdir_CreatesIntermediateDirsOnly(t *testing.T) {
	base := t.TempDir()
	dir, err := RecursiveMkdir(base, "a b c")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "a", "b"), dir)

	info, err := os.Stat(filepath.Join(base, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(base, "a", "b", "c"))
	assert.True(t, os.IsNotExist(err), "the final segment is a filename, not a directory to create")
}

func TestRecursiveMkdir_CreatesBaseForSingleWordName(t *testing.T) {
	base := filepath.Join(t.TempDir(), "does-not-exist-yet")
	dir, err := RecursiveMkdir(base, "x")
	require.NoError(t, err)
	assert.Equal(t, base, dir)

	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRecursiveMkdir_FailsOnFileCollision(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "a"), []byte("x"), 0o644))

	_, err := RecursiveMkdir(base, "a b")
	assert.Error(t, err)
}

func TestAddEntry_WritesContentWithTrailingNewline(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, AddEntry(base, "x", "y"))

	got, err := os.ReadFile(filepath.Join(base, "x"))
	require.NoError(t, err)
	assert.Equal(t, "y\n", string(got))
}

func TestAddEntry_NestedNameCreatesDirectories(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, AddEntry(base, "sys shell prompt greeting", "hello"))

	got, err := os.ReadFile(filepath.Join(base, "sys", "shell", "prompt", "greeting"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(got))
}

func TestAddEntry_OverwriteWarnsButSucceeds(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, AddEntry(base, "x", "first"))
	require.NoError(t, AddEntry(base, "x", "second"))

	got, err := os.ReadFile(filepath.Join(base, "x"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(got))
}

func TestWriteInfofile_CreatesParentDirsAndContent(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "dir")
	require.NoError(t, WriteInfofile(base, "name", "clitheme"))

	got, err := os.ReadFile(filepath.Join(base, "name"))
	require.NoError(t, err)
	assert.Equal(t, "clitheme\n", string(got))
}

func TestWriteManpageFile_WritesPlainAndGzipSibling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "mytool")
	content := []byte("MYTOOL(1) manual page text")
	require.NoError(t, WriteManpageFile(path, content))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	gz, err := os.ReadFile(path + ".gz")
	require.NoError(t, err)

	r, err := pgzip.NewReader(bytes.NewReader(gz))
	require.NoError(t, err)
	defer r.Close()

	decompressed, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, decompressed)
}
