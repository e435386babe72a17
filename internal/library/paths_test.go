package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "profiles", "tok"), ProfileDir("data", "tok"))
	assert.Equal(t, filepath.Join("data", "profiles", "tok", "current_book"), WorkingDir("data", "tok"))
	assert.Equal(t, filepath.Join("data", "public", "FirstImagesOfAll"), CoverDir("data"))
	assert.Equal(t, filepath.Join("data", "downloads"), DownloadsDir("data"))
	assert.Equal(t, filepath.Join("data", "uploads"), UploadsDir("data"))
}

func TestExt(t *testing.T) {
	assert.Equal(t, "cbz", Ext("/library/Some Book.CBZ"))
	assert.Equal(t, "pdf", Ext("book.pdf"))
	assert.Equal(t, "", Ext("no-extension"))
	assert.Equal(t, "gz", Ext("archive.tar.gz"))
}

func TestListPageImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"00002.jpg", "00000.jpg", "00001.jpg", "path.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	pages := ListPageImages(dir, ValidImageExtensions)
	assert.Equal(t, []string{"00000.jpg", "00001.jpg", "00002.jpg"}, pages)
}

func TestListPageImages_MissingDir(t *testing.T) {
	assert.Empty(t, ListPageImages(filepath.Join(t.TempDir(), "nope"), ValidImageExtensions))
}
