package ingest

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nytuo/cosmiccomics-server/internal/domain"
	"github.com/Nytuo/cosmiccomics-server/internal/epub"
	"github.com/Nytuo/cosmiccomics-server/internal/pdfrender"
	"github.com/Nytuo/cosmiccomics-server/internal/progress"
)

func newTestCoordinator(reporter *progress.Reporter) *Coordinator {
	rasterizer := pdfrender.NewRasterizer(reporter)
	converter := epub.NewConverter(reporter, rasterizer, "")
	return NewCoordinator(zerolog.Nop(), reporter, rasterizer, converter)
}

func writeTestZip(t *testing.T, path string, names ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for _, name := range names {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte("fakeimage " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestIngest_ZipWritesMarkerAndPages(t *testing.T) {
	dir := t.TempDir()
	containerPath := filepath.Join(dir, "book.cbz")
	writeTestZip(t, containerPath, "a.jpg", "b.jpg")

	workDir := filepath.Join(dir, "current_book")
	reporter := progress.NewReporter()
	c := newTestCoordinator(reporter)

	require.NoError(t, c.Ingest(context.Background(), containerPath, workDir, "tok"))

	marker, err := os.ReadFile(filepath.Join(workDir, "path.txt"))
	require.NoError(t, err)
	assert.Equal(t, containerPath+"\n", string(marker))

	for _, page := range []string{"00000.jpg", "00001.jpg"} {
		_, err := os.Stat(filepath.Join(workDir, page))
		assert.NoError(t, err, page)
	}

	st := reporter.Get("tok")[progress.OpUnzip]
	assert.Equal(t, progress.StatusDone, st.Status)
}

func TestIngest_WipesPreviousBook(t *testing.T) {
	dir := t.TempDir()
	workDir := filepath.Join(dir, "current_book")
	require.NoError(t, os.MkdirAll(workDir, 0o755))
	stale := filepath.Join(workDir, "99999.jpg")
	require.NoError(t, os.WriteFile(stale, []byte("previous book"), 0o644))

	containerPath := filepath.Join(dir, "next.cbz")
	writeTestZip(t, containerPath, "only.jpg")

	c := newTestCoordinator(progress.NewReporter())
	require.NoError(t, c.Ingest(context.Background(), containerPath, workDir, "tok"))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale page must be wiped")
	_, err = os.Stat(filepath.Join(workDir, "00000.jpg"))
	assert.NoError(t, err)
}

func TestIngest_UnsupportedExtensionLeavesMarkerOnly(t *testing.T) {
	dir := t.TempDir()
	containerPath := filepath.Join(dir, "book.docx")
	require.NoError(t, os.WriteFile(containerPath, []byte("word doc"), 0o644))

	workDir := filepath.Join(dir, "current_book")
	c := newTestCoordinator(progress.NewReporter())

	err := c.Ingest(context.Background(), containerPath, workDir, "tok")
	require.ErrorIs(t, err, domain.ErrUnsupportedContainer)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "path.txt", entries[0].Name())
}

func TestIngest_MissingContainer(t *testing.T) {
	dir := t.TempDir()
	c := newTestCoordinator(progress.NewReporter())

	err := c.Ingest(context.Background(), filepath.Join(dir, "nope.cbz"), filepath.Join(dir, "wd"), "tok")
	var ioErr *domain.IOError
	require.ErrorAs(t, err, &ioErr)

	// The working directory is untouched when the container is absent.
	_, statErr := os.Stat(filepath.Join(dir, "wd"))
	assert.True(t, os.IsNotExist(statErr))
}
