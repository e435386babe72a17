package pdfrender

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nytuo/cosmiccomics-server/internal/domain"
	"github.com/Nytuo/cosmiccomics-server/internal/progress"
)

// writePDF emits a minimal but well-formed PDF with the given number of
// blank US-letter pages, tracking byte offsets so the xref table is
// exact.
func writePDF(t *testing.T, path string, pages int) {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	add := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")
	add("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	add(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, pages))
	for i := 0; i < pages; i++ {
		add(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", 3+i))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// skipWithoutBackend skips the test when the rendering backend cannot
// open a known-good document.
func skipWithoutBackend(t *testing.T, pdfPath string) {
	t.Helper()
	doc, err := fitz.New(pdfPath)
	if err != nil {
		t.Skipf("rendering backend unavailable: %v", err)
	}
	doc.Close()
}

func TestRender_TwoPagePDF(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "book.pdf")
	writePDF(t, pdfPath, 2)
	skipWithoutBackend(t, pdfPath)

	outDir := filepath.Join(dir, "out")
	reporter := progress.NewReporter()
	require.NoError(t, NewRasterizer(reporter).Render(pdfPath, outDir, "tok"))

	for _, name := range []string{"page_0.webp", "page_1.webp"} {
		outPath := filepath.Join(outDir, name)
		info, err := os.Stat(outPath)
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0o777), info.Mode().Perm(), name)

		f, err := os.Open(outPath)
		require.NoError(t, err)
		cfg, format, err := image.DecodeConfig(f)
		f.Close()
		require.NoError(t, err, name)
		assert.Equal(t, "webp", format)
		assert.Equal(t, targetWidth, cfg.Width)
	}
	_, err := os.Stat(filepath.Join(outDir, "page_2.webp"))
	assert.True(t, os.IsNotExist(err))

	st := reporter.Get("tok")[progress.OpUnzip]
	assert.Equal(t, progress.StatusDone, st.Status)
	assert.Equal(t, "100", st.Percentage)
	assert.Equal(t, "All pages rendered.", st.CurrentFile)
}

func TestRender_MissingFile(t *testing.T) {
	dir := t.TempDir()
	err := NewRasterizer(progress.NewReporter()).Render(
		filepath.Join(dir, "nope.pdf"), filepath.Join(dir, "out"), "tok")
	assert.ErrorIs(t, err, domain.ErrBadContainer)
}

func TestRender_GarbageFile(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pdf"), 0o644))

	err := NewRasterizer(progress.NewReporter()).Render(garbage, filepath.Join(dir, "out"), "tok")
	assert.ErrorIs(t, err, domain.ErrBadContainer)
}

func TestMerge_ConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "page_0.pdf")
	second := filepath.Join(dir, "page_1.pdf")
	writePDF(t, first, 1)
	writePDF(t, second, 2)

	merged := filepath.Join(dir, "output.pdf")
	require.NoError(t, Merge([]string{first, second}, merged))

	count, err := api.PageCountFile(merged)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMerge_MissingInput(t *testing.T) {
	dir := t.TempDir()
	err := Merge([]string{filepath.Join(dir, "nope.pdf")}, filepath.Join(dir, "output.pdf"))
	var ioErr *domain.IOError
	require.ErrorAs(t, err, &ioErr)
}
