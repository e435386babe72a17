// Package epub converts EPUB containers to page images by printing
// each XHTML document to PDF in a headless browser, merging the page
// PDFs, and rasterizing the result.
package epub

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/Nytuo/cosmiccomics-server/internal/domain"
	"github.com/Nytuo/cosmiccomics-server/internal/pdfrender"
	"github.com/Nytuo/cosmiccomics-server/internal/progress"
)

// defaultGrace is the pause after navigation completes, covering late
// layout work the load event does not wait for.
const defaultGrace = 300 * time.Millisecond

// Converter drives the EPUB-to-pages flow. Stages run strictly in
// order: unzip, page-pdf, merge, clean, rasterize.
type Converter struct {
	reporter   *progress.Reporter
	rasterizer *pdfrender.Rasterizer
	execPath   string
	grace      time.Duration
}

// NewConverter returns a converter using the browser binary at
// execPath, or chromedp's discovery when execPath is empty.
func NewConverter(reporter *progress.Reporter, rasterizer *pdfrender.Rasterizer, execPath string) *Converter {
	return &Converter{
		reporter:   reporter,
		rasterizer: rasterizer,
		execPath:   execPath,
		grace:      defaultGrace,
	}
}

// Convert materializes the EPUB at epubPath into extractDir. The
// unpacked EPUB contents remain alongside the rendered pages; every
// intermediate PDF is removed before returning.
func (c *Converter) Convert(ctx context.Context, epubPath, extractDir, user string) error {
	if err := unzipAll(epubPath, extractDir); err != nil {
		return &domain.EpubStageError{Stage: domain.StageUnzip, Err: err}
	}

	count, err := c.printPages(ctx, extractDir, user)
	if err != nil {
		return &domain.EpubStageError{Stage: domain.StagePagePDF, Err: err}
	}

	merged := filepath.Join(extractDir, "output.pdf")
	inputs := make([]string, 0, count)
	for i := 0; i < count; i++ {
		inputs = append(inputs, filepath.Join(extractDir, fmt.Sprintf("page_%d.pdf", i)))
	}
	if err := pdfrender.Merge(inputs, merged); err != nil {
		return &domain.EpubStageError{Stage: domain.StageMerge, Err: err}
	}

	if err := removePagePDFs(extractDir); err != nil {
		return &domain.EpubStageError{Stage: domain.StageClean, Err: err}
	}

	if err := c.rasterizer.Render(merged, extractDir, user); err != nil {
		return &domain.EpubStageError{Stage: domain.StageRasterize, Err: err}
	}
	if err := os.Remove(merged); err != nil {
		return &domain.EpubStageError{Stage: domain.StageRasterize, Err: &domain.IOError{Path: merged, Err: err}}
	}
	return nil
}

// printPages navigates every XHTML document under extractDir in a
// headless tab and prints it to page_<k>.pdf. Returns the number of
// pages printed.
func (c *Converter) printPages(ctx context.Context, extractDir, user string) (int, error) {
	docs, err := findXHTML(extractDir)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("no xhtml documents in %s", extractDir)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	total := len(docs)
	for k, doc := range docs {
		pdf, err := c.printOne(browserCtx, doc)
		if err != nil {
			return k, err
		}
		outPath := filepath.Join(extractDir, fmt.Sprintf("page_%d.pdf", k))
		if err := os.WriteFile(outPath, pdf, 0o644); err != nil {
			return k, &domain.IOError{Path: outPath, Err: err}
		}
		c.reporter.Set(user, progress.OpUnzip, progress.StatusConverting,
			fmt.Sprintf("%d", (k+1)*100/total), doc)
	}

	c.reporter.Set(user, progress.OpUnzip, progress.StatusMerging,
		fmt.Sprintf("%d", total*100/total), "Merging PDF files")
	return total, nil
}

// printOne opens a fresh tab, waits for navigation plus the grace
// delay, and prints the document to PDF.
func (c *Converter) printOne(browserCtx context.Context, docPath string) ([]byte, error) {
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("file://"+docPath),
		chromedp.Sleep(c.grace),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().Do(ctx)
			pdf = buf
			return err
		}),
	)
	return pdf, err
}

// findXHTML walks extractDir and returns every .xhtml path in lexical
// order.
func findXHTML(extractDir string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(extractDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xhtml") {
			docs = append(docs, path)
		}
		return nil
	})
	return docs, err
}

// unzipAll extracts every entry of the EPUB under extractDir,
// preserving its internal directory layout.
func unzipAll(epubPath, extractDir string) error {
	archive, err := zip.OpenReader(epubPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadContainer, err)
	}
	defer archive.Close()

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return &domain.IOError{Path: extractDir, Err: err}
	}

	root := filepath.Clean(extractDir) + string(os.PathSeparator)
	for _, entry := range archive.File {
		outPath := filepath.Join(extractDir, filepath.FromSlash(entry.Name))
		if !strings.HasPrefix(filepath.Clean(outPath)+string(os.PathSeparator), root) &&
			filepath.Clean(outPath) != filepath.Clean(extractDir) {
			return fmt.Errorf("entry %q escapes %s", entry.Name, extractDir)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0o755); err != nil {
				return &domain.IOError{Path: outPath, Err: err}
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return &domain.IOError{Path: outPath, Err: err}
		}
		if err := writeEntry(entry, outPath); err != nil {
			return &domain.ExtractionError{Entry: entry.Name, Err: err}
		}
	}
	return nil
}

func writeEntry(entry *zip.File, outPath string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// removePagePDFs deletes every top-level .pdf in extractDir except the
// merged output.
func removePagePDFs(extractDir string) error {
	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return &domain.IOError{Path: extractDir, Err: err}
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == "output.pdf" {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			full := filepath.Join(extractDir, entry.Name())
			if err := os.Remove(full); err != nil {
				return &domain.IOError{Path: full, Err: err}
			}
		}
	}
	return nil
}
