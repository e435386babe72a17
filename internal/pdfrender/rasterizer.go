// Package pdfrender renders PDF documents to page images in the
// delivery codec and concatenates page PDFs for the EPUB flow.
package pdfrender

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"

	"github.com/Nytuo/cosmiccomics-server/internal/domain"
	"github.com/Nytuo/cosmiccomics-server/internal/progress"
)

// Page images are rendered at this width; height follows the page's
// aspect ratio.
const targetWidth = 1200

// deliveryQuality is the WebP quality used for page output.
const deliveryQuality = 75

// Rasterizer renders each page of a PDF to a WebP image.
type Rasterizer struct {
	reporter *progress.Reporter
}

// NewRasterizer returns a rasterizer reporting into reporter.
func NewRasterizer(reporter *progress.Reporter) *Rasterizer {
	return &Rasterizer{reporter: reporter}
}

// Render rasterizes every page of the PDF at pdfPath into outDir as
// page_<i>.webp with zero-based unpadded indices. Rendering is
// CPU-bound; callers on a request path should run it off that path.
func (r *Rasterizer) Render(pdfPath, outDir, user string) error {
	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadContainer, err)
	}
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadContainer, err)
	}
	defer doc.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &domain.IOError{Path: outDir, Err: err}
	}

	total := doc.NumPage()
	for i := 0; i < total; i++ {
		if err := r.renderPage(doc, i, outDir); err != nil {
			return &domain.RenderError{Page: i, Err: err}
		}
		r.reporter.Set(user, progress.OpUnzip, progress.StatusLoading,
			fmt.Sprintf("%d", i*100/total), fmt.Sprintf("page_%d", i))
	}

	r.reporter.Set(user, progress.OpUnzip, progress.StatusDone, "100", "All pages rendered.")
	return nil
}

func (r *Rasterizer) renderPage(doc *fitz.Document, page int, outDir string) error {
	bound, err := doc.Bound(page)
	if err != nil {
		return err
	}

	// Pick a DPI that lands near the target width; go-fitz page bounds
	// are in points (72 per inch).
	dpi := 72.0
	if bound.Dx() > 0 {
		dpi = 72.0 * float64(targetWidth) / float64(bound.Dx())
	}
	img, err := doc.ImageDPI(page, dpi)
	if err != nil {
		return err
	}

	out := imaging.Resize(img, targetWidth, 0, imaging.Lanczos)

	outPath := filepath.Join(outDir, fmt.Sprintf("page_%d.webp", page))
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := webp.Encode(f, out, &webp.Options{Quality: deliveryQuality}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(outPath, 0o777)
}
