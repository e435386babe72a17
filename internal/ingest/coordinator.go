// Package ingest coordinates the materialization of a book container
// into a user's working directory.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Nytuo/cosmiccomics-server/internal/archive"
	"github.com/Nytuo/cosmiccomics-server/internal/domain"
	"github.com/Nytuo/cosmiccomics-server/internal/epub"
	"github.com/Nytuo/cosmiccomics-server/internal/library"
	"github.com/Nytuo/cosmiccomics-server/internal/pdfrender"
	"github.com/Nytuo/cosmiccomics-server/internal/progress"
)

// Coordinator owns the working directory for the duration of one
// ingestion and dispatches to the handler selected by the container's
// extension. It never swallows a handler error.
type Coordinator struct {
	logger     zerolog.Logger
	reporter   *progress.Reporter
	rasterizer *pdfrender.Rasterizer
	epub       *epub.Converter
}

// NewCoordinator wires a coordinator from its pipeline stages.
func NewCoordinator(logger zerolog.Logger, reporter *progress.Reporter, rasterizer *pdfrender.Rasterizer, converter *epub.Converter) *Coordinator {
	return &Coordinator{
		logger:     logger,
		reporter:   reporter,
		rasterizer: rasterizer,
		epub:       converter,
	}
}

// Ingest materializes the container at containerPath into workDir for
// user. An existing working directory is wiped unconditionally, then
// recreated with a path.txt marker recording the container path, before
// the handler runs. On an unsupported extension the directory is left
// behind holding only the marker.
func (c *Coordinator) Ingest(ctx context.Context, containerPath, workDir, user string) error {
	if _, err := os.Stat(containerPath); err != nil {
		return &domain.IOError{Path: containerPath, Err: err}
	}

	if err := os.RemoveAll(workDir); err != nil {
		return &domain.IOError{Path: workDir, Err: err}
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return &domain.IOError{Path: workDir, Err: err}
	}
	if err := writeMarker(workDir, containerPath); err != nil {
		return err
	}

	ext := library.Ext(containerPath)
	kind := archive.Classify(ext)
	c.logger.Info().
		Str("container", containerPath).
		Str("ext", ext).
		Str("user", user).
		Msg("ingesting container")

	switch kind {
	case archive.KindZipFamily:
		return archive.ExtractImagesFromZip(containerPath, workDir, user, c.reporter)
	case archive.KindRarFamily:
		return archive.ExtractImagesFromRar(containerPath, workDir, user, c.reporter)
	case archive.KindPDF:
		return c.rasterizer.Render(containerPath, workDir, user)
	case archive.KindEpub:
		return c.epub.Convert(ctx, containerPath, workDir, user)
	default:
		return fmt.Errorf("%w: .%s", domain.ErrUnsupportedContainer, ext)
	}
}

// writeMarker records the source container path as the single line of
// <workDir>/path.txt.
func writeMarker(workDir, containerPath string) error {
	markerPath := filepath.Join(workDir, "path.txt")
	f, err := os.Create(markerPath)
	if err != nil {
		return &domain.IOError{Path: markerPath, Err: err}
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, containerPath)
	if err := w.Flush(); err != nil {
		f.Close()
		return &domain.IOError{Path: markerPath, Err: err}
	}
	if err := f.Close(); err != nil {
		return &domain.IOError{Path: markerPath, Err: err}
	}
	return nil
}
