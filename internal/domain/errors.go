// Package domain defines the error taxonomy shared by the ingestion and
// cover pipelines. Collaborators match on these kinds to pick an HTTP
// status; the pipeline itself never maps them.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel kinds without a payload.
var (
	// ErrUnsupportedContainer is returned when a container extension is
	// not recognized by the classifier.
	ErrUnsupportedContainer = errors.New("container format is not (yet) supported")

	// ErrBadContainer is returned when a container cannot be opened:
	// bad signature, truncated header, or an otherwise corrupt archive.
	ErrBadContainer = errors.New("container is invalid or corrupt")
)

// ExtractionError reports a single archive entry that could not be
// materialized. It aborts the ingestion that produced it.
type ExtractionError struct {
	Entry string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for entry %q: %v", e.Entry, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RenderError reports a PDF page that could not be rendered or written.
type RenderError struct {
	Page int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed for page %d: %v", e.Page, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// EPUB flow stages, in execution order.
const (
	StageUnzip     = "unzip"
	StagePagePDF   = "page-pdf"
	StageMerge     = "merge"
	StageClean     = "clean"
	StageRasterize = "rasterize"
)

// EpubStageError identifies the EPUB flow stage that failed.
type EpubStageError struct {
	Stage string
	Err   error
}

func (e *EpubStageError) Error() string {
	return fmt.Sprintf("epub %s stage failed: %v", e.Stage, e.Err)
}

func (e *EpubStageError) Unwrap() error { return e.Err }

// IOError reports a filesystem operation (create, remove, rename,
// set-permissions) that failed on a specific path.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io failed on %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
