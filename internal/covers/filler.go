package covers

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Nytuo/cosmiccomics-server/internal/archive"
	"github.com/Nytuo/cosmiccomics-server/internal/domain"
	"github.com/Nytuo/cosmiccomics-server/internal/library"
	"github.com/Nytuo/cosmiccomics-server/internal/storage"
)

// Filler is the batch process that extracts a representative cover for
// every book whose cover URL is blank. One broken book never aborts the
// batch; per-book failures are logged and skipped.
type Filler struct {
	logger    zerolog.Logger
	store     *storage.Store
	validExts []string
	outDir    string

	// OnBook, when set, is called after each book with the number of
	// books processed so far and the batch total.
	OnBook func(done, total int)
}

// NewFiller builds a filler writing covers into outDir.
func NewFiller(logger zerolog.Logger, store *storage.Store, validExts []string, outDir string) *Filler {
	return &Filler{
		logger:    logger,
		store:     store,
		validExts: validExts,
		outDir:    outDir,
	}
}

// Fill selects every blank-cover book, extracts its first image into
// the cover directory as <id>.jpg, records the cover URL, and finally
// transcodes the directory to the delivery codec. When no book needs a
// cover the pass is a no-op.
func (f *Filler) Fill(ctx context.Context) error {
	books, err := f.store.Books.WithBlankCovers(ctx)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		f.logger.Info().Msg("no blank covers to fill")
		return nil
	}

	if err := os.MkdirAll(f.outDir, 0o755); err != nil {
		return &domain.IOError{Path: f.outDir, Err: err}
	}

	for i, book := range books {
		f.fillOne(ctx, book)
		if f.OnBook != nil {
			f.OnBook(i+1, len(books))
		}
	}

	return TranscodeDirectory(ctx, f.outDir, f.outDir, f.validExts, f.store.Books)
}

func (f *Filler) fillOne(ctx context.Context, book storage.Book) {
	ext := library.Ext(book.Path)
	if ext == "" {
		f.logger.Warn().Str("book", book.ID).Str("path", book.Path).Msg("book path has no extension, skipping")
		return
	}

	if err := archive.ExtractFirstImage(book.Path, f.outDir, ext, book.ID); err != nil {
		f.logger.Warn().Err(err).Str("book", book.ID).Msg("cover extraction failed, skipping")
		return
	}

	// Downstream readers run under a different uid; open up everything
	// the extractor may have produced.
	if err := chmodAll(f.outDir); err != nil {
		f.logger.Warn().Err(err).Str("book", book.ID).Msg("cover chmod failed")
	}

	coverURL := filepath.Join(f.outDir, book.ID+".jpg")
	if err := f.store.Books.UpdateCoverURL(ctx, book.ID, coverURL); err != nil {
		f.logger.Warn().Err(err).Str("book", book.ID).Msg("cover url update failed")
	}
}

func chmodAll(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.Chmod(filepath.Join(dir, entry.Name()), 0o777); err != nil {
			return err
		}
	}
	return nil
}
