// Package covers fills missing book covers from their containers and
// transcodes cover images to the delivery codec.
package covers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/Nytuo/cosmiccomics-server/internal/domain"
	"github.com/Nytuo/cosmiccomics-server/internal/library"
	"github.com/Nytuo/cosmiccomics-server/internal/storage"
)

// deliveryQuality is the WebP quality used for transcoded covers.
const deliveryQuality = 75

// TranscodeDirectory re-encodes every image in dir whose extension is
// in validExts to WebP and writes <outDir>/<original_filename>.webp.
// The original extension stays in the middle of the output name, and
// the cover-URL update is keyed by the original filename; both quirks
// are load-bearing for the web client and must match the filler's
// id-keyed update site if either ever changes. The first failure
// aborts the pass.
func TranscodeDirectory(ctx context.Context, dir, outDir string, validExts []string, books *storage.BookRepository) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &domain.IOError{Path: outDir, Err: err}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return &domain.IOError{Path: dir, Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := library.Ext(entry.Name())
		if !contains(validExts, ext) {
			continue
		}

		inPath := filepath.Join(dir, entry.Name())
		outPath := filepath.Join(outDir, entry.Name()+".webp")
		if err := transcodeToWebP(inPath, outPath); err != nil {
			return fmt.Errorf("transcode %s: %w", inPath, err)
		}
		if err := books.UpdateCoverURL(ctx, entry.Name(), outPath); err != nil {
			return fmt.Errorf("update cover url for %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func transcodeToWebP(inPath, outPath string) error {
	img, err := imaging.Open(inPath)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := webp.Encode(f, img, &webp.Options{Quality: deliveryQuality}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(outPath, 0o777)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
