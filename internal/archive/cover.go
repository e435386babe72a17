package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"

	"github.com/Nytuo/cosmiccomics-server/internal/domain"
)

// ExtractFirstImage pulls the first image entry of a zip- or rar-family
// container and writes it to <outDir>/<name>.jpg. Other container kinds
// are not supported for covers. Finding no image entry is not an error;
// the operation succeeds with no file written.
func ExtractFirstImage(containerPath, outDir, ext, name string) error {
	switch Classify(ext) {
	case KindZipFamily:
		return firstImageFromZip(containerPath, outDir, name)
	case KindRarFamily:
		return firstImageFromRar(containerPath, outDir, name)
	default:
		return fmt.Errorf("%w: .%s", domain.ErrUnsupportedContainer, ext)
	}
}

func firstImageFromZip(zipPath, outDir, name string) error {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadContainer, err)
	}
	defer archive.Close()

	for _, entry := range archive.File {
		if !IsImageFile(entry.Name) {
			continue
		}
		outPath := filepath.Join(outDir, name+".jpg")
		if err := copyZipEntry(entry, outPath); err != nil {
			return &domain.ExtractionError{Entry: entry.Name, Err: err}
		}
		return nil
	}
	return nil
}

func firstImageFromRar(rarPath, outDir, name string) error {
	archive, err := rardecode.OpenReader(rarPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadContainer, err)
	}
	defer archive.Close()

	for {
		hdr, err := archive.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrBadContainer, err)
		}
		if hdr.IsDir || !IsImageFile(hdr.Name) {
			continue
		}

		// Same extract-then-rename dance as the page extractor.
		extracted, err := entryPath(outDir, hdr.Name)
		if err != nil {
			return &domain.ExtractionError{Entry: hdr.Name, Err: err}
		}
		if err := writeRarEntry(archive, extracted); err != nil {
			return &domain.ExtractionError{Entry: hdr.Name, Err: err}
		}
		renamed := filepath.Join(outDir, name+".jpg")
		if err := os.Rename(extracted, renamed); err != nil {
			return &domain.IOError{Path: extracted, Err: err}
		}
		return nil
	}
}
