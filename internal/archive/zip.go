package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Nytuo/cosmiccomics-server/internal/domain"
	"github.com/Nytuo/cosmiccomics-server/internal/progress"
)

// ExtractImagesFromZip extracts every image entry of a zip-family
// container into extractDir as <i:05>.jpg, where i counts image entries
// in archive order. Entry bytes are copied verbatim; the .jpg suffix is
// a naming convention, not a transcode. Non-image entries are skipped.
// Each written page is chmodded 0777 so collaborator processes with a
// different uid can serve it.
func ExtractImagesFromZip(zipPath, extractDir, user string, reporter *progress.Reporter) error {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadContainer, err)
	}
	defer archive.Close()

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return &domain.IOError{Path: extractDir, Err: err}
	}

	// Percentage is computed against the full entry count, image or not.
	total := len(archive.File)
	written := 0
	for _, entry := range archive.File {
		if !IsImageFile(entry.Name) {
			continue
		}
		outPath := filepath.Join(extractDir, fmt.Sprintf("%05d.jpg", written))
		if err := copyZipEntry(entry, outPath); err != nil {
			return &domain.ExtractionError{Entry: entry.Name, Err: err}
		}
		if err := os.Chmod(outPath, 0o777); err != nil {
			return &domain.IOError{Path: outPath, Err: err}
		}
		written++
		reporter.Set(user, progress.OpUnzip, progress.StatusLoading,
			fmt.Sprintf("%d", written*100/total), entry.Name)
	}

	reporter.Set(user, progress.OpUnzip, progress.StatusDone, "100", "All images extracted.")
	return nil
}

func copyZipEntry(entry *zip.File, outPath string) error {
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
