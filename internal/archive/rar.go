package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nwaples/rardecode/v2"

	"github.com/Nytuo/cosmiccomics-server/internal/domain"
	"github.com/Nytuo/cosmiccomics-server/internal/progress"
)

// ExtractImagesFromRar extracts every image entry of a rar-family
// container into extractDir as <i:05>.jpg in archive order. Each entry
// is first materialized under its original path inside extractDir, then
// renamed; non-image entries are skipped by advancing past their
// headers. A listing pass determines the image total for percentages;
// if listing fails the extraction still runs and progress carries only
// the current entry name.
func ExtractImagesFromRar(rarPath, extractDir, user string, reporter *progress.Reporter) error {
	total, countErr := countRarImages(rarPath)

	archive, err := rardecode.OpenReader(rarPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadContainer, err)
	}
	defer archive.Close()

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return &domain.IOError{Path: extractDir, Err: err}
	}

	written := 0
	for {
		hdr, err := archive.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrBadContainer, err)
		}
		if hdr.IsDir || !IsImageFile(hdr.Name) {
			continue
		}

		extracted, err := entryPath(extractDir, hdr.Name)
		if err != nil {
			return &domain.ExtractionError{Entry: hdr.Name, Err: err}
		}
		if err := writeRarEntry(archive, extracted); err != nil {
			return &domain.ExtractionError{Entry: hdr.Name, Err: err}
		}

		renamed := filepath.Join(extractDir, fmt.Sprintf("%05d.jpg", written))
		if err := os.Rename(extracted, renamed); err != nil {
			return &domain.IOError{Path: extracted, Err: err}
		}
		if err := os.Chmod(renamed, 0o777); err != nil {
			return &domain.IOError{Path: renamed, Err: err}
		}
		written++

		percentage := ""
		if countErr == nil && total > 0 {
			percentage = fmt.Sprintf("%d", written*100/total)
		}
		reporter.Set(user, progress.OpUnzip, progress.StatusLoading, percentage, hdr.Name)
	}

	reporter.Set(user, progress.OpUnzip, progress.StatusDone, "100", "All images extracted.")
	return nil
}

// countRarImages is the listing pass: it walks the headers once and
// counts image file entries without extracting anything.
func countRarImages(rarPath string) (int, error) {
	archive, err := rardecode.OpenReader(rarPath)
	if err != nil {
		return 0, err
	}
	defer archive.Close()

	count := 0
	for {
		hdr, err := archive.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return 0, err
		}
		if !hdr.IsDir && IsImageFile(hdr.Name) {
			count++
		}
	}
}

// entryPath resolves an archive-supplied entry name under extractDir
// and rejects names whose cleaned path escapes it.
func entryPath(extractDir, name string) (string, error) {
	outPath := filepath.Join(extractDir, filepath.FromSlash(name))
	root := filepath.Clean(extractDir) + string(os.PathSeparator)
	if !strings.HasPrefix(filepath.Clean(outPath)+string(os.PathSeparator), root) {
		return "", fmt.Errorf("entry %q escapes %s", name, extractDir)
	}
	return outPath, nil
}

func writeRarEntry(src io.Reader, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
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
