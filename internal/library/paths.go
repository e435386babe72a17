// Package library defines the on-disk layout of the comic library and
// the extension lists shared across the pipeline.
package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ValidBookExtensions lists every container extension the server accepts
// for upload, lowercased.
var ValidBookExtensions = []string{
	"cbr", "cbz", "pdf", "zip", "7z", "cb7", "rar", "tar", "cbt", "epub", "ebook",
}

// ValidImageExtensions lists every image suffix the viewer can serve,
// lowercased. This is also the image-detection rule for archive entries.
var ValidImageExtensions = []string{
	"png", "jpg", "jpeg", "bmp", "apng", "svg", "ico", "webp", "gif", "tiff",
}

// ProfileDir returns the per-user profile directory.
func ProfileDir(base, user string) string {
	return filepath.Join(base, "profiles", user)
}

// WorkingDir returns the per-user working directory into which the
// current book's pages are materialized.
func WorkingDir(base, user string) string {
	return filepath.Join(ProfileDir(base, user), "current_book")
}

// CoverDir returns the process-wide cover directory.
func CoverDir(base string) string {
	return filepath.Join(base, "public", "FirstImagesOfAll")
}

// DownloadsDir returns the staging directory for remote fetches. It is
// removed on shutdown.
func DownloadsDir(base string) string {
	return filepath.Join(base, "downloads")
}

// UploadsDir returns the staging directory for uploaded containers. It
// is removed on shutdown.
func UploadsDir(base string) string {
	return filepath.Join(base, "uploads")
}

// Ext returns the lowercased extension of path without the leading dot.
func Ext(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// ListPageImages returns the page image filenames in dir whose extension
// is in validExts, sorted lexicographically so the result is in reading
// order. A missing directory yields an empty list.
func ListPageImages(dir string, validExts []string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var pages []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := Ext(entry.Name())
		for _, valid := range validExts {
			if ext == valid {
				pages = append(pages, entry.Name())
				break
			}
		}
	}
	sort.Strings(pages)
	return pages
}
