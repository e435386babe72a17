// Package archive handles book containers: classification, page
// extraction from zip- and rar-family archives, and first-image pulls
// for covers.
package archive

import "strings"

// ContainerKind selects the handler for a book container.
type ContainerKind int

const (
	KindUnsupported ContainerKind = iota
	KindZipFamily
	KindRarFamily
	KindPDF
	KindEpub
)

// Classify maps a file extension (without the leading dot,
// case-insensitive) to its container kind.
func Classify(ext string) ContainerKind {
	switch strings.ToLower(ext) {
	case "zip", "cbz", "7z", "cb7", "tar", "cbt":
		return KindZipFamily
	case "rar", "cbr":
		return KindRarFamily
	case "pdf":
		return KindPDF
	case "epub", "ebook":
		return KindEpub
	default:
		return KindUnsupported
	}
}

// IsImageFile reports whether an archive entry name denotes an image.
// The rule is a lowercased suffix match against the viewer's image
// extension list.
func IsImageFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageSuffixes {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

var imageSuffixes = []string{
	"png", "jpg", "jpeg", "bmp", "apng", "svg", "ico", "webp", "gif", "tiff",
}
