package pdfrender

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/Nytuo/cosmiccomics-server/internal/domain"
)

// Merge concatenates the given PDFs, in order, into outPath.
func Merge(inputPaths []string, outPath string) error {
	if err := api.MergeCreateFile(inputPaths, outPath, false, nil); err != nil {
		return &domain.IOError{Path: outPath, Err: err}
	}
	return nil
}
