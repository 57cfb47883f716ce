// Package convert extracts text from binary document formats so they can
// flow through the same markdown ingestion pipeline as native .md files.
package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// IsPDF reports whether the path looks like a PDF document.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// PDFToText extracts page text from a PDF, joining pages with paragraph
// breaks. Pages that yield no text are skipped.
func PDFToText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer doc.Close()

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d of %s: %w", i+1, path, err)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, strings.TrimSpace(text))
		}
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("no extractable text in %s", path)
	}

	return strings.Join(pages, "\n\n") + "\n", nil
}
