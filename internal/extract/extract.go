// Package extract converts raw document bytes into plain text.
//
// Supported formats are PDF, DOCX and plain text, selected by filename
// extension. Unreadable or undecodable content degrades to an empty string
// rather than an error; callers decide how to report a document that
// produced no text.
package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Extract converts data into a single text stream based on the filename
// extension. It is a pure function of its inputs.
func Extract(data []byte, filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return extractPDF(data)
	case strings.HasSuffix(lower, ".docx"), strings.HasSuffix(lower, ".doc"):
		return extractDOCX(data)
	default:
		if !utf8.Valid(data) {
			return ""
		}
		return string(data)
	}
}

// extractPDF returns the text of each page joined by newlines, in page
// order. Pages that yield no text contribute an empty string.
func extractPDF(data []byte) (text string) {
	// The pdf library panics on some malformed files; treat that as an
	// unreadable document.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n")
}
