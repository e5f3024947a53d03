package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"

	"jobboard/internal/errcode"
)

// Supported reports whether an upload's declared media type or file
// extension maps to a known extractor. Used to reject uploads before
// anything is stored or queued.
func Supported(fileName, mediaType string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	return mediaType == "application/pdf" || ext == "pdf" ||
		strings.Contains(mediaType, "word") || ext == "doc" || ext == "docx"
}

// Text extracts plain text from an uploaded document on disk, routed by
// the declared media type with the file extension as fallback. Only PDF
// and word-processor formats are supported; anything else fails with
// errcode.ErrUnsupportedMedia before any further processing happens.
func Text(path, fileName, mediaType string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))

	switch {
	case mediaType == "application/pdf" || ext == "pdf":
		return pdfText(path)
	case strings.Contains(mediaType, "word") || ext == "doc" || ext == "docx":
		return wordText(path)
	default:
		return "", fmt.Errorf("%w: %s (extension: %s), only PDF and Word documents are supported",
			errcode.ErrUnsupportedMedia, mediaType, ext)
	}
}

func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var builder strings.Builder
	totalPages := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages, keep the rest.
			continue
		}

		builder.WriteString(text)
		builder.WriteString("\n\n")
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", fmt.Errorf("no text content found in pdf")
	}
	return text, nil
}

func wordText(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("convert document: %w", err)
	}

	text := strings.TrimSpace(res.Body)
	if text == "" {
		return "", fmt.Errorf("no text content found in document")
	}
	return text, nil
}
