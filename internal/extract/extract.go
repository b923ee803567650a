// Package extract turns uploaded files into plain text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/unipilot/unipilot/internal/domain"
)

// Supported MIME types.
const (
	MimePDF      = "application/pdf"
	MimeText     = "text/plain"
	MimeMarkdown = "text/markdown"
)

var extensionTypes = map[string]string{
	".pdf":      MimePDF,
	".txt":      MimeText,
	".md":       MimeMarkdown,
	".markdown": MimeMarkdown,
}

// NormalizeMimeType returns the bare media type of declared, falling back to
// the filename extension when the client sent nothing useful.
func NormalizeMimeType(filename, declared string) string {
	mediaType := strings.ToLower(strings.TrimSpace(declared))
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	if mediaType == "text/x-markdown" {
		mediaType = MimeMarkdown
	}

	if mediaType == "" || mediaType == "application/octet-stream" {
		if byExt, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
			return byExt
		}
	}
	return mediaType
}

// Supported reports whether mimeType can be extracted.
func Supported(mimeType string) bool {
	switch mimeType {
	case MimePDF, MimeText, MimeMarkdown:
		return true
	}
	return false
}

// Text extracts the plain text of data. Unsupported types return
// domain.ErrUnsupportedMimeType.
func Text(mimeType string, data []byte) (string, error) {
	switch mimeType {
	case MimePDF:
		return pdfText(data)
	case MimeText, MimeMarkdown:
		return sanitize(string(data)), nil
	default:
		return "", domain.ErrUnsupportedMimeType
	}
}

func pdfText(data []byte) (text string, err error) {
	// The PDF parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parse: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return sanitize(string(b)), nil
}

// sanitize drops invalid UTF-8 and NUL bytes, which Postgres text columns reject.
func sanitize(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(s, "\x00", "")
}
