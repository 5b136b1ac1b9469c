// Package parser extracts plain text from uploaded document bytes.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// Extractor implements ports.DocumentParser for plain text and PDF uploads.
type Extractor struct{}

// NewExtractor creates a document text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Parse extracts text content for the given document type.
func (e *Extractor) Parse(ctx context.Context, data []byte, docType entities.DocumentType) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch docType {
	case entities.DocumentTypeText:
		return decodeText(data), nil
	case entities.DocumentTypePDF:
		return extractPDF(data)
	default:
		return "", fmt.Errorf("unsupported document type: %q", docType)
	}
}

// decodeText treats the upload as UTF-8, falling back to a Latin-1
// reinterpretation when the bytes are not valid UTF-8.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("no text extracted from pdf")
	}
	return text, nil
}
