// Package reader extracts plain text from uploaded documents. The format is
// resolved once from the file name and passed explicitly to Read.
package reader

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
)

// Format identifies a supported document type.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Formats lists every supported format in a stable order.
func Formats() []Format {
	return []Format{FormatText, FormatPDF, FormatDOCX}
}

func supportedList() string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, "."+string(f))
	}
	return strings.Join(names, ", ")
}

// FormatFromFilename maps a file extension to a Format. Matching is
// case-insensitive.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch Format(ext) {
	case FormatText, FormatPDF, FormatDOCX:
		return Format(ext), nil
	default:
		return "", fmt.Errorf("file %q (supported: %s): %w", name, supportedList(), apperrors.ErrUnsupportedFormat)
	}
}

// Read extracts the text of data according to format. It never returns
// ErrEmptyInput itself; empty extractions are left to the summarizer.
func Read(format Format, data []byte) (string, error) {
	switch format {
	case FormatText:
		return strings.ToValidUTF8(string(data), ""), nil
	case FormatPDF:
		return readPDF(data)
	case FormatDOCX:
		return readDOCX(data)
	default:
		return "", fmt.Errorf("format %q: %w", format, apperrors.ErrUnsupportedFormat)
	}
}

func readPDF(data []byte) (text string, err error) {
	// pdf panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parsing pdf: %v: %w", r, apperrors.ErrInvalidInput)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %v: %w", err, apperrors.ErrInvalidInput)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %v: %w", err, apperrors.ErrInvalidInput)
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return strings.ToValidUTF8(buf.String(), ""), nil
}
