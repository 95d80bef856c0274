// Package analysis implements the asynchronous CV analysis pipeline: intake,
// queued AI (or offline keyword) matching against the job specification, and
// result write-back.
package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// allowedExtensions is the resume upload allow-list
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// ErrUnsupportedFile indicates the upload extension is outside the allow-list
type ErrUnsupportedFile struct {
	Filename string
}

func (e *ErrUnsupportedFile) Error() string {
	return fmt.Sprintf("unsupported file type: %s", filepath.Ext(e.Filename))
}

// AllowedExtension reports whether the filename passes the upload allow-list
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Extraction is the text plus metadata returned by the extractor
type Extraction struct {
	Text           string
	Method         string
	Confidence     float64
	PageCount      int
	ScannedContent bool
}

// TextExtractor pulls text out of an uploaded document. OCR is an external
// collaborator behind this interface.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (Extraction, error)
}

// PlainExtractor handles UTF-8 text uploads directly and reports anything it
// cannot decode as scanned content needing the OCR collaborator.
type PlainExtractor struct{}

// Extract implements TextExtractor
func (PlainExtractor) Extract(_ context.Context, filename string, data []byte) (Extraction, error) {
	if utf8.Valid(data) {
		return Extraction{
			Text:       string(data),
			Method:     "plain_text",
			Confidence: 1.0,
			PageCount:  1,
		}, nil
	}
	return Extraction{
		Method:         "unreadable",
		Confidence:     0,
		ScannedContent: true,
	}, fmt.Errorf("cannot extract text from %s without an OCR backend", filepath.Base(filename))
}
