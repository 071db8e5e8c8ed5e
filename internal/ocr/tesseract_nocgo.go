//go:build !cgo

package ocr

import (
	"context"
	"image"
)

// Tesseract is a stub when cgo is disabled; Recognize always reports
// ErrUnavailable so the lexical signal degrades to an invalid result.
type Tesseract struct {
	Language string
}

// NewTesseract returns the stub recognizer.
func NewTesseract(language string) *Tesseract {
	return &Tesseract{Language: language}
}

// Recognize reports that no OCR backend is compiled in.
func (t *Tesseract) Recognize(_ context.Context, _ image.Image) (Text, error) {
	return Text{}, ErrUnavailable
}
