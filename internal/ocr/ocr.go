// Package ocr wraps text recognition behind a narrow interface so the
// lexical signal producer can be tested without a Tesseract install.
package ocr

import (
	"context"
	"errors"
	"image"
)

// #region types

// Word is a single recognized token with its confidence and location.
type Word struct {
	Text       string
	Confidence float64 // 0..1
	Box        image.Rectangle
}

// Text is the full recognition result for one frame.
type Text struct {
	Full  string
	Words []Word
}

// #endregion types

// #region recognizer

// Recognizer extracts text from a captured frame image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (Text, error)
}

// ErrUnavailable is returned when no OCR backend is compiled in or the
// Tesseract runtime is missing. The lexical producer degrades to an
// invalid result on this error rather than failing the cycle.
var ErrUnavailable = errors.New("ocr: recognizer unavailable")

// #endregion recognizer
