//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// #region tesseract

// Tesseract is a gosseract-backed Recognizer. A fresh client is created
// per call: gosseract clients are not safe for concurrent use.
type Tesseract struct {
	Language string
}

// NewTesseract returns a Tesseract recognizer for the given language
// code (e.g. "eng").
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language}
}

// Recognize runs word-level OCR over the image. Tesseract needs a file
// path, so the frame is written to a temp PNG first.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (Text, error) {
	if err := ctx.Err(); err != nil {
		return Text{}, err
	}

	tmp, err := os.CreateTemp("", "fusion-ocr-*.png")
	if err != nil {
		return Text{}, fmt.Errorf("ocr temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return Text{}, fmt.Errorf("ocr encode frame: %w", err)
	}
	tmp.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.Language); err != nil {
		return Text{}, fmt.Errorf("ocr set language: %w", err)
	}
	if err := client.SetImage(tmpPath); err != nil {
		return Text{}, fmt.Errorf("ocr set image: %w", err)
	}

	full, err := client.Text()
	if err != nil {
		return Text{}, fmt.Errorf("ocr extract: %w", err)
	}

	result := Text{Full: full}

	// Word boxes are best-effort: some Tesseract builds fail here while
	// still producing full text.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return result, nil
	}
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		result.Words = append(result.Words, Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Box:        box.Box,
		})
	}
	return result, nil
}

// #endregion tesseract
