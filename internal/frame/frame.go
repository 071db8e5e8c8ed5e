package frame

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder for captured frames
	_ "image/png"  // register PNG decoder for captured frames
	"os"
	"time"
)

// #region frame

// Frame is an immutable snapshot of the screen. It is owned by the cycle
// that captured it and is never mutated after capture; the signal
// producers read it concurrently without locking.
type Frame struct {
	Img        image.Image
	Width      int
	Height     int
	CapturedAt time.Time
}

// New wraps a decoded image in a Frame.
func New(img image.Image, at time.Time) *Frame {
	b := img.Bounds()
	return &Frame{
		Img:        img,
		Width:      b.Dx(),
		Height:     b.Dy(),
		CapturedAt: at,
	}
}

// Decode builds a Frame from encoded image bytes (PNG or JPEG).
func Decode(data []byte, at time.Time) (*Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return New(img, at), nil
}

// LoadFile reads and decodes an image file into a Frame. The file's
// modification time is used as the capture timestamp.
func LoadFile(path string) (*Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame file: %w", err)
	}
	at := time.Now()
	if info, err := os.Stat(path); err == nil {
		at = info.ModTime()
	}
	return Decode(data, at)
}

// #endregion frame

// #region capturer

// Capturer abstracts the external capture collaborator. Capture is
// expected to complete within a bounded latency; the engine treats a
// capture failure as an invalid-all-signals cycle.
type Capturer interface {
	Capture(ctx context.Context) (*Frame, error)
}

// #endregion capturer
