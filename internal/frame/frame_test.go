package frame

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

func TestDecodePNGRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	img.Set(3, 3, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	at := time.Now().UTC()
	f, err := Decode(buf.Bytes(), at)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.Width != 12 || f.Height != 8 {
		t.Fatalf("expected 12x8, got %dx%d", f.Width, f.Height)
	}
	if !f.CapturedAt.Equal(at) {
		t.Fatal("capture time must be preserved")
	}
}

func TestDecodeGarbageFails(t *testing.T) {
	if _, err := Decode([]byte("not an image"), time.Now()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewDerivesDimensions(t *testing.T) {
	f := New(image.NewRGBA(image.Rect(0, 0, 640, 480)), time.Now())
	if f.Width != 640 || f.Height != 480 {
		t.Fatalf("expected 640x480, got %dx%d", f.Width, f.Height)
	}
}
