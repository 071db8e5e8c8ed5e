// Package collab drives the collaborating browser session: it supplies
// frames to the perception pipeline and carries out navigation and
// recovery actions.
package collab

// #region imports
import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/frame"
)

// #endregion

// #region config

// Config controls the headless browser session.
type Config struct {
	URL      string        `yaml:"url"`
	Headless bool          `yaml:"headless"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a headless session with a 30s startup timeout.
func DefaultConfig() Config {
	return Config{Headless: true, Timeout: 30 * time.Second}
}

// #endregion config

// #region browser

// Browser is a chromedp-backed session implementing both the frame
// capturer and the recovery dispatcher. Close releases the browser.
type Browser struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Open launches the browser and navigates to the configured URL.
func Open(ctx context.Context, config Config) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	startCtx := browserCtx
	if config.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		startCtx, timeoutCancel = context.WithTimeout(browserCtx, config.Timeout)
		defer timeoutCancel()
	}
	if err := chromedp.Run(startCtx, chromedp.Navigate(config.URL)); err != nil {
		cancel()
		return nil, fmt.Errorf("open %s: %w", config.URL, err)
	}
	log.Printf("[COLLAB] session open at %s", config.URL)
	return &Browser{ctx: browserCtx, cancel: cancel}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.cancel()
}

// #endregion browser

// #region capture

// Capture grabs a screenshot of the current viewport.
func (b *Browser) Capture(ctx context.Context) (*frame.Frame, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	f, err := frame.Decode(buf, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return f, nil
}

// #endregion capture

// #region dispatch

// PressKey sends a key event to the focused element.
func (b *Browser) PressKey(ctx context.Context, key string) error {
	if err := b.run(ctx, chromedp.KeyEvent(keyRunes(key))); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	return nil
}

// Click clicks at viewport coordinates.
func (b *Browser) Click(ctx context.Context, x, y int) error {
	if err := b.run(ctx, chromedp.MouseClickXY(float64(x), float64(y))); err != nil {
		return fmt.Errorf("click %d,%d: %w", x, y, err)
	}
	return nil
}

// ActivateWindow refocuses the page, recovering from focus loss.
func (b *Browser) ActivateWindow(ctx context.Context) error {
	if err := b.run(ctx, chromedp.Evaluate(`window.focus()`, nil)); err != nil {
		return fmt.Errorf("activate window: %w", err)
	}
	return nil
}

// run executes actions on the session context but honors the caller's
// deadline and cancellation.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(b.ctx, actions...)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// keyRunes maps symbolic key names onto the rune sequences the browser
// protocol expects. Unrecognized names pass through as literal text.
func keyRunes(key string) string {
	switch key {
	case "Escape", "Esc":
		return kb.Escape
	case "Enter", "Return":
		return kb.Enter
	case "Space":
		return " "
	case "Tab":
		return kb.Tab
	case "Backspace":
		return kb.Backspace
	default:
		return key
	}
}

// #endregion dispatch
