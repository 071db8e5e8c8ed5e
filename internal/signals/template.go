package signals

// #region imports
import (
	"context"
	"fmt"
	"image"
	"math"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/frame"
)

// #endregion

// #region template

// Template is one reference pattern for the structural signal.
type Template struct {
	ID        string
	Img       image.Image
	Threshold float64 // per-template similarity floor
}

// TemplateFile points at a reference image on disk.
type TemplateFile struct {
	File      string
	Threshold float64
}

// LoadLibrary reads template images from dir keyed by element ID.
func LoadLibrary(dir string, files map[string]TemplateFile) (map[string]Template, error) {
	lib := make(map[string]Template, len(files))
	for id, tf := range files {
		img, err := imaging.Open(filepath.Join(dir, tf.File))
		if err != nil {
			return nil, fmt.Errorf("load template %s: %w", id, err)
		}
		threshold := tf.Threshold
		if threshold <= 0 {
			threshold = 0.8
		}
		lib[id] = Template{ID: id, Img: img, Threshold: threshold}
	}
	return lib, nil
}

// #endregion template

// #region config

// TemplateConfig holds tuning knobs for S1.
type TemplateConfig struct {
	MaxFrameWidth int     // frames wider than this are downscaled before matching
	Stride        int     // sliding-window step on the downscaled frame
	MinSimilarity float64 // validity floor when a template carries no threshold
	MaxColorDist  float64 // Lab distance gate between template and match region
}

// DefaultTemplateConfig returns sensible defaults.
func DefaultTemplateConfig() TemplateConfig {
	return TemplateConfig{
		MaxFrameWidth: 320,
		Stride:        4,
		MinSimilarity: 0.25,
		MaxColorDist:  0.25,
	}
}

// #endregion config

// #region producer

// TemplateProducer is S1: normalized grayscale cross-correlation of the
// frame against known reference patterns, with a Lab color check on the
// winning region.
type TemplateProducer struct {
	library map[string]Template
	config  TemplateConfig
}

// NewTemplateProducer creates S1 over a loaded template library.
func NewTemplateProducer(library map[string]Template, config TemplateConfig) *TemplateProducer {
	if config.Stride <= 0 {
		config = DefaultTemplateConfig()
	}
	return &TemplateProducer{library: library, config: config}
}

// ID implements Producer.
func (p *TemplateProducer) ID() SignalID { return SignalTemplate }

// Evaluate scores the best template match among the target's expected
// elements. No expected template in the library means the signal is
// unavailable for this context, not a zero-score match.
func (p *TemplateProducer) Evaluate(ctx context.Context, f *frame.Frame, target Target) Result {
	candidates := make([]Template, 0, len(target.Templates))
	for _, id := range target.Templates {
		if tmpl, ok := p.library[id]; ok {
			candidates = append(candidates, tmpl)
		}
	}
	if len(candidates) == 0 {
		return Invalid(SignalTemplate, ReasonUnavailable)
	}

	scale := 1.0
	work := f.Img
	if f.Width > p.config.MaxFrameWidth {
		scale = float64(p.config.MaxFrameWidth) / float64(f.Width)
		work = imaging.Resize(f.Img, p.config.MaxFrameWidth, 0, imaging.Linear)
	}
	frameLuma := lumaMatrix(work)

	best := 0.0
	var regions []image.Rectangle
	for _, tmpl := range candidates {
		if ctx.Err() != nil {
			return Invalid(SignalTemplate, ReasonTimeout)
		}
		score, region, ok := p.matchOne(ctx, frameLuma, work, tmpl, scale)
		if !ok {
			continue
		}
		floor := tmpl.Threshold
		if floor <= 0 {
			floor = p.config.MinSimilarity
		}
		if score < floor {
			continue
		}
		regions = append(regions, upscaleRect(region, scale))
		if score > best {
			best = score
		}
	}

	if len(regions) == 0 {
		return Invalid(SignalTemplate, ReasonNoEvidence)
	}
	return Result{
		Signal:     SignalTemplate,
		Confidence: clamp01(best),
		Valid:      true,
		Evidence:   Evidence{Regions: regions},
	}
}

// matchOne slides one template over the downscaled frame and returns the
// best correlation and its region. The color gate rejects matches whose
// average color diverges from the template even when the luminance
// pattern agrees.
func (p *TemplateProducer) matchOne(ctx context.Context, frameLuma [][]float64, work image.Image, tmpl Template, scale float64) (float64, image.Rectangle, bool) {
	tb := tmpl.Img.Bounds()
	tw := int(math.Round(float64(tb.Dx()) * scale))
	th := int(math.Round(float64(tb.Dy()) * scale))
	if tw < 2 || th < 2 {
		return 0, image.Rectangle{}, false
	}
	scaled := imaging.Resize(tmpl.Img, tw, th, imaging.Linear)
	tmplLuma := lumaMatrix(scaled)

	fh := len(frameLuma)
	if fh == 0 {
		return 0, image.Rectangle{}, false
	}
	fw := len(frameLuma[0])
	if tw > fw || th > fh {
		return 0, image.Rectangle{}, false
	}

	best := -1.0
	var bestAt image.Point
	for y := 0; y+th <= fh; y += p.config.Stride {
		if ctx.Err() != nil {
			return 0, image.Rectangle{}, false
		}
		for x := 0; x+tw <= fw; x += p.config.Stride {
			score := normalizedCorrelation(frameLuma, tmplLuma, x, y)
			if score > best {
				best = score
				bestAt = image.Pt(x, y)
			}
		}
	}
	if best <= 0 {
		return 0, image.Rectangle{}, false
	}

	region := image.Rect(bestAt.X, bestAt.Y, bestAt.X+tw, bestAt.Y+th)
	if p.config.MaxColorDist > 0 {
		frameColor := meanColor(work, region)
		tmplColor := meanColor(scaled, scaled.Bounds())
		if frameColor.DistanceLab(tmplColor) > p.config.MaxColorDist {
			return 0, image.Rectangle{}, false
		}
	}
	return best, region, true
}

// #endregion producer

// #region helpers

// lumaMatrix converts an image to BT.601 luminance in [0,1].
func lumaMatrix(img image.Image) [][]float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	luma := make([][]float64, h)
	for y := 0; y < h; y++ {
		luma[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			rf := float64(r>>8) / 255.0
			gf := float64(g>>8) / 255.0
			bf := float64(bl>>8) / 255.0
			luma[y][x] = 0.299*rf + 0.587*gf + 0.114*bf
		}
	}
	return luma
}

// normalizedCorrelation computes zero-mean NCC of the template placed at
// (ox, oy). Flat windows (zero variance) score 0.
func normalizedCorrelation(frame, tmpl [][]float64, ox, oy int) float64 {
	th := len(tmpl)
	tw := len(tmpl[0])
	n := float64(th * tw)

	var fMean, tMean float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			fMean += frame[oy+y][ox+x]
			tMean += tmpl[y][x]
		}
	}
	fMean /= n
	tMean /= n

	var cov, fVar, tVar float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			fd := frame[oy+y][ox+x] - fMean
			td := tmpl[y][x] - tMean
			cov += fd * td
			fVar += fd * fd
			tVar += td * td
		}
	}
	denom := math.Sqrt(fVar * tVar)
	if denom == 0 {
		return 0
	}
	return cov / denom
}

// meanColor averages a region into a Lab-comparable color.
func meanColor(img image.Image, rect image.Rectangle) colorful.Color {
	rect = rect.Intersect(img.Bounds())
	var r, g, b float64
	count := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			r += float64(pr>>8) / 255.0
			g += float64(pg>>8) / 255.0
			b += float64(pb>>8) / 255.0
			count++
		}
	}
	if count == 0 {
		return colorful.Color{}
	}
	return colorful.Color{R: r / float64(count), G: g / float64(count), B: b / float64(count)}
}

// upscaleRect maps a region on the downscaled frame back to frame
// coordinates.
func upscaleRect(r image.Rectangle, scale float64) image.Rectangle {
	if scale == 1.0 || scale == 0 {
		return r
	}
	inv := 1.0 / scale
	return image.Rect(
		int(float64(r.Min.X)*inv),
		int(float64(r.Min.Y)*inv),
		int(float64(r.Max.X)*inv),
		int(float64(r.Max.Y)*inv),
	)
}

// clamp01 restricts v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
