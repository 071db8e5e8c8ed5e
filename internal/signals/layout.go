package signals

// #region imports
import (
	"context"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/anthonynsimon/bild/transform"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/frame"
)

// #endregion

// #region layout-classes

// Layout classes the producer knows how to score. Unknown classes fall
// back to the generic weighting.
const (
	LayoutVerticalMenu = "vertical_menu"
	LayoutHUD          = "hud"
	LayoutPanel        = "panel"
)

// Pattern names recorded in evidence.
const (
	patternMenuRows  = "horizontal_menu_rows"
	patternUIRegions = "ui_regions"
	patternEdgeFill  = "edge_density"
)

// #endregion layout-classes

// #region config

// LayoutConfig holds tuning knobs for S3.
type LayoutConfig struct {
	WorkWidth      int     // analysis width after downscaling
	BlurRadius     float64 // gaussian radius before edge detection
	EdgeLevel      uint8   // binarization level for the Sobel map
	MenuRowsFull   float64 // row count that saturates the menu-structure score
	EdgeDensityRef float64 // edge fill fraction that saturates the edge score
}

// DefaultLayoutConfig returns sensible defaults.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		WorkWidth:      320,
		BlurRadius:     1.4,
		EdgeLevel:      96,
		MenuRowsFull:   12,
		EdgeDensityRef: 0.08,
	}
}

// #endregion config

// #region producer

// LayoutProducer is S3: scores structural regularity of the frame —
// horizontal menu rows, intensity contrast between screen regions, and
// overall edge density — against the target's expected layout class.
type LayoutProducer struct {
	config LayoutConfig
}

// NewLayoutProducer creates S3.
func NewLayoutProducer(config LayoutConfig) *LayoutProducer {
	if config.WorkWidth <= 0 {
		config = DefaultLayoutConfig()
	}
	return &LayoutProducer{config: config}
}

// ID implements Producer.
func (p *LayoutProducer) ID() SignalID { return SignalLayout }

// Evaluate runs the blur → Sobel → threshold pipeline and combines the
// three structural metrics with weights chosen per layout class.
func (p *LayoutProducer) Evaluate(ctx context.Context, f *frame.Frame, target Target) Result {
	if f.Width < 4 || f.Height < 4 {
		return Invalid(SignalLayout, ReasonUnavailable)
	}

	workH := f.Height * p.config.WorkWidth / f.Width
	if workH < 4 {
		workH = 4
	}
	small := transform.Resize(f.Img, p.config.WorkWidth, workH, transform.Linear)
	if ctx.Err() != nil {
		return Invalid(SignalLayout, ReasonTimeout)
	}

	blurred := blur.Gaussian(small, p.config.BlurRadius)
	edges := segment.Threshold(effect.Sobel(blurred), p.config.EdgeLevel)
	gray := toGray(small)
	if ctx.Err() != nil {
		return Invalid(SignalLayout, ReasonTimeout)
	}

	menuScore := p.menuStructure(edges)
	regionScore := regionVariance(gray)
	edgeScore := p.edgeDensity(edges)

	var confidence float64
	var patterns []string
	appendIf := func(name string, score, floor, weight float64) {
		if score > floor {
			patterns = append(patterns, name)
			confidence += score * weight
		}
	}

	switch target.Layout {
	case LayoutVerticalMenu:
		appendIf(patternMenuRows, menuScore, 0.3, 1.0)
		appendIf(patternUIRegions, regionScore, 0.2, 0.5)
		appendIf(patternEdgeFill, edgeScore, 0.3, 0.7)
	case LayoutHUD:
		appendIf(patternUIRegions, regionScore, 0.2, 0.8)
		appendIf(patternEdgeFill, edgeScore, 0.3, 0.6)
	default:
		appendIf(patternEdgeFill, edgeScore, 0.3, 0.6)
		appendIf(patternUIRegions, regionScore, 0.2, 0.4)
	}

	if len(patterns) == 0 {
		return Invalid(SignalLayout, ReasonNoEvidence)
	}
	return Result{
		Signal:     SignalLayout,
		Confidence: clamp01(confidence),
		Valid:      true,
		Evidence:   Evidence{Patterns: patterns},
	}
}

// #endregion producer

// #region metrics

// menuStructure counts edge rows in the center-left region where menu
// buttons typically sit, normalized by the row count of a full menu.
func (p *LayoutProducer) menuStructure(edges *image.Gray) float64 {
	b := edges.Bounds()
	w, h := b.Dx(), b.Dy()
	roi := image.Rect(
		b.Min.X+w*2/10, b.Min.Y+h*3/10,
		b.Min.X+w*6/10, b.Min.Y+h*8/10,
	)

	roiW := roi.Dx()
	if roiW == 0 {
		return 0
	}
	rows := 0
	for y := roi.Min.Y; y < roi.Max.Y; y++ {
		white := 0
		for x := roi.Min.X; x < roi.Max.X; x++ {
			if edges.GrayAt(x, y).Y > 127 {
				white++
			}
		}
		if float64(white) >= 0.5*float64(roiW) {
			rows++
		}
	}
	if p.config.MenuRowsFull <= 0 {
		return 0
	}
	return clamp01(float64(rows) / p.config.MenuRowsFull)
}

// regionVariance samples four screen regions and measures how far their
// mean intensity strays from the global mean. Structured UI screens show
// much higher contrast between regions than uniform ones.
func regionVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	global := meanIntensity(gray, b)

	regions := []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+w/4, b.Min.Y+h/4),
		image.Rect(b.Min.X+w/4, b.Min.Y+h/4, b.Min.X+3*w/4, b.Min.Y+h/2),
		image.Rect(b.Min.X+w/4, b.Min.Y+h/2, b.Min.X+3*w/4, b.Min.Y+3*h/4),
		image.Rect(b.Min.X+w/4, b.Min.Y+3*h/4, b.Min.X+3*w/4, b.Max.Y),
	}

	var spread float64
	for _, r := range regions {
		m := meanIntensity(gray, r)
		if m > global {
			spread += m - global
		} else {
			spread += global - m
		}
	}
	return clamp01(spread / (4 * 0.5))
}

// edgeDensity is the white fraction of the binarized edge map, scaled so
// the reference density saturates the score.
func (p *LayoutProducer) edgeDensity(edges *image.Gray) float64 {
	b := edges.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 || p.config.EdgeDensityRef <= 0 {
		return 0
	}
	white := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if edges.GrayAt(x, y).Y > 127 {
				white++
			}
		}
	}
	density := float64(white) / float64(total)
	return clamp01(density / p.config.EdgeDensityRef)
}

// toGray flattens the working image into 8-bit luminance for the
// region statistics.
func toGray(img image.Image) *image.Gray {
	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
	return gray
}

// meanIntensity averages gray values over a region into [0,1].
func meanIntensity(gray *image.Gray, rect image.Rectangle) float64 {
	rect = rect.Intersect(gray.Bounds())
	var sum float64
	count := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sum += float64(gray.GrayAt(x, y).Y) / 255.0
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// #endregion metrics
