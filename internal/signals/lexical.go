package signals

// #region imports
import (
	"context"
	"log"
	"strings"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/frame"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/ocr"
)

// #endregion

// #region config

// LexicalConfig holds tuning knobs for S2.
type LexicalConfig struct {
	TokenFloor   float64 // minimum word confidence for a token match
	PerTokenGain float64 // confidence added per matched token, capped at 1
}

// DefaultLexicalConfig returns sensible defaults. The 0.2 gain means
// five matched tokens saturate the signal.
func DefaultLexicalConfig() LexicalConfig {
	return LexicalConfig{
		TokenFloor:   0.4,
		PerTokenGain: 0.2,
	}
}

// #endregion config

// #region producer

// LexicalProducer is S2: checks whether the tokens expected for the
// target context appear in the recognized text. Validity requires at
// least one expected token above the lexical confidence floor.
type LexicalProducer struct {
	recognizer ocr.Recognizer
	config     LexicalConfig
}

// NewLexicalProducer creates S2. recognizer may be nil, in which case
// every evaluation degrades to signal_unavailable.
func NewLexicalProducer(recognizer ocr.Recognizer, config LexicalConfig) *LexicalProducer {
	if config.PerTokenGain <= 0 {
		config = DefaultLexicalConfig()
	}
	return &LexicalProducer{recognizer: recognizer, config: config}
}

// ID implements Producer.
func (p *LexicalProducer) ID() SignalID { return SignalLexical }

// Evaluate recognizes text on the frame and scores expected-token
// presence. OCR failure is absorbed into an invalid result.
func (p *LexicalProducer) Evaluate(ctx context.Context, f *frame.Frame, target Target) Result {
	if p.recognizer == nil {
		return Invalid(SignalLexical, ReasonUnavailable)
	}
	if len(target.Tokens) == 0 {
		return Invalid(SignalLexical, ReasonUnavailable)
	}

	text, err := p.recognizer.Recognize(ctx, f.Img)
	if err != nil {
		if ctx.Err() != nil {
			return Invalid(SignalLexical, ReasonTimeout)
		}
		log.Printf("[SIGNALS] s2 recognizer error: %v", err)
		return Invalid(SignalLexical, ReasonUnavailable)
	}

	evidence := matchTokens(text, target.Tokens, p.config.TokenFloor)
	if len(evidence.Tokens) == 0 {
		return Invalid(SignalLexical, ReasonNoEvidence)
	}

	confidence := clamp01(p.config.PerTokenGain * float64(len(evidence.Tokens)))
	return Result{
		Signal:     SignalLexical,
		Confidence: confidence,
		Valid:      true,
		Evidence:   evidence,
	}
}

// #endregion producer

// #region token-matching

// matchTokens finds expected tokens in the recognition output. A token
// matches through a word box when the word clears the confidence floor,
// or through the full text when no word boxes are available at all
// (some OCR backends return text without boxes).
func matchTokens(text ocr.Text, expected []string, floor float64) Evidence {
	full := strings.ToLower(text.Full)

	var ev Evidence
	for _, token := range expected {
		needle := strings.ToLower(token)

		matched := false
		for _, w := range text.Words {
			if w.Confidence < floor {
				continue
			}
			if strings.Contains(strings.ToLower(w.Text), needle) {
				matched = true
				ev.Regions = append(ev.Regions, w.Box)
				break
			}
		}
		if !matched && len(text.Words) == 0 && strings.Contains(full, needle) {
			matched = true
		}
		if matched {
			ev.Tokens = append(ev.Tokens, token)
		}
	}
	return ev
}

// #endregion token-matching
