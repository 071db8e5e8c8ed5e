package signals

import (
	"context"
	"image"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/frame"
)

// #region signal-id

// SignalID identifies one of the independent detectors.
type SignalID string

const (
	SignalTemplate SignalID = "s1_template"
	SignalLexical  SignalID = "s2_lexical"
	SignalLayout   SignalID = "s3_layout"
)

// #endregion signal-id

// #region reasons

// Degradation reasons recorded in Evidence.Note when a producer absorbs
// a fault. Per-signal faults never escape as errors.
const (
	ReasonTimeout     = "signal_timeout"
	ReasonUnavailable = "signal_unavailable"
	ReasonNoEvidence  = "no_evidence"
)

// #endregion reasons

// #region evidence

// Evidence is the opaque payload backing a result: matched tokens,
// regions, detected patterns. Empty when the result is invalid —
// producers never synthesize evidence for a missed detection.
type Evidence struct {
	Tokens   []string          // s2: matched context tokens
	Regions  []image.Rectangle // s1: best-match regions, s2: word boxes
	Patterns []string          // s3: detected structural patterns
	Note     string            // degradation reason, empty on success
}

// #endregion evidence

// #region result

// Result is one detector's scored verdict for a target on a single frame.
// Invariant: !Valid implies Confidence == 0.
type Result struct {
	Signal     SignalID
	Confidence float64
	Valid      bool
	Evidence   Evidence
}

// Invalid builds the canonical zero-confidence result for a failed or
// timed-out evaluation.
func Invalid(id SignalID, reason string) Result {
	return Result{
		Signal:   id,
		Valid:    false,
		Evidence: Evidence{Note: reason},
	}
}

// #endregion result

// #region target

// Target describes the context the cycle is trying to confirm. The
// per-context values come from configuration.
type Target struct {
	Context   string   // context label, e.g. "MAIN_MENU"
	Templates []string // template IDs expected on screen (S1)
	Tokens    []string // lexical tokens expected in recognized text (S2)
	Layout    string   // expected layout class (S3)
}

// #endregion target

// #region producer

// Producer is a single independent detector. Evaluate must stay within
// the deadline on ctx, must never panic or error past its boundary, and
// must score only the given frame — no cross-call caching that could
// mask a missing target.
type Producer interface {
	ID() SignalID
	Evaluate(ctx context.Context, f *frame.Frame, target Target) Result
}

// #endregion producer
