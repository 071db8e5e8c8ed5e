package fusion

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

// #endregion

// #region tier

// Tier classifies the agreement strength behind a verdict.
type Tier string

const (
	TierValidated Tier = "VALIDATED"
	TierProbable  Tier = "PROBABLE"
	TierUncertain Tier = "UNCERTAIN"
)

// Rank orders tiers for comparison; higher is stronger.
func (t Tier) Rank() int {
	switch t {
	case TierValidated:
		return 2
	case TierProbable:
		return 1
	default:
		return 0
	}
}

// #endregion tier

// #region verdict

// ContextUnknown labels a screen no known context spec could explain.
const ContextUnknown = "UNKNOWN"

// Verdict is the arbiter's combined classification for one frame.
// It always references at least one contributing signal and is fully
// determined by the input triple.
type Verdict struct {
	Context      string
	Tier         Tier
	Confidence   float64
	Contributing []signals.SignalID
	At           time.Time
}

// #endregion verdict

// #region config

// Config holds the fusion thresholds. The 0.8/0.6 defaults are the
// empirically chosen values from field runs; tune per deployment.
type Config struct {
	High            float64 // S1 floor for VALIDATED
	Mid             float64 // S1 floor for PROBABLE (strict)
	DisagreementGap float64 // S1/S2 confidence gap that flags disagreement
}

// DefaultConfig returns the field-run thresholds.
func DefaultConfig() Config {
	return Config{
		High:            0.8,
		Mid:             0.6,
		DisagreementGap: 0.35,
	}
}

// #endregion config
