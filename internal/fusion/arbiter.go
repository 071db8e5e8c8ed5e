package fusion

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

// #endregion

// #region arbiter

// Arbiter combines the three signal results into a single verdict. It is
// pure: identical input triples always yield identical tiers, and it
// holds no state across calls.
type Arbiter struct {
	config Config
}

// NewArbiter creates an arbiter with the given thresholds.
func NewArbiter(config Config) *Arbiter {
	if config.High <= 0 {
		config = DefaultConfig()
	}
	return &Arbiter{config: config}
}

// #endregion arbiter

// #region decide

// Decide applies the tiered policy:
//
//	s1 >= high && s2 valid && s3 valid → VALIDATED
//	s1 >  mid  && s2 valid             → PROBABLE
//	otherwise                          → UNCERTAIN
//
// The strict comparison at the mid threshold is deliberate: a score
// sitting exactly on the boundary resolves to UNCERTAIN, preferring
// re-validation over false progress.
func (a *Arbiter) Decide(context string, s1, s2, s3 signals.Result) Verdict {
	v := Verdict{
		Context:      context,
		At:           time.Now().UTC(),
		Contributing: contributing(s1, s2, s3),
	}

	switch {
	case s1.Confidence >= a.config.High && s2.Valid && s3.Valid:
		v.Tier = TierValidated
		v.Confidence = (s1.Confidence + s2.Confidence + s3.Confidence) / 3
	case s1.Confidence > a.config.Mid && s2.Valid:
		v.Tier = TierProbable
		v.Confidence = (s1.Confidence + s2.Confidence) / 2
	default:
		v.Tier = TierUncertain
		v.Confidence = max3(s1.Confidence, s2.Confidence, s3.Confidence)
	}
	return v
}

// #endregion decide

// #region disagreement

// Disagreement reports whether S1 and S2 contradict each other: one
// signal at validation strength while the other is invalid, with a
// confidence gap above the configured threshold. Disagreement triggers
// recalibration even when the verdict is not UNCERTAIN.
func (a *Arbiter) Disagreement(s1, s2 signals.Result) bool {
	gap := s1.Confidence - s2.Confidence
	if gap < 0 {
		gap = -gap
	}
	if gap <= a.config.DisagreementGap {
		return false
	}
	if s1.Confidence >= a.config.High && !s2.Valid {
		return true
	}
	if s2.Valid && s2.Confidence >= a.config.High && !s1.Valid {
		return true
	}
	return false
}

// #endregion disagreement

// #region helpers

// contributing lists the valid signals behind a verdict; when every
// signal is invalid the full triple is listed, since their joint absence
// is what produced the UNCERTAIN verdict.
func contributing(results ...signals.Result) []signals.SignalID {
	ids := make([]signals.SignalID, 0, len(results))
	for _, r := range results {
		if r.Valid {
			ids = append(ids, r.Signal)
		}
	}
	if len(ids) == 0 {
		for _, r := range results {
			ids = append(ids, r.Signal)
		}
	}
	return ids
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// #endregion helpers
