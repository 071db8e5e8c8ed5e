package replay

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/nav"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

// #endregion

// #region fixture-types

// Fixture is the top-level JSON structure for a recorded session.
type Fixture struct {
	Description string            `json:"description"`
	Target      string            `json:"target"`
	Config      FixtureConfig     `json:"config"`
	Cycles      []FixtureCycle    `json:"cycles"`
	Expected    []FixtureExpected `json:"expected"`
}

// FixtureConfig mirrors ReplayConfig with JSON tags.
type FixtureConfig struct {
	High            float64  `json:"high"`
	Mid             float64  `json:"mid"`
	DisagreementGap float64  `json:"disagreement_gap"`
	LoopWindow      int      `json:"loop_window"`
	MaxTier         int      `json:"max_recovery_tier"`
	AttemptBudget   int      `json:"attempt_budget"`
	Known           []string `json:"known_contexts"`
}

// FixtureSignal is one recorded signal score.
type FixtureSignal struct {
	Confidence float64 `json:"confidence"`
	Valid      bool    `json:"valid"`
	Reason     string  `json:"reason,omitempty"`
}

// FixtureCycle mirrors Cycle with JSON tags.
type FixtureCycle struct {
	CycleID string        `json:"cycle_id"`
	Label   string        `json:"label,omitempty"`
	S1      FixtureSignal `json:"s1"`
	S2      FixtureSignal `json:"s2"`
	S3      FixtureSignal `json:"s3"`
}

// FixtureExpected captures the expected transition per cycle.
type FixtureExpected struct {
	CycleID      string `json:"cycle_id"`
	State        string `json:"state"`
	Reason       string `json:"reason,omitempty"`
	RecoveryTier int    `json:"recovery_tier,omitempty"`
}

// #endregion fixture-types

// #region conversion

// ToReplayConfig converts fixture config to domain configs, falling
// back to defaults for zero values.
func (fc FixtureConfig) ToReplayConfig() ReplayConfig {
	config := DefaultReplayConfig()
	if fc.High > 0 {
		config.Fusion.High = fc.High
	}
	if fc.Mid > 0 {
		config.Fusion.Mid = fc.Mid
	}
	if fc.DisagreementGap > 0 {
		config.Fusion.DisagreementGap = fc.DisagreementGap
	}
	if fc.LoopWindow > 0 {
		config.Nav.LoopWindow = fc.LoopWindow
	}
	if fc.MaxTier > 0 {
		config.Nav.MaxTier = fc.MaxTier
	}
	if fc.AttemptBudget > 0 {
		config.Nav.AttemptBudget = fc.AttemptBudget
	}
	if len(fc.Known) > 0 {
		config.Nav.Known = fc.Known
	}
	return config
}

func (fs FixtureSignal) toResult(id signals.SignalID) signals.Result {
	if !fs.Valid {
		reason := fs.Reason
		if reason == "" {
			reason = signals.ReasonNoEvidence
		}
		return signals.Invalid(id, reason)
	}
	return signals.Result{Signal: id, Confidence: fs.Confidence, Valid: true}
}

// ToCycle converts a fixture cycle to the domain type.
func (fc FixtureCycle) ToCycle() Cycle {
	return Cycle{
		CycleID: fc.CycleID,
		Label:   fc.Label,
		S1:      fc.S1.toResult(signals.SignalTemplate),
		S2:      fc.S2.toResult(signals.SignalLexical),
		S3:      fc.S3.toResult(signals.SignalLayout),
	}
}

// #endregion conversion

// #region load

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Target == "" {
		return Fixture{}, fmt.Errorf("fixture %s: missing target", path)
	}
	if len(f.Cycles) == 0 {
		return Fixture{}, fmt.Errorf("fixture %s: no cycles", path)
	}
	return f, nil
}

// Run replays a loaded fixture and returns results plus summary.
func (f Fixture) Run() ([]Result, Summary) {
	cycles := make([]Cycle, len(f.Cycles))
	for i := range f.Cycles {
		cycles[i] = f.Cycles[i].ToCycle()
	}
	return Replay(f.Target, cycles, f.Config.ToReplayConfig())
}

// Check compares results against the fixture's expectations and returns
// the first mismatch.
func (f Fixture) Check(results []Result) error {
	if len(results) != len(f.Expected) {
		return fmt.Errorf("expected %d results, got %d", len(f.Expected), len(results))
	}
	for i, want := range f.Expected {
		got := results[i]
		if got.CycleID != want.CycleID {
			return fmt.Errorf("cycle %d: expected id %s, got %s", i, want.CycleID, got.CycleID)
		}
		if got.State != nav.State(want.State) {
			return fmt.Errorf("cycle %s: expected state %s, got %s", want.CycleID, want.State, got.State)
		}
		if want.Reason != "" && got.Reason != want.Reason {
			return fmt.Errorf("cycle %s: expected reason %s, got %s", want.CycleID, want.Reason, got.Reason)
		}
		if want.RecoveryTier != 0 && got.RecoveryTier != want.RecoveryTier {
			return fmt.Errorf("cycle %s: expected tier %d, got %d", want.CycleID, want.RecoveryTier, got.RecoveryTier)
		}
	}
	return nil
}

// #endregion load
