package nav

// #region imports
import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/fusion"
)

// #endregion

// #region state

// State is the lifecycle state of a navigation session.
type State string

const (
	StateInTarget     State = "IN_TARGET"     // terminal success
	StateInProgress   State = "IN_PROGRESS"   // moving toward the target
	StateUnknown      State = "UNKNOWN"       // current label is not a recognized context
	StateLoopDetected State = "LOOP_DETECTED" // oscillation found, recovery pending
	StateFailed       State = "FAILED"        // terminal failure
)

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s == StateInTarget || s == StateFailed
}

// #endregion state

// #region reasons

// Transition reasons surfaced in events and the diagnostic trail.
const (
	ReasonTargetReached     = "target_reached"
	ReasonContextMismatch   = "context_mismatch"
	ReasonFusionUncertain   = "fusion_uncertain"
	ReasonLoopDetected      = "loop_detected"
	ReasonRecoveryExhausted = "recovery_exhausted"
	ReasonAttemptBudget     = "attempt_budget_exhausted"
	ReasonTimeBudget        = "time_budget_exhausted"
	ReasonRecoveryComplete  = "recovery_complete"
)

// #endregion reasons

// #region config

// Config bounds a navigation session.
type Config struct {
	LoopWindow    int           // K, the oscillation-detection window
	MaxTier       int           // highest recovery tier before giving up
	AttemptBudget int           // max navigation/recovery actions, 0 = unbounded
	TimeBudget    time.Duration // wall-clock budget, 0 = unbounded
	Known         []string      // recognized context labels
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LoopWindow:    4,
		MaxTier:       4,
		AttemptBudget: 8,
		TimeBudget:    90 * time.Second,
	}
}

// #endregion config

// #region transition

// Transition records one state-machine step for consumers downstream
// (the trail store and the decision/RL event stream).
type Transition struct {
	From         State
	To           State
	Reason       string
	RecoveryTier int
}

// TrailEntry is one cycle's worth of diagnostics: the verdict observed
// and the session state after acting on it.
type TrailEntry struct {
	Verdict      fusion.Verdict
	State        State
	RecoveryTier int
	Attempt      int
}

// #endregion transition

// #region exhausted-error

// ExhaustedError is the only hard failure the engine surfaces: every
// recovery tier or budget was spent without reaching the target. It
// carries the full diagnostic trail and the tiers attempted.
type ExhaustedError struct {
	Reason string
	Target string
	Trail  []TrailEntry
	Tiers  []int
}

// Error implements error.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("navigation to %s failed (%s) after %d cycles, tiers %v",
		e.Target, e.Reason, len(e.Trail), e.Tiers)
}

// #endregion exhausted-error
