// Package replay re-runs recorded perception cycles through fusion and
// the navigation state machine, entirely in memory. It is the
// regression net for threshold or policy changes: captured sessions
// must keep producing the same transitions.
package replay

// #region imports
import (
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/fusion"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/nav"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

// #endregion

// #region types

// Cycle is one recorded perception pass: the signal triple scored
// against the target, plus the label classification produced when the
// target-directed verdict came back UNCERTAIN.
type Cycle struct {
	CycleID string
	Label   string // observed context when not confidently in target
	S1      signals.Result
	S2      signals.Result
	S3      signals.Result
}

// ReplayConfig bundles fusion thresholds and session bounds. The time
// budget is ignored: replay is not wall-clock faithful.
type ReplayConfig struct {
	Fusion fusion.Config
	Nav    nav.Config
}

// DefaultReplayConfig returns the stock thresholds with no time budget.
func DefaultReplayConfig() ReplayConfig {
	navCfg := nav.DefaultConfig()
	navCfg.TimeBudget = 0
	return ReplayConfig{
		Fusion: fusion.DefaultConfig(),
		Nav:    navCfg,
	}
}

// Result captures the outcome of replaying one cycle.
type Result struct {
	CycleID      string
	Context      string
	Tier         fusion.Tier
	Confidence   float64
	State        nav.State
	Reason       string
	RecoveryTier int
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalCycles   int
	Reached       bool
	Failed        bool
	FailureReason string
	LoopsDetected int
	MaxTier       int
	Attempts      int
}

// #endregion types

// #region replay

// Replay feeds the recorded cycles through the arbiter and a fresh
// session aimed at target. Recovery and navigation actions are
// simulated as instantaneous: a loop detection consumes one attempt and
// resumes, any other non-terminal cycle consumes one attempt for its
// dispatched action. Remaining cycles after a terminal state are
// ignored.
func Replay(target string, cycles []Cycle, config ReplayConfig) ([]Result, Summary) {
	arbiter := fusion.NewArbiter(config.Fusion)
	session := nav.NewSession(target, config.Nav)

	results := make([]Result, 0, len(cycles))
	summary := Summary{}

	for _, cycle := range cycles {
		if session.State.Terminal() {
			break
		}

		verdict := arbiter.Decide(target, cycle.S1, cycle.S2, cycle.S3)
		if verdict.Tier == fusion.TierUncertain {
			verdict.Context = cycle.Label
			if verdict.Context == "" {
				verdict.Context = fusion.ContextUnknown
			}
		}

		tr := session.Observe(verdict)
		results = append(results, Result{
			CycleID:      cycle.CycleID,
			Context:      verdict.Context,
			Tier:         verdict.Tier,
			Confidence:   verdict.Confidence,
			State:        tr.To,
			Reason:       tr.Reason,
			RecoveryTier: tr.RecoveryTier,
		})

		switch tr.To {
		case nav.StateLoopDetected:
			summary.LoopsDetected++
			if tr.RecoveryTier > summary.MaxTier {
				summary.MaxTier = tr.RecoveryTier
			}
			session.RecordAttempt()
			session.Resume()
		case nav.StateInProgress, nav.StateUnknown:
			session.RecordAttempt()
		}
	}

	summary.TotalCycles = len(results)
	summary.Attempts = session.Attempts
	summary.Reached = session.State == nav.StateInTarget
	if failure := session.Failure(); failure != nil {
		summary.Failed = true
		summary.FailureReason = failure.Reason
	}
	return results, summary
}

// #endregion replay
