package nav

// #region imports
import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/fusion"
)

// #endregion

// #region session

// Session is the per-navigation state machine. It consumes verdicts,
// tracks the context history for oscillation detection, escalates the
// recovery tier, and enforces the attempt and time budgets. It is not
// goroutine-safe; the engine drives it from a single loop.
type Session struct {
	ID       string
	Target   string
	Current  string
	State    State
	Attempts int
	Tier     int

	config  Config
	history *History
	trail   []TrailEntry
	tiers   []int
	started time.Time
	failure *ExhaustedError
	now     func() time.Time
}

// NewSession starts a session aimed at the target context.
func NewSession(target string, config Config) *Session {
	if config.LoopWindow == 0 {
		config = DefaultConfig()
	}
	s := &Session{
		ID:      uuid.NewString(),
		Target:  target,
		Current: fusion.ContextUnknown,
		State:   StateInProgress,
		config:  config,
		history: NewHistory(config.LoopWindow),
		now:     time.Now,
	}
	s.started = s.now()
	return s
}

// Trail returns the diagnostic trail, one entry per perception cycle.
func (s *Session) Trail() []TrailEntry {
	out := make([]TrailEntry, len(s.trail))
	copy(out, s.trail)
	return out
}

// Failure returns the terminal error, nil unless State is FAILED.
func (s *Session) Failure() *ExhaustedError {
	return s.failure
}

// #endregion session

// #region observe

// Observe feeds one verdict through the state machine and returns the
// resulting transition. The time budget is checked first: once spent,
// the session fails no matter what the verdict says.
func (s *Session) Observe(v fusion.Verdict) Transition {
	if s.State.Terminal() {
		return Transition{From: s.State, To: s.State, RecoveryTier: s.Tier}
	}
	if s.config.TimeBudget > 0 && s.now().Sub(s.started) > s.config.TimeBudget {
		return s.fail(v, ReasonTimeBudget)
	}

	from := s.State

	if v.Context == s.Target && v.Tier != fusion.TierUncertain {
		s.Current = v.Context
		s.State = StateInTarget
		s.record(v)
		log.Printf("[NAV] %s reached %s at tier %s", s.ID, s.Target, v.Tier)
		return Transition{From: from, To: s.State, Reason: ReasonTargetReached, RecoveryTier: s.Tier}
	}

	s.Current = v.Context
	s.history.Append(v.Context)

	if s.history.Alternating() {
		s.history.Reset()
		s.Tier++
		if s.Tier > s.config.MaxTier {
			return s.fail(v, ReasonRecoveryExhausted)
		}
		s.tiers = append(s.tiers, s.Tier)
		s.State = StateLoopDetected
		s.record(v)
		log.Printf("[NAV] %s oscillation detected, escalating to recovery tier %d", s.ID, s.Tier)
		return Transition{From: from, To: s.State, Reason: ReasonLoopDetected, RecoveryTier: s.Tier}
	}

	reason := ReasonContextMismatch
	if v.Tier == fusion.TierUncertain {
		reason = ReasonFusionUncertain
	}
	if s.recognized(v.Context) {
		s.State = StateInProgress
	} else {
		s.State = StateUnknown
	}
	s.record(v)
	return Transition{From: from, To: s.State, Reason: reason, RecoveryTier: s.Tier}
}

func (s *Session) recognized(label string) bool {
	if label == s.Target {
		return true
	}
	for _, known := range s.config.Known {
		if label == known {
			return true
		}
	}
	return false
}

// #endregion observe

// #region attempts

// RecordAttempt counts one dispatched navigation or recovery action.
// It returns false once the attempt budget is spent, at which point the
// session has already transitioned to FAILED.
func (s *Session) RecordAttempt() bool {
	if s.State.Terminal() {
		return false
	}
	s.Attempts++
	if s.config.AttemptBudget > 0 && s.Attempts > s.config.AttemptBudget {
		s.failNow(ReasonAttemptBudget)
		return false
	}
	return true
}

// Resume returns the session to IN_PROGRESS after a recovery sequence
// ran. The history was already reset when the loop fired, so the next
// oscillation needs a fresh full window to trigger again.
func (s *Session) Resume() Transition {
	if s.State != StateLoopDetected {
		return Transition{From: s.State, To: s.State, RecoveryTier: s.Tier}
	}
	from := s.State
	s.State = StateInProgress
	return Transition{From: from, To: s.State, Reason: ReasonRecoveryComplete, RecoveryTier: s.Tier}
}

// #endregion attempts

// #region failure

func (s *Session) fail(v fusion.Verdict, reason string) Transition {
	from := s.State
	s.State = StateFailed
	s.record(v)
	s.failure = &ExhaustedError{Reason: reason, Target: s.Target, Trail: s.Trail(), Tiers: s.tiers}
	log.Printf("[NAV] %s failed: %s", s.ID, reason)
	return Transition{From: from, To: s.State, Reason: reason, RecoveryTier: s.Tier}
}

func (s *Session) failNow(reason string) {
	s.State = StateFailed
	s.failure = &ExhaustedError{Reason: reason, Target: s.Target, Trail: s.Trail(), Tiers: s.tiers}
	log.Printf("[NAV] %s failed: %s", s.ID, reason)
}

func (s *Session) record(v fusion.Verdict) {
	s.trail = append(s.trail, TrailEntry{
		Verdict:      v,
		State:        s.State,
		RecoveryTier: s.Tier,
		Attempt:      s.Attempts,
	})
}

// #endregion failure
