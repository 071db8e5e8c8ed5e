package replay

import (
	"testing"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/fusion"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/nav"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

func sig(id signals.SignalID, conf float64) signals.Result {
	return signals.Result{Signal: id, Confidence: conf, Valid: true}
}

func missing(id signals.SignalID) signals.Result {
	return signals.Invalid(id, signals.ReasonNoEvidence)
}

func uncertainCycle(id, label string) Cycle {
	return Cycle{
		CycleID: id,
		Label:   label,
		S1:      missing(signals.SignalTemplate),
		S2:      missing(signals.SignalLexical),
		S3:      missing(signals.SignalLayout),
	}
}

func testReplayConfig() ReplayConfig {
	config := DefaultReplayConfig()
	config.Nav.Known = []string{"MAIN_MENU", "SETTINGS", "OPTIONS_MENU", "IN_GAME"}
	return config
}

func TestReplayReachesTargetOnValidatedCycle(t *testing.T) {
	cycles := []Cycle{{
		CycleID: "c1",
		S1:      sig(signals.SignalTemplate, 0.85),
		S2:      sig(signals.SignalLexical, 0.6),
		S3:      sig(signals.SignalLayout, 0.5),
	}}

	results, summary := Replay("MAIN_MENU", cycles, testReplayConfig())

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].State != nav.StateInTarget {
		t.Fatalf("expected IN_TARGET, got %s", results[0].State)
	}
	if results[0].Tier != fusion.TierValidated {
		t.Fatalf("expected VALIDATED, got %s", results[0].Tier)
	}
	if !summary.Reached || summary.Attempts != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestReplayOscillationFiresOncePerWindow(t *testing.T) {
	cycles := []Cycle{
		uncertainCycle("c1", "SETTINGS"),
		uncertainCycle("c2", "MAIN_MENU"),
		uncertainCycle("c3", "SETTINGS"),
		uncertainCycle("c4", "MAIN_MENU"),
		uncertainCycle("c5", "SETTINGS"),
	}

	results, summary := Replay("IN_GAME", cycles, testReplayConfig())

	if results[3].State != nav.StateLoopDetected {
		t.Fatalf("expected LOOP_DETECTED at c4, got %s", results[3].State)
	}
	if results[3].RecoveryTier != 1 {
		t.Fatalf("expected tier 1, got %d", results[3].RecoveryTier)
	}
	if results[4].State == nav.StateLoopDetected {
		t.Fatal("loop must not re-fire before the window refills")
	}
	if summary.LoopsDetected != 1 {
		t.Fatalf("expected 1 loop, got %d", summary.LoopsDetected)
	}
}

func TestReplayAttemptBudgetExhaustion(t *testing.T) {
	config := testReplayConfig()
	config.Nav.AttemptBudget = 2

	cycles := []Cycle{
		uncertainCycle("c1", "SETTINGS"),
		uncertainCycle("c2", "SETTINGS"),
		uncertainCycle("c3", "SETTINGS"),
		uncertainCycle("c4", "SETTINGS"),
	}

	results, summary := Replay("IN_GAME", cycles, config)

	if !summary.Failed {
		t.Fatal("expected failure once the attempt budget is spent")
	}
	if summary.FailureReason != nav.ReasonAttemptBudget {
		t.Fatalf("expected %s, got %s", nav.ReasonAttemptBudget, summary.FailureReason)
	}
	// the third cycle spends attempt #3, past the budget of 2
	if len(results) != 3 {
		t.Fatalf("expected replay to stop after 3 cycles, got %d", len(results))
	}
}

func TestReplayUncertainCycleWithoutLabelIsUnknown(t *testing.T) {
	cycles := []Cycle{uncertainCycle("c1", "")}

	results, _ := Replay("MAIN_MENU", cycles, testReplayConfig())

	if results[0].Context != fusion.ContextUnknown {
		t.Fatalf("expected UNKNOWN label, got %s", results[0].Context)
	}
	if results[0].State != nav.StateUnknown {
		t.Fatalf("expected UNKNOWN state, got %s", results[0].State)
	}
}
