package recal

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/frame"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/fusion"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

type countingCapturer struct {
	captures int
	err      error
}

func (c *countingCapturer) Capture(ctx context.Context) (*frame.Frame, error) {
	c.captures++
	if c.err != nil {
		return nil, c.err
	}
	return frame.New(image.NewRGBA(image.Rect(0, 0, 8, 8)), time.Now()), nil
}

// scriptedProducer returns one canned result per pass, repeating the
// last entry when the script runs out.
type scriptedProducer struct {
	id     signals.SignalID
	script []signals.Result
	calls  int
}

func (p *scriptedProducer) ID() signals.SignalID { return p.id }

func (p *scriptedProducer) Evaluate(ctx context.Context, f *frame.Frame, target signals.Target) signals.Result {
	i := p.calls
	if i >= len(p.script) {
		i = len(p.script) - 1
	}
	p.calls++
	return p.script[i]
}

func ok(id signals.SignalID, conf float64) signals.Result {
	return signals.Result{Signal: id, Confidence: conf, Valid: true}
}

func bad(id signals.SignalID) signals.Result {
	return signals.Invalid(id, signals.ReasonNoEvidence)
}

func newController(cap *countingCapturer, max int, s1, s2, s3 []signals.Result) *Controller {
	runner := signals.NewRunner(time.Second,
		&scriptedProducer{id: signals.SignalTemplate, script: s1},
		&scriptedProducer{id: signals.SignalLexical, script: s2},
		&scriptedProducer{id: signals.SignalLayout, script: s3},
	)
	return NewController(cap, runner, fusion.NewArbiter(fusion.DefaultConfig()), max)
}

func TestObserveStopsOnConfidentFirstPass(t *testing.T) {
	cap := &countingCapturer{}
	c := newController(cap, 3,
		[]signals.Result{ok(signals.SignalTemplate, 0.9)},
		[]signals.Result{ok(signals.SignalLexical, 0.6)},
		[]signals.Result{ok(signals.SignalLayout, 0.5)},
	)

	obs := c.Observe(context.Background(), signals.Target{Context: "MAIN_MENU"})

	if obs.Verdict.Tier != fusion.TierValidated {
		t.Fatalf("expected VALIDATED, got %s", obs.Verdict.Tier)
	}
	if cap.captures != 1 {
		t.Fatalf("confident pass must not recapture, got %d captures", cap.captures)
	}
	if obs.Recals != 0 {
		t.Fatalf("expected 0 recalibrations, got %d", obs.Recals)
	}
}

func TestObserveBoundedByRecalibrationBudget(t *testing.T) {
	cap := &countingCapturer{}
	c := newController(cap, 3,
		[]signals.Result{bad(signals.SignalTemplate)},
		[]signals.Result{bad(signals.SignalLexical)},
		[]signals.Result{bad(signals.SignalLayout)},
	)

	obs := c.Observe(context.Background(), signals.Target{Context: "MAIN_MENU"})

	// initial pass plus at most 3 recalibrations
	if cap.captures != 4 {
		t.Fatalf("expected 4 captures, got %d", cap.captures)
	}
	if obs.Recals != 3 {
		t.Fatalf("expected 3 recalibrations, got %d", obs.Recals)
	}
	if obs.Verdict.Tier != fusion.TierUncertain {
		t.Fatalf("expected the last uncertain verdict, got %s", obs.Verdict.Tier)
	}
}

func TestObserveRecalibratesUntilSignalsRecover(t *testing.T) {
	cap := &countingCapturer{}
	c := newController(cap, 3,
		[]signals.Result{bad(signals.SignalTemplate), ok(signals.SignalTemplate, 0.85)},
		[]signals.Result{bad(signals.SignalLexical), ok(signals.SignalLexical, 0.6)},
		[]signals.Result{bad(signals.SignalLayout), ok(signals.SignalLayout, 0.5)},
	)

	obs := c.Observe(context.Background(), signals.Target{Context: "MAIN_MENU"})

	if obs.Verdict.Tier != fusion.TierValidated {
		t.Fatalf("expected recovery to VALIDATED, got %s", obs.Verdict.Tier)
	}
	if obs.Recals != 1 {
		t.Fatalf("expected exactly 1 recalibration, got %d", obs.Recals)
	}
}

func TestObserveDisagreementTriggersRecalibration(t *testing.T) {
	cap := &countingCapturer{}
	// S1 at validation strength, S2 invalid: PROBABLE is never reached and
	// the verdict is uncertain, but the disagreement check must also hold
	// for a contradictory pair even at higher tiers.
	c := newController(cap, 2,
		[]signals.Result{ok(signals.SignalTemplate, 0.9)},
		[]signals.Result{bad(signals.SignalLexical)},
		[]signals.Result{ok(signals.SignalLayout, 0.6)},
	)

	obs := c.Observe(context.Background(), signals.Target{Context: "MAIN_MENU"})

	if cap.captures != 3 {
		t.Fatalf("expected the full budget on persistent disagreement, got %d captures", cap.captures)
	}
	if obs.Recals != 2 {
		t.Fatalf("expected 2 recalibrations, got %d", obs.Recals)
	}
}

func TestObserveCaptureFailureDegradesToInvalidSignals(t *testing.T) {
	cap := &countingCapturer{err: errors.New("collaborator gone")}
	c := newController(cap, 1,
		[]signals.Result{ok(signals.SignalTemplate, 0.9)},
		[]signals.Result{ok(signals.SignalLexical, 0.6)},
		[]signals.Result{ok(signals.SignalLayout, 0.5)},
	)

	obs := c.Observe(context.Background(), signals.Target{Context: "MAIN_MENU"})

	if obs.Frame != nil {
		t.Fatal("failed capture must not produce a frame")
	}
	if obs.Verdict.Tier != fusion.TierUncertain {
		t.Fatalf("expected UNCERTAIN on capture failure, got %s", obs.Verdict.Tier)
	}
	for _, r := range obs.Results {
		if r.Valid {
			t.Fatalf("signal %s must be invalid on capture failure", r.Signal)
		}
	}
}
