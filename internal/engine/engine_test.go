package engine

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/config"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/frame"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/nav"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

// fakeApp simulates the collaborating application: it owns the current
// screen, serves frames, and reacts to dispatched input. When rotation
// is set the screen cycles on every capture regardless of input,
// simulating an application stuck in an oscillation.
type fakeApp struct {
	screen   string
	rotation []string
	captures int
	keys     []string
	clicks   int
	focuses  int
}

func (a *fakeApp) Capture(ctx context.Context) (*frame.Frame, error) {
	if len(a.rotation) > 0 {
		a.screen = a.rotation[a.captures%len(a.rotation)]
	}
	a.captures++
	return frame.New(image.NewRGBA(image.Rect(0, 0, 4, 4)), time.Now()), nil
}

func (a *fakeApp) PressKey(ctx context.Context, key string) error {
	a.keys = append(a.keys, key)
	if a.screen == "MAIN_MENU" && key == "Enter" {
		a.screen = "SINGLE_PLAYER_SUB_MENU"
	}
	return nil
}

func (a *fakeApp) Click(ctx context.Context, x, y int) error {
	a.clicks++
	return nil
}

func (a *fakeApp) ActivateWindow(ctx context.Context) error {
	a.focuses++
	return nil
}

// mirrorProducer reports a confident detection exactly when the probed
// context matches the app's current screen.
type mirrorProducer struct {
	id   signals.SignalID
	conf float64
	app  *fakeApp
}

func (p *mirrorProducer) ID() signals.SignalID { return p.id }

func (p *mirrorProducer) Evaluate(ctx context.Context, f *frame.Frame, target signals.Target) signals.Result {
	if target.Context == p.app.screen {
		return signals.Result{Signal: p.id, Confidence: p.conf, Valid: true}
	}
	return signals.Invalid(p.id, signals.ReasonNoEvidence)
}

func testEngine(t *testing.T, app *fakeApp, mutate func(*config.Config), events chan<- Event) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.SettleDelay = 0
	cfg.MaxRecals = 0
	cfg.SignalWait = config.Duration(time.Second)
	if mutate != nil {
		mutate(&cfg)
	}

	eng, err := New(Options{
		Config:     cfg,
		Capturer:   app,
		Dispatcher: app,
		Producers: []signals.Producer{
			&mirrorProducer{id: signals.SignalTemplate, conf: 0.9, app: app},
			&mirrorProducer{id: signals.SignalLexical, conf: 0.8, app: app},
			&mirrorProducer{id: signals.SignalLayout, conf: 0.7, app: app},
		},
		Events: events,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func TestNavigateAlreadyInTarget(t *testing.T) {
	app := &fakeApp{screen: "MAIN_MENU"}
	eng := testEngine(t, app, nil, nil)

	session, err := eng.Navigate(context.Background(), "MAIN_MENU")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if session.State != nav.StateInTarget {
		t.Fatalf("expected IN_TARGET, got %s", session.State)
	}
	if session.Attempts != 0 {
		t.Fatalf("confirming the current screen must cost no attempts, got %d", session.Attempts)
	}
	if len(session.Trail()) != 1 {
		t.Fatalf("expected 1 trail entry, got %d", len(session.Trail()))
	}

	health := eng.Health()
	if health.Grade != HealthExcellent {
		t.Fatalf("all signals valid, expected EXCELLENT health, got %s", health.Grade)
	}
}

func TestNavigateOneHopViaRoute(t *testing.T) {
	app := &fakeApp{screen: "MAIN_MENU"}
	eng := testEngine(t, app, nil, nil)

	session, err := eng.Navigate(context.Background(), "SINGLE_PLAYER_SUB_MENU")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if session.State != nav.StateInTarget {
		t.Fatalf("expected IN_TARGET, got %s", session.State)
	}
	if session.Attempts != 1 {
		t.Fatalf("one routed action expected, got %d attempts", session.Attempts)
	}
	if len(app.keys) != 1 || app.keys[0] != "Enter" {
		t.Fatalf("expected the configured route key, got %v", app.keys)
	}
	if len(session.Trail()) != 2 {
		t.Fatalf("trail must record both cycles, got %d", len(session.Trail()))
	}
}

func TestNavigateOscillationExhaustsRecovery(t *testing.T) {
	app := &fakeApp{rotation: []string{"OPTIONS_MENU", "IN_GAME"}}
	eng := testEngine(t, app, func(cfg *config.Config) {
		cfg.MaxTier = 1
		cfg.Attempts = 0 // isolate the recovery ladder from the attempt budget
	}, nil)

	session, err := eng.Navigate(context.Background(), "MAIN_MENU")
	if err == nil {
		t.Fatal("expected exhaustion error")
	}

	var exhausted *nav.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Reason != nav.ReasonRecoveryExhausted {
		t.Fatalf("expected %s, got %s", nav.ReasonRecoveryExhausted, exhausted.Reason)
	}
	if len(exhausted.Tiers) != 1 || exhausted.Tiers[0] != 1 {
		t.Fatalf("expected tiers [1], got %v", exhausted.Tiers)
	}
	if len(exhausted.Trail) != len(session.Trail()) {
		t.Fatal("error must carry the full diagnostic trail")
	}
	// tier 1 runs activate_window + escape
	if app.focuses == 0 {
		t.Fatal("tier 1 recovery never refocused the window")
	}
}

func TestNavigateAttemptBudgetExhaustion(t *testing.T) {
	app := &fakeApp{screen: "IN_GAME"} // no route to SETTINGS makes progress impossible
	eng := testEngine(t, app, func(cfg *config.Config) {
		cfg.Attempts = 2
	}, nil)

	_, err := eng.Navigate(context.Background(), "SETTINGS")

	var exhausted *nav.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Reason != nav.ReasonAttemptBudget {
		t.Fatalf("expected %s, got %s", nav.ReasonAttemptBudget, exhausted.Reason)
	}
}

func TestNavigatePublishesEvents(t *testing.T) {
	app := &fakeApp{screen: "MAIN_MENU"}
	events := make(chan Event, 16)
	eng := testEngine(t, app, nil, events)

	session, err := eng.Navigate(context.Background(), "MAIN_MENU")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	select {
	case ev := <-events:
		if ev.SessionID != session.ID {
			t.Fatalf("event for wrong session: %s", ev.SessionID)
		}
		if ev.Transition.To != nav.StateInTarget {
			t.Fatalf("expected IN_TARGET transition, got %s", ev.Transition.To)
		}
	default:
		t.Fatal("no event published")
	}
}

func TestNavigateUnknownTargetIsRejected(t *testing.T) {
	app := &fakeApp{screen: "MAIN_MENU"}
	eng := testEngine(t, app, nil, nil)

	if _, err := eng.Navigate(context.Background(), "NO_SUCH_SCREEN"); err == nil {
		t.Fatal("expected error for unknown target context")
	}
}
