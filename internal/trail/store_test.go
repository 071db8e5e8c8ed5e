package trail

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/fusion"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/nav"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "trail.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStoreUnwritablePathFails(t *testing.T) {
	// a directory is not a database file; NewStore must surface the
	// error instead of handing back a half-initialized store
	if _, err := NewStore(t.TempDir()); err == nil {
		t.Fatal("expected NewStore to fail on a directory path")
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)

	start := time.Now().UTC()
	if err := s.CreateSession("sess-1", "MAIN_MENU", start); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.FinishSession("sess-1", "success", "target_reached", 2, 0); err != nil {
		t.Fatalf("FinishSession: %v", err)
	}

	sessions, err := s.RecentSessions(10)
	if err != nil {
		t.Fatalf("RecentSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := sessions[0]
	if got.SessionID != "sess-1" || got.Target != "MAIN_MENU" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Outcome != "success" || got.Attempts != 2 {
		t.Fatalf("expected finished session, got %+v", got)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("finished session must carry a finish time")
	}
}

func TestEventsRoundTripInCycleOrder(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateSession("sess-2", "IN_GAME", time.Now().UTC()); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	events := []EventRecord{
		{
			SessionID:  "sess-2",
			Cycle:      0,
			Context:    "MAIN_MENU",
			Tier:       fusion.TierValidated,
			Confidence: 0.82,
			State:      nav.StateInProgress,
			Reason:     nav.ReasonContextMismatch,
			Recals:     0,
			Signals: []signals.Result{
				{Signal: signals.SignalTemplate, Confidence: 0.9, Valid: true},
				{Signal: signals.SignalLexical, Confidence: 0.6, Valid: true},
				signals.Invalid(signals.SignalLayout, signals.ReasonNoEvidence),
			},
			CreatedAt: time.Now().UTC(),
		},
		{
			SessionID:    "sess-2",
			Cycle:        1,
			Context:      "IN_GAME",
			Tier:         fusion.TierProbable,
			Confidence:   0.65,
			State:        nav.StateInTarget,
			Reason:       nav.ReasonTargetReached,
			RecoveryTier: 0,
			Recals:       2,
			CreatedAt:    time.Now().UTC(),
		},
	}
	for _, e := range events {
		if err := s.RecordEvent(e); err != nil {
			t.Fatalf("RecordEvent cycle %d: %v", e.Cycle, err)
		}
	}

	got, err := s.ListEvents("sess-2")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Cycle != 0 || got[1].Cycle != 1 {
		t.Fatal("events must come back in cycle order")
	}
	if got[0].Tier != fusion.TierValidated || got[1].State != nav.StateInTarget {
		t.Fatalf("unexpected events: %+v", got)
	}
	if len(got[0].Signals) != 3 {
		t.Fatalf("expected signal triple on cycle 0, got %d", len(got[0].Signals))
	}
	if got[0].Signals[2].Valid {
		t.Fatal("invalid signal must stay invalid through the round trip")
	}
	if len(got[1].Signals) != 0 {
		t.Fatal("cycle without signals must come back empty")
	}
}

func TestListEventsUnknownSessionIsEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ListEvents("missing")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no events, got %d", len(got))
	}
}
