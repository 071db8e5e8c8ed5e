package recovery

// #region imports
import (
	"context"
	"fmt"
	"log"
	"time"
)

// #endregion

// #region dispatcher

// Dispatcher performs the low-level input operations. The production
// dispatcher drives a browser session; tests substitute a recorder.
type Dispatcher interface {
	PressKey(ctx context.Context, key string) error
	Click(ctx context.Context, x, y int) error
	ActivateWindow(ctx context.Context) error
}

// #endregion dispatcher

// #region executor

// Executor runs a recovery tier's action sequence with a settle delay
// between steps so the target application can react before the next
// observation is taken.
type Executor struct {
	dispatcher Dispatcher
	tiers      [][]Action
	settle     time.Duration
}

// NewExecutor creates an executor over the given tier ladder. A nil or
// empty ladder falls back to the defaults.
func NewExecutor(dispatcher Dispatcher, tiers [][]Action, settle time.Duration) *Executor {
	if len(tiers) == 0 {
		tiers = DefaultTierSequences()
	}
	return &Executor{dispatcher: dispatcher, tiers: tiers, settle: settle}
}

// MaxTier returns the highest tier index this executor can run.
func (e *Executor) MaxTier() int {
	return len(e.tiers) - 1
}

// Run dispatches the sequence for the given tier. A tier beyond the
// ladder clamps to the last sequence. Dispatch errors abort the
// sequence; the navigator treats an aborted recovery like any other
// cycle that did not reach the target.
func (e *Executor) Run(ctx context.Context, tier int) error {
	if tier < 0 {
		tier = 0
	}
	if tier > e.MaxTier() {
		tier = e.MaxTier()
	}
	sequence := e.tiers[tier]
	log.Printf("[RECOVER] running tier %d (%d actions)", tier, len(sequence))

	for i, action := range sequence {
		if err := e.dispatch(ctx, action); err != nil {
			return fmt.Errorf("tier %d action %d (%s): %w", tier, i, action.Kind, err)
		}
		if e.settle > 0 && i < len(sequence)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.settle):
			}
		}
	}
	return nil
}

func (e *Executor) dispatch(ctx context.Context, action Action) error {
	switch action.Kind {
	case KindPressKey:
		return e.dispatcher.PressKey(ctx, action.Key)
	case KindClick:
		return e.dispatcher.Click(ctx, action.X, action.Y)
	case KindActivateWindow:
		return e.dispatcher.ActivateWindow(ctx)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// #endregion executor
