// Package recal re-runs the perception cycle on fresh frames when the
// arbiter cannot reach confident agreement.
package recal

// #region imports
import (
	"context"
	"log"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/frame"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/fusion"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

// #endregion

// #region observation

// Observation bundles one perception pass: the frame it ran on, the raw
// signal triple, the fused verdict, and how many recalibrations it took.
type Observation struct {
	Frame   *frame.Frame
	Results []signals.Result
	Verdict fusion.Verdict
	Recals  int
}

// #endregion observation

// #region controller

// Controller owns the capture → signals → fusion loop for a single
// navigation step. When the verdict is UNCERTAIN or S1/S2 disagree it
// requests a fresh frame and retries, at most MaxAttempts extra times.
// Producers are stateless between passes, so a retry always scores the
// new frame from scratch.
type Controller struct {
	capturer frame.Capturer
	runner   *signals.Runner
	arbiter  *fusion.Arbiter
	max      int
}

// NewController creates a recalibration controller. maxAttempts bounds
// the extra perception passes per navigation step.
func NewController(capturer frame.Capturer, runner *signals.Runner, arbiter *fusion.Arbiter, maxAttempts int) *Controller {
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	return &Controller{capturer: capturer, runner: runner, arbiter: arbiter, max: maxAttempts}
}

// #endregion controller

// #region observe

// Observe runs perception until the arbiter is satisfied or the
// recalibration budget is spent. Exhausting the budget is not a failure:
// the last observation is handed to the state machine, which decides
// whether to escalate. A capture failure counts as an invalid-all-signals
// pass.
func (c *Controller) Observe(ctx context.Context, target signals.Target) Observation {
	var last Observation
	for attempt := 0; attempt <= c.max; attempt++ {
		last = c.observeOnce(ctx, target)
		last.Recals = attempt

		if ctx.Err() != nil {
			return last
		}
		if last.Verdict.Tier != fusion.TierUncertain && !c.disagrees(last.Results) {
			return last
		}
		if attempt < c.max {
			log.Printf("[RECAL] %s pass %d uncertain or disagreeing, re-capturing", target.Context, attempt+1)
		}
	}
	log.Printf("[RECAL] budget exhausted for %s, handing last verdict to navigator", target.Context)
	return last
}

func (c *Controller) observeOnce(ctx context.Context, target signals.Target) Observation {
	f, err := c.capturer.Capture(ctx)
	if err != nil {
		log.Printf("[RECAL] capture failed: %v", err)
		results := []signals.Result{
			signals.Invalid(signals.SignalTemplate, signals.ReasonUnavailable),
			signals.Invalid(signals.SignalLexical, signals.ReasonUnavailable),
			signals.Invalid(signals.SignalLayout, signals.ReasonUnavailable),
		}
		return Observation{
			Results: results,
			Verdict: c.arbiter.Decide(target.Context, results[0], results[1], results[2]),
		}
	}

	results := c.runner.Collect(ctx, f, target)
	return Observation{
		Frame:   f,
		Results: results,
		Verdict: c.arbiter.Decide(target.Context, results[0], results[1], results[2]),
	}
}

func (c *Controller) disagrees(results []signals.Result) bool {
	if len(results) < 2 {
		return false
	}
	return c.arbiter.Disagreement(results[0], results[1])
}

// #endregion observe
