package signals

// #region imports
import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/frame"
)

// #endregion

// #region runner

// Runner evaluates all producers concurrently over one immutable frame.
// Each producer gets an independent timeout; a slow or hung producer
// degrades to an invalid result without stalling the others.
type Runner struct {
	producers []Producer
	timeout   time.Duration
}

// NewRunner creates a runner with a per-signal timeout budget.
func NewRunner(timeout time.Duration, producers ...Producer) *Runner {
	return &Runner{producers: producers, timeout: timeout}
}

// #endregion runner

// #region collect

// Collect runs every producer against the frame and returns results in
// producer order. It never returns an error: faults surface as invalid
// results.
func (r *Runner) Collect(ctx context.Context, f *frame.Frame, target Target) []Result {
	results := make([]Result, len(r.producers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.producers {
		i, p := i, p
		g.Go(func() error {
			results[i] = r.evaluateOne(gctx, p, f, target)
			return nil
		})
	}
	g.Wait()

	return results
}

// evaluateOne applies the per-signal timeout. The producer runs in its
// own goroutine so a hung evaluation cannot hold the cycle past its
// budget; the abandoned goroutine only writes to its private channel.
func (r *Runner) evaluateOne(ctx context.Context, p Producer, f *frame.Frame, target Target) Result {
	sctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		done <- p.Evaluate(sctx, f, target)
	}()

	select {
	case res := <-done:
		return res
	case <-sctx.Done():
		log.Printf("[SIGNALS] %s exceeded %s budget, degrading to invalid", p.ID(), r.timeout)
		return Invalid(p.ID(), ReasonTimeout)
	}
}

// #endregion collect
