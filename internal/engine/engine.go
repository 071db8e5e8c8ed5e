// Package engine wires perception, fusion, recalibration, and the
// navigation state machine into the adaptive navigation loop.
package engine

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/config"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/frame"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/fusion"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/nav"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/ocr"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/recal"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/recovery"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/trail"
)

// #endregion

// #region event

// Event is one perception cycle as published to subscribers: the
// verdict, the state transition it caused, and the recalibration cost.
// The stream feeds the decision log and any learning pipeline attached
// downstream.
type Event struct {
	SessionID  string
	Cycle      int
	Verdict    fusion.Verdict
	Transition nav.Transition
	Recals     int
}

// #endregion event

// #region options

// Options assembles an Engine. Capturer and Dispatcher are required;
// Recognizer, Library, Store, and Events are optional, and perception
// degrades gracefully when the optional signal inputs are absent.
type Options struct {
	Config     config.Config
	Capturer   frame.Capturer
	Dispatcher recovery.Dispatcher
	Recognizer ocr.Recognizer
	Library    map[string]signals.Template
	Producers  []signals.Producer // overrides the built-in S1/S2/S3 set
	Store      *trail.Store
	Events     chan<- Event
}

// #endregion options

// #region engine

// Engine runs navigation sessions against the collaborating
// application.
type Engine struct {
	cfg        config.Config
	recal      *recal.Controller
	runner     *signals.Runner
	arbiter    *fusion.Arbiter
	executor   *recovery.Executor
	dispatcher recovery.Dispatcher
	store      *trail.Store
	events     chan<- Event
	health     *healthRing
	labels     []string
}

// New assembles an engine from its options.
func New(opts Options) (*Engine, error) {
	if opts.Capturer == nil {
		return nil, fmt.Errorf("engine: capturer is required")
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("engine: dispatcher is required")
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	producers := opts.Producers
	if len(producers) == 0 {
		producers = []signals.Producer{
			signals.NewTemplateProducer(opts.Library, signals.DefaultTemplateConfig()),
			signals.NewLexicalProducer(opts.Recognizer, signals.DefaultLexicalConfig()),
			signals.NewLayoutProducer(signals.DefaultLayoutConfig()),
		}
	}
	runner := signals.NewRunner(cfg.SignalWait.Std(), producers...)
	arbiter := fusion.NewArbiter(fusion.Config{
		High:            cfg.Thresholds.High,
		Mid:             cfg.Thresholds.Mid,
		DisagreementGap: cfg.Thresholds.DisagreementGap,
	})

	labels := cfg.Known()
	sort.Strings(labels)

	return &Engine{
		cfg:        cfg,
		recal:      recal.NewController(opts.Capturer, runner, arbiter, cfg.MaxRecals),
		runner:     runner,
		arbiter:    arbiter,
		executor:   recovery.NewExecutor(opts.Dispatcher, cfg.Tiers, cfg.SettleDelay.Std()),
		dispatcher: opts.Dispatcher,
		store:      opts.Store,
		events:     opts.Events,
		health:     newHealthRing(5),
		labels:     labels,
	}, nil
}

func (e *Engine) target(label string) (signals.Target, bool) {
	spec, ok := e.cfg.Contexts[label]
	if !ok {
		return signals.Target{}, false
	}
	ids := make([]string, 0, len(spec.Templates))
	for _, ref := range spec.Templates {
		ids = append(ids, templateID(label, ref))
	}
	return signals.Target{
		Context:   label,
		Templates: ids,
		Tokens:    spec.Tokens,
		Layout:    spec.Layout,
	}, true
}

// templateID derives the library key for a context's template entry.
func templateID(label string, ref config.TemplateRef) string {
	return label + "/" + ref.File
}

// #endregion engine

// #region navigate

// Navigate drives the loop until the target context is confirmed or the
// session fails. The returned session always carries the full trail;
// the error is non-nil only for context cancellation or terminal
// navigation failure.
func (e *Engine) Navigate(ctx context.Context, targetLabel string) (*nav.Session, error) {
	targetSpec, ok := e.target(targetLabel)
	if !ok {
		return nil, fmt.Errorf("engine: unknown target context %q", targetLabel)
	}

	navCfg := nav.Config{
		LoopWindow:    e.cfg.LoopWindow,
		MaxTier:       e.cfg.MaxTier,
		AttemptBudget: e.cfg.Attempts,
		TimeBudget:    e.cfg.TimeBudget.Std(),
		Known:         e.labels,
	}
	session := nav.NewSession(targetLabel, navCfg)
	log.Printf("[ENGINE] session %s: navigating to %s", session.ID, targetLabel)
	if e.store != nil {
		if err := e.store.CreateSession(session.ID, targetLabel, time.Now().UTC()); err != nil {
			log.Printf("[ENGINE] trail: %v", err)
		}
	}

	for cycle := 0; ; cycle++ {
		if err := ctx.Err(); err != nil {
			e.finish(session, "cancelled", err.Error())
			return session, err
		}

		obs := e.recal.Observe(ctx, targetSpec)
		e.health.record(obs)

		verdict := obs.Verdict
		if verdict.Tier == fusion.TierUncertain {
			verdict = e.classify(ctx, obs)
		}

		tr := session.Observe(verdict)
		e.emit(session, cycle, verdict, tr, obs.Recals)

		switch session.State {
		case nav.StateInTarget:
			e.finish(session, "success", tr.Reason)
			return session, nil

		case nav.StateFailed:
			e.finish(session, "failed", tr.Reason)
			return session, session.Failure()

		case nav.StateLoopDetected:
			if !session.RecordAttempt() {
				e.finish(session, "failed", nav.ReasonAttemptBudget)
				return session, session.Failure()
			}
			if err := e.executor.Run(ctx, session.Tier); err != nil {
				log.Printf("[ENGINE] recovery tier %d: %v", session.Tier, err)
			}
			session.Resume()

		default:
			action := e.route(verdict.Context, targetLabel)
			if !session.RecordAttempt() {
				e.finish(session, "failed", nav.ReasonAttemptBudget)
				return session, session.Failure()
			}
			if err := e.act(ctx, action); err != nil {
				log.Printf("[ENGINE] action %s: %v", action.Kind, err)
			}
		}

		if err := e.settle(ctx); err != nil {
			e.finish(session, "cancelled", err.Error())
			return session, err
		}
	}
}

// #endregion navigate

// #region classify

// classify probes every known context spec against the frame already in
// hand and returns the strongest verdict. When nothing explains the
// frame with at least PROBABLE agreement the label is UNKNOWN.
func (e *Engine) classify(ctx context.Context, obs recal.Observation) fusion.Verdict {
	unknown := obs.Verdict
	unknown.Context = fusion.ContextUnknown
	if obs.Frame == nil {
		return unknown
	}

	best := unknown
	for _, label := range e.labels {
		target, ok := e.target(label)
		if !ok {
			continue
		}
		results := e.runner.Collect(ctx, obs.Frame, target)
		v := e.arbiter.Decide(label, results[0], results[1], results[2])
		if v.Tier == fusion.TierUncertain {
			continue
		}
		if v.Tier.Rank() > best.Tier.Rank() ||
			(v.Tier.Rank() == best.Tier.Rank() && v.Confidence > best.Confidence) {
			best = v
		}
	}
	if best.Tier == fusion.TierUncertain {
		return unknown
	}
	return best
}

// #endregion classify

// #region actions

// route picks the one-hop action from the current context toward the
// target. With no configured route the mildest recovery action is used
// as a probe.
func (e *Engine) route(from, to string) recovery.Action {
	for _, r := range e.cfg.Routes {
		if r.From == from && r.To == to {
			return r.Action
		}
	}
	return recovery.PressKey("Escape")
}

func (e *Engine) act(ctx context.Context, action recovery.Action) error {
	switch action.Kind {
	case recovery.KindPressKey:
		return e.dispatcher.PressKey(ctx, action.Key)
	case recovery.KindClick:
		return e.dispatcher.Click(ctx, action.X, action.Y)
	case recovery.KindActivateWindow:
		return e.dispatcher.ActivateWindow(ctx)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

func (e *Engine) settle(ctx context.Context) error {
	delay := e.cfg.SettleDelay.Std()
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// #endregion actions

// #region bookkeeping

func (e *Engine) emit(session *nav.Session, cycle int, v fusion.Verdict, tr nav.Transition, recals int) {
	if e.events != nil {
		select {
		case e.events <- Event{SessionID: session.ID, Cycle: cycle, Verdict: v, Transition: tr, Recals: recals}:
		default:
			log.Printf("[ENGINE] event subscriber lagging, dropping cycle %d", cycle)
		}
	}
	if e.store != nil {
		err := e.store.RecordEvent(trail.EventRecord{
			SessionID:    session.ID,
			Cycle:        cycle,
			Context:      v.Context,
			Tier:         v.Tier,
			Confidence:   v.Confidence,
			State:        tr.To,
			Reason:       tr.Reason,
			RecoveryTier: tr.RecoveryTier,
			Recals:       recals,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			log.Printf("[ENGINE] trail: %v", err)
		}
	}
}

func (e *Engine) finish(session *nav.Session, outcome, reason string) {
	log.Printf("[ENGINE] session %s: %s (%s) after %d attempts", session.ID, outcome, reason, session.Attempts)
	if e.store != nil {
		if err := e.store.FinishSession(session.ID, outcome, reason, session.Attempts, session.Tier); err != nil {
			log.Printf("[ENGINE] trail: %v", err)
		}
	}
}

// #endregion bookkeeping
