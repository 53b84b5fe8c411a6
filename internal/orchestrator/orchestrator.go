package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/infoquestai/infoquest/internal/decompose"
	"github.com/infoquestai/infoquest/internal/feedback"
	"github.com/infoquestai/infoquest/internal/judge"
	"github.com/infoquestai/infoquest/internal/report"
	"github.com/infoquestai/infoquest/internal/search"
	"github.com/infoquestai/infoquest/internal/state"
	"github.com/infoquestai/infoquest/pkg/models"
)

// ErrAborted is returned when the reviewer discards the plan at the gate.
var ErrAborted = errors.New("plan aborted by reviewer")

// Planner produces a validated plan from a decomposition request.
// *decompose.Gateway satisfies it.
type Planner interface {
	Decompose(ctx context.Context, req decompose.Request) (*models.Plan, error)
}

// Runner executes one generation of plan tasks. *dispatch.Dispatcher
// satisfies it.
type Runner interface {
	RunGeneration(ctx context.Context, plan *models.Plan) error
}

// Evaluator judges sufficiency after each generation. *judge.Loop
// satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, plan *models.Plan) (judge.Outcome, error)
}

// Reviewer obtains the human decision for a suspended plan. The TUI, the
// review-file watcher, and the headless auto-approver all implement it.
type Reviewer interface {
	Review(ctx context.Context, plan *models.Plan) (feedback.Command, error)
}

// Config carries the run limits and output settings.
type Config struct {
	Locale                  string
	MaxTasks                int
	MaxRounds               int
	OutputDir               string
	BackgroundInvestigation bool
}

// Orchestrator owns a plan for the duration of one question and drives
// it through every pipeline stage. All plan mutation happens on the
// orchestrator's goroutine; stage components receive the plan, never
// keep it.
type Orchestrator struct {
	cfg        Config
	planner    Planner
	gate       *feedback.Gate
	runner     Runner
	evaluator  Evaluator
	aggregator report.Aggregator
	searcher   search.Searcher
	store      state.PlanStore
	reviewer   Reviewer

	events chan Event
}

// New creates an orchestrator. The searcher may be nil when background
// investigation is disabled.
func New(cfg Config, planner Planner, gate *feedback.Gate, runner Runner,
	evaluator Evaluator, aggregator report.Aggregator, searcher search.Searcher,
	store state.PlanStore, reviewer Reviewer) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		planner:    planner,
		gate:       gate,
		runner:     runner,
		evaluator:  evaluator,
		aggregator: aggregator,
		searcher:   searcher,
		store:      store,
		reviewer:   reviewer,
		events:     make(chan Event, 100),
	}
}

// Events returns the progress event stream. Events are dropped rather
// than blocking the pipeline when no one is listening.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// Run drives a research question end to end and returns the report path.
func (o *Orchestrator) Run(ctx context.Context, question string) (string, error) {
	req := decompose.Request{
		MainQuestion: question,
		Locale:       o.cfg.Locale,
		MaxTasks:     o.cfg.MaxTasks,
		MaxRounds:    o.cfg.MaxRounds,
	}

	if o.cfg.BackgroundInvestigation && o.searcher != nil {
		req.BackgroundContext = o.investigate(ctx, question)
	}

	plan, err := o.planner.Decompose(ctx, req)
	if err != nil {
		o.emit(Event{Type: EventRunFailed, Err: err})
		return "", err
	}
	o.emit(Event{Type: EventPlanCreated, PlanID: plan.ID,
		Message: fmt.Sprintf("%d tasks, %d rounds budget", len(plan.Tasks), plan.RoundsRemaining)})

	// A confident decomposer can answer without sub-tasks; skip the gate
	// and go straight to the report.
	if plan.HasEnoughContext && len(plan.Tasks) == 0 {
		plan.FeedbackState = models.FeedbackApproved
		if err := o.store.SavePlan(plan, state.PlanActive); err != nil {
			return "", fmt.Errorf("persist plan: %w", err)
		}
		return o.finish(ctx, plan)
	}

	if err := o.store.SavePlan(plan, state.PlanAwaitingReview); err != nil {
		return "", fmt.Errorf("persist plan: %w", err)
	}
	o.emit(Event{Type: EventAwaitingReview, PlanID: plan.ID})

	plan, err = o.reviewCycle(ctx, plan)
	if err != nil {
		return "", err
	}

	return o.execute(ctx, plan)
}

// Resume applies a single reviewer command to a stored suspended plan.
// When the command approves the plan, execution continues to the report
// and its path is returned. When an edit re-suspends the plan, the
// returned path is empty and the plan waits for the next resume.
func (o *Orchestrator) Resume(ctx context.Context, planID string, cmd feedback.Command) (string, error) {
	plan, status, err := o.store.GetPlan(planID)
	if err != nil {
		return "", err
	}
	if status != state.PlanAwaitingReview {
		return "", &feedback.ProtocolError{
			Detail: fmt.Sprintf("plan %s is %s, not awaiting review", planID, status),
		}
	}

	plan, decision, err := o.gate.Resume(ctx, plan, cmd, o.gateOptions())
	if err != nil {
		return "", err
	}

	switch decision {
	case feedback.DecisionAborted:
		if err := o.store.UpdatePlanStatus(plan.ID, state.PlanAborted); err != nil {
			return "", err
		}
		o.emit(Event{Type: EventPlanAborted, PlanID: plan.ID})
		return "", ErrAborted

	case feedback.DecisionRevised:
		if err := o.store.SavePlan(plan, state.PlanAwaitingReview); err != nil {
			return "", err
		}
		o.emit(Event{Type: EventPlanRevised, PlanID: plan.ID,
			Message: fmt.Sprintf("%d tasks", len(plan.Tasks))})
		return "", nil

	default:
		o.emit(Event{Type: EventPlanApproved, PlanID: plan.ID})
		return o.execute(ctx, plan)
	}
}

// reviewCycle holds the plan at the gate until the reviewer approves or
// aborts it. Edits loop: each revision is persisted and re-presented.
func (o *Orchestrator) reviewCycle(ctx context.Context, plan *models.Plan) (*models.Plan, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cmd, err := o.reviewer.Review(ctx, plan)
		if err != nil {
			return nil, fmt.Errorf("obtain review decision: %w", err)
		}

		next, decision, err := o.gate.Resume(ctx, plan, cmd, o.gateOptions())
		if err != nil {
			var perr *feedback.ProtocolError
			if errors.As(err, &perr) {
				log.Printf("[orchestrator] %v, plan stays suspended", perr)
				continue
			}
			return nil, err
		}

		switch decision {
		case feedback.DecisionApproved:
			o.emit(Event{Type: EventPlanApproved, PlanID: next.ID})
			return next, nil
		case feedback.DecisionAborted:
			if err := o.store.UpdatePlanStatus(next.ID, state.PlanAborted); err != nil {
				return nil, err
			}
			o.emit(Event{Type: EventPlanAborted, PlanID: next.ID})
			return nil, ErrAborted
		case feedback.DecisionRevised:
			if err := o.store.SavePlan(next, state.PlanAwaitingReview); err != nil {
				return nil, err
			}
			o.emit(Event{Type: EventPlanRevised, PlanID: next.ID,
				Message: fmt.Sprintf("%d tasks", len(next.Tasks))})
			plan = next
		}
	}
}

// execute runs generations under the sufficiency loop, then hands off to
// the aggregator.
func (o *Orchestrator) execute(ctx context.Context, plan *models.Plan) (string, error) {
	if err := o.store.SavePlan(plan, state.PlanActive); err != nil {
		return "", fmt.Errorf("persist plan: %w", err)
	}

	for {
		o.emit(Event{Type: EventGenerationStarted, PlanID: plan.ID,
			Message: fmt.Sprintf("generation %d", plan.Generation)})

		if err := o.runner.RunGeneration(ctx, plan); err != nil {
			o.fail(plan, err)
			return "", err
		}
		if err := o.store.SavePlan(plan, state.PlanActive); err != nil {
			return "", fmt.Errorf("persist plan: %w", err)
		}
		o.emit(Event{Type: EventGenerationDone, PlanID: plan.ID,
			Message: fmt.Sprintf("generation %d", plan.Generation)})

		outcome, err := o.evaluator.Evaluate(ctx, plan)
		if err != nil {
			o.fail(plan, err)
			return "", err
		}
		if err := o.store.SavePlan(plan, state.PlanActive); err != nil {
			return "", fmt.Errorf("persist plan: %w", err)
		}
		o.emit(Event{Type: EventJudgeVerdict, PlanID: plan.ID, Message: verdictMessage(outcome)})

		if outcome.Sufficient {
			break
		}
	}

	return o.finish(ctx, plan)
}

// finish composes and writes the report and marks the plan completed.
func (o *Orchestrator) finish(ctx context.Context, plan *models.Plan) (string, error) {
	content, err := o.aggregator.ComposeReport(ctx, plan)
	if err != nil {
		o.fail(plan, err)
		return "", err
	}

	path, err := report.WriteReport(o.cfg.OutputDir, content)
	if err != nil {
		o.fail(plan, err)
		return "", err
	}

	if err := o.store.SavePlan(plan, state.PlanCompleted); err != nil {
		return "", fmt.Errorf("persist plan: %w", err)
	}
	o.emit(Event{Type: EventReportWritten, PlanID: plan.ID, Message: path})
	log.Printf("[orchestrator] plan %s complete, report at %s", plan.ID, path)
	return path, nil
}

// investigate runs the pre-decomposition background search and returns a
// compact summary for the planner. Failures degrade to no background.
func (o *Orchestrator) investigate(ctx context.Context, question string) string {
	results, err := o.searcher.Search(ctx, question)
	if err != nil {
		log.Printf("[orchestrator] background investigation failed: %v", err)
		return ""
	}

	var sb strings.Builder
	for _, r := range results {
		content := r.Content
		if len(content) > 400 {
			content = content[:400] + "..."
		}
		fmt.Fprintf(&sb, "- %s: %s\n", r.Title, content)
	}
	return sb.String()
}

func (o *Orchestrator) gateOptions() feedback.Options {
	return feedback.Options{
		Locale:    o.cfg.Locale,
		MaxTasks:  o.cfg.MaxTasks,
		MaxRounds: o.cfg.MaxRounds,
	}
}

// fail records a fatal pipeline failure.
func (o *Orchestrator) fail(plan *models.Plan, err error) {
	if serr := o.store.SavePlan(plan, state.PlanFailed); serr != nil {
		log.Printf("[orchestrator] persist failed plan %s: %v", plan.ID, serr)
	}
	o.emit(Event{Type: EventRunFailed, PlanID: plan.ID, Err: err})
}

// emit sends an event without ever blocking the pipeline.
func (o *Orchestrator) emit(ev Event) {
	ev.Timestamp = time.Now().UTC()
	select {
	case o.events <- ev:
	default:
	}
}

func verdictMessage(out judge.Outcome) string {
	if out.Sufficient {
		if out.Rationale != "" {
			return "sufficient: " + out.Rationale
		}
		return "sufficient"
	}
	return fmt.Sprintf("insufficient, %d follow-up tasks", len(out.Added))
}
