package feedback

import (
	"context"
	"log"
	"time"

	"github.com/infoquestai/infoquest/internal/decompose"
	"github.com/infoquestai/infoquest/pkg/models"
)

// Decision is the outcome of resuming a suspended plan.
type Decision string

const (
	// DecisionApproved means the plan may now execute.
	DecisionApproved Decision = "approved"
	// DecisionRevised means a new plan replaced the reviewed one and the
	// gate is suspended again (unless the edit was final).
	DecisionRevised Decision = "revised"
	// DecisionAborted means the plan was cancelled by the reviewer.
	DecisionAborted Decision = "aborted"
)

// Replanner regenerates a plan from revision instructions.
// *decompose.Gateway satisfies it.
type Replanner interface {
	Decompose(ctx context.Context, req decompose.Request) (*models.Plan, error)
}

// Options carry the limits a revised decomposition must honor.
type Options struct {
	Locale    string
	MaxTasks  int
	MaxRounds int
}

// Gate mediates human review of a suspended plan. A plan leaves the gate
// only through an approve, edit, or abort command; everything else keeps
// it suspended.
type Gate struct {
	replanner Replanner
}

// NewGate creates a review gate backed by the given replanner.
func NewGate(replanner Replanner) *Gate {
	return &Gate{replanner: replanner}
}

// Resume applies a reviewer command to a suspended plan.
//
// Approve is idempotent: approving an already-approved plan is a no-op,
// not an error. Edit re-decomposes with the reviewer's instructions and
// returns a fresh plan carrying the original ID and question. Abort
// returns the plan untouched with DecisionAborted; the caller owns
// cancellation and persistence.
func (g *Gate) Resume(ctx context.Context, plan *models.Plan, cmd Command, opts Options) (*models.Plan, Decision, error) {
	switch cmd.Action {
	case ActionApprove:
		if plan.FeedbackState == models.FeedbackApproved {
			log.Printf("[feedback] plan %s already approved, ignoring duplicate approve", plan.ID)
			return plan, DecisionApproved, nil
		}
		plan.FeedbackState = models.FeedbackApproved
		plan.UpdatedAt = time.Now().UTC()
		log.Printf("[feedback] plan %s approved with %d tasks", plan.ID, len(plan.Tasks))
		return plan, DecisionApproved, nil

	case ActionEdit:
		if plan.FeedbackState == models.FeedbackApproved {
			return plan, "", &ProtocolError{Detail: "cannot edit an approved plan"}
		}
		revised, err := g.replanner.Decompose(ctx, decompose.Request{
			MainQuestion: plan.MainQuestion,
			Locale:       opts.Locale,
			MaxTasks:     opts.MaxTasks,
			MaxRounds:    opts.MaxRounds,
			RevisionHint: cmd.EditText,
		})
		if err != nil {
			return plan, "", err
		}
		// The revision replaces the task list but the plan identity and
		// question survive so persistence keys stay stable. Execution
		// starts over, so the generation counter does too.
		revised.ID = plan.ID
		revised.MainQuestion = plan.MainQuestion
		revised.CreatedAt = plan.CreatedAt
		revised.Generation = 0
		if cmd.Final {
			revised.FeedbackState = models.FeedbackApproved
			log.Printf("[feedback] plan %s revised and approved without re-review", plan.ID)
			return revised, DecisionApproved, nil
		}
		log.Printf("[feedback] plan %s revised, awaiting another review", plan.ID)
		return revised, DecisionRevised, nil

	case ActionAbort:
		log.Printf("[feedback] plan %s aborted by reviewer", plan.ID)
		return plan, DecisionAborted, nil

	default:
		return plan, "", &ProtocolError{Detail: "unknown action " + string(cmd.Action)}
	}
}
