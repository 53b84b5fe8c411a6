package orchestrator

import (
	"context"
	"log"

	"github.com/infoquestai/infoquest/internal/feedback"
	"github.com/infoquestai/infoquest/pkg/models"
)

// AutoApprover approves every plan without human input. Used in headless
// runs where the operator accepted the decomposition sight unseen.
type AutoApprover struct{}

func (AutoApprover) Review(_ context.Context, plan *models.Plan) (feedback.Command, error) {
	log.Printf("[orchestrator] auto-approving plan %s (%d tasks)", plan.ID, len(plan.Tasks))
	return feedback.Command{Action: feedback.ActionApprove}, nil
}

// FileReviewer suspends the run on a YAML review file and waits for the
// reviewer to write a decision into it.
type FileReviewer struct {
	// Path is where the review file is written.
	Path string
}

func (r FileReviewer) Review(ctx context.Context, plan *models.Plan) (feedback.Command, error) {
	if err := feedback.WriteReviewFile(r.Path, plan); err != nil {
		return feedback.Command{}, err
	}
	log.Printf("[orchestrator] plan %s awaiting decision in %s", plan.ID, r.Path)
	return feedback.WaitForDecision(ctx, r.Path)
}
