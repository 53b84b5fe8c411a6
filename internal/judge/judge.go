package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/infoquestai/infoquest/pkg/models"
)

// maxProposals caps follow-up questions per round.
const maxProposals = 3

// Assessor produces the raw sufficiency verdict for a plan's findings.
// Implementations wrap an LLM.
type Assessor interface {
	Assess(ctx context.Context, plan *models.Plan) (string, error)
}

// Outcome is the result of one sufficiency evaluation.
type Outcome struct {
	// Sufficient means no further research rounds are needed.
	Sufficient bool
	// Rationale is the judge's stated reason, empty on forced outcomes.
	Rationale string
	// Added are the follow-up tasks appended to the plan, if any.
	Added []*models.Task
}

// verdict is the JSON the assessor returns.
type verdict struct {
	NeedMore     bool       `json:"need_more"`
	Rationale    string     `json:"rationale"`
	NewQuestions []proposal `json:"new_questions"`
}

type proposal struct {
	Question    string `json:"question"`
	Description string `json:"description"`
}

// Loop runs the bounded re-planning cycle.
type Loop struct {
	assessor Assessor
}

// NewLoop creates a sufficiency loop over the given assessor.
func NewLoop(assessor Assessor) *Loop {
	return &Loop{assessor: assessor}
}

// Evaluate judges the plan's findings and, when more research is needed
// and budget remains, appends a new generation of research tasks.
//
// The round budget is checked before the assessor is consulted: at zero
// rounds the outcome is forced sufficient and no call is made. Contract
// violations in assessor output also force a sufficient outcome rather
// than failing the run. Only transport errors propagate.
func (l *Loop) Evaluate(ctx context.Context, plan *models.Plan) (Outcome, error) {
	if plan.RoundsRemaining <= 0 {
		log.Printf("[judge] plan %s out of rounds, forcing sufficient", plan.ID)
		return Outcome{Sufficient: true}, nil
	}

	raw, err := l.assessor.Assess(ctx, plan)
	if err != nil {
		return Outcome{}, fmt.Errorf("assess plan %s: %w", plan.ID, err)
	}

	v, err := parseVerdict(raw)
	if err != nil {
		var cerr *ContractError
		if errors.As(err, &cerr) {
			log.Printf("[judge] %v, failing safe to sufficient", cerr)
			return Outcome{Sufficient: true}, nil
		}
		return Outcome{}, err
	}

	if !v.NeedMore {
		return Outcome{Sufficient: true, Rationale: v.Rationale}, nil
	}

	fresh := dedupeProposals(plan, v.NewQuestions)
	if len(fresh) == 0 {
		// Everything the judge wants is already in the plan.
		log.Printf("[judge] plan %s: all %d proposals are duplicates, treating as sufficient",
			plan.ID, len(v.NewQuestions))
		return Outcome{Sufficient: true, Rationale: v.Rationale}, nil
	}

	now := time.Now().UTC()
	gen := plan.Generation + 1
	added := make([]*models.Task, 0, len(fresh))
	for _, p := range fresh {
		added = append(added, &models.Task{
			ID:                uuid.New().String(),
			Question:          p.Question,
			Description:       p.Description,
			Kind:              models.KindResearch,
			RequiresRetrieval: true,
			Status:            models.TaskStatusPending,
			Generation:        gen,
			CreatedAt:         now,
		})
	}

	plan.Tasks = append(plan.Tasks, added...)
	plan.Generation = gen
	plan.RoundsRemaining--
	plan.UpdatedAt = now

	log.Printf("[judge] plan %s: %d follow-up tasks in generation %d, %d rounds left",
		plan.ID, len(added), gen, plan.RoundsRemaining)
	return Outcome{Sufficient: false, Rationale: v.Rationale, Added: added}, nil
}

// parseVerdict extracts and validates the verdict JSON.
func parseVerdict(raw string) (verdict, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return verdict{}, &ContractError{Detail: "no JSON object in response"}
	}

	var v verdict
	if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err != nil {
		return verdict{}, &ContractError{Detail: fmt.Sprintf("unmarshal verdict: %v", err)}
	}

	if len(v.NewQuestions) > maxProposals {
		return verdict{}, &ContractError{
			Detail: fmt.Sprintf("%d proposals exceeds cap of %d", len(v.NewQuestions), maxProposals),
		}
	}

	if v.NeedMore {
		usable := 0
		for _, p := range v.NewQuestions {
			if strings.TrimSpace(p.Question) != "" {
				usable++
			}
		}
		if usable == 0 {
			return verdict{}, &ContractError{Detail: "need_more with no usable proposals"}
		}
	}

	return v, nil
}

// dedupeProposals drops proposals that duplicate existing plan tasks or
// each other, comparing normalized question text.
func dedupeProposals(plan *models.Plan, proposals []proposal) []proposal {
	seen := make(map[string]bool)
	var out []proposal
	for _, p := range proposals {
		q := strings.TrimSpace(p.Question)
		if q == "" {
			continue
		}
		norm := models.NormalizeQuestion(q)
		if plan.ContainsQuestion(norm) || seen[norm] {
			continue
		}
		seen[norm] = true
		p.Question = q
		out = append(out, p)
	}
	return out
}
