package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/infoquestai/infoquest/internal/llm"
	"github.com/infoquestai/infoquest/pkg/models"
)

const judgeSystemPrompt = `You judge whether gathered research findings are sufficient to answer a research question.

If they are sufficient, respond with need_more false. If a material gap remains, respond with need_more true and propose at most %d NEW research questions that close it. Never repeat a question already asked. Write in locale %q.

Respond with ONLY a JSON object:
{
  "need_more": false,
  "rationale": "one or two sentences",
  "new_questions": [
    {"question": "...", "description": "what the answer should cover"}
  ]
}`

// LLMAssessor renders the plan's findings and asks the model for a
// sufficiency verdict.
type LLMAssessor struct {
	completer llm.Completer
}

// NewLLMAssessor creates an assessor backed by the given completer.
func NewLLMAssessor(completer llm.Completer) *LLMAssessor {
	return &LLMAssessor{completer: completer}
}

// Assess invokes the judge model over the plan's completed findings.
func (a *LLMAssessor) Assess(ctx context.Context, plan *models.Plan) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Research question: %s\n", plan.MainQuestion)
	fmt.Fprintf(&sb, "Re-planning rounds remaining: %d\n", plan.RoundsRemaining)

	sb.WriteString("\nQuestions already asked (do not repeat any):\n")
	for _, t := range plan.Tasks {
		fmt.Fprintf(&sb, "- %s\n", t.Question)
	}

	sb.WriteString("\nFindings:\n")
	answered := 0
	for _, t := range plan.Tasks {
		switch t.Status {
		case models.TaskStatusDone:
			fmt.Fprintf(&sb, "\n--- %s ---\n%s\n", t.Question, t.Answer)
			for _, src := range t.Evidence {
				fmt.Fprintf(&sb, "source: %s (%s)\n", src.Title, src.URL)
			}
			answered++
		case models.TaskStatusFailed:
			fmt.Fprintf(&sb, "\n--- %s ---\n(task failed, no answer)\n", t.Question)
		}
	}
	if answered == 0 {
		sb.WriteString("(no completed findings)\n")
	}

	return a.completer.Complete(ctx, fmt.Sprintf(judgeSystemPrompt, maxProposals, plan.Locale), sb.String())
}
