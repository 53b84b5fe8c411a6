package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/infoquestai/infoquest/internal/dispatch"
	"github.com/infoquestai/infoquest/internal/llm"
	"github.com/infoquestai/infoquest/pkg/models"
)

const analysisSystemPrompt = `You are an analyst reasoning over evidence already gathered for a research effort. Use ONLY the findings provided; do not invent facts beyond them. Note contradictions and gaps explicitly. Write in locale %q.`

// AnalysisExecutor answers analysis tasks by reasoning over the findings
// of previously completed tasks. It performs no retrieval.
type AnalysisExecutor struct {
	completer llm.Completer
}

// NewAnalysisExecutor creates the analysis executor.
func NewAnalysisExecutor(completer llm.Completer) *AnalysisExecutor {
	return &AnalysisExecutor{completer: completer}
}

func (e *AnalysisExecutor) Kind() models.TaskKind { return models.KindAnalysis }

func (e *AnalysisExecutor) Execute(ctx context.Context, in dispatch.TaskInput) (dispatch.TaskResult, error) {
	answer, err := e.completer.Complete(ctx,
		fmt.Sprintf(analysisSystemPrompt, in.Locale),
		renderFindingsPrompt(in))
	if err != nil {
		return dispatch.TaskResult{}, fmt.Errorf("analyze %q: %w", in.Task.Question, err)
	}
	return dispatch.TaskResult{TaskID: in.Task.ID, Answer: strings.TrimSpace(answer)}, nil
}

// renderFindingsPrompt lays out the task and all prior findings for the
// dependent-task executors.
func renderFindingsPrompt(in dispatch.TaskInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall research question: %s\n\n", in.MainQuestion)
	fmt.Fprintf(&sb, "Your task: %s\n", in.Task.Question)
	if in.Task.Description != "" {
		fmt.Fprintf(&sb, "It should cover: %s\n", in.Task.Description)
	}

	sb.WriteString("\nFindings so far:\n")
	if len(in.PriorFindings) == 0 {
		sb.WriteString("(none — earlier tasks produced no usable answers)\n")
	}
	for i, f := range in.PriorFindings {
		fmt.Fprintf(&sb, "\n--- Finding %d: %s ---\n%s\n", i+1, f.Question, f.Answer)
	}
	return sb.String()
}
