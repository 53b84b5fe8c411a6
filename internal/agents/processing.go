package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/infoquestai/infoquest/internal/dispatch"
	"github.com/infoquestai/infoquest/internal/llm"
	"github.com/infoquestai/infoquest/pkg/models"
)

const processingSystemPrompt = `You compute derived outputs — tables, aggregations, comparisons, simple calculations — from research findings. Show the computed result in clean Markdown. Use ONLY the numbers and facts present in the findings; if an input is missing, state which one. Write in locale %q.`

// ProcessingExecutor handles computation tasks over prior findings.
type ProcessingExecutor struct {
	completer llm.Completer
}

// NewProcessingExecutor creates the processing executor.
func NewProcessingExecutor(completer llm.Completer) *ProcessingExecutor {
	return &ProcessingExecutor{completer: completer}
}

func (e *ProcessingExecutor) Kind() models.TaskKind { return models.KindProcessing }

func (e *ProcessingExecutor) Execute(ctx context.Context, in dispatch.TaskInput) (dispatch.TaskResult, error) {
	answer, err := e.completer.Complete(ctx,
		fmt.Sprintf(processingSystemPrompt, in.Locale),
		renderFindingsPrompt(in))
	if err != nil {
		return dispatch.TaskResult{}, fmt.Errorf("process %q: %w", in.Task.Question, err)
	}
	return dispatch.TaskResult{TaskID: in.Task.ID, Answer: strings.TrimSpace(answer)}, nil
}
