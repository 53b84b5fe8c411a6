// Package agents implements the kind-specific task executors: research
// (search plus synthesis), analysis, and processing.
package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/infoquestai/infoquest/internal/dispatch"
	"github.com/infoquestai/infoquest/internal/llm"
	"github.com/infoquestai/infoquest/internal/search"
	"github.com/infoquestai/infoquest/pkg/models"
)

const researchSystemPrompt = `You are a research assistant answering one sub-question of a larger research effort. Ground your answer in the provided search results, cite nothing you cannot see in them, and say plainly when the results do not cover the question. Write in locale %q. Be factual and compact.`

// ResearchExecutor answers research tasks by searching the web and
// synthesizing the hits with the model.
type ResearchExecutor struct {
	completer llm.Completer
	searcher  search.Searcher
}

// NewResearchExecutor creates the research executor.
func NewResearchExecutor(completer llm.Completer, searcher search.Searcher) *ResearchExecutor {
	return &ResearchExecutor{completer: completer, searcher: searcher}
}

func (e *ResearchExecutor) Kind() models.TaskKind { return models.KindResearch }

// Execute searches for the task question and asks the model to answer
// from the results. A search failure fails the task; an empty result set
// does not, the model just answers from an empty evidence base and says so.
func (e *ResearchExecutor) Execute(ctx context.Context, in dispatch.TaskInput) (dispatch.TaskResult, error) {
	results, err := e.searcher.Search(ctx, in.Task.Question)
	if err != nil {
		return dispatch.TaskResult{}, fmt.Errorf("search %q: %w", in.Task.Question, err)
	}
	log.Printf("[agents] research %s: %d search hits", in.Task.ID, len(results))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall research question: %s\n\n", in.MainQuestion)
	fmt.Fprintf(&sb, "Sub-question to answer: %s\n", in.Task.Question)
	if in.Task.Description != "" {
		fmt.Fprintf(&sb, "The answer should cover: %s\n", in.Task.Description)
	}
	sb.WriteString("\nSearch results:\n")
	if len(results) == 0 {
		sb.WriteString("(no results)\n")
	}
	for i, r := range results {
		fmt.Fprintf(&sb, "\n[%d] %s\n%s\n%s\n", i+1, r.Title, r.URL, r.Content)
	}

	answer, err := e.completer.Complete(ctx, fmt.Sprintf(researchSystemPrompt, in.Locale), sb.String())
	if err != nil {
		return dispatch.TaskResult{}, fmt.Errorf("synthesize %q: %w", in.Task.Question, err)
	}

	evidence := make([]models.Source, 0, len(results))
	for _, r := range results {
		evidence = append(evidence, models.Source{URL: r.URL, Title: r.Title, Snippet: snippet(r.Content)})
	}

	return dispatch.TaskResult{
		TaskID:   in.Task.ID,
		Answer:   strings.TrimSpace(answer),
		Evidence: evidence,
	}, nil
}

// snippet trims result content to a short citation excerpt.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 280 {
		s = s[:280] + "..."
	}
	return s
}
