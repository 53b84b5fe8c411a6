package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/infoquestai/infoquest/internal/llm"
	"github.com/infoquestai/infoquest/pkg/models"
)

const reporterSystemPrompt = `You write the final report for a completed research effort. Synthesize the findings into a coherent Markdown document: a title, a short executive summary, then sections following the logical structure of the findings. Use ONLY the findings provided. Where a finding is marked failed, note the gap instead of papering over it. Do not invent a references section; one is appended separately. Write in locale %q.`

// Aggregator turns a finished plan into the final report body.
type Aggregator interface {
	ComposeReport(ctx context.Context, plan *models.Plan) (string, error)
}

// LLMReporter composes the report with the model and appends the
// deduplicated citation list gathered from task evidence.
type LLMReporter struct {
	completer llm.Completer
}

// NewLLMReporter creates a reporter backed by the given completer.
func NewLLMReporter(completer llm.Completer) *LLMReporter {
	return &LLMReporter{completer: completer}
}

// ComposeReport renders all findings, asks the model for the report body,
// and appends the references section.
func (r *LLMReporter) ComposeReport(ctx context.Context, plan *models.Plan) (string, error) {
	collector := NewCollector()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Research question: %s\n", plan.MainQuestion)
	if plan.Title != "" {
		fmt.Fprintf(&sb, "Working title: %s\n", plan.Title)
	}

	sb.WriteString("\nFindings:\n")
	for _, t := range plan.Tasks {
		switch t.Status {
		case models.TaskStatusDone:
			fmt.Fprintf(&sb, "\n--- %s ---\n%s\n", t.Question, t.Answer)
			collector.AddAll(t.Evidence)
		case models.TaskStatusFailed:
			fmt.Fprintf(&sb, "\n--- %s ---\n(failed, no answer available)\n", t.Question)
		}
	}

	body, err := r.completer.Complete(ctx, fmt.Sprintf(reporterSystemPrompt, plan.Locale), sb.String())
	if err != nil {
		return "", fmt.Errorf("compose report for plan %s: %w", plan.ID, err)
	}

	out := strings.TrimSpace(body)
	if refs := collector.Markdown(); refs != "" {
		out += "\n\n" + refs
	}
	return out, nil
}

// WriteReport persists the report under dir with a timestamped name and
// returns the written path.
func WriteReport(dir, content string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("report_%s.md", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
