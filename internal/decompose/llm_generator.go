package decompose

import (
	"context"
	"fmt"

	"github.com/infoquestai/infoquest/internal/llm"
)

// LLMGenerator produces decompositions via the Anthropic API.
type LLMGenerator struct {
	completer llm.Completer
}

// NewLLMGenerator creates a generator backed by the given completer.
func NewLLMGenerator(completer llm.Completer) *LLMGenerator {
	return &LLMGenerator{completer: completer}
}

// Generate renders the decomposition prompt and invokes the model.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) (string, error) {
	system := fmt.Sprintf(decomposerSystemPrompt, req.MaxTasks, req.Locale)
	if req.Strict {
		system += strictSuffix
	}

	user := fmt.Sprintf("Research question: %s", req.MainQuestion)
	if req.BackgroundContext != "" {
		user += fmt.Sprintf(backgroundTemplate, req.BackgroundContext)
	}
	if req.RevisionHint != "" {
		user += fmt.Sprintf(revisionTemplate, req.RevisionHint)
	}

	return g.completer.Complete(ctx, system, user)
}
