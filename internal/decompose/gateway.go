// Package decompose turns a research question into an ordered, validated
// task plan by invoking an external generator.
package decompose

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/infoquestai/infoquest/pkg/models"
)

// Request carries the inputs for one decomposition.
type Request struct {
	// MainQuestion is the research question to decompose.
	MainQuestion string
	// Locale is the output locale, e.g. "en-US".
	Locale string
	// MaxTasks bounds the returned task count.
	MaxTasks int
	// MaxRounds seeds the plan's re-planning budget.
	MaxRounds int
	// RevisionHint carries human edit instructions when re-decomposing
	// after an Edit command at the feedback gate.
	RevisionHint string
	// BackgroundContext is an optional pre-decomposition search summary.
	BackgroundContext string
	// Strict is set on the retry after a contract violation.
	Strict bool
}

// Generator produces raw decomposition text. Implementations wrap an LLM.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Gateway validates and normalizes generator output into a Plan.
type Gateway struct {
	gen Generator
}

// NewGateway creates a new decomposition gateway.
func NewGateway(gen Generator) *Gateway {
	return &Gateway{gen: gen}
}

// Decompose invokes the generator and builds a validated plan. On a
// DecompositionError it retries once with a stricter instruction; a second
// consecutive failure surfaces as a fatal planning failure.
func (g *Gateway) Decompose(ctx context.Context, req Request) (*models.Plan, error) {
	plan, err := g.decomposeOnce(ctx, req)
	if err == nil {
		return plan, nil
	}

	var derr *DecompositionError
	if !errors.As(err, &derr) {
		return nil, fmt.Errorf("invoke generator: %w", err)
	}

	log.Printf("[decompose] contract violation (%s), retrying with strict instruction", derr.Reason)
	req.Strict = true
	plan, err = g.decomposeOnce(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("decomposition failed after retry: %w", err)
	}
	return plan, nil
}

// decomposeOnce performs a single generate-parse-validate pass.
func (g *Gateway) decomposeOnce(ctx context.Context, req Request) (*models.Plan, error) {
	raw, err := g.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	p, err := parseResponse(raw, req.MaxTasks)
	if err != nil {
		return nil, err
	}

	locale := p.locale
	if locale == "" {
		locale = req.Locale
	}

	now := time.Now().UTC()
	return &models.Plan{
		ID:               uuid.New().String()[:8],
		MainQuestion:     req.MainQuestion,
		Title:            p.title,
		Locale:           locale,
		Tasks:            p.tasks,
		Generation:       0,
		RoundsRemaining:  req.MaxRounds,
		FeedbackState:    models.FeedbackAwaitingReview,
		HasEnoughContext: p.hasEnoughContext,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
