package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/infoquestai/infoquest/internal/agents"
	"github.com/infoquestai/infoquest/internal/config"
	"github.com/infoquestai/infoquest/internal/decompose"
	"github.com/infoquestai/infoquest/internal/dispatch"
	"github.com/infoquestai/infoquest/internal/feedback"
	"github.com/infoquestai/infoquest/internal/judge"
	"github.com/infoquestai/infoquest/internal/llm"
	"github.com/infoquestai/infoquest/internal/orchestrator"
	"github.com/infoquestai/infoquest/internal/report"
	"github.com/infoquestai/infoquest/internal/search"
	"github.com/infoquestai/infoquest/internal/state"
)

// pipeline bundles the wired components for one CLI invocation.
type pipeline struct {
	orch    *orchestrator.Orchestrator
	tracker *llm.TokenTracker
	db      *state.DB
}

func (p *pipeline) close() {
	if p.db != nil {
		p.db.Close()
	}
}

// buildPipeline wires every component from configuration. The reviewer
// decides how the feedback gate reaches a human (or skips one).
func buildPipeline(cfg *config.Config, orchCfg orchestrator.Config, reviewer orchestrator.Reviewer) (*pipeline, error) {
	client, err := llm.NewClient(llm.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, err
	}

	searcher := search.NewClient(search.ClientConfig{
		Endpoint:   cfg.Search.Endpoint,
		APIKey:     cfg.Search.APIKey,
		MaxResults: cfg.Search.MaxResults,
	})

	gateway := decompose.NewGateway(decompose.NewLLMGenerator(client))
	gate := feedback.NewGate(gateway)

	registry, err := dispatch.NewRegistry(
		agents.NewResearchExecutor(client, searcher),
		agents.NewAnalysisExecutor(client),
		agents.NewProcessingExecutor(client),
	)
	if err != nil {
		return nil, fmt.Errorf("wire executors: %w", err)
	}
	dispatcher := dispatch.NewDispatcher(registry, cfg.Limits.MaxWorkers, cfg.Limits.TaskTimeout)

	loop := judge.NewLoop(judge.NewLLMAssessor(client))
	reporter := report.NewLLMReporter(client)

	db, err := state.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	orch := orchestrator.New(orchCfg, gateway, gate, dispatcher, loop, reporter, searcher, db, reviewer)

	return &pipeline{orch: orch, tracker: client.Tracker(), db: db}, nil
}
