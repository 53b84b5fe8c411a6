// Package dispatch routes plan tasks to kind-specific executors and runs
// one generation of tasks with bounded concurrency.
package dispatch

import (
	"context"
	"fmt"

	"github.com/infoquestai/infoquest/pkg/models"
)

// Finding is a completed task's contribution, passed to dependent tasks.
type Finding struct {
	Question string
	Answer   string
	Evidence []models.Source
}

// TaskInput is everything an executor needs to run one task.
type TaskInput struct {
	Task *models.Task
	// MainQuestion is the plan's original research question, for framing.
	MainQuestion string
	Locale       string
	// PriorFindings are the answers of all tasks completed before this
	// one, in plan order. Empty for research tasks.
	PriorFindings []Finding
}

// TaskResult is an executor's output for one task.
type TaskResult struct {
	TaskID   string
	Answer   string
	Evidence []models.Source
}

// Executor runs tasks of a single kind.
type Executor interface {
	// Kind is the task kind this executor handles.
	Kind() models.TaskKind
	// Execute runs the task to completion or error. Implementations must
	// honor ctx cancellation.
	Execute(ctx context.Context, in TaskInput) (TaskResult, error)
}

// Registry maps every valid task kind to exactly one executor. It is
// closed at construction: a kind with no executor is a wiring bug, not a
// runtime condition.
type Registry struct {
	executors map[models.TaskKind]Executor
}

// NewRegistry builds a registry and verifies full, non-overlapping
// coverage of the task kinds.
func NewRegistry(executors ...Executor) (*Registry, error) {
	m := make(map[models.TaskKind]Executor, len(executors))
	for _, ex := range executors {
		kind := ex.Kind()
		if !kind.Valid() {
			return nil, fmt.Errorf("executor registered for unknown kind %q", kind)
		}
		if _, dup := m[kind]; dup {
			return nil, fmt.Errorf("duplicate executor for kind %q", kind)
		}
		m[kind] = ex
	}
	for _, kind := range []models.TaskKind{models.KindResearch, models.KindAnalysis, models.KindProcessing} {
		if _, ok := m[kind]; !ok {
			return nil, fmt.Errorf("no executor for kind %q", kind)
		}
	}
	return &Registry{executors: m}, nil
}

// Lookup returns the executor for a kind.
func (r *Registry) Lookup(kind models.TaskKind) (Executor, bool) {
	ex, ok := r.executors[kind]
	return ex, ok
}
