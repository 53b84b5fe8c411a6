package models

import "time"

// TaskKind is the capability category that determines executor routing.
type TaskKind string

const (
	// KindResearch indicates a task that gathers evidence via retrieval.
	KindResearch TaskKind = "research"
	// KindAnalysis indicates a pure-reasoning task over gathered evidence.
	KindAnalysis TaskKind = "analysis"
	// KindProcessing indicates a computation task (tables, aggregation, derived figures).
	KindProcessing TaskKind = "processing"
)

// Valid returns true if the kind is a known value.
func (k TaskKind) Valid() bool {
	switch k {
	case KindResearch, KindAnalysis, KindProcessing:
		return true
	default:
		return false
	}
}

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is being executed.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusDone indicates the task completed successfully.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusFailed indicates the task failed or timed out.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusDone, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Source is a single evidence reference attached to a task answer.
type Source struct {
	// URL is the location of the source.
	URL string `json:"url"`
	// Title is the source title, if known.
	Title string `json:"title,omitempty"`
	// Snippet is a short excerpt supporting the answer.
	Snippet string `json:"snippet,omitempty"`
}

// Task represents a single sub-question in a plan.
type Task struct {
	// ID is the unique identifier for this task, never reused within a plan.
	ID string `json:"id"`
	// Question is the text of the sub-question.
	Question string `json:"question"`
	// Description is guidance for the executor: what the answer should cover.
	Description string `json:"description,omitempty"`
	// Kind is the capability category. Fixed at creation.
	Kind TaskKind `json:"kind"`
	// RequiresRetrieval is true only for research tasks.
	RequiresRetrieval bool `json:"requires_retrieval"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Answer is the execution result, set only when Status is done.
	// Failed tasks carry the empty sentinel.
	Answer string `json:"answer,omitempty"`
	// Evidence is the ordered list of source references backing the answer.
	Evidence []Source `json:"evidence,omitempty"`
	// Generation is the plan generation this task was created in.
	Generation int `json:"generation"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
}

// IsDataDependent returns true if the task logically depends on the
// research tasks that precede it in the same generation.
func (t *Task) IsDataDependent() bool {
	return t.Kind != KindResearch
}

// IsTerminal returns true if the task has finished, successfully or not.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusDone || t.Status == TaskStatusFailed
}
