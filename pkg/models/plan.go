// Package models defines the plan and task data shared across InfoQuest.
package models

import (
	"strings"
	"time"
)

// FeedbackState tracks where a plan sits in the human review flow.
type FeedbackState string

const (
	// FeedbackAwaitingReview indicates the plan is suspended pending human review.
	FeedbackAwaitingReview FeedbackState = "awaiting_review"
	// FeedbackApproved indicates the plan has been approved for execution.
	FeedbackApproved FeedbackState = "approved"
)

// Plan is the full mutable record of a question's decomposition,
// execution state, and round budget. It is owned exclusively by the
// orchestrator for the duration of one question.
type Plan struct {
	// ID is the unique identifier for this plan.
	ID string `json:"id"`
	// MainQuestion is the original research question. Immutable.
	MainQuestion string `json:"main_question"`
	// Title is a short title for the plan produced by the decomposer.
	Title string `json:"title,omitempty"`
	// Locale is the output locale, e.g. "en-US".
	Locale string `json:"locale"`
	// Tasks is the ordered task list. Insertion order is execution and
	// dependency order.
	Tasks []*Task `json:"tasks"`
	// Generation counts task batches: 0 for the initial decomposition,
	// incremented each time the judge injects new tasks.
	Generation int `json:"generation"`
	// RoundsRemaining bounds the re-planning loop. The plan terminates
	// when it reaches zero regardless of judge output.
	RoundsRemaining int `json:"rounds_remaining"`
	// FeedbackState is the human review state.
	FeedbackState FeedbackState `json:"feedback_state"`
	// HasEnoughContext is set when the decomposer reported the question
	// answerable without sub-task execution.
	HasEnoughContext bool `json:"has_enough_context,omitempty"`
	// CreatedAt is when the plan was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the plan was last mutated.
	UpdatedAt time.Time `json:"updated_at"`
}

// TasksInGeneration returns the tasks created in generation n, in plan order.
func (p *Plan) TasksInGeneration(n int) []*Task {
	var out []*Task
	for _, t := range p.Tasks {
		if t.Generation == n {
			out = append(out, t)
		}
	}
	return out
}

// PendingTasks returns all tasks that have not reached a terminal status.
func (p *Plan) PendingTasks() []*Task {
	var out []*Task
	for _, t := range p.Tasks {
		if !t.IsTerminal() {
			out = append(out, t)
		}
	}
	return out
}

// ContainsQuestion reports whether any task in the plan has the given
// normalized question text. Used to drop duplicate judge proposals.
func (p *Plan) ContainsQuestion(normalized string) bool {
	for _, t := range p.Tasks {
		if NormalizeQuestion(t.Question) == normalized {
			return true
		}
	}
	return false
}

// Terminal returns true once the plan is approved and has no pending work.
func (p *Plan) Terminal() bool {
	if p.FeedbackState != FeedbackApproved {
		return false
	}
	return len(p.PendingTasks()) == 0
}

// NormalizeQuestion canonicalizes question text for duplicate detection:
// lowercased, whitespace collapsed, trailing punctuation stripped.
func NormalizeQuestion(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.TrimRight(q, "?.!。？！")
	return strings.Join(strings.Fields(q), " ")
}
