// Package orchestrator drives a research question through decomposition,
// human review, task execution, the sufficiency loop, and report writing.
package orchestrator

import "time"

// EventType identifies a pipeline progress event.
type EventType string

const (
	// EventPlanCreated indicates a decomposition produced a plan.
	EventPlanCreated EventType = "plan_created"
	// EventAwaitingReview indicates the plan is suspended at the feedback gate.
	EventAwaitingReview EventType = "awaiting_review"
	// EventPlanApproved indicates the reviewer released the plan.
	EventPlanApproved EventType = "plan_approved"
	// EventPlanRevised indicates an edit produced a replacement plan.
	EventPlanRevised EventType = "plan_revised"
	// EventPlanAborted indicates the reviewer discarded the plan.
	EventPlanAborted EventType = "plan_aborted"
	// EventGenerationStarted indicates a task generation began executing.
	EventGenerationStarted EventType = "generation_started"
	// EventGenerationDone indicates a task generation finished.
	EventGenerationDone EventType = "generation_done"
	// EventJudgeVerdict indicates the sufficiency judge ruled on the findings.
	EventJudgeVerdict EventType = "judge_verdict"
	// EventReportWritten indicates the final report was persisted.
	EventReportWritten EventType = "report_written"
	// EventRunFailed indicates a fatal pipeline failure.
	EventRunFailed EventType = "run_failed"
)

// Event is one pipeline progress notification.
type Event struct {
	Type EventType
	// PlanID is the plan the event concerns, if one exists yet.
	PlanID string
	// Message is human-readable context.
	Message string
	// Err carries failure details for failure events.
	Err error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
