package decompose

import "fmt"

// Reason identifies which decomposition contract the generator violated.
type Reason string

const (
	// ReasonEmptyPlan indicates the generator returned zero tasks.
	ReasonEmptyPlan Reason = "empty_plan"
	// ReasonTooManyTasks indicates the generator exceeded the task cap.
	ReasonTooManyTasks Reason = "too_many_tasks"
	// ReasonInvalidKind indicates an unrecognized task kind.
	ReasonInvalidKind Reason = "invalid_kind"
	// ReasonUnparsable indicates no valid JSON payload was found.
	ReasonUnparsable Reason = "unparsable"
)

// DecompositionError reports malformed or out-of-bound generator output.
// The gateway retries once on this error class; a second consecutive
// failure is a fatal planning failure.
type DecompositionError struct {
	Reason Reason
	Detail string
}

func (e *DecompositionError) Error() string {
	return fmt.Sprintf("decomposition contract violated (%s): %s", e.Reason, e.Detail)
}
