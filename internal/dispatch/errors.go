package dispatch

import "fmt"

// TaskExecutionError reports a single task failure. The dispatcher absorbs
// it: the task is marked failed and the rest of the generation proceeds.
type TaskExecutionError struct {
	TaskID   string
	Question string
	Err      error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("task %s (%q) failed: %v", e.TaskID, e.Question, e.Err)
}

func (e *TaskExecutionError) Unwrap() error {
	return e.Err
}
