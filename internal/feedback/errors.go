// Package feedback implements the human review gate between plan
// generation and plan execution.
package feedback

import "fmt"

// ProtocolError reports a malformed or out-of-sequence review command.
// The gate stays suspended when it occurs; the reviewer can try again.
type ProtocolError struct {
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("review protocol violated: %s", e.Detail)
}
