// Package judge decides after each task generation whether the gathered
// findings suffice to answer the main question, or proposes follow-up
// research within the plan's round budget.
package judge

import "fmt"

// ContractError reports malformed judge output: unparsable payloads, too
// many proposals, or a need-more verdict with nothing to do. The loop
// fails safe and treats the findings as sufficient.
type ContractError struct {
	Detail string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("judge contract violated: %s", e.Detail)
}
