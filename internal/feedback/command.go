package feedback

import (
	"fmt"
	"strings"
)

// Action is the reviewer's verb on a suspended plan.
type Action string

const (
	// ActionApprove releases the plan for execution.
	ActionApprove Action = "approve"
	// ActionEdit requests a revised decomposition.
	ActionEdit Action = "edit"
	// ActionAbort cancels the plan entirely.
	ActionAbort Action = "abort"
)

// Command is a parsed reviewer instruction.
type Command struct {
	Action Action
	// EditText carries the revision instructions for ActionEdit.
	EditText string
	// Final approves the revised plan without another review pause.
	// Only meaningful with ActionEdit.
	Final bool
}

// ParseCommand interprets a raw reviewer input line. Accepted forms:
//
//	approve
//	edit: <instructions>
//	edit!: <instructions>   (skip re-review of the revised plan)
//	abort
//
// Anything else is a ProtocolError and leaves the gate suspended.
func ParseCommand(input string) (Command, error) {
	s := strings.TrimSpace(input)
	lower := strings.ToLower(s)

	switch {
	case lower == "approve":
		return Command{Action: ActionApprove}, nil
	case lower == "abort":
		return Command{Action: ActionAbort}, nil
	case strings.HasPrefix(lower, "edit!:"):
		text := strings.TrimSpace(s[len("edit!:"):])
		if text == "" {
			return Command{}, &ProtocolError{Detail: "edit command with no instructions"}
		}
		return Command{Action: ActionEdit, EditText: text, Final: true}, nil
	case strings.HasPrefix(lower, "edit:"):
		text := strings.TrimSpace(s[len("edit:"):])
		if text == "" {
			return Command{}, &ProtocolError{Detail: "edit command with no instructions"}
		}
		return Command{Action: ActionEdit, EditText: text}, nil
	case s == "":
		return Command{}, &ProtocolError{Detail: "empty command"}
	default:
		if len(s) > 40 {
			s = s[:40] + "..."
		}
		return Command{}, &ProtocolError{Detail: fmt.Sprintf("unrecognized command %q", s)}
	}
}
