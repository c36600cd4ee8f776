package plan

import (
	"errors"
	"fmt"

	"github.com/rahul/sutra/internal/payload"
)

// ErrToolNotFound marks a step whose tool name is absent from the registry.
// Never retried.
var ErrToolNotFound = errors.New("tool not found in registry")

// ToolError wraps an error returned by a resolved tool. This is the only
// retryable failure class: the tool may succeed on a second invocation,
// whereas repair failures and registry misses are deterministic.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// StepError is the cause a failed plan carries: which step failed and why.
type StepError struct {
	StepID int
	Tool   string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.StepID, e.Tool, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func retryable(err error) bool {
	var terr *ToolError
	if !errors.As(err, &terr) {
		return false
	}
	var rf *payload.RepairFailure
	return !errors.As(err, &rf)
}
