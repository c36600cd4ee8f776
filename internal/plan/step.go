package plan

import (
	"fmt"

	"github.com/rahul/sutra/internal/payload"
)

// Status is the lifecycle state of a single step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Step is one tool invocation within a plan. Its identity (index + tool
// name) is fixed for its lifetime; only status, attempt counter and the
// result/error fields mutate, and only through the transition methods.
type Step struct {
	Index    int
	Tool     string
	Args     payload.Payload
	Status   Status
	Attempts int
	Result   string
	Err      error
}

// Legal transitions. Cancellation is accepted from both cooperative check
// boundaries (preparing and executing).
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing},
	StatusPreparing: {StatusExecuting, StatusFailed, StatusCancelled},
	StatusExecuting: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusFailed:    {StatusPending},
}

func (s *Step) transition(to Status) error {
	for _, allowed := range transitions[s.Status] {
		if allowed == to {
			s.Status = to
			return nil
		}
	}
	return fmt.Errorf("step %d (%s): illegal transition %s -> %s", s.Index, s.Tool, s.Status, to)
}

// begin dispatches the step: argument resolution is about to start.
// Each dispatch counts as one attempt.
func (s *Step) begin() error {
	if err := s.transition(StatusPreparing); err != nil {
		return err
	}
	s.Attempts++
	return nil
}

func (s *Step) execute() error {
	return s.transition(StatusExecuting)
}

func (s *Step) complete(result string) error {
	if err := s.transition(StatusCompleted); err != nil {
		return err
	}
	s.Result = result
	return nil
}

func (s *Step) fail(err error) error {
	if terr := s.transition(StatusFailed); terr != nil {
		return terr
	}
	s.Err = err
	return nil
}

func (s *Step) cancel() error {
	return s.transition(StatusCancelled)
}

// retry re-queues a failed step. The error payload is kept from the failed
// attempt so diagnostics survive even if the retry succeeds.
func (s *Step) retry() error {
	return s.transition(StatusPending)
}
