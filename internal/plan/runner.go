package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/rahul/sutra/internal/payload"
)

// Tool is the slice of the tool contract the runner needs: a callable taking
// the resolved argument text.
type Tool interface {
	Execute(ctx context.Context, input string) (string, error)
}

// ToolResolver resolves a step's tool name to a callable.
type ToolResolver interface {
	Resolve(name string) (Tool, bool)
}

// ResolverFunc adapts a function to the ToolResolver interface.
type ResolverFunc func(name string) (Tool, bool)

func (f ResolverFunc) Resolve(name string) (Tool, bool) { return f(name) }

// Gate is consulted after argument resolution and before tool invocation.
// A non-nil error blocks the step permanently.
type Gate interface {
	Allow(ctx context.Context, tool string, args string) error
}

// DefaultMaxAttempts allows one retry per step for tool-invocation failures.
const DefaultMaxAttempts = 2

// Outcome is the single terminal result the caller receives: the plan's
// final status, the failing step (if any) and the full event history.
type Outcome struct {
	Status     PlanStatus
	FailedStep int
	Err        error
	Events     []Event
}

// Runner drives one plan at a time to a terminal status. Steps run strictly
// in order; the only suspension point is awaiting each tool invocation.
// Several runners may share a resolver, gate and sink, which must therefore
// be safe for concurrent use.
type Runner struct {
	Registry ToolResolver
	Policy   Gate // optional
	Sink     Sink // optional

	// MaxAttempts bounds dispatches per step; zero means DefaultMaxAttempts.
	MaxAttempts int
}

func NewRunner(registry ToolResolver, sink Sink) *Runner {
	return &Runner{Registry: registry, Sink: sink, MaxAttempts: DefaultMaxAttempts}
}

func (r *Runner) maxAttempts() int {
	if r.MaxAttempts > 0 {
		return r.MaxAttempts
	}
	return DefaultMaxAttempts
}

// Run executes the plan until it reaches a terminal status. All step-level
// failures are captured here and folded into the outcome; they never
// propagate as a returned error, and the plan is never left ambiguous.
func (r *Runner) Run(ctx context.Context, p *Plan) Outcome {
	if p.Status.Terminal() {
		return Outcome{Status: p.Status, FailedStep: -1,
			Err: fmt.Errorf("plan %s already reached terminal status %s", p.ID, p.Status)}
	}

	var events []Event
	emit := func(s *Step, msg string) {
		e := Event{
			StepID:    s.Index,
			Tool:      s.Tool,
			Status:    s.Status,
			Message:   msg,
			Timestamp: time.Now(),
		}
		events = append(events, e)
		if r.Sink != nil {
			r.Sink.OnEvent(e)
		}
	}

	for p.cursor < len(p.Steps) {
		step := &p.Steps[p.cursor]

		// Cooperative cancellation boundary: before dispatch. The step is
		// never started, so it stays pending.
		if ctx.Err() != nil {
			p.Status = PlanCancelled
			return Outcome{Status: p.Status, FailedStep: -1, Events: events}
		}

		if err := step.begin(); err != nil {
			p.Status = PlanFailed
			return Outcome{Status: p.Status, FailedStep: step.Index, Err: err, Events: events}
		}
		emit(step, fmt.Sprintf("attempt %d", step.Attempts))

		outcome, done := r.runStep(ctx, p, step, emit)
		if done {
			outcome.Events = events
			return outcome
		}
		if step.Status == StatusCompleted {
			p.cursor++
		}
	}

	p.Status = PlanCompleted
	return Outcome{Status: p.Status, FailedStep: -1, Events: events}
}

// runStep takes one step from preparing to a terminal status, or back to
// pending when the retry policy permits. done reports that the whole plan
// is finished.
func (r *Runner) runStep(ctx context.Context, p *Plan, step *Step, emit func(*Step, string)) (Outcome, bool) {
	failPlan := func(err error) (Outcome, bool) {
		p.Status = PlanFailed
		return Outcome{
			Status:     p.Status,
			FailedStep: step.Index,
			Err:        &StepError{StepID: step.Index, Tool: step.Tool, Err: err},
		}, true
	}

	// Argument repair. A repair failure is deterministic: the raw text will
	// not change on a retry, so this class is never retried.
	resolved, err := payload.Resolve(step.Args)
	if err != nil {
		step.fail(err)
		emit(step, err.Error())
		return failPlan(err)
	}

	tool, ok := r.Registry.Resolve(step.Tool)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrToolNotFound, step.Tool)
		step.fail(err)
		emit(step, err.Error())
		return failPlan(err)
	}

	if r.Policy != nil {
		if err := r.Policy.Allow(ctx, step.Tool, resolved.Text); err != nil {
			step.fail(err)
			emit(step, err.Error())
			return failPlan(err)
		}
	}

	// Cooperative cancellation boundary: before tool invocation.
	if ctx.Err() != nil {
		step.cancel()
		emit(step, "cancellation requested before invocation")
		p.Status = PlanCancelled
		return Outcome{Status: p.Status, FailedStep: -1}, true
	}

	step.execute()
	emit(step, "")

	result, toolErr := tool.Execute(ctx, resolved.Text)

	// An invocation already in flight is never interrupted, but a late
	// result arriving after cancellation is discarded, not reported.
	if ctx.Err() != nil {
		step.cancel()
		emit(step, "cancellation requested during invocation; result discarded")
		p.Status = PlanCancelled
		return Outcome{Status: p.Status, FailedStep: -1}, true
	}

	if toolErr != nil {
		err := &ToolError{Tool: step.Tool, Err: toolErr}
		step.fail(err)
		emit(step, err.Error())

		if retryable(err) && step.Attempts < r.maxAttempts() && p.Status == PlanRunning {
			step.retry()
			emit(step, fmt.Sprintf("retrying, attempt %d of %d used", step.Attempts, r.maxAttempts()))
			return Outcome{}, false
		}
		return failPlan(err)
	}

	step.complete(result)
	emit(step, "")
	return Outcome{}, false
}
