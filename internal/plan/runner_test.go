package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rahul/sutra/internal/payload"
)

type fakeTool struct {
	fn func(ctx context.Context, input string) (string, error)
}

func (f *fakeTool) Execute(ctx context.Context, input string) (string, error) {
	return f.fn(ctx, input)
}

type fakeRegistry map[string]Tool

func (r fakeRegistry) Resolve(name string) (Tool, bool) {
	t, ok := r[name]
	return t, ok
}

type recorder struct {
	events []Event
}

func (r *recorder) OnEvent(e Event) { r.events = append(r.events, e) }

func okTool(result string) Tool {
	return &fakeTool{fn: func(ctx context.Context, input string) (string, error) {
		return result, nil
	}}
}

func textStep(tool, args string) StepSpec {
	return StepSpec{Tool: tool, Args: payload.New(args, payload.ShapeFreeText)}
}

type transition struct {
	step   int
	status Status
}

func assertTransitions(t *testing.T, events []Event, want []transition) {
	t.Helper()
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, w := range want {
		if events[i].StepID != w.step || events[i].Status != w.status {
			t.Errorf("event %d: got step %d %s, want step %d %s",
				i, events[i].StepID, events[i].Status, w.step, w.status)
		}
	}
}

func TestRunner_SequentialCompletion(t *testing.T) {
	var order []string
	reg := fakeRegistry{}
	for _, name := range []string{"first", "second", "third"} {
		name := name
		reg[name] = &fakeTool{fn: func(ctx context.Context, input string) (string, error) {
			order = append(order, name)
			return "ok:" + name, nil
		}}
	}

	rec := &recorder{}
	p := New("p1", []StepSpec{textStep("first", "a"), textStep("second", "b"), textStep("third", "c")})
	out := NewRunner(reg, rec).Run(context.Background(), p)

	if out.Status != PlanCompleted {
		t.Fatalf("expected completed plan, got %s (%v)", out.Status, out.Err)
	}
	if fmt.Sprint(order) != "[first second third]" {
		t.Errorf("tools ran out of order: %v", order)
	}
	for i := range p.Steps {
		if p.Steps[i].Status != StatusCompleted {
			t.Errorf("step %d not completed: %s", i, p.Steps[i].Status)
		}
	}

	// Step k never starts preparing before step k-1 is terminal.
	assertTransitions(t, out.Events, []transition{
		{0, StatusPreparing}, {0, StatusExecuting}, {0, StatusCompleted},
		{1, StatusPreparing}, {1, StatusExecuting}, {1, StatusCompleted},
		{2, StatusPreparing}, {2, StatusExecuting}, {2, StatusCompleted},
	})
	if len(rec.events) != len(out.Events) {
		t.Errorf("sink saw %d events, outcome carries %d", len(rec.events), len(out.Events))
	}
}

func TestRunner_RetryThenSucceed(t *testing.T) {
	calls := 0
	reg := fakeRegistry{
		"stable": okTool("done"),
		"flaky": &fakeTool{fn: func(ctx context.Context, input string) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("transient")
			}
			return "recovered", nil
		}},
	}

	p := New("p2", []StepSpec{textStep("stable", "x"), textStep("flaky", "y")})
	out := NewRunner(reg, nil).Run(context.Background(), p)

	if out.Status != PlanCompleted {
		t.Fatalf("expected completed plan, got %s (%v)", out.Status, out.Err)
	}
	if p.Steps[1].Attempts != 2 {
		t.Errorf("expected 2 attempts on the flaky step, got %d", p.Steps[1].Attempts)
	}
	if p.Steps[1].Result != "recovered" {
		t.Errorf("expected retried result, got %q", p.Steps[1].Result)
	}

	assertTransitions(t, out.Events, []transition{
		{0, StatusPreparing}, {0, StatusExecuting}, {0, StatusCompleted},
		{1, StatusPreparing}, {1, StatusExecuting}, {1, StatusFailed},
		{1, StatusPending},
		{1, StatusPreparing}, {1, StatusExecuting}, {1, StatusCompleted},
	})

	retryEvent := out.Events[6]
	if retryEvent.Status != StatusPending || !strings.Contains(retryEvent.Message, "attempt 1 of 2 used") {
		t.Errorf("retry event should report attempts used, not exhausted: %+v", retryEvent)
	}
}

func TestRunner_RetriesExhausted(t *testing.T) {
	reg := fakeRegistry{
		"broken": &fakeTool{fn: func(ctx context.Context, input string) (string, error) {
			return "", errors.New("always fails")
		}},
	}

	p := New("p3", []StepSpec{textStep("broken", "x"), textStep("broken", "y")})
	out := NewRunner(reg, nil).Run(context.Background(), p)

	if out.Status != PlanFailed {
		t.Fatalf("expected failed plan, got %s", out.Status)
	}
	if out.FailedStep != 0 {
		t.Errorf("expected failure recorded on step 0, got %d", out.FailedStep)
	}
	if p.Steps[0].Attempts != DefaultMaxAttempts {
		t.Errorf("expected %d attempts, got %d", DefaultMaxAttempts, p.Steps[0].Attempts)
	}
	var serr *StepError
	if !errors.As(out.Err, &serr) {
		t.Fatalf("expected *StepError, got %T", out.Err)
	}
	var terr *ToolError
	if !errors.As(out.Err, &terr) {
		t.Errorf("cause should be a *ToolError, got %v", out.Err)
	}
	// The halting failure never dispatches the next step.
	if p.Steps[1].Status != StatusPending {
		t.Errorf("step 1 should stay pending, got %s", p.Steps[1].Status)
	}
}

func TestRunner_RepairFailureNotRetried(t *testing.T) {
	invoked := false
	reg := fakeRegistry{
		"consumer": &fakeTool{fn: func(ctx context.Context, input string) (string, error) {
			invoked = true
			return "", nil
		}},
	}

	p := New("p4", []StepSpec{
		{Tool: "consumer", Args: payload.New(`{"a": `, payload.ShapeJSON)},
	})
	out := NewRunner(reg, nil).Run(context.Background(), p)

	if out.Status != PlanFailed {
		t.Fatalf("expected failed plan, got %s", out.Status)
	}
	if invoked {
		t.Error("tool must not run when argument repair fails")
	}
	if p.Steps[0].Attempts != 1 {
		t.Errorf("repair failures are deterministic and must not be retried, attempts=%d", p.Steps[0].Attempts)
	}
	var rf *payload.RepairFailure
	if !errors.As(out.Err, &rf) {
		t.Errorf("expected repair failure cause, got %v", out.Err)
	}
}

func TestRunner_ToolNotFound(t *testing.T) {
	p := New("p5", []StepSpec{textStep("missing", "x")})
	out := NewRunner(fakeRegistry{}, nil).Run(context.Background(), p)

	if out.Status != PlanFailed {
		t.Fatalf("expected failed plan, got %s", out.Status)
	}
	if !errors.Is(out.Err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", out.Err)
	}
	if p.Steps[0].Attempts != 1 {
		t.Errorf("registry misses must not be retried, attempts=%d", p.Steps[0].Attempts)
	}
}

type denyAll struct{}

func (denyAll) Allow(ctx context.Context, tool, args string) error {
	return fmt.Errorf("tool %q denied by policy", tool)
}

func TestRunner_PolicyDenialFailsStep(t *testing.T) {
	reg := fakeRegistry{"shell": okTool("ran")}
	r := NewRunner(reg, nil)
	r.Policy = denyAll{}

	p := New("p6", []StepSpec{textStep("shell", "rm -rf /")})
	out := r.Run(context.Background(), p)

	if out.Status != PlanFailed {
		t.Fatalf("expected failed plan, got %s", out.Status)
	}
	if p.Steps[0].Attempts != 1 {
		t.Errorf("policy denials must not be retried, attempts=%d", p.Steps[0].Attempts)
	}
	if p.Steps[0].Result != "" {
		t.Error("denied step must not carry a result")
	}
}

func TestRunner_CancelDuringExecution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reg := fakeRegistry{
		"slow": &fakeTool{fn: func(ctx context.Context, input string) (string, error) {
			cancel() // cancellation lands while the invocation is in flight
			return "late result", nil
		}},
		"after": okTool("never"),
	}

	p := New("p7", []StepSpec{textStep("slow", "x"), textStep("after", "y")})
	out := NewRunner(reg, nil).Run(ctx, p)

	if out.Status != PlanCancelled {
		t.Fatalf("expected cancelled plan, got %s", out.Status)
	}
	if p.Steps[0].Status != StatusCancelled {
		t.Errorf("active step should be cancelled, got %s", p.Steps[0].Status)
	}
	if p.Steps[0].Result != "" {
		t.Error("late result must be discarded, not reported")
	}
	if p.Steps[1].Status != StatusPending {
		t.Errorf("no further steps may dispatch after cancellation, got %s", p.Steps[1].Status)
	}
	last := out.Events[len(out.Events)-1]
	if last.StepID != 0 || last.Status != StatusCancelled {
		t.Errorf("final event should be the cancellation, got %+v", last)
	}
}

func TestRunner_CancelBeforeDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New("p8", []StepSpec{textStep("any", "x")})
	out := NewRunner(fakeRegistry{"any": okTool("r")}, nil).Run(ctx, p)

	if out.Status != PlanCancelled {
		t.Fatalf("expected cancelled plan, got %s", out.Status)
	}
	if len(out.Events) != 0 {
		t.Errorf("no step was started, expected no events, got %d", len(out.Events))
	}
	if p.Steps[0].Status != StatusPending {
		t.Errorf("undispatched step should stay pending, got %s", p.Steps[0].Status)
	}
}

func TestRunner_TerminalPlanRejectsRerun(t *testing.T) {
	reg := fakeRegistry{"noop": okTool("ok")}
	p := New("p9", []StepSpec{textStep("noop", "x")})
	r := NewRunner(reg, nil)

	first := r.Run(context.Background(), p)
	if first.Status != PlanCompleted {
		t.Fatalf("expected completed plan, got %s", first.Status)
	}

	second := r.Run(context.Background(), p)
	if second.Err == nil {
		t.Error("re-running a terminal plan must be rejected")
	}
	if p.Status != PlanCompleted {
		t.Errorf("terminal status must never change, got %s", p.Status)
	}
	if len(second.Events) != 0 {
		t.Error("no transitions may be observed after the plan is terminal")
	}
}
