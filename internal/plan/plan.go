package plan

import "github.com/rahul/sutra/internal/payload"

// PlanStatus is the overall status of a plan.
type PlanStatus string

const (
	PlanRunning   PlanStatus = "running"
	PlanCompleted PlanStatus = "completed"
	PlanFailed    PlanStatus = "failed"
	PlanCancelled PlanStatus = "cancelled"
)

// Terminal reports whether the plan has reached its final status.
func (s PlanStatus) Terminal() bool { return s != PlanRunning }

// StepSpec describes one step of a plan before execution.
type StepSpec struct {
	Tool string          `json:"tool"`
	Args payload.Payload `json:"-"`
}

// Plan is an ordered sequence of steps with a single cursor. A plan is
// exclusively owned by the runner driving it; nothing else mutates it, and
// unrelated plans share no state, so no locking is needed between them.
type Plan struct {
	ID     string
	Steps  []Step
	Status PlanStatus

	cursor int
}

// New builds a plan with every step pending and the cursor at step zero.
func New(id string, specs []StepSpec) *Plan {
	p := &Plan{ID: id, Status: PlanRunning}
	for i, spec := range specs {
		p.Steps = append(p.Steps, Step{
			Index:  i,
			Tool:   spec.Tool,
			Args:   spec.Args,
			Status: StatusPending,
		})
	}
	return p
}

// Cursor returns the index of the next unstarted (or re-queued) step.
func (p *Plan) Cursor() int { return p.cursor }
