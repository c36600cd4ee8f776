package observability

import (
	"github.com/rahul/sutra/internal/plan"
)

// LogSink adapts the structured logger to the runner's progress sink
// contract. One log line per transition, emitted synchronously.
type LogSink struct {
	Logger *Logger
	PlanID string
}

func NewLogSink(logger *Logger, planID string) *LogSink {
	return &LogSink{Logger: logger, PlanID: planID}
}

func (s *LogSink) OnEvent(e plan.Event) {
	s.Logger.LogStep(s.PlanID, e.StepID, e.Tool, string(e.Status), e.Message)
	if e.Status.Terminal() {
		SetStatus(RoleIdle, "")
	} else {
		SetStatus(RoleExecuting, e.Tool)
	}
}
