package plan

import "time"

// Event is an immutable record of one step status transition. Events flow
// one way, from the runner to the sink; the pipeline never reads them back.
type Event struct {
	StepID    int       `json:"step_id"`
	Tool      string    `json:"tool"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives progress events. Implementations must be safe for use by
// multiple runners and should not block; a slow sink stalls its plan but
// never reorders events.
type Sink interface {
	OnEvent(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(e Event) { f(e) }

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) OnEvent(e Event) {
	for _, s := range m {
		s.OnEvent(e)
	}
}
