package gateway

import (
	"fmt"

	"github.com/rahul/sutra/internal/plan"
)

// Notifier defines the interface for outbound notification channels
// (Telegram, Discord, etc.)
type Notifier interface {
	// Send delivers a message to the configured destination
	Send(text string) error
	// Stop gracefully shuts down the channel
	Stop() error
}

// NotifySink forwards terminal step events to a notifier so a human can
// follow a long-running plan from chat. Intermediate transitions are
// deliberately skipped; they belong in the event log, not in a chat channel.
type NotifySink struct {
	Notifier Notifier
}

func (s *NotifySink) OnEvent(e plan.Event) {
	if !e.Status.Terminal() {
		return
	}
	text := fmt.Sprintf("step %d (%s): %s", e.StepID, e.Tool, e.Status)
	if e.Message != "" {
		text += " (" + e.Message + ")"
	}
	// Delivery failures are not the pipeline's problem; the sink contract
	// is fire-and-forget.
	_ = s.Notifier.Send(text)
}
