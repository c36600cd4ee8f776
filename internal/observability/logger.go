package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeStep       EventType = "step"
	EventTypePlan       EventType = "plan"
	EventTypeLLM        EventType = "llm"
	EventTypeHeartbeat  EventType = "heartbeat"
	EventTypeDiagnostic EventType = "diagnostic"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	PlanID    string    `json:"plan_id,omitempty"`
	StepID    int       `json:"step_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging.
type Logger struct {
	out          io.Writer
	eventLogPath string
	maxSize      int64
}

func NewLogger() *Logger {
	return &Logger{
		out:          os.Stdout,
		eventLogPath: filepath.Join("logs", "events.jsonl"),
		maxSize:      10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event to stdout. Step and plan events are
// mirrored to the event log file for post-run inspection.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Fprintf(l.out, "{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Fprintln(l.out, string(data))

	if evt.Type == EventTypeStep || evt.Type == EventTypePlan {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.eventLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.eventLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.eventLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.eventLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.eventLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogStep(planID string, stepID int, tool, status, message string) {
	l.Log(Event{
		Type:   EventTypeStep,
		PlanID: planID,
		StepID: stepID,
		Data: map[string]string{
			"tool":    tool,
			"status":  status,
			"message": message,
		},
	})
}

func (l *Logger) LogPlan(planID string, status string, detail string) {
	l.Log(Event{
		Type:   EventTypePlan,
		PlanID: planID,
		Data: map[string]string{
			"status": status,
			"detail": detail,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

// LogDiagnostic records a non-fatal content diagnostic, such as a web clean
// that was skipped or discarded.
func (l *Logger) LogDiagnostic(source, detail string) {
	l.Log(Event{
		Type: EventTypeDiagnostic,
		Data: map[string]string{
			"source": source,
			"detail": detail,
		},
	})
}

func (l *Logger) LogLLM(planID string, prompt any, response string, toolCalls any) {
	l.Log(Event{
		Type:   EventTypeLLM,
		PlanID: planID,
		Data: map[string]any{
			"prompt":     prompt,
			"response":   response,
			"tool_calls": toolCalls,
		},
	})
}
