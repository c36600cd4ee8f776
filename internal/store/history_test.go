package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rahul/sutra/internal/plan"
)

func newTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHistoryStore_RunLifecycle(t *testing.T) {
	h := newTestStore(t)

	runID, err := h.BeginRun("plan-1", "update the report")
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	rec := &RunRecorder{Store: h, RunID: runID}
	now := time.Now().UTC().Truncate(time.Second)
	rec.OnEvent(plan.Event{StepID: 0, Tool: "filesystem", Status: plan.StatusPreparing, Timestamp: now})
	rec.OnEvent(plan.Event{StepID: 0, Tool: "filesystem", Status: plan.StatusExecuting, Timestamp: now})
	rec.OnEvent(plan.Event{StepID: 0, Tool: "filesystem", Status: plan.StatusCompleted, Timestamp: now})

	if err := h.FinishRun(runID, string(plan.PlanCompleted), nil); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	events, err := h.GetEvents(runID)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	want := []plan.Status{plan.StatusPreparing, plan.StatusExecuting, plan.StatusCompleted}
	for i, e := range events {
		if e.Status != want[i] {
			t.Errorf("event %d: got %s, want %s", i, e.Status, want[i])
		}
		if e.Tool != "filesystem" {
			t.Errorf("event %d: unexpected tool %q", i, e.Tool)
		}
	}
}

func TestHistoryStore_FinishRunRecordsError(t *testing.T) {
	h := newTestStore(t)

	runID, err := h.BeginRun("plan-2", "doomed")
	if err != nil {
		t.Fatal(err)
	}
	if err := h.FinishRun(runID, string(plan.PlanFailed), errors.New("step 1 exploded")); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	var status, errText string
	row := h.DB.QueryRow(`SELECT status, error FROM runs WHERE id = ?`, runID)
	if err := row.Scan(&status, &errText); err != nil {
		t.Fatal(err)
	}
	if status != string(plan.PlanFailed) {
		t.Errorf("expected failed status, got %q", status)
	}
	if errText != "step 1 exploded" {
		t.Errorf("expected error text recorded, got %q", errText)
	}
}
