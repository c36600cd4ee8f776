package store

import (
	"database/sql"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/rahul/sutra/internal/plan"
)

// HistoryStore persists run outcomes and their event streams to sqlite for
// diagnostics. It is write-mostly: the pipeline never reads plan state back
// from here; restoring a plan across restarts is explicitly not supported.
type HistoryStore struct {
	DB *sql.DB
}

func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plan_id TEXT,
			objective TEXT,
			status TEXT DEFAULT 'running',
			error TEXT,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER,
			step_id INTEGER,
			tool TEXT,
			status TEXT,
			message TEXT,
			timestamp DATETIME
		);`,
	}
	for _, q := range queries {
		_, err = db.Exec(q)
		if err != nil {
			return nil, err
		}
	}

	return &HistoryStore{DB: db}, nil
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}

// BeginRun records the start of a plan execution and returns the run id.
func (h *HistoryStore) BeginRun(planID string, objective string) (int64, error) {
	res, err := h.DB.Exec(
		`INSERT INTO runs (plan_id, objective) VALUES (?, ?)`,
		planID, objective,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishRun records the terminal outcome of a run.
func (h *HistoryStore) FinishRun(runID int64, status string, runErr error) error {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	_, err := h.DB.Exec(
		`UPDATE runs SET status = ?, error = ?, finished_at = datetime('now') WHERE id = ?`,
		status, errText, runID,
	)
	return err
}

// AddEvent appends one progress event to a run's history.
func (h *HistoryStore) AddEvent(runID int64, e plan.Event) error {
	_, err := h.DB.Exec(
		`INSERT INTO events (run_id, step_id, tool, status, message, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, e.StepID, e.Tool, string(e.Status), e.Message, e.Timestamp,
	)
	return err
}

// GetEvents returns a run's event stream in emission order.
func (h *HistoryStore) GetEvents(runID int64) ([]plan.Event, error) {
	rows, err := h.DB.Query(
		`SELECT step_id, tool, status, message, timestamp FROM events WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []plan.Event
	for rows.Next() {
		var e plan.Event
		var status string
		var ts time.Time
		if err := rows.Scan(&e.StepID, &e.Tool, &status, &e.Message, &ts); err != nil {
			return nil, err
		}
		e.Status = plan.Status(status)
		e.Timestamp = ts
		events = append(events, e)
	}
	return events, rows.Err()
}

// RunRecorder is a progress sink that persists every event of one run.
// Write errors are swallowed: history is diagnostics, and a slow or broken
// store must never corrupt plan control flow.
type RunRecorder struct {
	Store *HistoryStore
	RunID int64
}

func (r *RunRecorder) OnEvent(e plan.Event) {
	_ = r.Store.AddEvent(r.RunID, e)
}
