package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/infoquestai/infoquest/pkg/models"
)

// PlanStatus is the lifecycle status of a stored plan.
type PlanStatus string

const (
	// PlanActive indicates the pipeline is executing the plan.
	PlanActive PlanStatus = "active"
	// PlanAwaitingReview indicates the plan is suspended at the feedback gate.
	PlanAwaitingReview PlanStatus = "awaiting_review"
	// PlanCompleted indicates the run finished and the report was produced.
	PlanCompleted PlanStatus = "completed"
	// PlanFailed indicates a fatal planning failure.
	PlanFailed PlanStatus = "failed"
	// PlanAborted indicates the human discarded the plan at the gate.
	PlanAborted PlanStatus = "aborted"
)

// PlanRecord is a stored plan row without the deserialized snapshot.
type PlanRecord struct {
	ID           string
	MainQuestion string
	Status       PlanStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlanStore defines the persistence operations the orchestrator and the
// feedback gate need. The concrete SQLite implementation is *DB.
type PlanStore interface {
	SavePlan(plan *models.Plan, status PlanStatus) error
	GetPlan(id string) (*models.Plan, PlanStatus, error)
	ListPlans() ([]PlanRecord, error)
	UpdatePlanStatus(id string, status PlanStatus) error
	DeletePlan(id string) error
}

// Compile-time verification that DB implements PlanStore.
var _ PlanStore = (*DB)(nil)

// SavePlan inserts or replaces the JSON snapshot for a plan.
func (db *DB) SavePlan(plan *models.Plan, status PlanStatus) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan snapshot: %w", err)
	}

	now := time.Now().UTC()
	createdAt := plan.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = db.conn.Exec(`
		INSERT INTO plans (id, main_question, status, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, plan.ID, plan.MainQuestion, string(status), string(snapshot), createdAt, now)
	if err != nil {
		return fmt.Errorf("save plan %s: %w", plan.ID, err)
	}

	return nil
}

// GetPlan loads a plan snapshot by ID.
func (db *DB) GetPlan(id string) (*models.Plan, PlanStatus, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var snapshot, status string
	row := db.conn.QueryRow("SELECT snapshot, status FROM plans WHERE id = ?", id)
	if err := row.Scan(&snapshot, &status); err != nil {
		if err == sql.ErrNoRows {
			return nil, "", fmt.Errorf("plan %s not found", id)
		}
		return nil, "", fmt.Errorf("get plan %s: %w", id, err)
	}

	plan := &models.Plan{}
	if err := json.Unmarshal([]byte(snapshot), plan); err != nil {
		return nil, "", fmt.Errorf("unmarshal plan snapshot %s: %w", id, err)
	}

	return plan, PlanStatus(status), nil
}

// ListPlans returns all stored plan records, newest first.
func (db *DB) ListPlans() ([]PlanRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT id, main_question, status, created_at, updated_at
		FROM plans ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var records []PlanRecord
	for rows.Next() {
		var r PlanRecord
		var status string
		if err := rows.Scan(&r.ID, &r.MainQuestion, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan plan record: %w", err)
		}
		r.Status = PlanStatus(status)
		records = append(records, r)
	}

	return records, rows.Err()
}

// UpdatePlanStatus changes the stored status without touching the snapshot.
func (db *DB) UpdatePlanStatus(id string, status PlanStatus) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.Exec(
		"UPDATE plans SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update plan status %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plan %s not found", id)
	}

	return nil
}

// DeletePlan removes a stored plan.
func (db *DB) DeletePlan(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec("DELETE FROM plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	return nil
}
