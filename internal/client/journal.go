package client

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/claude/liftlog/internal/session"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// Journal persists set patches that could not be delivered so a restarted
// client can resync. One row per set: a newer patch for the same set
// replaces the old one.
type Journal struct {
	db *sql.DB
}

// PendingPatch is one journaled set update awaiting delivery.
type PendingPatch struct {
	WorkoutID uuid.UUID
	SetID     uuid.UUID
	Patch     session.SetPatch
}

// OpenJournal opens (or creates) the SQLite journal at dir/journal.db.
func OpenJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "journal.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS pending_patches (
		set_id     TEXT PRIMARY KEY,
		workout_id TEXT NOT NULL,
		patch      TEXT NOT NULL,
		queued_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal table: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record stores a patch for later delivery, replacing any previous patch
// for the same set.
func (j *Journal) Record(workoutID, setID uuid.UUID, patch session.SetPatch) error {
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshaling patch: %w", err)
	}
	_, err = j.db.Exec(
		`INSERT OR REPLACE INTO pending_patches (set_id, workout_id, patch) VALUES (?, ?, ?)`,
		setID.String(), workoutID.String(), string(data),
	)
	return err
}

// Pending returns all journaled patches in queue order.
func (j *Journal) Pending() ([]PendingPatch, error) {
	rows, err := j.db.Query(
		`SELECT set_id, workout_id, patch FROM pending_patches ORDER BY queued_at, set_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying pending patches: %w", err)
	}
	defer rows.Close()

	var out []PendingPatch
	for rows.Next() {
		var setID, workoutID, raw string
		if err := rows.Scan(&setID, &workoutID, &raw); err != nil {
			return nil, err
		}
		p := PendingPatch{}
		if p.SetID, err = uuid.Parse(setID); err != nil {
			return nil, fmt.Errorf("parsing set ID %q: %w", setID, err)
		}
		if p.WorkoutID, err = uuid.Parse(workoutID); err != nil {
			return nil, fmt.Errorf("parsing workout ID %q: %w", workoutID, err)
		}
		if err := json.Unmarshal([]byte(raw), &p.Patch); err != nil {
			return nil, fmt.Errorf("unmarshaling patch: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Clear removes the journaled patch for a set after an acknowledged send.
func (j *Journal) Clear(setID uuid.UUID) error {
	_, err := j.db.Exec(`DELETE FROM pending_patches WHERE set_id = ?`, setID.String())
	return err
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
