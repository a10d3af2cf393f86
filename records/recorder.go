// Package records persists the epidemic events of a run to SQLite: every
// infection with its attribution and every symptom transition, keyed by a
// run id so multiple runs can share one file.
package records

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // pure Go driver
)

const schemaVersion = 1

// Recorder writes run events to one SQLite database. It satisfies the
// simulator's Recorder interface and is called from the serial apply phase
// only, so a single connection is enough.
type Recorder struct {
	db    *sql.DB
	runID string
}

// Open creates (or migrates) the database at path and registers a new run.
func Open(path string) (*Recorder, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("records: open failed: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("records: ping failed: %w", err)
	}

	r := &Recorder{db: db, runID: uuid.NewString()}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("records: migration failed: %w", err)
	}
	if err := r.registerRun(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) migrate() error {
	var current int
	if err := r.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS infections (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		step INTEGER NOT NULL,
		sim_time REAL NOT NULL,
		person_id INTEGER NOT NULL,
		infector_id INTEGER NOT NULL,
		group_id INTEGER NOT NULL,
		group_spec TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_infections_run_step ON infections(run_id, step);

	CREATE TABLE IF NOT EXISTS transitions (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		step INTEGER NOT NULL,
		sim_time REAL NOT NULL,
		person_id INTEGER NOT NULL,
		symptom_tag TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transitions_run_person ON transitions(run_id, person_id);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Recorder) registerRun() error {
	_, err := r.db.Exec(
		`INSERT INTO runs (run_id, started_at) VALUES (?, ?)`,
		r.runID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("records: register run: %w", err)
	}
	return nil
}

// RunID returns the id assigned to this run.
func (r *Recorder) RunID() string { return r.runID }

// Infection records one new infection. infectorID is -1 when the infector
// is unknown or owned by another domain.
func (r *Recorder) Infection(step int, simTime float64, personID, infectorID, groupID int, groupSpec string) error {
	_, err := r.db.Exec(
		`INSERT INTO infections (run_id, step, sim_time, person_id, infector_id, group_id, group_spec)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.runID, step, simTime, personID, infectorID, groupID, groupSpec,
	)
	if err != nil {
		return fmt.Errorf("records: insert infection: %w", err)
	}
	return nil
}

// Transition records a person crossing into a new symptom stage.
func (r *Recorder) Transition(step int, simTime float64, personID int, tag string) error {
	_, err := r.db.Exec(
		`INSERT INTO transitions (run_id, step, sim_time, person_id, symptom_tag)
		 VALUES (?, ?, ?, ?, ?)`,
		r.runID, step, simTime, personID, tag,
	)
	if err != nil {
		return fmt.Errorf("records: insert transition: %w", err)
	}
	return nil
}

// InfectionCount returns how many infections this run has recorded.
func (r *Recorder) InfectionCount() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM infections WHERE run_id = ?`, r.runID).Scan(&n)
	return n, err
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
