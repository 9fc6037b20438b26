// Package archive records completed simulation results in SQLite:
// one row per started run and one per finalized cycle. It is
// write-only telemetry — nothing is ever read back into the engine,
// so restarting the process always starts from a clean simulation.
package archive

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/paddysim/internal/engine"
)

// DB wraps a SQLite connection for result archival.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		first_cycle_start TEXT NOT NULL,
		planting_month INTEGER NOT NULL,
		irrigation_type TEXT NOT NULL,
		enso_state TEXT NOT NULL,
		typhoon_probability REAL NOT NULL,
		cycles_target INTEGER NOT NULL,
		days_per_cycle INTEGER NOT NULL,
		region TEXT NOT NULL DEFAULT '',
		finished INTEGER NOT NULL DEFAULT 0,
		mean_yield REAL,
		std_yield REAL,
		min_yield REAL,
		max_yield REAL
	);

	CREATE TABLE IF NOT EXISTS cycles (
		run_id TEXT NOT NULL,
		cycle_index INTEGER NOT NULL,
		yield_tons REAL NOT NULL,
		yield_sacks REAL NOT NULL,
		season TEXT NOT NULL,
		weather TEXT NOT NULL,
		dominant_severity TEXT,
		typhoon_days INTEGER NOT NULL,
		severe_typhoon_days INTEGER NOT NULL,
		enso_state TEXT NOT NULL,
		irrigation_type TEXT NOT NULL,
		planting_month INTEGER NOT NULL,
		typhoon_probability REAL NOT NULL,
		region TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, cycle_index)
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_run ON cycles(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// InsertRun records a newly started run and its parameter snapshot.
func (db *DB) InsertRun(snap engine.Snapshot) error {
	_, err := db.conn.Exec(`INSERT OR IGNORE INTO runs
		(id, mode, first_cycle_start, planting_month, irrigation_type,
		 enso_state, typhoon_probability, cycles_target, days_per_cycle, region)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.RunID, string(snap.Mode), snap.FirstCycleStartDate,
		snap.Params.PlantingMonth, string(snap.Params.IrrigationType),
		string(snap.Params.ENSOState), snap.Params.TyphoonProbability,
		snap.Params.CyclesTarget, snap.Params.DaysPerCycle, snap.Params.Region,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", snap.RunID, err)
	}
	return nil
}

// AppendCycles writes a batch of finalized cycle records for a run.
func (db *DB) AppendCycles(runID string, records []engine.CycleRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO cycles
		(run_id, cycle_index, yield_tons, yield_sacks, season, weather,
		 dominant_severity, typhoon_days, severe_typhoon_days,
		 enso_state, irrigation_type, planting_month, typhoon_probability, region)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		var severity *string
		if rec.DominantSeverity != "" {
			s := string(rec.DominantSeverity)
			severity = &s
		}
		_, err := stmt.Exec(
			runID, rec.CycleIndex, rec.YieldTons, rec.YieldSacks,
			string(rec.Season), string(rec.Weather), severity,
			rec.TyphoonDays, rec.SevereTyphoonDays,
			string(rec.ENSOState), string(rec.IrrigationType),
			rec.PlantingMonth, rec.TyphoonProbability, rec.Region,
		)
		if err != nil {
			return fmt.Errorf("insert cycle %d: %w", rec.CycleIndex, err)
		}
	}

	return tx.Commit()
}

// FinishRun stamps a run with its final summary statistics.
func (db *DB) FinishRun(runID string, snap engine.Snapshot) error {
	if snap.Summary == nil {
		_, err := db.conn.Exec("UPDATE runs SET finished = 1 WHERE id = ?", runID)
		return err
	}
	_, err := db.conn.Exec(`UPDATE runs SET
		finished = 1, mean_yield = ?, std_yield = ?, min_yield = ?, max_yield = ?
		WHERE id = ?`,
		snap.Summary.Mean, snap.Summary.Std, snap.Summary.Min, snap.Summary.Max, runID,
	)
	return err
}

// CycleCount returns how many cycles are archived for a run.
func (db *DB) CycleCount(runID string) (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM cycles WHERE run_id = ?", runID)
	return n, err
}
