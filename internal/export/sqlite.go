package export

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"eol_simulator/internal/model"
)

// Retirement metrics stored by RecordRetirement.
const (
	MetricWeight   = "weight_kt"
	MetricCapacity = "capacity_gwh"
)

type DB struct {
	*sql.DB
}

// OpenDB opens (or creates) the result database.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			kind              TEXT NOT NULL,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS results (
			run_id            TEXT NOT NULL,
			kind              TEXT NOT NULL,
			variant           TEXT NOT NULL,
			year              INTEGER NOT NULL,
			province          TEXT,
			city              TEXT,
			scenario          TEXT,
			battery_type      TEXT,
			metric            TEXT NOT NULL,
			value             DOUBLE,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_results_run_variant ON results (run_id, variant);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

type resultRow struct {
	variant  string
	key      model.RowKey
	scenario string
	battery  string
	metric   string
	value    float64
}

// RecordRun stores scenario results in long format under a new run id and
// returns the id. The whole run is one transaction.
func (db *DB) RecordRun(ctx context.Context, kind string, sheets []ResultSheet) (string, error) {
	var rows []resultRow
	for _, s := range sheets {
		for _, r := range s.Results {
			for _, ind := range model.ImpactIndicators {
				rows = append(rows, resultRow{s.Name, r.Key, r.Scenario, r.BatteryType, string(ind), r.Impacts[ind]})
			}
			for _, m := range model.Metals {
				rows = append(rows, resultRow{s.Name, r.Key, r.Scenario, r.BatteryType, string(m), r.Metals[m]})
			}
		}
	}
	return db.record(ctx, kind, rows)
}

// RecordRetirement stores retirement tables, one metric row per amount.
func (db *DB) RecordRetirement(ctx context.Context, kind string, sheets []RetirementSheet) (string, error) {
	var rows []resultRow
	for _, s := range sheets {
		for _, r := range s.Records {
			rows = append(rows,
				resultRow{s.Name, r.Key, r.Scenario, r.BatteryType, MetricWeight, r.MassKt},
				resultRow{s.Name, r.Key, r.Scenario, r.BatteryType, MetricCapacity, r.EnergyGWh},
			)
		}
	}
	return db.record(ctx, kind, rows)
}

func (db *DB) record(ctx context.Context, kind string, rows []resultRow) (string, error) {
	runID := uuid.NewString()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (run_id, kind) VALUES (?, ?)`, runID, kind); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results (run_id, kind, variant, year, province, city, scenario, battery_type, metric, value) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		var value any
		if !math.IsNaN(r.value) && !math.IsInf(r.value, 0) {
			value = r.value
		}
		if _, err := stmt.ExecContext(ctx, runID, kind, r.variant, r.key.Year, r.key.Province, r.key.City, r.scenario, r.battery, r.metric, value); err != nil {
			return "", fmt.Errorf("insert %s %s: %w", r.key, r.metric, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// MetricTotal sums one metric of one variant in a run.
func (db *DB) MetricTotal(ctx context.Context, runID, variant, metric string) (float64, error) {
	var total sql.NullFloat64
	err := db.QueryRowContext(ctx,
		`SELECT SUM(value) FROM results WHERE run_id = ? AND variant = ? AND metric = ?`,
		runID, variant, metric,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

// Run is one stored run.
type Run struct {
	ID        string
	Kind      string
	CreatedAt string
}

// Runs lists stored runs, oldest first.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := db.QueryContext(ctx, `SELECT run_id, kind, created_at FROM runs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// VariantTotal is the sum of one metric over one variant of a run.
type VariantTotal struct {
	Variant string
	Metric  string
	Value   float64
}

// Totals sums every metric of every variant in a run, ordered by variant
// then metric.
func (db *DB) Totals(ctx context.Context, runID string) ([]VariantTotal, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT variant, metric, COALESCE(SUM(value), 0)
		FROM results
		WHERE run_id = ?
		GROUP BY variant, metric
		ORDER BY variant, metric`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VariantTotal
	for rows.Next() {
		var t VariantTotal
		if err := rows.Scan(&t.Variant, &t.Metric, &t.Value); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
