package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
CREATE TABLE IF NOT EXISTS optimizer_runs (
    id               TEXT PRIMARY KEY,
    label            TEXT NOT NULL DEFAULT '',
    strategy         TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL,
    total_cost       DOUBLE PRECISION NOT NULL,
    total_co2        DOUBLE PRECISION NOT NULL,
    avg_delivery_h   DOUBLE PRECISION NOT NULL,
    routes_used      INTEGER NOT NULL,
    warehouses_used  INTEGER NOT NULL,
    variables        INTEGER NOT NULL,
    duration_ms      BIGINT NOT NULL,
    assignment       JSONB NOT NULL,
    warnings         JSONB NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS optimizer_runs_label_created ON optimizer_runs (label, created_at DESC);
`

const runColumns = `id, label, strategy, created_at, total_cost, total_co2, avg_delivery_h,
    routes_used, warehouses_used, variables, duration_ms, assignment, warnings`

// Postgres stores runs in a single optimizer_runs table through the pgx
// database/sql driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the runs table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) SaveRun(ctx context.Context, run Run) error {
	assignment, warnings, err := encodeRun(run)
	if err != nil {
		return err
	}
	a := run.Aggregate
	_, err = p.db.ExecContext(ctx, `INSERT INTO optimizer_runs (`+runColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        ON CONFLICT (id) DO UPDATE SET label=EXCLUDED.label, total_cost=EXCLUDED.total_cost,
            total_co2=EXCLUDED.total_co2, assignment=EXCLUDED.assignment, warnings=EXCLUDED.warnings`,
		run.ID, run.Label, run.Strategy, run.CreatedAt, a.TotalCost, a.TotalCO2, a.AvgDeliveryTime,
		a.RoutesUsed, a.WarehousesUsed, run.Variables, run.Duration.Milliseconds(), assignment, warnings)
	if err != nil {
		return fmt.Errorf("store: save run %s: %w", run.ID, err)
	}
	return nil
}

func (p *Postgres) GetRun(ctx context.Context, id string) (Run, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM optimizer_runs WHERE id=$1`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return r, err
}

func (p *Postgres) ListRuns(ctx context.Context, label string, limit int) ([]Run, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+runColumns+` FROM optimizer_runs
        WHERE ($1 = '' OR label = $1) ORDER BY created_at DESC, id LIMIT $2`, label, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r          Run
		durationMs int64
		assignment []byte
		warnings   []byte
	)
	a := &r.Aggregate
	if err := s.Scan(&r.ID, &r.Label, &r.Strategy, &r.CreatedAt, &a.TotalCost, &a.TotalCO2, &a.AvgDeliveryTime,
		&a.RoutesUsed, &a.WarehousesUsed, &r.Variables, &durationMs, &assignment, &warnings); err != nil {
		return Run{}, err
	}
	r.Duration = time.Duration(durationMs) * time.Millisecond
	if err := decodeRun(&r, assignment, warnings); err != nil {
		return Run{}, err
	}
	return r, nil
}

func encodeRun(r Run) (assignment, warnings []byte, err error) {
	if r.Assignment == nil {
		r.Assignment = map[string]string{}
	}
	if assignment, err = json.Marshal(r.Assignment); err != nil {
		return nil, nil, err
	}
	if r.Warnings == nil {
		return assignment, []byte("[]"), nil
	}
	warnings, err = json.Marshal(r.Warnings)
	return assignment, warnings, err
}

func decodeRun(r *Run, assignment, warnings []byte) error {
	if err := json.Unmarshal(assignment, &r.Assignment); err != nil {
		return fmt.Errorf("store: run %s assignment: %w", r.ID, err)
	}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &r.Warnings); err != nil {
			return fmt.Errorf("store: run %s warnings: %w", r.ID, err)
		}
	}
	if len(r.Warnings) == 0 {
		r.Warnings = nil
	}
	return nil
}
