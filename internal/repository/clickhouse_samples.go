package repository

import (
	"context"
	"database/sql"
	"fmt"

	"BreadthPulse/internal/domain/models"
	pkgch "BreadthPulse/pkg/clickhouse"
	applogger "BreadthPulse/pkg/logger"
)

// CHSampleRepo implements SampleRepo backed by ClickHouse. The table
// keys on (date, time); a finished day collapses to one settled row
// through an explicit delete and insert.
type CHSampleRepo struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHSampleRepo creates a ClickHouse sample repository.
func NewCHSampleRepo(ch *pkgch.Client, table string) *CHSampleRepo {
	if table == "" {
		table = "breadth_samples"
	}
	return &CHSampleRepo{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (r *CHSampleRepo) SetLogger(l *applogger.Logger) { r.l = l }

// SchemaStatements returns the idempotent DDL for the samples table.
func SchemaStatements(table string) []string {
	if table == "" {
		table = "breadth_samples"
	}
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            date            Date,
            time            String,
            ratio           Float64,
            hit_count       UInt32,
            valid_count     UInt32,
            universe_size   UInt32,
            index_change    Float64,
            index_level     Float64,
            index_prev      Float64
        ) ENGINE = MergeTree()
        ORDER BY (date, time)
    `, table)}
}

func (r *CHSampleRepo) Insert(ctx context.Context, s models.BreadthSample) error {
	q := fmt.Sprintf(`INSERT INTO %s
        (date, time, ratio, hit_count, valid_count, universe_size, index_change, index_level, index_prev)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.table)
	_, err := r.db.ExecContext(ctx, q,
		s.Date, s.Time, s.Ratio,
		uint32(s.HitCount), uint32(s.ValidCount), uint32(s.UniverseSize),
		s.IndexChangePct, s.IndexLevel, s.IndexPrevClose,
	)
	if err != nil {
		if r.l != nil {
			r.l.Error("clickhouse sample insert error",
				applogger.String("date", s.Date),
				applogger.String("time", s.Time),
				applogger.Error(err))
		}
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// ReplaceDay collapses a finished day to its single settled sample.
func (r *CHSampleRepo) ReplaceDay(ctx context.Context, date string, final models.BreadthSample) error {
	del := fmt.Sprintf("ALTER TABLE %s DELETE WHERE date = ?", r.table)
	if _, err := r.db.ExecContext(ctx, del, date); err != nil {
		if r.l != nil {
			r.l.Error("clickhouse day delete error",
				applogger.String("date", date), applogger.Error(err))
		}
		return fmt.Errorf("replace day: %w", err)
	}
	return r.Insert(ctx, final)
}

func (r *CHSampleRepo) QueryDay(ctx context.Context, date string) ([]models.BreadthSample, error) {
	q := fmt.Sprintf(`
        SELECT date, time, ratio, hit_count, valid_count, universe_size, index_change, index_level, index_prev
        FROM %s
        WHERE date = ?
        ORDER BY time ASC
    `, r.table)
	rows, err := r.db.QueryContext(ctx, q, date)
	if err != nil {
		return nil, fmt.Errorf("query day: %w", err)
	}
	defer rows.Close()

	out := make([]models.BreadthSample, 0, 64)
	for rows.Next() {
		var s models.BreadthSample
		var hit, valid, size uint32
		if err := rows.Scan(&s.Date, &s.Time, &s.Ratio, &hit, &valid, &size,
			&s.IndexChangePct, &s.IndexLevel, &s.IndexPrevClose); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		s.HitCount = int(hit)
		s.ValidCount = int(valid)
		s.UniverseSize = int(size)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *CHSampleRepo) Close() error { return nil }
