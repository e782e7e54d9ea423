// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive records planning runs in a SQLite database so earlier
// results can be listed, inspected, and exported.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

const dbFile = "runs.db"

// timeFormat has a fixed width so created_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one archived planning run. Curve, Footprint and Envelope are
// optional; a run records whichever stages were executed.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Source is the block model file the run was computed from.
	Source string `json:"source" yaml:"source"`

	Economics types.EconomicParams `json:"economics" yaml:"economics"`
	Geometry  types.GeometryParams `json:"geometry" yaml:"geometry"`

	Curve     *types.LevelCurve     `json:"curve,omitempty" yaml:"curve,omitempty"`
	Footprint *types.FootprintSet   `json:"footprint,omitempty" yaml:"footprint,omitempty"`
	Envelope  *types.EnvelopeResult `json:"envelope,omitempty" yaml:"envelope,omitempty"`
}

// RunSummary is the listing row of an archived run.
type RunSummary struct {
	ID               string
	CreatedAt        time.Time
	Source           string
	OptimalLevel     *float64
	OptimalValue     *float64
	FootprintColumns int
	EnvelopeBlocks   int
	NetValue         *float64
}

type runParams struct {
	Economics types.EconomicParams `json:"economics"`
	Geometry  types.GeometryParams `json:"geometry"`
}

// Store manages the run archive database.
type Store struct {
	db     *sql.DB
	dir    string
	logger *log.Logger
}

// Open opens or creates the archive at dir/runs.db. A nil logger discards
// log output.
func Open(dir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the archive directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT,
			params TEXT NOT NULL,
			optimal_level REAL,
			optimal_value REAL,
			footprint_level REAL,
			envelope_level REAL,
			net_value REAL,
			stats TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS level_values (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			level REAL NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS footprint_columns (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			x REAL NOT NULL,
			y REAL NOT NULL,
			peak REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS envelope_blocks (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			profit REAL NOT NULL,
			pruned INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_footprint_run ON footprint_columns(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_envelope_run ON envelope_blocks(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run in one transaction and returns its ID. A new ID and
// timestamp are assigned when run leaves them empty.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	params, err := json.Marshal(runParams{Economics: run.Economics, Geometry: run.Geometry})
	if err != nil {
		return "", fmt.Errorf("encoding parameters: %w", err)
	}

	var optimalLevel, optimalValue, footprintLevel, envelopeLevel, netValue sql.NullFloat64
	var stats sql.NullString
	if run.Curve != nil {
		optimalLevel = sql.NullFloat64{Float64: run.Curve.Optimal.Level, Valid: true}
		optimalValue = sql.NullFloat64{Float64: run.Curve.Optimal.Value, Valid: true}
	}
	if run.Footprint != nil {
		footprintLevel = sql.NullFloat64{Float64: run.Footprint.Level, Valid: true}
	}
	if run.Envelope != nil {
		envelopeLevel = sql.NullFloat64{Float64: run.Envelope.Level, Valid: true}
		netValue = sql.NullFloat64{Float64: run.Envelope.NetValue, Valid: true}
		statsJSON, err := json.Marshal(run.Envelope.Stats)
		if err != nil {
			return "", fmt.Errorf("encoding envelope stats: %w", err)
		}
		stats = sql.NullString{String: string(statsJSON), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, params, optimal_level, optimal_value,
			footprint_level, envelope_level, net_value, stats)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeFormat), run.Source, string(params),
		optimalLevel, optimalValue, footprintLevel, envelopeLevel, netValue, stats,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	if run.Curve != nil {
		if err := insertCurve(ctx, tx, run.ID, run.Curve.Values); err != nil {
			return "", err
		}
	}
	if run.Footprint != nil {
		if err := insertFootprint(ctx, tx, run.ID, run.Footprint.Columns); err != nil {
			return "", err
		}
	}
	if run.Envelope != nil {
		if err := insertBlocks(ctx, tx, run.ID, run.Envelope.Blocks, false); err != nil {
			return "", err
		}
		if err := insertBlocks(ctx, tx, run.ID, run.Envelope.Pruned, true); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	s.logger.Debug("archived run", "id", run.ID, "source", run.Source)
	return run.ID, nil
}

func insertCurve(ctx context.Context, tx *sql.Tx, runID string, values []types.LevelValue) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO level_values (run_id, seq, level, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing level insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range values {
		if _, err := stmt.ExecContext(ctx, runID, i, v.Level, v.Value); err != nil {
			return fmt.Errorf("inserting level %g: %w", v.Level, err)
		}
	}
	return nil
}

func insertFootprint(ctx context.Context, tx *sql.Tx, runID string, cols []types.FootprintColumn) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO footprint_columns (run_id, x, y, peak) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing footprint insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cols {
		if _, err := stmt.ExecContext(ctx, runID, c.X, c.Y, c.Peak); err != nil {
			return fmt.Errorf("inserting footprint column: %w", err)
		}
	}
	return nil
}

func insertBlocks(ctx context.Context, tx *sql.Tx, runID string, blocks []types.EnvelopeBlock, pruned bool) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO envelope_blocks (run_id, x, y, z, profit, pruned) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing envelope insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range blocks {
		if _, err := stmt.ExecContext(ctx, runID, b.X, b.Y, b.Z, b.Profit, pruned); err != nil {
			return fmt.Errorf("inserting envelope block: %w", err)
		}
	}
	return nil
}

// List returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT r.id, r.created_at, r.source, r.optimal_level, r.optimal_value, r.net_value,
			(SELECT count(*) FROM footprint_columns f WHERE f.run_id = r.id),
			(SELECT count(*) FROM envelope_blocks e WHERE e.run_id = r.id AND e.pruned = 0)
		FROM runs r
		ORDER BY r.created_at DESC, r.id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var sum RunSummary
		var created string
		var source sql.NullString
		var optLevel, optValue, net sql.NullFloat64
		if err := rows.Scan(&sum.ID, &created, &source, &optLevel, &optValue, &net,
			&sum.FootprintColumns, &sum.EnvelopeBlocks); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		sum.CreatedAt, _ = time.Parse(timeFormat, created)
		sum.Source = source.String
		sum.OptimalLevel = nullable(optLevel)
		sum.OptimalValue = nullable(optValue)
		sum.NetValue = nullable(net)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get loads a complete run. It returns a NotFound error for an unknown ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var (
		created, params                            string
		source, stats                              sql.NullString
		optLevel, optValue, fpLevel, envLevel, net sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, source, params, optimal_level, optimal_value,
			footprint_level, envelope_level, net_value, stats
		 FROM runs WHERE id = ?`, id,
	).Scan(&created, &source, &params, &optLevel, &optValue, &fpLevel, &envLevel, &net, &stats)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, planerr.New(planerr.CodeNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	run := &Run{ID: id, Source: source.String}
	run.CreatedAt, _ = time.Parse(timeFormat, created)

	var rp runParams
	if err := json.Unmarshal([]byte(params), &rp); err != nil {
		return nil, fmt.Errorf("decoding parameters of run %s: %w", id, err)
	}
	run.Economics, run.Geometry = rp.Economics, rp.Geometry

	if optLevel.Valid {
		values, err := s.levelValues(ctx, id)
		if err != nil {
			return nil, err
		}
		run.Curve = &types.LevelCurve{
			Values:  values,
			Optimal: types.LevelValue{Level: optLevel.Float64, Value: optValue.Float64},
		}
	}
	if fpLevel.Valid {
		cols, err := s.footprintColumns(ctx, id)
		if err != nil {
			return nil, err
		}
		run.Footprint = types.NewFootprintSet(fpLevel.Float64, cols)
	}
	if envLevel.Valid {
		env := &types.EnvelopeResult{Level: envLevel.Float64, NetValue: net.Float64}
		if stats.Valid {
			if err := json.Unmarshal([]byte(stats.String), &env.Stats); err != nil {
				return nil, fmt.Errorf("decoding envelope stats of run %s: %w", id, err)
			}
		}
		if env.Blocks, env.Pruned, err = s.envelopeBlocks(ctx, id); err != nil {
			return nil, err
		}
		run.Envelope = env
	}
	return run, nil
}

func (s *Store) levelValues(ctx context.Context, id string) ([]types.LevelValue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT level, value FROM level_values WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying level values: %w", err)
	}
	defer rows.Close()

	var out []types.LevelValue
	for rows.Next() {
		var v types.LevelValue
		if err := rows.Scan(&v.Level, &v.Value); err != nil {
			return nil, fmt.Errorf("scanning level value: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) footprintColumns(ctx context.Context, id string) ([]types.FootprintColumn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT x, y, peak FROM footprint_columns WHERE run_id = ? ORDER BY x, y`, id)
	if err != nil {
		return nil, fmt.Errorf("querying footprint: %w", err)
	}
	defer rows.Close()

	var out []types.FootprintColumn
	for rows.Next() {
		var c types.FootprintColumn
		if err := rows.Scan(&c.X, &c.Y, &c.Peak); err != nil {
			return nil, fmt.Errorf("scanning footprint column: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) envelopeBlocks(ctx context.Context, id string) (kept, pruned []types.EnvelopeBlock, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT x, y, z, profit, pruned FROM envelope_blocks WHERE run_id = ? ORDER BY z, x, y`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("querying envelope: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b types.EnvelopeBlock
		var isPruned bool
		if err := rows.Scan(&b.X, &b.Y, &b.Z, &b.Profit, &isPruned); err != nil {
			return nil, nil, fmt.Errorf("scanning envelope block: %w", err)
		}
		if isPruned {
			pruned = append(pruned, b)
		} else {
			kept = append(kept, b)
		}
	}
	return kept, pruned, rows.Err()
}

// Delete removes a run and its rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return planerr.New(planerr.CodeNotFound, "run %s not found", id)
	}
	return nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
