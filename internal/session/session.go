// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session ties the planning stages to one block model store and
// keeps the current footprint between stages.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/internal/envelope"
	"github.com/gvivero-alarcon/planning-app/internal/footprint"
	"github.com/gvivero-alarcon/planning-app/internal/ingest"
	"github.com/gvivero-alarcon/planning-app/internal/level"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

// Options configures a Session.
type Options struct {
	// Logger receives stage progress. Nil discards it.
	Logger *log.Logger

	// Workers bounds parallel level evaluations. Zero uses GOMAXPROCS.
	Workers int
}

// Session is a planning session over one block model. The current
// footprint has a single writer and is replaced wholesale.
type Session struct {
	store   *blockmodel.Store
	logger  *log.Logger
	workers int

	mu        sync.RWMutex
	footprint *types.FootprintSet
}

// New creates a session over store.
func New(store *blockmodel.Store, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Session{store: store, logger: logger, workers: opts.Workers}
}

// Store returns the session's block model store.
func (s *Session) Store() *blockmodel.Store {
	return s.store
}

// LoadModel reads the block model at path and binds the configured axes
// and profit column. A successful reload drops the current footprint; a
// failed one leaves the session unchanged.
func (s *Session) LoadModel(path string, opts ingest.Options, model types.ModelConfig) error {
	start := time.Now()
	tbl, err := ingest.ReadFile(path, opts)
	if err != nil {
		return err
	}

	if err := s.store.LoadBound(tbl, model); err != nil {
		return err
	}
	s.SetFootprint(nil)
	s.logger.Infof("Loaded %d blocks from %s (%s)", tbl.Len(), path, since(start))
	s.logger.Debug("block model columns", "columns", tbl.Columns())
	return nil
}

// Levels returns the distinct Z values of the block model, ascending.
func (s *Session) Levels() ([]float64, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Levels(), nil
}

// LevelCurve evaluates the floor value at every candidate level. Nil
// candidates means every distinct Z of the model.
func (s *Session) LevelCurve(ctx context.Context, candidates []float64, p types.EconomicParams) (types.LevelCurve, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return types.LevelCurve{}, err
	}
	if candidates == nil {
		candidates = snap.Levels()
	}

	start := time.Now()
	s.logger.Debug("evaluating levels", "candidates", len(candidates), "blocks", snap.Len())
	curve, err := level.Curve(ctx, snap, candidates, p, level.Options{Workers: s.workers})
	if err != nil {
		return types.LevelCurve{}, fmt.Errorf("evaluating level curve: %w", err)
	}
	s.logger.Infof("Evaluated %d levels, optimum %g with value %.2f (%s)",
		len(curve.Values), curve.Optimal.Level, curve.Optimal.Value, since(start))
	return curve, nil
}

// ComputeFootprint generates the footprint at level and makes it the
// session's current footprint.
func (s *Session) ComputeFootprint(lv float64, p types.EconomicParams) (*types.FootprintSet, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	fp, err := footprint.Generate(snap, lv, p)
	if err != nil {
		return nil, err
	}
	s.SetFootprint(fp)

	if fp.IsEmpty() {
		s.logger.Warn("no column clears the investment cost", "level", lv, "investment", p.InvestmentCost)
	} else {
		s.logger.Infof("Footprint at %g: %d columns, value %.2f", lv, fp.Len(), fp.TotalValue())
	}
	return fp, nil
}

// SetFootprint replaces the current footprint, for example with one read
// from disk.
func (s *Session) SetFootprint(fp *types.FootprintSet) {
	s.mu.Lock()
	s.footprint = fp
	s.mu.Unlock()
}

// Footprint returns the current footprint, or nil before the first
// computation.
func (s *Session) Footprint() *types.FootprintSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.footprint
}

// Envelope grows the cave envelope above lv from the current footprint. A
// session without a footprint yields an empty envelope.
func (s *Session) Envelope(ctx context.Context, lv float64, g types.GeometryParams, opts envelope.Options) (*types.EnvelopeResult, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}

	fp := s.Footprint()
	if fp == nil {
		s.logger.Warn("no footprint computed, envelope will be empty")
	} else if fp.Level != lv {
		s.logger.Warn("footprint was computed at a different level", "footprint", fp.Level, "level", lv)
	}

	start := time.Now()
	res, err := envelope.Grow(ctx, snap, fp, lv, g, opts)
	if err != nil {
		return nil, fmt.Errorf("growing envelope: %w", err)
	}
	s.logger.Infof("Envelope at %g: %d blocks, %d pruned, net value %.2f (%s)",
		lv, len(res.Blocks), len(res.Pruned), res.NetValue, since(start))
	s.logger.Debug("floating cone",
		"seeds", res.Stats.SeedsTested,
		"accepted", res.Stats.ConesAccepted,
		"rejected", res.Stats.ConesRejected,
		"columns_pruned", res.Stats.ColumnsPruned)
	return res, nil
}

// Plan is the outcome of a full planning run.
type Plan struct {
	Curve     types.LevelCurve
	Footprint *types.FootprintSet
	Envelope  *types.EnvelopeResult
}

// Run evaluates every level, takes the footprint at the optimum, and grows
// the envelope above it.
func (s *Session) Run(ctx context.Context, p types.EconomicParams, g types.GeometryParams, opts envelope.Options) (*Plan, error) {
	if err := envelope.Validate(g); err != nil {
		return nil, err
	}

	curve, err := s.LevelCurve(ctx, nil, p)
	if err != nil {
		return nil, err
	}
	fp, err := s.ComputeFootprint(curve.Optimal.Level, p)
	if err != nil {
		return nil, err
	}
	env, err := s.Envelope(ctx, curve.Optimal.Level, g, opts)
	if err != nil {
		return nil, err
	}
	return &Plan{Curve: curve, Footprint: fp, Envelope: env}, nil
}

func since(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
