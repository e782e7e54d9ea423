// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package blockmodel owns the block table, the axis-name mapping, and the
// profit attribute. Every other stage reads the model through an
// immutable Snapshot; nothing outside this package mutates the table.
package blockmodel

import (
	"sort"
	"sync"

	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

// Store holds the canonical block model of a planning session.
type Store struct {
	mu     sync.RWMutex
	table  *Table
	axes   types.AxisNames
	profit string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the block table. Axis and profit bindings are cleared
// because they refer to columns of the previous table.
func (s *Store) Load(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	s.axes = types.AxisNames{}
	s.profit = ""
}

// LoadBound replaces the block table and binds the model columns in one
// step. When a binding names a missing column the store keeps its
// previous table and bindings.
func (s *Store) LoadBound(t *Table, model types.ModelConfig) error {
	if err := checkAxes(t, model.Axes); err != nil {
		return err
	}
	if err := checkProfit(t, model.Profit); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	s.axes = model.Axes
	s.profit = model.Profit
	return nil
}

func checkAxes(t *Table, axes types.AxisNames) error {
	if missing := axes.Missing(); len(missing) > 0 {
		return planerr.Configuration("axes %v are not bound", missing)
	}
	for _, name := range []string{axes.X, axes.Y, axes.Z} {
		if !t.Has(name) {
			return planerr.Configuration("axis column %q not found in block model", name)
		}
	}
	return nil
}

func checkProfit(t *Table, name string) error {
	if name == "" {
		return planerr.Configuration("profit attribute is not set")
	}
	if !t.Has(name) {
		return planerr.Configuration("profit column %q not found in block model", name)
	}
	return nil
}

// Loaded reports whether a table has been loaded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table != nil
}

// Columns returns the column names of the loaded table.
func (s *Store) Columns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return nil
	}
	return s.table.Columns()
}

// SetAxes binds the logical axes. All three names must refer to existing
// columns.
func (s *Store) SetAxes(axes types.AxisNames) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return planerr.Configuration("no block model loaded")
	}
	if err := checkAxes(s.table, axes); err != nil {
		return err
	}
	s.axes = axes
	return nil
}

// Axes returns the current axis bindings.
func (s *Store) Axes() types.AxisNames {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.axes
}

// SetProfit selects the column holding block profit.
func (s *Store) SetProfit(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return planerr.Configuration("no block model loaded")
	}
	if err := checkProfit(s.table, name); err != nil {
		return err
	}
	s.profit = name
	return nil
}

// Profit returns the selected profit column.
func (s *Store) Profit() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profit
}

// Snapshot materializes the blocks of the current table. It fails with a
// configuration error when the axes or the profit column are not bound.
func (s *Store) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		return nil, planerr.Configuration("no block model loaded")
	}
	if !s.axes.Complete() {
		return nil, planerr.Configuration("axes %v are not bound", s.axes.Missing())
	}
	if s.profit == "" {
		return nil, planerr.Configuration("profit attribute is not set")
	}

	xs, _ := s.table.Column(s.axes.X)
	ys, _ := s.table.Column(s.axes.Y)
	zs, _ := s.table.Column(s.axes.Z)
	ps, _ := s.table.Column(s.profit)

	var extra []string
	for _, name := range s.table.columns {
		switch name {
		case s.axes.X, s.axes.Y, s.axes.Z, s.profit:
		default:
			extra = append(extra, name)
		}
	}

	blocks := make([]types.Block, s.table.Len())
	for i := range blocks {
		b := types.Block{X: xs[i], Y: ys[i], Z: zs[i], Profit: ps[i]}
		if len(extra) > 0 {
			b.Attrs = make(map[string]float64, len(extra))
			for _, name := range extra {
				b.Attrs[name] = s.table.data[name][i]
			}
		}
		blocks[i] = b
	}

	return &Snapshot{blocks: blocks, axes: s.axes, profit: s.profit}, nil
}

// Snapshot is a read-only view of the block model taken at one point in
// time. It is safe for concurrent readers.
type Snapshot struct {
	blocks []types.Block
	axes   types.AxisNames
	profit string
}

// NewSnapshot wraps already materialized blocks. The axes are reported as
// "x", "y", "z" and the profit column as "profit".
func NewSnapshot(blocks []types.Block) *Snapshot {
	cp := make([]types.Block, len(blocks))
	copy(cp, blocks)
	return &Snapshot{
		blocks: cp,
		axes:   types.AxisNames{X: "x", Y: "y", Z: "z"},
		profit: "profit",
	}
}

// Validate reports a configuration error for a nil or unbound snapshot.
func (s *Snapshot) Validate() error {
	if s == nil {
		return planerr.Configuration("no block model snapshot")
	}
	if !s.axes.Complete() {
		return planerr.Configuration("axes %v are not bound", s.axes.Missing())
	}
	if s.profit == "" {
		return planerr.Configuration("profit attribute is not set")
	}
	return nil
}

// Blocks returns the blocks in table order. The slice is shared and must
// not be modified.
func (s *Snapshot) Blocks() []types.Block {
	return s.blocks
}

// Len returns the number of blocks.
func (s *Snapshot) Len() int {
	return len(s.blocks)
}

// Axes returns the axis bindings the snapshot was taken with.
func (s *Snapshot) Axes() types.AxisNames {
	return s.axes
}

// Profit returns the profit column the snapshot was taken with.
func (s *Snapshot) Profit() string {
	return s.profit
}

// Levels returns the distinct Z values in ascending order.
func (s *Snapshot) Levels() []float64 {
	seen := make(map[float64]struct{})
	var levels []float64
	for _, b := range s.blocks {
		if _, ok := seen[b.Z]; ok {
			continue
		}
		seen[b.Z] = struct{}{}
		levels = append(levels, b.Z)
	}
	sort.Float64s(levels)
	return levels
}
