// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blockmodel

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gvivero-alarcon/planning-app/internal/planerr"
)

// ColumnStats summarizes one column of the block table.
type ColumnStats struct {
	Name   string  `json:"name" yaml:"name"`
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Q25    float64 `json:"q25" yaml:"q25"`
	Median float64 `json:"median" yaml:"median"`
	Q75    float64 `json:"q75" yaml:"q75"`
	Max    float64 `json:"max" yaml:"max"`
}

// Describe computes summary statistics for every column. Quantiles use
// the empirical CDF. Std is the sample standard deviation and is NaN for
// single-row tables.
func (s *Store) Describe() ([]ColumnStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		return nil, planerr.Configuration("no block model loaded")
	}

	out := make([]ColumnStats, 0, len(s.table.columns))
	for _, name := range s.table.columns {
		out = append(out, describeColumn(name, s.table.data[name]))
	}
	return out, nil
}

func describeColumn(name string, values []float64) ColumnStats {
	cs := ColumnStats{Name: name, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		cs.Mean, cs.Std, cs.Min, cs.Q25, cs.Median, cs.Q75, cs.Max = nan, nan, nan, nan, nan, nan, nan
		return cs
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	cs.Mean = stat.Mean(sorted, nil)
	cs.Std = stat.StdDev(sorted, nil)
	cs.Min = floats.Min(sorted)
	cs.Max = floats.Max(sorted)
	cs.Q25 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	cs.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	cs.Q75 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
	return cs
}

// Range returns the minimum and maximum of a column.
func (s *Store) Range(column string) (lo, hi float64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		return 0, 0, planerr.Configuration("no block model loaded")
	}
	values, ok := s.table.Column(column)
	if !ok {
		return 0, 0, planerr.Configuration("column %q not found in block model", column)
	}
	if len(values) == 0 {
		return 0, 0, nil
	}
	return floats.Min(values), floats.Max(values), nil
}

// Interval is an inclusive [Lo, Hi] range.
type Interval struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// Contains reports whether v lies in the interval.
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Lo && v <= iv.Hi
}

// PlotFilter selects blocks for visual inspection.
type PlotFilter struct {
	Variable string
	Value    Interval
	X, Y, Z  Interval
}

// PlotPoint is a block position with the value of the filter variable.
type PlotPoint struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Z     float64 `json:"z" yaml:"z"`
	Value float64 `json:"value" yaml:"value"`
}

// Filter returns the blocks whose variable and coordinates fall inside
// the filter intervals. The axes must be bound.
func (s *Store) Filter(f PlotFilter) ([]PlotPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		return nil, planerr.Configuration("no block model loaded")
	}
	if !s.axes.Complete() {
		return nil, planerr.Configuration("axes %v are not bound", s.axes.Missing())
	}
	vs, ok := s.table.Column(f.Variable)
	if !ok {
		return nil, planerr.Configuration("column %q not found in block model", f.Variable)
	}
	xs, _ := s.table.Column(s.axes.X)
	ys, _ := s.table.Column(s.axes.Y)
	zs, _ := s.table.Column(s.axes.Z)

	var out []PlotPoint
	for i := range vs {
		if !f.Value.Contains(vs[i]) || !f.X.Contains(xs[i]) ||
			!f.Y.Contains(ys[i]) || !f.Z.Contains(zs[i]) {
			continue
		}
		out = append(out, PlotPoint{X: xs[i], Y: ys[i], Z: zs[i], Value: vs[i]})
	}
	return out, nil
}
