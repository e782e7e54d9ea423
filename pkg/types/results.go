// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// ColumnValue is the discounted value profile of one column at a level.
type ColumnValue struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`

	// Peak is the largest running sum of discounted values reached while
	// extracting upward from the level.
	Peak float64 `json:"peak" yaml:"peak"`

	// Total is the running sum after the topmost block.
	Total float64 `json:"total" yaml:"total"`
}

// Economic reports whether the column pays back the investment cost.
func (c ColumnValue) Economic(investmentCost float64) bool {
	return c.Peak > investmentCost
}

// LevelValue pairs a candidate extraction level with its floor value.
type LevelValue struct {
	Level float64 `json:"level" yaml:"level"`
	Value float64 `json:"value" yaml:"value"`
}

// LevelCurve is the floor value of every candidate level, in candidate
// order, plus the selected optimum.
type LevelCurve struct {
	Values  []LevelValue `json:"values" yaml:"values"`
	Optimal LevelValue   `json:"optimal" yaml:"optimal"`
}

// FootprintColumn is a column judged economic at the footprint level.
type FootprintColumn struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	Peak float64 `json:"peak" yaml:"peak"`
}

// FootprintSet is the set of economic columns at one level. A set is never
// modified after NewFootprintSet returns it.
type FootprintSet struct {
	Level   float64           `json:"level" yaml:"level"`
	Columns []FootprintColumn `json:"columns" yaml:"columns"`

	index map[ColumnKey]int
}

// NewFootprintSet builds a set from columns, sorted by (X, Y). Later
// duplicates of a column are dropped.
func NewFootprintSet(level float64, columns []FootprintColumn) *FootprintSet {
	cols := make([]FootprintColumn, 0, len(columns))
	index := make(map[ColumnKey]int, len(columns))
	for _, c := range columns {
		key := ColumnKey{X: c.X, Y: c.Y}
		if _, dup := index[key]; dup {
			continue
		}
		index[key] = -1
		cols = append(cols, c)
	}
	sort.SliceStable(cols, func(i, j int) bool {
		return ColumnKey{X: cols[i].X, Y: cols[i].Y}.Less(ColumnKey{X: cols[j].X, Y: cols[j].Y})
	})
	for i, c := range cols {
		index[ColumnKey{X: c.X, Y: c.Y}] = i
	}
	return &FootprintSet{Level: level, Columns: cols, index: index}
}

// Contains reports whether the column (x, y) is part of the footprint.
func (f *FootprintSet) Contains(x, y float64) bool {
	if f == nil {
		return false
	}
	if f.index == nil {
		// Sets decoded from YAML or JSON arrive without an index.
		for _, c := range f.Columns {
			if c.X == x && c.Y == y {
				return true
			}
		}
		return false
	}
	_, ok := f.index[ColumnKey{X: x, Y: y}]
	return ok
}

// Len returns the number of columns in the footprint.
func (f *FootprintSet) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Columns)
}

// IsEmpty reports whether no column cleared the investment threshold.
func (f *FootprintSet) IsEmpty() bool {
	return f.Len() == 0
}

// TotalValue returns the sum of peak values over the footprint.
func (f *FootprintSet) TotalValue() float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, c := range f.Columns {
		total += c.Peak
	}
	return total
}

// EnvelopeBlock is a block captured by the cave envelope.
type EnvelopeBlock struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Z      float64 `json:"z" yaml:"z"`
	Profit float64 `json:"profit" yaml:"profit"`
}

// EnvelopeStats counts what happened during a floating cone run.
type EnvelopeStats struct {
	LevelsScanned  int `json:"levels_scanned" yaml:"levels_scanned"`
	SeedsTested    int `json:"seeds_tested" yaml:"seeds_tested"`
	ConesAccepted  int `json:"cones_accepted" yaml:"cones_accepted"`
	ConesRejected  int `json:"cones_rejected" yaml:"cones_rejected"`
	ColumnsPruned  int `json:"columns_pruned" yaml:"columns_pruned"`
	BlocksInWindow int `json:"blocks_in_window" yaml:"blocks_in_window"`
}

// EnvelopeResult is the outcome of one floating cone run. Blocks holds the
// accepted blocks that survived column-height pruning; Pruned holds the
// accepted blocks whose column was too short.
type EnvelopeResult struct {
	Level    float64         `json:"level" yaml:"level"`
	Blocks   []EnvelopeBlock `json:"blocks" yaml:"blocks"`
	Pruned   []EnvelopeBlock `json:"pruned,omitempty" yaml:"pruned,omitempty"`
	NetValue float64         `json:"net_value" yaml:"net_value"`
	Stats    EnvelopeStats   `json:"stats" yaml:"stats"`
}

// IsEmpty reports whether the envelope retained no blocks.
func (r *EnvelopeResult) IsEmpty() bool {
	return r == nil || len(r.Blocks) == 0
}
