// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discount computes discounted column values at an extraction
// level.
//
// Blocks below the level are unreachable and ignored. A block dz metres
// above the level is reached after dz/ExtractionRate years, so its profit
// is discounted by (1 + DiscountRate)^(dz/ExtractionRate). Within a column
// the discounted values are accumulated upward from the level; the
// column's Peak is the best running sum, and the column is economic when
// its Peak exceeds the investment cost.
package discount

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

// Validate checks the economic parameters.
func Validate(p types.EconomicParams) error {
	if math.IsNaN(p.DiscountRate) || math.IsNaN(p.ExtractionRate) || math.IsNaN(p.InvestmentCost) {
		return planerr.Configuration("economic parameters must be numbers")
	}
	if p.ExtractionRate <= 0 || math.IsInf(p.ExtractionRate, 0) {
		return planerr.Configuration("extraction rate must be positive and finite, got %g", p.ExtractionRate)
	}
	if p.DiscountRate <= -1 || math.IsInf(p.DiscountRate, 0) {
		return planerr.Configuration("discount rate must be greater than -100%%, got %g", p.DiscountRate)
	}
	return nil
}

// Discounted returns the present value of profit reached dz metres above
// the level.
func Discounted(profit, dz float64, p types.EconomicParams) float64 {
	if p.DiscountRate == 0 {
		return profit
	}
	return profit / math.Pow(1+p.DiscountRate, dz/p.ExtractionRate)
}

type stacked struct {
	z     float64
	value float64
}

// ColumnValues returns the discounted value profile of every column that
// has at least one block at or above level.
func ColumnValues(snap *blockmodel.Snapshot, level float64, p types.EconomicParams) (map[types.ColumnKey]types.ColumnValue, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if err := Validate(p); err != nil {
		return nil, err
	}

	columns := make(map[types.ColumnKey][]stacked)
	for _, b := range snap.Blocks() {
		if b.Z < level {
			continue
		}
		key := b.Column()
		columns[key] = append(columns[key], stacked{z: b.Z, value: Discounted(b.Profit, b.Z-level, p)})
	}

	out := make(map[types.ColumnKey]types.ColumnValue, len(columns))
	for key, blocks := range columns {
		sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].z < blocks[j].z })

		var running float64
		peak := math.Inf(-1)
		for _, b := range blocks {
			running += b.value
			if running > peak {
				peak = running
			}
		}
		out[key] = types.ColumnValue{X: key.X, Y: key.Y, Peak: peak, Total: running}
	}
	return out, nil
}

// ColumnValueList returns ColumnValues sorted by (X, Y).
func ColumnValueList(snap *blockmodel.Snapshot, level float64, p types.EconomicParams) ([]types.ColumnValue, error) {
	values, err := ColumnValues(snap, level, p)
	if err != nil {
		return nil, err
	}
	return sortedValues(values), nil
}

// Economic returns the columns whose peak exceeds the investment cost,
// sorted by (X, Y).
func Economic(values map[types.ColumnKey]types.ColumnValue, investmentCost float64) []types.ColumnValue {
	var out []types.ColumnValue
	for _, cv := range sortedValues(values) {
		if cv.Economic(investmentCost) {
			out = append(out, cv)
		}
	}
	return out
}

// FloorValue returns the sum of peak values over the economic columns at
// level. Columns are summed in (X, Y) order so repeated calls are
// bit-identical.
func FloorValue(snap *blockmodel.Snapshot, level float64, p types.EconomicParams) (float64, error) {
	values, err := ColumnValues(snap, level, p)
	if err != nil {
		return 0, err
	}
	economic := Economic(values, p.InvestmentCost)
	peaks := make([]float64, len(economic))
	for i, cv := range economic {
		peaks[i] = cv.Peak
	}
	return floats.Sum(peaks), nil
}

func sortedValues(values map[types.ColumnKey]types.ColumnValue) []types.ColumnValue {
	out := make([]types.ColumnValue, 0, len(values))
	for _, cv := range values {
		out = append(out, cv)
	}
	sort.Slice(out, func(i, j int) bool {
		return types.ColumnKey{X: out[i].X, Y: out[i].Y}.Less(types.ColumnKey{X: out[j].X, Y: out[j].Y})
	})
	return out
}
