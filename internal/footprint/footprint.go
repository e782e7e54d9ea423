// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package footprint selects the economic columns at an extraction level.
package footprint

import (
	"fmt"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/internal/discount"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

// Generate returns the columns whose peak discounted value at level
// exceeds the investment cost. An empty set is a valid result.
func Generate(snap *blockmodel.Snapshot, level float64, p types.EconomicParams) (*types.FootprintSet, error) {
	values, err := discount.ColumnValues(snap, level, p)
	if err != nil {
		return nil, fmt.Errorf("valuing columns at level %g: %w", level, err)
	}

	economic := discount.Economic(values, p.InvestmentCost)
	cols := make([]types.FootprintColumn, len(economic))
	for i, cv := range economic {
		cols[i] = types.FootprintColumn{X: cv.X, Y: cv.Y, Peak: cv.Peak}
	}
	return types.NewFootprintSet(level, cols), nil
}
