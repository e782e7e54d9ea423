// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package level finds the extraction level with the highest floor value.
//
// Every candidate level is evaluated independently against the same
// read-only snapshot, so evaluations run in parallel and write into their
// own slot of a pre-sized slice. The argmax reduction runs after all
// evaluations finish. Ties go to the first candidate in the order the
// caller supplied.
package level

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/internal/discount"
	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

// Options tunes the level scan.
type Options struct {
	// Workers bounds concurrent floor value evaluations. Zero or negative
	// uses GOMAXPROCS.
	Workers int
}

// Curve evaluates the floor value at every candidate level. Duplicate
// candidates are dropped, keeping the first occurrence; the returned
// values follow the remaining candidate order.
func Curve(ctx context.Context, snap *blockmodel.Snapshot, candidates []float64, p types.EconomicParams, opts Options) (types.LevelCurve, error) {
	if err := snap.Validate(); err != nil {
		return types.LevelCurve{}, err
	}
	if err := discount.Validate(p); err != nil {
		return types.LevelCurve{}, err
	}
	levels := dedupe(candidates)
	if len(levels) == 0 {
		return types.LevelCurve{}, planerr.Configuration("no candidate levels to evaluate")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	values := make([]types.LevelValue, len(levels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, z := range levels {
		i, z := i, z
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := discount.FloorValue(snap, z, p)
			if err != nil {
				return err
			}
			values[i] = types.LevelValue{Level: z, Value: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.LevelCurve{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.LevelCurve{}, err
	}

	return types.LevelCurve{Values: values, Optimal: Argmax(values)}, nil
}

// OptimalLevel returns the candidate level with the highest floor value.
func OptimalLevel(ctx context.Context, snap *blockmodel.Snapshot, candidates []float64, p types.EconomicParams, opts Options) (types.LevelValue, error) {
	curve, err := Curve(ctx, snap, candidates, p, opts)
	if err != nil {
		return types.LevelValue{}, err
	}
	return curve.Optimal, nil
}

// Argmax returns the entry with the largest value. The first entry wins
// ties. It returns the zero value for an empty slice.
func Argmax(values []types.LevelValue) types.LevelValue {
	if len(values) == 0 {
		return types.LevelValue{}
	}
	best := values[0]
	for _, v := range values[1:] {
		if v.Value > best.Value {
			best = v
		}
	}
	return best
}

func dedupe(candidates []float64) []float64 {
	seen := make(map[float64]struct{}, len(candidates))
	out := make([]float64, 0, len(candidates))
	for _, z := range candidates {
		if _, ok := seen[z]; ok {
			continue
		}
		seen[z] = struct{}{}
		out = append(out, z)
	}
	return out
}
