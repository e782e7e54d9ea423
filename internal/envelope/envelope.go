// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package envelope grows the cave envelope above an extraction level with
// the floating cone method.
//
// The blocks between the level and level+MaxHeight form the remaining
// pool. Levels are visited bottom to top; at each level every remaining
// profitable block inside the footprint seeds a cone that opens downward
// at the configured slope. Seeds at one level are taken in (X, Y) order.
// A seed is not part of its own cone unless the slope is 0. A cone whose
// total profit is positive moves all of its blocks from the pool to the
// accepted set. After the scan,
// columns whose accepted blocks do not reach MinHeight above the level are
// pruned.
//
// A run is single-threaded: each accepted cone changes the pool seen by
// the next seed. Cancellation is honoured between seeds and between
// levels, never inside a cone evaluation.
package envelope

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

// angleTolerance absorbs rounding in the atan2 conversion so that a block
// sitting exactly on the cone surface is a member.
const angleTolerance = 1e-9

// Progress is reported after every tested seed.
type Progress struct {
	Level          float64
	SeedsProcessed int
	Accepted       int
}

// Options holds optional run hooks.
type Options struct {
	// Progress, when set, is called synchronously after every seed.
	Progress func(Progress)
}

// Validate checks the geometric parameters.
func Validate(g types.GeometryParams) error {
	if math.IsNaN(g.MinHeight) || math.IsNaN(g.MaxHeight) || math.IsNaN(g.Slope) {
		return planerr.Configuration("geometry parameters must be numbers")
	}
	if g.MaxHeight <= 0 {
		return planerr.Configuration("maximum column height must be positive, got %g", g.MaxHeight)
	}
	if g.MinHeight < 0 {
		return planerr.Configuration("minimum column height must not be negative, got %g", g.MinHeight)
	}
	if g.Slope < 0 || g.Slope > 90 {
		return planerr.Configuration("slope must be between 0 and 90 degrees, got %g", g.Slope)
	}
	return nil
}

type poolBlock struct {
	types.EnvelopeBlock
	remaining bool
}

// Grow runs the floating cone above level, seeded from the footprint
// columns. A nil or empty footprint yields an empty result.
func Grow(ctx context.Context, snap *blockmodel.Snapshot, fp *types.FootprintSet, level float64, g types.GeometryParams, opts Options) (*types.EnvelopeResult, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if err := Validate(g); err != nil {
		return nil, err
	}

	result := &types.EnvelopeResult{Level: level}
	if fp.IsEmpty() {
		return result, nil
	}

	pool := window(snap.Blocks(), level, level+g.MaxHeight)
	result.Stats.BlocksInWindow = len(pool)

	var accepted []types.EnvelopeBlock
	for _, lv := range distinctLevels(pool) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Stats.LevelsScanned++

		// Blocks at or below lv occupy pool[:upper] because the pool is
		// sorted by Z first.
		upper := sort.Search(len(pool), func(i int) bool { return pool[i].Z > lv })
		lower := sort.Search(len(pool), func(i int) bool { return pool[i].Z >= lv })

		for s := lower; s < upper; s++ {
			seed := pool[s]
			if !seed.remaining || seed.Profit <= 0 || !fp.Contains(seed.X, seed.Y) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			result.Stats.SeedsTested++

			members, value := cone(pool[:upper], seed.EnvelopeBlock, g.Slope)
			if value > 0 {
				for _, i := range members {
					pool[i].remaining = false
					accepted = append(accepted, pool[i].EnvelopeBlock)
				}
				result.Stats.ConesAccepted++
			} else {
				result.Stats.ConesRejected++
			}

			if opts.Progress != nil {
				opts.Progress(Progress{
					Level:          lv,
					SeedsProcessed: result.Stats.SeedsTested,
					Accepted:       result.Stats.ConesAccepted,
				})
			}
		}
	}

	result.Blocks, result.Pruned, result.Stats.ColumnsPruned = prune(accepted, level, g.MinHeight)
	result.NetValue = netValue(result.Blocks)
	return result, nil
}

// window copies the blocks with lo <= Z <= hi, ordered by (Z, X, Y).
func window(blocks []types.Block, lo, hi float64) []poolBlock {
	var pool []poolBlock
	for _, b := range blocks {
		if b.Z < lo || b.Z > hi {
			continue
		}
		pool = append(pool, poolBlock{
			EnvelopeBlock: types.EnvelopeBlock{X: b.X, Y: b.Y, Z: b.Z, Profit: b.Profit},
			remaining:     true,
		})
	}
	sort.SliceStable(pool, func(i, j int) bool { return lessZXY(pool[i].EnvelopeBlock, pool[j].EnvelopeBlock) })
	return pool
}

func lessZXY(a, b types.EnvelopeBlock) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

func distinctLevels(pool []poolBlock) []float64 {
	var levels []float64
	for i, b := range pool {
		if i == 0 || b.Z != pool[i-1].Z {
			levels = append(levels, b.Z)
		}
	}
	return levels
}

// cone returns the indices of the remaining blocks inside the cone below
// apex and their summed profit. candidates must only hold blocks with
// Z <= apex.Z.
func cone(candidates []poolBlock, apex types.EnvelopeBlock, slope float64) ([]int, float64) {
	var members []int
	var value float64
	for i, b := range candidates {
		if !b.remaining {
			continue
		}
		if InCone(apex, b.EnvelopeBlock, slope) {
			members = append(members, i)
			value += b.Profit
		}
	}
	return members, value
}

// InCone reports whether b lies inside the downward cone with its apex at
// apex. The apex has angle 0 to itself, so it belongs to its own cone only
// when the slope is 0.
func InCone(apex, b types.EnvelopeBlock, slope float64) bool {
	if b.Z > apex.Z {
		return false
	}
	return Angle(apex, b) >= slope-angleTolerance
}

// Angle returns the elevation angle in degrees from b up to apex, measured
// from the horizontal. Blocks directly beneath the apex are at 90; blocks
// level with it, the apex included, are at 0.
func Angle(apex, b types.EnvelopeBlock) float64 {
	h := math.Hypot(apex.X-b.X, apex.Y-b.Y)
	return math.Atan2(math.Abs(apex.Z-b.Z), h) * 180 / math.Pi
}

// prune drops every column whose highest accepted block is less than
// minHeight above level. Both returned slices keep the (Z, X, Y) order.
func prune(accepted []types.EnvelopeBlock, level, minHeight float64) (kept, pruned []types.EnvelopeBlock, columns int) {
	top := make(map[types.ColumnKey]float64)
	for _, b := range accepted {
		key := types.ColumnKey{X: b.X, Y: b.Y}
		if z, ok := top[key]; !ok || b.Z > z {
			top[key] = b.Z
		}
	}
	for _, z := range top {
		if z-level < minHeight {
			columns++
		}
	}

	for _, b := range accepted {
		if top[types.ColumnKey{X: b.X, Y: b.Y}]-level < minHeight {
			pruned = append(pruned, b)
		} else {
			kept = append(kept, b)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return lessZXY(kept[i], kept[j]) })
	sort.SliceStable(pruned, func(i, j int) bool { return lessZXY(pruned[i], pruned[j]) })
	return kept, pruned, columns
}

func netValue(blocks []types.EnvelopeBlock) float64 {
	profits := make([]float64, len(blocks))
	for i, b := range blocks {
		profits[i] = b.Profit
	}
	return floats.Sum(profits)
}
