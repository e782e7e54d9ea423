// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package envelope

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

func geometry(minH, maxH, slope float64) types.GeometryParams {
	return types.GeometryParams{MinHeight: minH, MaxHeight: maxH, Slope: slope}
}

func footprintAt(level float64, cols ...types.ColumnKey) *types.FootprintSet {
	fc := make([]types.FootprintColumn, len(cols))
	for i, c := range cols {
		fc[i] = types.FootprintColumn{X: c.X, Y: c.Y, Peak: 1}
	}
	return types.NewFootprintSet(level, fc)
}

// columnModel has a footprint column at (0, 0) next to a rich column at
// (10, 0) that is outside any footprint used below.
func columnModel() []types.Block {
	return []types.Block{
		{X: 0, Y: 0, Z: 0, Profit: 3},
		{X: 0, Y: 0, Z: 10, Profit: -1},
		{X: 0, Y: 0, Z: 20, Profit: 4},
		{X: 10, Y: 0, Z: 0, Profit: 7},
		{X: 10, Y: 0, Z: 10, Profit: 7},
	}
}

func TestGrowVerticalColumn(t *testing.T) {
	snap := blockmodel.NewSnapshot(columnModel())
	fp := footprintAt(0, types.ColumnKey{X: 0, Y: 0})

	res, err := Grow(context.Background(), snap, fp, 0, geometry(0, 100, 90), Options{})
	require.NoError(t, err)

	// The seed at z=0 has nothing below it and is rejected. The seed at
	// z=20 takes the column below it but not itself.
	assert.Equal(t, []types.EnvelopeBlock{
		{X: 0, Y: 0, Z: 0, Profit: 3},
		{X: 0, Y: 0, Z: 10, Profit: -1},
	}, res.Blocks)
	assert.Equal(t, 2.0, res.NetValue)
	assert.Empty(t, res.Pruned)
	assert.Equal(t, 2, res.Stats.SeedsTested)
	assert.Equal(t, 1, res.Stats.ConesAccepted)
	assert.Equal(t, 1, res.Stats.ConesRejected)
}

func TestGrowSeedOutsideOwnCone(t *testing.T) {
	snap := blockmodel.NewSnapshot([]types.Block{
		{X: 0, Y: 0, Z: 0, Profit: -2},
		{X: 0, Y: 0, Z: 10, Profit: 3},
	})
	fp := footprintAt(0, types.ColumnKey{X: 0, Y: 0})

	res, err := Grow(context.Background(), snap, fp, 0, geometry(0, 100, 60), Options{})
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
	assert.Equal(t, 1, res.Stats.ConesRejected)

	// A flat cone reaches the seed's own level, the seed included.
	res, err = Grow(context.Background(), snap, fp, 0, geometry(0, 100, 0), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.NetValue)
	assert.Len(t, res.Blocks, 2)
}

func TestGrowMinHeightPrunesEverything(t *testing.T) {
	snap := blockmodel.NewSnapshot(columnModel())
	fp := footprintAt(0, types.ColumnKey{X: 0, Y: 0})

	res, err := Grow(context.Background(), snap, fp, 0, geometry(50, 100, 90), Options{})
	require.NoError(t, err)

	assert.True(t, res.IsEmpty())
	assert.Equal(t, 0.0, res.NetValue)
	assert.Len(t, res.Pruned, 2)
	assert.Equal(t, 1, res.Stats.ColumnsPruned)
}

func TestGrowSlopedCone(t *testing.T) {
	blocks := []types.Block{
		{X: 0, Y: 0, Z: 20, Profit: 10},  // apex
		{X: 0, Y: 0, Z: 30, Profit: -50}, // above the apex, outside
		{X: 10, Y: 0, Z: 10, Profit: 4},  // 45 degrees, on the surface
		{X: 20, Y: 0, Z: 10, Profit: -1}, // about 26.6 degrees, outside
		{X: 0, Y: 10, Z: 0, Profit: -2},  // about 63.4 degrees, inside
		{X: 0, Y: 0, Z: 0, Profit: 1},    // on the axis, inside
	}
	snap := blockmodel.NewSnapshot(blocks)
	fp := footprintAt(0, types.ColumnKey{X: 0, Y: 0})

	res, err := Grow(context.Background(), snap, fp, 0, geometry(0, 100, 45), Options{})
	require.NoError(t, err)

	assert.Equal(t, []types.EnvelopeBlock{
		{X: 0, Y: 0, Z: 0, Profit: 1},
		{X: 0, Y: 10, Z: 0, Profit: -2},
		{X: 10, Y: 0, Z: 10, Profit: 4},
	}, res.Blocks)
	assert.Equal(t, 3.0, res.NetValue)
	assert.Equal(t, 2, res.Stats.SeedsTested)
	assert.Equal(t, 1, res.Stats.ConesAccepted)
}

func TestGrowSeedPriority(t *testing.T) {
	// Two seeds at z=10 share the block halfway between them. Whichever
	// seed runs first takes it; the other seed's cone is valued without
	// it and fails.
	tests := []struct {
		name  string
		place func(a, b float64) (x, y float64)
	}{
		{"seeds ordered by x", func(a, b float64) (float64, float64) { return a, b }},
		{"seeds ordered by y", func(a, b float64) (float64, float64) { return b, a }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := func(a, z, profit float64) types.Block {
				x, y := tt.place(a, 0)
				return types.Block{X: x, Y: y, Z: z, Profit: profit}
			}
			envBlock := func(a, z, profit float64) types.EnvelopeBlock {
				x, y := tt.place(a, 0)
				return types.EnvelopeBlock{X: x, Y: y, Z: z, Profit: profit}
			}
			firstX, firstY := tt.place(0, 0)
			lastX, lastY := tt.place(20, 0)

			snap := blockmodel.NewSnapshot([]types.Block{
				block(20, 10, 1), // later seed, listed first
				block(0, 10, 1),  // earlier seed
				block(10, 0, 5),  // shared by both cones
				block(0, 0, -3),
				block(20, 0, -3),
			})
			fp := footprintAt(0,
				types.ColumnKey{X: firstX, Y: firstY}, types.ColumnKey{X: lastX, Y: lastY})

			var reports []Progress
			res, err := Grow(context.Background(), snap, fp, 0, geometry(0, 100, 45), Options{
				Progress: func(p Progress) { reports = append(reports, p) },
			})
			require.NoError(t, err)

			assert.Equal(t, []types.EnvelopeBlock{
				envBlock(0, 0, -3),
				envBlock(10, 0, 5),
			}, res.Blocks)
			assert.Equal(t, 2.0, res.NetValue)
			assert.Equal(t, 1, res.Stats.ConesAccepted)
			assert.Equal(t, 1, res.Stats.ConesRejected)

			require.Len(t, reports, 2)
			assert.Equal(t, 1, reports[0].Accepted, "earlier seed accepted")
			assert.Equal(t, 1, reports[1].Accepted, "later seed rejected")

			reversed := []types.EnvelopeBlock{envBlock(10, 0, 5), envBlock(20, 0, -3)}
			assert.NotEqual(t, reversed, res.Blocks)
		})
	}
}

func TestGrowRejectsUnprofitableCone(t *testing.T) {
	snap := blockmodel.NewSnapshot([]types.Block{
		{X: 0, Y: 0, Z: 0, Profit: -10},
		{X: 0, Y: 0, Z: 10, Profit: 2},
	})
	fp := footprintAt(0, types.ColumnKey{X: 0, Y: 0})

	res, err := Grow(context.Background(), snap, fp, 0, geometry(0, 100, 90), Options{})
	require.NoError(t, err)

	assert.True(t, res.IsEmpty())
	assert.Equal(t, 1, res.Stats.ConesRejected)
	assert.Equal(t, 0, res.Stats.ConesAccepted)
}

func TestGrowWindowLimitsHeight(t *testing.T) {
	snap := blockmodel.NewSnapshot([]types.Block{
		{X: 0, Y: 0, Z: 0, Profit: -100}, // below the level
		{X: 0, Y: 0, Z: 10, Profit: 1},
		{X: 0, Y: 0, Z: 20, Profit: 1},
		{X: 0, Y: 0, Z: 40, Profit: 50}, // above level+MaxHeight
	})
	fp := footprintAt(10, types.ColumnKey{X: 0, Y: 0})

	res, err := Grow(context.Background(), snap, fp, 10, geometry(0, 10, 90), Options{})
	require.NoError(t, err)

	// The seed at z=10 has nothing below it in the window; the seed at
	// z=20 takes the block at z=10.
	assert.Equal(t, 2, res.Stats.BlocksInWindow)
	assert.Equal(t, 1.0, res.NetValue)
	for _, b := range res.Blocks {
		assert.GreaterOrEqual(t, b.Z, 10.0)
		assert.LessOrEqual(t, b.Z, 20.0)
	}
}

func TestGrowEmptyFootprint(t *testing.T) {
	snap := blockmodel.NewSnapshot(columnModel())

	res, err := Grow(context.Background(), snap, nil, 0, geometry(0, 100, 60), Options{})
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())

	res, err = Grow(context.Background(), snap, types.NewFootprintSet(0, nil), 0, geometry(0, 100, 60), Options{})
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
}

func TestGrowPartitionsWindow(t *testing.T) {
	blocks := randomModel(rand.New(rand.NewSource(7)))
	snap := blockmodel.NewSnapshot(blocks)
	fp := footprintAt(0,
		types.ColumnKey{X: 0, Y: 0}, types.ColumnKey{X: 10, Y: 10}, types.ColumnKey{X: 20, Y: 0})

	res, err := Grow(context.Background(), snap, fp, 0, geometry(20, 60, 55), Options{})
	require.NoError(t, err)

	seen := make(map[types.EnvelopeBlock]int)
	for _, b := range res.Blocks {
		seen[b]++
	}
	for _, b := range res.Pruned {
		seen[b]++
	}
	for b, n := range seen {
		assert.Equal(t, 1, n, "block %v captured twice", b)
		assert.GreaterOrEqual(t, b.Z, 0.0)
		assert.LessOrEqual(t, b.Z, 60.0)
	}

	top := make(map[types.ColumnKey]float64)
	for _, b := range res.Blocks {
		key := types.ColumnKey{X: b.X, Y: b.Y}
		if b.Z > top[key] {
			top[key] = b.Z
		}
	}
	for key, z := range top {
		assert.GreaterOrEqual(t, z, 20.0, "column %s kept below min height", key)
	}
}

func TestGrowIgnoresInputOrder(t *testing.T) {
	blocks := randomModel(rand.New(rand.NewSource(11)))
	fp := footprintAt(0, types.ColumnKey{X: 10, Y: 0}, types.ColumnKey{X: 20, Y: 20})
	g := geometry(10, 50, 50)

	want, err := Grow(context.Background(), blockmodel.NewSnapshot(blocks), fp, 0, g, Options{})
	require.NoError(t, err)

	r := rand.New(rand.NewSource(3))
	for i := 0; i < 5; i++ {
		shuffled := append([]types.Block(nil), blocks...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := Grow(context.Background(), blockmodel.NewSnapshot(shuffled), fp, 0, g, Options{})
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("result depends on input order (-want +got):\n%s", diff)
		}
	}
}

func TestGrowProgress(t *testing.T) {
	blocks := randomModel(rand.New(rand.NewSource(5)))
	fp := footprintAt(0, types.ColumnKey{X: 0, Y: 0}, types.ColumnKey{X: 10, Y: 10})

	var reports []Progress
	res, err := Grow(context.Background(), blockmodel.NewSnapshot(blocks), fp, 0, geometry(0, 60, 60), Options{
		Progress: func(p Progress) { reports = append(reports, p) },
	})
	require.NoError(t, err)

	require.Len(t, reports, res.Stats.SeedsTested)
	for i, p := range reports {
		assert.Equal(t, i+1, p.SeedsProcessed)
		if i > 0 {
			assert.GreaterOrEqual(t, p.Level, reports[i-1].Level)
			assert.GreaterOrEqual(t, p.Accepted, reports[i-1].Accepted)
		}
	}
}

func TestGrowCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := blockmodel.NewSnapshot(columnModel())
	fp := footprintAt(0, types.ColumnKey{X: 0, Y: 0})

	res, err := Grow(ctx, snap, fp, 0, geometry(0, 100, 90), Options{})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGrowCancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Every block is a seed, so the run has more seeds after the first
	// report.
	blocks := []types.Block{
		{X: 0, Y: 0, Z: 0, Profit: 5},
		{X: 0, Y: 0, Z: 10, Profit: 5},
		{X: 0, Y: 0, Z: 20, Profit: 5},
	}
	fp := footprintAt(0, types.ColumnKey{X: 0, Y: 0})

	res, err := Grow(ctx, blockmodel.NewSnapshot(blocks), fp, 0, geometry(0, 60, 90), Options{
		Progress: func(Progress) { cancel() },
	})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		g       types.GeometryParams
		wantErr bool
	}{
		{"vertical", geometry(0, 100, 90), false},
		{"flat", geometry(10, 100, 0), false},
		{"zero max height", geometry(0, 0, 45), true},
		{"negative min height", geometry(-1, 100, 45), true},
		{"slope above 90", geometry(0, 100, 91), true},
		{"negative slope", geometry(0, 100, -5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.g)
			if tt.wantErr {
				assert.True(t, planerr.Is(err, planerr.CodeConfiguration), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := Grow(context.Background(), blockmodel.NewSnapshot(columnModel()), nil, 0, geometry(0, 100, 120), Options{})
	assert.True(t, planerr.Is(err, planerr.CodeConfiguration))
}

func TestAngle(t *testing.T) {
	apex := types.EnvelopeBlock{X: 0, Y: 0, Z: 10}
	assert.Equal(t, 0.0, Angle(apex, apex))
	assert.Equal(t, 0.0, Angle(apex, types.EnvelopeBlock{X: 10, Z: 10}))
	assert.InDelta(t, 90.0, Angle(apex, types.EnvelopeBlock{Z: -30}), 1e-9)
	assert.InDelta(t, 45.0, Angle(apex, types.EnvelopeBlock{X: 3, Y: 4, Z: 5}), 1e-9)
}

func TestInCone(t *testing.T) {
	apex := types.EnvelopeBlock{X: 0, Y: 0, Z: 10}
	tests := []struct {
		name  string
		b     types.EnvelopeBlock
		slope float64
		want  bool
	}{
		{"apex at 60", apex, 60, false},
		{"apex at 0", apex, 0, true},
		{"below the apex at 90", types.EnvelopeBlock{Z: 0}, 90, true},
		{"on the surface", types.EnvelopeBlock{X: 3, Y: 4, Z: 5}, 45, true},
		{"outside the surface", types.EnvelopeBlock{X: 3, Y: 4, Z: 5}, 46, false},
		{"same level at 0", types.EnvelopeBlock{X: 10, Z: 10}, 0, true},
		{"above the apex", types.EnvelopeBlock{Z: 11}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InCone(apex, tt.b, tt.slope))
		})
	}
}

// randomModel builds a 3x3 grid of columns, 10 m cells, z in 0..60.
func randomModel(r *rand.Rand) []types.Block {
	var blocks []types.Block
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z <= 6; z++ {
				blocks = append(blocks, types.Block{
					X:      float64(x * 10),
					Y:      float64(y * 10),
					Z:      float64(z * 10),
					Profit: float64(r.Intn(21) - 8),
				})
			}
		}
	}
	return blocks
}
