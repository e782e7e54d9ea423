// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/internal/envelope"
	"github.com/gvivero-alarcon/planning-app/internal/ingest"
	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

const gridCSV = `east,north,elev,value
0,0,0,-2
0,0,10,-2
0,0,20,10
0,10,0,-2
0,10,10,-2
0,10,20,10
10,0,0,-2
10,0,10,-2
10,0,20,10
10,10,0,-2
10,10,10,-2
10,10,20,10
`

func modelConfig() types.ModelConfig {
	return types.ModelConfig{
		Axes:   types.AxisNames{X: "east", Y: "north", Z: "elev"},
		Profit: "value",
	}
}

func gridParams() types.EconomicParams {
	return types.EconomicParams{ExtractionRate: 10, InvestmentCost: 5}
}

func loadedSession(t *testing.T, logger *log.Logger) *Session {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, os.WriteFile(path, []byte(gridCSV), 0o644))

	s := New(blockmodel.NewStore(), Options{Logger: logger, Workers: 2})
	require.NoError(t, s.LoadModel(path, ingest.Options{Header: true}, modelConfig()))
	return s
}

func TestLevels(t *testing.T) {
	s := loadedSession(t, nil)

	levels, err := s.Levels()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10, 20}, levels)
}

func TestLevelCurve(t *testing.T) {
	s := loadedSession(t, nil)

	curve, err := s.LevelCurve(context.Background(), nil, gridParams())
	require.NoError(t, err)
	assert.Equal(t, []types.LevelValue{
		{Level: 0, Value: 24},
		{Level: 10, Value: 32},
		{Level: 20, Value: 40},
	}, curve.Values)
	assert.Equal(t, types.LevelValue{Level: 20, Value: 40}, curve.Optimal)
}

func TestFootprintLifecycle(t *testing.T) {
	s := loadedSession(t, nil)
	assert.Nil(t, s.Footprint())

	fp, err := s.ComputeFootprint(0, gridParams())
	require.NoError(t, err)
	assert.Equal(t, 4, fp.Len())
	assert.Same(t, fp, s.Footprint())

	next, err := s.ComputeFootprint(0, types.EconomicParams{ExtractionRate: 10, InvestmentCost: 100})
	require.NoError(t, err)
	assert.True(t, next.IsEmpty())
	assert.Same(t, next, s.Footprint())
	assert.Equal(t, 4, fp.Len(), "earlier footprint must not change")
}

func TestEnvelopeWithoutFootprint(t *testing.T) {
	s := loadedSession(t, nil)

	res, err := s.Envelope(context.Background(), 0, types.GeometryParams{MaxHeight: 100, Slope: 90}, envelope.Options{})
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
}

func TestEnvelopeUsesCurrentFootprint(t *testing.T) {
	s := loadedSession(t, nil)
	_, err := s.ComputeFootprint(0, gridParams())
	require.NoError(t, err)

	// A flat cone takes every remaining block at or below the seed, so the
	// first seed captures the whole grid.
	res, err := s.Envelope(context.Background(), 0, types.GeometryParams{MaxHeight: 100, Slope: 0}, envelope.Options{})
	require.NoError(t, err)
	assert.Len(t, res.Blocks, 12)
	assert.Equal(t, 24.0, res.NetValue)
}

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	s := loadedSession(t, logger)

	plan, err := s.Run(context.Background(), gridParams(), types.GeometryParams{MaxHeight: 100, Slope: 0}, envelope.Options{})
	require.NoError(t, err)

	assert.Equal(t, 20.0, plan.Curve.Optimal.Level)
	assert.Equal(t, 4, plan.Footprint.Len())
	assert.Len(t, plan.Envelope.Blocks, 4)
	assert.Equal(t, 40.0, plan.Envelope.NetValue)
	assert.Contains(t, buf.String(), "Footprint at 20")
}

func TestRunVerticalConeExcludesSeed(t *testing.T) {
	s := loadedSession(t, nil)

	// At 90 degrees a seed's cone is the column below it. At the optimum
	// level nothing lies below the seeds, so every cone is empty.
	plan, err := s.Run(context.Background(), gridParams(), types.GeometryParams{MaxHeight: 100, Slope: 90}, envelope.Options{})
	require.NoError(t, err)
	assert.True(t, plan.Envelope.IsEmpty())
	assert.Equal(t, 4, plan.Envelope.Stats.ConesRejected)
}

func TestRunRejectsGeometryBeforeWork(t *testing.T) {
	s := loadedSession(t, nil)

	_, err := s.Run(context.Background(), gridParams(), types.GeometryParams{MaxHeight: 0, Slope: 45}, envelope.Options{})
	assert.True(t, planerr.Is(err, planerr.CodeConfiguration))
	assert.Nil(t, s.Footprint())
}

func TestUnboundModel(t *testing.T) {
	s := New(blockmodel.NewStore(), Options{})

	_, err := s.Levels()
	assert.True(t, planerr.Is(err, planerr.CodeConfiguration))

	_, err = s.ComputeFootprint(0, gridParams())
	assert.True(t, planerr.Is(err, planerr.CodeConfiguration))
}

func TestLoadModelBadBinding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, os.WriteFile(path, []byte(gridCSV), 0o644))

	s := New(blockmodel.NewStore(), Options{})
	err := s.LoadModel(path, ingest.Options{Header: true}, types.ModelConfig{
		Axes:   types.AxisNames{X: "x", Y: "y", Z: "z"},
		Profit: "value",
	})
	assert.True(t, planerr.Is(err, planerr.CodeConfiguration))
	assert.False(t, s.Store().Loaded())
}

func TestLoadModelBadBindingKeepsSession(t *testing.T) {
	s := loadedSession(t, nil)
	fp, err := s.ComputeFootprint(0, gridParams())
	require.NoError(t, err)

	other := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(other, []byte("a,b,c,p\n1,2,3,4\n"), 0o644))

	tests := []struct {
		name  string
		model types.ModelConfig
	}{
		{"axes", types.ModelConfig{Axes: types.AxisNames{X: "east", Y: "b", Z: "c"}, Profit: "p"}},
		{"profit", types.ModelConfig{Axes: types.AxisNames{X: "a", Y: "b", Z: "c"}, Profit: "value"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.LoadModel(other, ingest.Options{Header: true}, tt.model)
			assert.True(t, planerr.Is(err, planerr.CodeConfiguration))

			assert.Same(t, fp, s.Footprint())
			assert.Equal(t, modelConfig().Axes, s.Store().Axes())
			levels, err := s.Levels()
			require.NoError(t, err)
			assert.Equal(t, []float64{0, 10, 20}, levels)
		})
	}
}

func TestConcurrentFootprintReaders(t *testing.T) {
	s := loadedSession(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, err := s.ComputeFootprint(0, gridParams())
				assert.NoError(t, err)
				return
			}
			if fp := s.Footprint(); fp != nil {
				assert.Equal(t, 4, fp.Len())
			}
		}(i)
	}
	wg.Wait()
}
