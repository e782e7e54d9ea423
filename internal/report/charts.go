// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

// viridis is the colour ramp used for value-coded charts.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     "1000px",
		Height:    "800px",
	})
}

func valueMap(lo, hi float64, dimension string) charts.GlobalOpts {
	if lo == hi {
		hi = lo + 1
	}
	return charts.WithVisualMapOpts(opts.VisualMap{
		Show:       opts.Bool(true),
		Calculable: opts.Bool(true),
		Min:        float32(lo),
		Max:        float32(hi),
		Dimension:  dimension,
		InRange:    &opts.VisualMapInRange{Color: viridis},
	})
}

// LevelCurveHTML renders the floor value curve as an interactive line
// chart.
func LevelCurveHTML(w io.Writer, curve types.LevelCurve) error {
	values := sortedByLevel(curve.Values)
	levels := make([]string, len(values))
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		levels[i] = strconv.FormatFloat(v.Level, 'g', -1, 64)
		data[i] = opts.LineData{Value: v.Value}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts("Floor value by level"),
		charts.WithTitleOpts(opts.Title{
			Title:    "Floor value by extraction level",
			Subtitle: fmt.Sprintf("optimum level %g, value %.2f", curve.Optimal.Level, curve.Optimal.Value),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Level (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Value ($)", NameLocation: "middle", NameGap: 50}),
	)
	line.SetXAxis(levels).AddSeries("floor value", data,
		charts.WithMarkPointNameTypeItemOpts(opts.MarkPointNameTypeItem{Name: "optimum", Type: "max"}),
	)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("rendering level chart: %w", err)
	}
	return nil
}

// FootprintHTML renders the footprint in plan view coloured by peak value.
func FootprintHTML(w io.Writer, fp *types.FootprintSet) error {
	if fp == nil {
		fp = types.NewFootprintSet(0, nil)
	}

	data := make([]opts.ScatterData, fp.Len())
	var lo, hi float64
	for i, c := range fp.Columns {
		data[i] = opts.ScatterData{Value: []interface{}{c.X, c.Y, c.Peak}}
		if i == 0 || c.Peak < lo {
			lo = c.Peak
		}
		if i == 0 || c.Peak > hi {
			hi = c.Peak
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		initOpts("Footprint"),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Footprint at level %g", fp.Level),
			Subtitle: fmt.Sprintf("columns=%d value=%.2f", fp.Len(), fp.TotalValue()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		valueMap(lo, hi, "2"),
	)
	scatter.AddSeries("footprint", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("rendering footprint chart: %w", err)
	}
	return nil
}

// BlocksHTML renders filtered blocks as a 3-D scatter coloured by the
// filter variable.
func BlocksHTML(w io.Writer, title, variable string, points []blockmodel.PlotPoint) error {
	data := make([]opts.Chart3DData, len(points))
	var lo, hi float64
	for i, p := range points {
		data[i] = opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z, p.Value}}
		if i == 0 || p.Value < lo {
			lo = p.Value
		}
		if i == 0 || p.Value > hi {
			hi = p.Value
		}
	}

	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		initOpts(title),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%s, %d blocks", variable, len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z"}),
		valueMap(lo, hi, "3"),
	)
	scatter.AddSeries(variable, data)

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("rendering block chart: %w", err)
	}
	return nil
}

// EnvelopeHTML renders the kept and pruned envelope blocks as a 3-D
// scatter.
func EnvelopeHTML(w io.Writer, res *types.EnvelopeResult) error {
	if res == nil {
		res = &types.EnvelopeResult{}
	}

	toData := func(blocks []types.EnvelopeBlock) []opts.Chart3DData {
		data := make([]opts.Chart3DData, len(blocks))
		for i, b := range blocks {
			data[i] = opts.Chart3DData{Value: []interface{}{b.X, b.Y, b.Z, b.Profit}}
		}
		return data
	}

	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		initOpts("Cave envelope"),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Cave envelope above level %g", res.Level),
			Subtitle: fmt.Sprintf("blocks=%d pruned=%d net=%.2f", len(res.Blocks), len(res.Pruned), res.NetValue),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z"}),
	)
	scatter.AddSeries("envelope", toData(res.Blocks),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#31688e"}))
	if len(res.Pruned) > 0 {
		scatter.AddSeries("pruned", toData(res.Pruned),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#b5de2b"}))
	}

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("rendering envelope chart: %w", err)
	}
	return nil
}
