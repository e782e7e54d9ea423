// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

var (
	curveColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	optimumColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// LevelCurvePNG plots floor value against level with the optimum marked.
func LevelCurvePNG(curve types.LevelCurve, path string) error {
	p := plot.New()
	p.Title.Text = "Floor value by extraction level"
	p.X.Label.Text = "Level (m)"
	p.Y.Label.Text = "Floor value ($)"
	p.Add(plotter.NewGrid())

	if len(curve.Values) > 0 {
		pts := make(plotter.XYs, len(curve.Values))
		for i, v := range sortedByLevel(curve.Values) {
			pts[i] = plotter.XY{X: v.Level, Y: v.Value}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("building curve: %w", err)
		}
		line.Color = curveColor
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("floor value", line)

		best, err := plotter.NewScatter(plotter.XYs{{X: curve.Optimal.Level, Y: curve.Optimal.Value}})
		if err != nil {
			return fmt.Errorf("building optimum marker: %w", err)
		}
		best.GlyphStyle.Color = optimumColor
		best.GlyphStyle.Shape = draw.CircleGlyph{}
		best.GlyphStyle.Radius = vg.Points(4)
		p.Add(best)
		p.Legend.Add(fmt.Sprintf("optimum %g", curve.Optimal.Level), best)
	}

	p.Legend.Top = true
	return save(p, 10*vg.Inch, 6*vg.Inch, path)
}

// FootprintPNG plots the footprint columns in plan view, coloured by
// peak value.
func FootprintPNG(fp *types.FootprintSet, path string) error {
	p := plot.New()
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	if fp == nil {
		fp = types.NewFootprintSet(0, nil)
	}
	p.Title.Text = fmt.Sprintf("Footprint at level %g (%d columns)", fp.Level, fp.Len())

	if fp.IsEmpty() {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		return save(p, 8*vg.Inch, 8*vg.Inch, path)
	}

	pts := make(plotter.XYs, fp.Len())
	lo, hi := fp.Columns[0].Peak, fp.Columns[0].Peak
	for i, c := range fp.Columns {
		pts[i] = plotter.XY{X: c.X, Y: c.Y}
		lo = min(lo, c.Peak)
		hi = max(hi, c.Peak)
	}
	if lo == hi {
		hi = lo + 1
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(lo)
	cmap.SetMax(hi)

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("building footprint scatter: %w", err)
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		c, err := cmap.At(fp.Columns[i].Peak)
		if err != nil {
			c = color.Black
		}
		return draw.GlyphStyle{Color: c, Shape: draw.BoxGlyph{}, Radius: vg.Points(3)}
	}
	p.Add(sc)

	return save(p, 8*vg.Inch, 8*vg.Inch, path)
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}

func sortedByLevel(values []types.LevelValue) []types.LevelValue {
	out := append([]types.LevelValue(nil), values...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}
