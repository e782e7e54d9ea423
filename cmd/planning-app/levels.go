// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gvivero-alarcon/planning-app/internal/report"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Evaluate the floor value of every candidate extraction level",
	Long: `Levels discounts every column of the block model from each candidate
extraction level, sums the peak values of the columns that pay back their
drawpoint investment, and reports the level with the highest floor value.

Candidate levels default to every distinct Z in the block model.`,
	RunE: runLevels,
}

func runLevels(cmd *cobra.Command, args []string) error {
	candidates, _ := cmd.Flags().GetFloat64Slice("levels")
	out, _ := cmd.Flags().GetString("out")
	if len(candidates) == 0 {
		candidates = nil
	}

	ctx := cmd.Context()
	cfg := planConfig()
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}

	curve, err := sess.LevelCurve(ctx, candidates, cfg.Economics.Params())
	if err != nil {
		return err
	}

	printLevelCurve(curve)

	if out == "" {
		out = outputPath(cfg, "levels.yaml")
	}
	if err := writeData(out, curve); err != nil {
		return err
	}
	printDetail("written to %s", out)

	if cfg.Output.Plots {
		if err := writeLevelPlots(cfg, curve); err != nil {
			return err
		}
	}
	return nil
}

func printLevelCurve(curve types.LevelCurve) {
	rows := make([][]string, len(curve.Values))
	best := -1
	for i, v := range curve.Values {
		rows[i] = []string{coord(v.Level), num(v.Value)}
		if best < 0 && v == curve.Optimal {
			best = i
		}
	}
	printTable([]string{"level", "floor value"}, rows, best)
	printSuccess("Optimal level %s with floor value %s",
		coord(curve.Optimal.Level), highlightNumber(curve.Optimal.Value))
}

func writeLevelPlots(cfg types.PlanConfig, curve types.LevelCurve) error {
	png := outputPath(cfg, "levels.png")
	if err := report.LevelCurvePNG(curve, png); err != nil {
		return fmt.Errorf("plotting level curve: %w", err)
	}
	html := outputPath(cfg, "levels.html")
	err := writeHTML(html, func(w io.Writer) error {
		return report.LevelCurveHTML(w, curve)
	})
	if err != nil {
		return err
	}
	printDetail("plots written to %s and %s", png, html)
	return nil
}

func init() {
	addEconomicsFlags(levelsCmd)
	levelsCmd.Flags().Float64Slice("levels", nil, "candidate levels (default: every distinct Z)")
	levelsCmd.Flags().String("out", "", "level curve file, .yaml or .json (default: <output-dir>/levels.yaml)")

	rootCmd.AddCommand(levelsCmd)
}
