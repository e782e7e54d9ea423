// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gvivero-alarcon/planning-app/internal/report"
	"github.com/gvivero-alarcon/planning-app/internal/session"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

var footprintCmd = &cobra.Command{
	Use:   "footprint",
	Short: "Select the economic columns at an extraction level",
	Long: `Footprint discounts every column from the extraction level and keeps
those whose peak value exceeds the drawpoint investment. The result is
written as YAML so that a later envelope run can reuse it.

Without --level the optimal level is computed first.`,
	RunE: runFootprint,
}

func runFootprint(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	ctx := cmd.Context()
	cfg := planConfig()
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}

	p := cfg.Economics.Params()
	lv, err := resolveLevel(ctx, cmd, sess, p)
	if err != nil {
		return err
	}

	fp, err := sess.ComputeFootprint(lv, p)
	if err != nil {
		return err
	}

	if fp.IsEmpty() {
		printWarning("No economic columns at level %s", coord(lv))
	} else {
		printSuccess("%d economic columns at level %s, floor value %s",
			fp.Len(), coord(lv), highlightNumber(fp.TotalValue()))
	}

	if out == "" {
		out = outputPath(cfg, "footprint.yaml")
	}
	if err := report.WriteFootprintYAML(out, fp); err != nil {
		return err
	}
	printDetail("written to %s", out)

	if cfg.Output.Plots {
		if err := writeFootprintPlots(cfg, fp); err != nil {
			return err
		}
	}
	return nil
}

// resolveLevel returns --level when set and the optimal level otherwise.
func resolveLevel(ctx context.Context, cmd *cobra.Command, sess *session.Session, p types.EconomicParams) (float64, error) {
	if cmd.Flags().Changed("level") {
		return cmd.Flags().GetFloat64("level")
	}
	curve, err := sess.LevelCurve(ctx, nil, p)
	if err != nil {
		return 0, err
	}
	printInfo("Using optimal level %s", coord(curve.Optimal.Level))
	return curve.Optimal.Level, nil
}

func writeFootprintPlots(cfg types.PlanConfig, fp *types.FootprintSet) error {
	png := outputPath(cfg, "footprint.png")
	if err := report.FootprintPNG(fp, png); err != nil {
		return fmt.Errorf("plotting footprint: %w", err)
	}
	html := outputPath(cfg, "footprint.html")
	err := writeHTML(html, func(w io.Writer) error {
		return report.FootprintHTML(w, fp)
	})
	if err != nil {
		return err
	}
	printDetail("plots written to %s and %s", png, html)
	return nil
}

func init() {
	addEconomicsFlags(footprintCmd)
	footprintCmd.Flags().Float64("level", 0, "extraction level (default: the optimal level)")
	footprintCmd.Flags().String("out", "", "footprint file (default: <output-dir>/footprint.yaml)")

	rootCmd.AddCommand(footprintCmd)
}
