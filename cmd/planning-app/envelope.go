// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gvivero-alarcon/planning-app/internal/envelope"
	"github.com/gvivero-alarcon/planning-app/internal/report"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

var envelopeCmd = &cobra.Command{
	Use:   "envelope",
	Short: "Grow the cave envelope above a footprint",
	Long: `Envelope runs the floating cone method above the extraction level. Each
profitable footprint block seeds an inverted cone bounded by the angle of
draw; the cone is kept when its blocks sum to a positive value. Columns
shorter than --min-height are pruned.

The footprint is read from --footprint when given and computed at the
level otherwise.`,
	RunE: runEnvelope,
}

func runEnvelope(cmd *cobra.Command, args []string) error {
	fpPath, _ := cmd.Flags().GetString("footprint")
	out, _ := cmd.Flags().GetString("out")

	ctx := cmd.Context()
	cfg := planConfig()
	if err := envelope.Validate(cfg.Geometry); err != nil {
		return err
	}
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}

	var lv float64
	if fpPath != "" {
		fp, err := report.ReadFootprintYAML(fpPath)
		if err != nil {
			return err
		}
		sess.SetFootprint(fp)
		lv = fp.Level
		if cmd.Flags().Changed("level") {
			lv, _ = cmd.Flags().GetFloat64("level")
		}
		printInfo("Loaded %d footprint columns from %s", fp.Len(), fpPath)
	} else {
		p := cfg.Economics.Params()
		lv, err = resolveLevel(ctx, cmd, sess, p)
		if err != nil {
			return err
		}
		if _, err := sess.ComputeFootprint(lv, p); err != nil {
			return err
		}
	}

	res, err := sess.Envelope(ctx, lv, cfg.Geometry, envelope.Options{
		Progress: logProgress(loggerFromContext(ctx)),
	})
	if err != nil {
		return err
	}

	printEnvelope(res)

	if out == "" {
		out = outputPath(cfg, "envelope.yaml")
	}
	if err := writeEnvelope(cfg, out, res); err != nil {
		return err
	}
	return nil
}

// logProgress reports floating cone progress at debug level.
func logProgress(logger *log.Logger) func(envelope.Progress) {
	return func(p envelope.Progress) {
		logger.Debug("seed", "level", p.Level, "seeds", p.SeedsProcessed, "accepted", p.Accepted)
	}
}

func printEnvelope(res *types.EnvelopeResult) {
	if res.IsEmpty() {
		printWarning("Envelope at level %s is empty", coord(res.Level))
		return
	}
	printSuccess("Envelope at level %s: %d blocks, net value %s",
		coord(res.Level), len(res.Blocks), highlightNumber(res.NetValue))
	printDetail("%d seeds, %d cones accepted, %d rejected, %d columns pruned",
		res.Stats.SeedsTested, res.Stats.ConesAccepted, res.Stats.ConesRejected, res.Stats.ColumnsPruned)
}

// writeEnvelope writes the result to out, an XLSX workbook next to the
// output directory, and the 3-D chart when plots are enabled.
func writeEnvelope(cfg types.PlanConfig, out string, res *types.EnvelopeResult) error {
	if err := writeData(out, res); err != nil {
		return err
	}
	xlsx := outputPath(cfg, "envelope.xlsx")
	if err := report.WriteEnvelopeXLSX(xlsx, res); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	printDetail("written to %s and %s", out, xlsx)

	if !cfg.Output.Plots {
		return nil
	}
	html := outputPath(cfg, "envelope.html")
	err := writeHTML(html, func(w io.Writer) error {
		return report.EnvelopeHTML(w, res)
	})
	if err != nil {
		return err
	}
	printDetail("plot written to %s", html)
	return nil
}

func init() {
	addEconomicsFlags(envelopeCmd)
	addGeometryFlags(envelopeCmd)
	envelopeCmd.Flags().Float64("level", 0, "extraction level (default: the footprint level, or the optimal level)")
	envelopeCmd.Flags().String("footprint", "", "footprint file written by the footprint command")
	envelopeCmd.Flags().String("out", "", "envelope file, .yaml or .json (default: <output-dir>/envelope.yaml)")

	rootCmd.AddCommand(envelopeCmd)
}
