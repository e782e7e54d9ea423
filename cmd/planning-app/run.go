// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/gvivero-alarcon/planning-app/internal/archive"
	"github.com/gvivero-alarcon/planning-app/internal/envelope"
	"github.com/gvivero-alarcon/planning-app/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Plan end to end: optimal level, footprint and cave envelope",
	Long: `Run evaluates every distinct level of the block model, computes the
footprint at the optimal level, grows the cave envelope above it, writes
all reports to the output directory, and records the run in the archive.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	cfg := planConfig()

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	p := cfg.Economics.Params()
	plan, err := sess.Run(ctx, p, cfg.Geometry, envelope.Options{
		Progress: logProgress(logger),
	})
	if err != nil {
		return err
	}
	prog.done("Planning complete")

	printTitle("Extraction level")
	printLevelCurve(plan.Curve)

	printTitle("Footprint")
	if plan.Footprint.IsEmpty() {
		printWarning("No economic columns at level %s", coord(plan.Footprint.Level))
	} else {
		printSuccess("%d economic columns", plan.Footprint.Len())
	}

	printTitle("Envelope")
	printEnvelope(plan.Envelope)

	if err := writeData(outputPath(cfg, "levels.yaml"), plan.Curve); err != nil {
		return err
	}
	if err := report.WriteFootprintYAML(outputPath(cfg, "footprint.yaml"), plan.Footprint); err != nil {
		return err
	}
	if err := writeEnvelope(cfg, outputPath(cfg, "envelope.yaml"), plan.Envelope); err != nil {
		return err
	}
	if cfg.Output.Plots {
		if err := writeLevelPlots(cfg, plan.Curve); err != nil {
			return err
		}
		if err := writeFootprintPlots(cfg, plan.Footprint); err != nil {
			return err
		}
	}

	if cfg.Archive.Disabled {
		return nil
	}
	store, err := archive.Open(cfg.Archive.Dir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(ctx, archive.Run{
		Source:    cfg.Ingest.Path,
		Economics: p,
		Geometry:  cfg.Geometry,
		Curve:     &plan.Curve,
		Footprint: plan.Footprint,
		Envelope:  plan.Envelope,
	})
	if err != nil {
		return err
	}
	printSuccess("Archived run %s", styleNumber.Render(id))
	return nil
}

func init() {
	addEconomicsFlags(runCmd)
	addGeometryFlags(runCmd)
	runCmd.Flags().Bool("no-archive", false, "do not record the run in the archive")

	rootCmd.AddCommand(runCmd)
}
