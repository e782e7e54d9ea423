// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/internal/ingest"
	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/internal/report"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Inspect block model files",
	Long: `Blocks lists candidate block model files, summarizes the columns of a
block model, and renders a filtered 3-D view of it.`,
}

// --- files subcommand ---

var blocksFilesCmd = &cobra.Command{
	Use:   "files [dir]",
	Short: "List the files in a directory (default: current directory)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBlocksFiles,
}

func runBlocksFiles(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	names, err := ingest.ListFiles(dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printInfo("No files in %s", dir)
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// --- describe subcommand ---

var blocksDescribeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print summary statistics of every column",
	RunE:  runBlocksDescribe,
}

func runBlocksDescribe(cmd *cobra.Command, args []string) error {
	store, err := loadTable()
	if err != nil {
		return err
	}
	stats, err := store.Describe()
	if err != nil {
		return err
	}

	headers := []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	rows := make([][]string, len(stats))
	for i, s := range stats {
		rows[i] = []string{
			s.Name, strconv.Itoa(s.Count),
			num(s.Mean), num(s.Std), num(s.Min), num(s.Q25), num(s.Median), num(s.Q75), num(s.Max),
		}
	}
	printTitle(planConfig().Ingest.Path)
	printTable(headers, rows, -1)
	return nil
}

// --- plot subcommand ---

var blocksPlotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render blocks filtered by value and position as a 3-D HTML chart",
	RunE:  runBlocksPlot,
}

func runBlocksPlot(cmd *cobra.Command, args []string) error {
	variable, _ := cmd.Flags().GetString("variable")
	out, _ := cmd.Flags().GetString("out")

	cfg := planConfig()
	store, err := loadTable()
	if err != nil {
		return err
	}
	if err := store.SetAxes(cfg.Model.Axes); err != nil {
		return err
	}
	if variable == "" {
		variable = cfg.Model.Profit
	}

	filter := blockmodel.PlotFilter{Variable: variable}
	ranges := []struct {
		column string
		lo, hi string
		iv     *blockmodel.Interval
	}{
		{variable, "min", "max", &filter.Value},
		{cfg.Model.Axes.X, "x-min", "x-max", &filter.X},
		{cfg.Model.Axes.Y, "y-min", "y-max", &filter.Y},
		{cfg.Model.Axes.Z, "z-min", "z-max", &filter.Z},
	}
	for _, r := range ranges {
		lo, hi, err := store.Range(r.column)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed(r.lo) {
			lo, _ = cmd.Flags().GetFloat64(r.lo)
		}
		if cmd.Flags().Changed(r.hi) {
			hi, _ = cmd.Flags().GetFloat64(r.hi)
		}
		*r.iv = blockmodel.Interval{Lo: lo, Hi: hi}
	}

	points, err := store.Filter(filter)
	if err != nil {
		return err
	}

	if out == "" {
		out = outputPath(cfg, "blocks-"+variable+".html")
	}
	title := filepath.Base(cfg.Ingest.Path)
	err = writeHTML(out, func(w io.Writer) error {
		return report.BlocksHTML(w, title, variable, points)
	})
	if err != nil {
		return err
	}
	printSuccess("Plotted %d blocks to %s", len(points), out)
	return nil
}

// loadTable reads the configured block model without binding axes.
func loadTable() (*blockmodel.Store, error) {
	cfg := planConfig()
	if cfg.Ingest.Path == "" {
		return nil, planerr.Configuration("no block model file: use --file or ingest.path")
	}
	opts, err := ingest.OptionsFromConfig(cfg.Ingest)
	if err != nil {
		return nil, err
	}
	tbl, err := ingest.ReadFile(cfg.Ingest.Path, opts)
	if err != nil {
		return nil, err
	}
	store := blockmodel.NewStore()
	store.Load(tbl)
	return store, nil
}

func init() {
	blocksPlotCmd.Flags().String("variable", "", "column to colour by and filter on (default: the profit column)")
	blocksPlotCmd.Flags().String("out", "", "HTML output file (default: <output-dir>/blocks-<variable>.html)")
	blocksPlotCmd.Flags().Float64("min", 0, "lowest variable value to show")
	blocksPlotCmd.Flags().Float64("max", 0, "highest variable value to show")
	for _, axis := range []string{"x", "y", "z"} {
		blocksPlotCmd.Flags().Float64(axis+"-min", 0, "lowest "+axis+" coordinate to show")
		blocksPlotCmd.Flags().Float64(axis+"-max", 0, "highest "+axis+" coordinate to show")
	}

	blocksCmd.AddCommand(blocksFilesCmd)
	blocksCmd.AddCommand(blocksDescribeCmd)
	blocksCmd.AddCommand(blocksPlotCmd)

	rootCmd.AddCommand(blocksCmd)
}
