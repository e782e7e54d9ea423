// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gvivero-alarcon/planning-app/internal/archive"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage archived planning runs",
	Long: `History lists, shows, exports and deletes the runs recorded by the run
command.`,
}

// openArchive opens the configured run archive.
func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	cfg := planConfig()
	return archive.Open(cfg.Archive.Dir, loggerFromContext(cmd.Context()))
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return num(*v)
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No archived runs in %s", store.Dir())
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		level := "-"
		if r.OptimalLevel != nil {
			level = coord(*r.OptimalLevel)
		}
		rows[i] = []string{
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Source,
			level, optional(r.OptimalValue),
			strconv.Itoa(r.FootprintColumns), strconv.Itoa(r.EnvelopeBlocks), optional(r.NetValue),
		}
	}
	printTable([]string{"id", "created", "source", "level", "floor value", "columns", "blocks", "net value"}, rows, -1)
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the details of an archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printTitle("Run " + run.ID)
	printDetail("created %s from %s", run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.Source)
	printDetail("discount %s%%, extraction rate %s m/y, investment %s",
		num(run.Economics.DiscountRate*100), num(run.Economics.ExtractionRate), num(run.Economics.InvestmentCost))
	printDetail("min height %s m, max height %s m, slope %s°",
		num(run.Geometry.MinHeight), num(run.Geometry.MaxHeight), num(run.Geometry.Slope))

	if run.Curve != nil {
		printLevelCurve(*run.Curve)
	}
	if run.Footprint != nil {
		printInfo("Footprint: %d columns at level %s", run.Footprint.Len(), coord(run.Footprint.Level))
	}
	if run.Envelope != nil {
		printEnvelope(run.Envelope)
	}
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export an archived run as YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	dir, _ := cmd.Flags().GetString("dir")

	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if dir == "" {
		dir = planConfig().Output.Dir
	}
	path, err := store.Export(cmd.Context(), args[0], format, dir)
	if err != nil {
		return err
	}
	printSuccess("Exported run to %s", path)
	return nil
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	printSuccess("Deleted run %s", args[0])
	return nil
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 = all)")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("dir", "", "export directory (default: the output directory)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}
