// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the planning-app CLI.
//
// Each planning stage is a subcommand: levels finds the optimal extraction
// level, footprint selects the economic columns at a level, envelope grows
// the cave envelope above it, and run chains all three and archives the
// result.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gvivero-alarcon/planning-app/internal/planerr"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the planning-app CLI.
var rootCmd = &cobra.Command{
	Use:   "planning-app",
	Short: "Block caving planning: extraction level, footprint and cave envelope",
	Long: `planning-app plans a block caving mine from a block model.

It evaluates the discounted floor value of every candidate extraction
level, selects the columns that pay back their drawpoint investment at a
level, and grows the cave envelope above that footprint with the floating
cone method. Results are written as YAML, JSON, XLSX, PNG and HTML files
and full runs are archived in a local SQLite database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		level := log.InfoLevel
		if viper.GetBool("verbose") {
			level = log.DebugLevel
		}
		cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./planning-app.yaml or ~/.config/planning-app/planning-app.yaml)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.StringP("file", "f", "", "block model file (.csv, .txt, .dat, .xlsx)")
	pf.String("x", "x", "column holding the X coordinate")
	pf.String("y", "y", "column holding the Y coordinate")
	pf.String("z", "z", "column holding the Z coordinate")
	pf.String("profit", "profit", "column holding the block profit")
	pf.String("sep", ",", "field delimiter for text files: a character, tab, space or semicolon")
	pf.Bool("no-header", false, "the block model file has no header row")
	pf.String("sheet", "", "XLSX worksheet (default: first sheet)")
	pf.String("output-dir", "output", "directory for reports")
	pf.Bool("plots", false, "also write PNG and HTML plots")
	pf.String("archive-dir", "archive", "directory holding the run archive")
	pf.Int("workers", 0, "parallel level evaluations (0 = number of CPUs)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("planning-app")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "planning-app"))
		}
	}

	viper.SetEnvPrefix("PLANNING_APP")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			printWarning("cancelled")
			os.Exit(130)
		}
		if code := planerr.GetCode(err); code == planerr.CodeConfiguration || code == planerr.CodeNotFound {
			printError("%s", planerr.UserMessage(err))
		} else {
			printError("%v", err)
		}
		os.Exit(1)
	}
}
