// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/internal/ingest"
	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/internal/report"
	"github.com/gvivero-alarcon/planning-app/internal/session"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

// envKeyReplacer maps nested keys to environment names, so
// economics.discount_percent reads PLANNING_APP_ECONOMICS_DISCOUNT_PERCENT.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"verbose":     "verbose",
	"file":        "ingest.path",
	"sep":         "ingest.delimiter",
	"sheet":       "ingest.sheet",
	"x":           "model.axes.x",
	"y":           "model.axes.y",
	"z":           "model.axes.z",
	"profit":      "model.profit",
	"discount":    "economics.discount_percent",
	"rate":        "economics.extraction_rate",
	"dp-area":     "economics.drawpoint_area",
	"dp-cost":     "economics.drawpoint_cost",
	"investment":  "economics.investment_cost",
	"min-height":  "geometry.min_height",
	"max-height":  "geometry.max_height",
	"slope":       "geometry.slope",
	"output-dir":  "output.dir",
	"plots":       "output.plots",
	"archive-dir": "archive.dir",
	"no-archive":  "archive.disabled",
	"workers":     "workers",
}

func setDefaults() {
	viper.SetDefault("ingest.delimiter", ",")
	viper.SetDefault("ingest.header", true)
	viper.SetDefault("model.axes.x", "x")
	viper.SetDefault("model.axes.y", "y")
	viper.SetDefault("model.axes.z", "z")
	viper.SetDefault("model.profit", "profit")
	viper.SetDefault("economics.discount_percent", 10.0)
	viper.SetDefault("economics.extraction_rate", 100.0)
	viper.SetDefault("economics.drawpoint_area", 225.0)
	viper.SetDefault("economics.drawpoint_cost", 1500.0)
	viper.SetDefault("geometry.min_height", 0.0)
	viper.SetDefault("geometry.max_height", 300.0)
	viper.SetDefault("geometry.slope", 60.0)
	viper.SetDefault("output.dir", "output")
	viper.SetDefault("archive.dir", "archive")
}

// bindFlags binds the flags of the executing command to their
// configuration keys so that flag > env > config file > default.
func bindFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	if f := flags.Lookup("no-header"); f != nil && f.Changed {
		noHeader, _ := flags.GetBool("no-header")
		viper.Set("ingest.header", !noHeader)
	}
	return nil
}

// planConfig assembles the run configuration from viper.
func planConfig() types.PlanConfig {
	return types.PlanConfig{
		Ingest: types.IngestConfig{
			Path:      viper.GetString("ingest.path"),
			Delimiter: viper.GetString("ingest.delimiter"),
			Header:    viper.GetBool("ingest.header"),
			Sheet:     viper.GetString("ingest.sheet"),
		},
		Model: types.ModelConfig{
			Axes: types.AxisNames{
				X: viper.GetString("model.axes.x"),
				Y: viper.GetString("model.axes.y"),
				Z: viper.GetString("model.axes.z"),
			},
			Profit: viper.GetString("model.profit"),
		},
		Economics: types.EconomicsConfig{
			DiscountPercent: viper.GetFloat64("economics.discount_percent"),
			ExtractionRate:  viper.GetFloat64("economics.extraction_rate"),
			DrawpointArea:   viper.GetFloat64("economics.drawpoint_area"),
			DrawpointCost:   viper.GetFloat64("economics.drawpoint_cost"),
			InvestmentCost:  viper.GetFloat64("economics.investment_cost"),
		},
		Geometry: types.GeometryParams{
			MinHeight: viper.GetFloat64("geometry.min_height"),
			MaxHeight: viper.GetFloat64("geometry.max_height"),
			Slope:     viper.GetFloat64("geometry.slope"),
		},
		Output: types.OutputConfig{
			Dir:   viper.GetString("output.dir"),
			Plots: viper.GetBool("output.plots"),
		},
		Archive: types.ArchiveConfig{
			Dir:      viper.GetString("archive.dir"),
			Disabled: viper.GetBool("archive.disabled"),
		},
		Workers: viper.GetInt("workers"),
	}
}

// addEconomicsFlags registers the flags of value discounting.
func addEconomicsFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("discount", 10, "annual discount rate in percent")
	cmd.Flags().Float64("rate", 100, "vertical extraction rate in m/year")
	cmd.Flags().Float64("dp-area", 225, "area served by one drawpoint in m²")
	cmd.Flags().Float64("dp-cost", 1500, "drawpoint opening cost in $/m²")
	cmd.Flags().Float64("investment", 0, "investment cost per column (overrides dp-area × dp-cost)")
}

// addGeometryFlags registers the cave envelope constraints.
func addGeometryFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("min-height", 0, "minimum column height above the level in m")
	cmd.Flags().Float64("max-height", 300, "maximum column height above the level in m")
	cmd.Flags().Float64("slope", 60, "angle of draw in degrees (0-90)")
}

// openSession loads the configured block model into a new session.
func openSession(ctx context.Context, cfg types.PlanConfig) (*session.Session, error) {
	if cfg.Ingest.Path == "" {
		return nil, planerr.Configuration("no block model file: use --file or ingest.path")
	}
	opts, err := ingest.OptionsFromConfig(cfg.Ingest)
	if err != nil {
		return nil, err
	}

	sess := session.New(blockmodel.NewStore(), session.Options{
		Logger:  loggerFromContext(ctx),
		Workers: cfg.Workers,
	})
	if err := sess.LoadModel(cfg.Ingest.Path, opts, cfg.Model); err != nil {
		return nil, err
	}
	return sess, nil
}

// writeData writes v as JSON when path ends in .json and as YAML
// otherwise.
func writeData(path string, v any) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return report.WriteJSON(path, v)
	}
	return report.WriteYAML(path, v)
}

// writeHTML creates path and renders a chart into it.
func writeHTML(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func outputPath(cfg types.PlanConfig, name string) string {
	return filepath.Join(cfg.Output.Dir, name)
}

// --- logging ---

type ctxKey int

const loggerKey ctxKey = 0

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default() when
// none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
			return l
		}
	}
	return log.Default()
}

// progress logs completion of a step with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
