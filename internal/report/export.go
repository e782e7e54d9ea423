// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes planning results as data files, static plots, and
// interactive HTML charts.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

// WriteYAML marshals v to path, creating the parent directory.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeFile(path, data)
}

// WriteJSON marshals v with indentation to path, creating the parent
// directory.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteFootprintYAML saves a footprint so a later run can reuse it.
func WriteFootprintYAML(path string, fp *types.FootprintSet) error {
	if fp == nil {
		fp = types.NewFootprintSet(0, nil)
	}
	return WriteYAML(path, fp)
}

// ReadFootprintYAML loads a footprint written by WriteFootprintYAML.
func ReadFootprintYAML(path string) (*types.FootprintSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, planerr.Wrap(planerr.CodeNotFound, err, "footprint file %s", path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw types.FootprintSet
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, planerr.Wrap(planerr.CodeInvalidInput, err, "parsing footprint %s", path)
	}
	return types.NewFootprintSet(raw.Level, raw.Columns), nil
}

var envelopeHeader = []interface{}{"x", "y", "z", "profit", "status"}

// WriteEnvelopeXLSX writes the kept and pruned envelope blocks to one
// worksheet, followed by a summary sheet.
func WriteEnvelopeXLSX(path string, res *types.EnvelopeResult) error {
	if res == nil {
		res = &types.EnvelopeResult{}
	}

	f := excelize.NewFile()
	defer f.Close()

	const blocksSheet, summarySheet = "Envelope", "Summary"
	if err := f.SetSheetName("Sheet1", blocksSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetSheetRow(blocksSheet, "A1", &envelopeHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	write := func(blocks []types.EnvelopeBlock, status string) error {
		for _, b := range blocks {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []interface{}{b.X, b.Y, b.Z, b.Profit, status}
			if err := f.SetSheetRow(blocksSheet, cell, &values); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
		return nil
	}
	if err := write(res.Blocks, "kept"); err != nil {
		return err
	}
	if err := write(res.Pruned, "pruned"); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"level", res.Level},
		{"net_value", res.NetValue},
		{"blocks", len(res.Blocks)},
		{"pruned_blocks", len(res.Pruned)},
		{"seeds_tested", res.Stats.SeedsTested},
		{"cones_accepted", res.Stats.ConesAccepted},
		{"cones_rejected", res.Stats.ConesRejected},
		{"columns_pruned", res.Stats.ColumnsPruned},
	}
	for i, values := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}
