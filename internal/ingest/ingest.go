// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest reads block model tables from delimited text and XLSX
// workbooks.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/gvivero-alarcon/planning-app/internal/blockmodel"
	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

// Options controls how a block model file is parsed.
type Options struct {
	// Delimiter separates fields in text files. Zero means ','.
	Delimiter rune

	// Header reports whether the first row holds column names. Without a
	// header the columns are named by position: "0", "1", ...
	Header bool

	// Sheet selects the XLSX worksheet. Empty means the first sheet.
	Sheet string
}

// OptionsFromConfig converts the configured ingest settings. Delimiter
// names "tab", "space" and "semicolon" are accepted as well as single
// characters.
func OptionsFromConfig(cfg types.IngestConfig) (Options, error) {
	opts := Options{Header: cfg.Header, Sheet: cfg.Sheet}
	switch strings.ToLower(cfg.Delimiter) {
	case "", ",", "comma":
		opts.Delimiter = ','
	case "tab", `\t`:
		opts.Delimiter = '\t'
	case "space", " ":
		opts.Delimiter = ' '
	case "semicolon", ";":
		opts.Delimiter = ';'
	default:
		r, size := utf8.DecodeRuneInString(cfg.Delimiter)
		if size != len(cfg.Delimiter) {
			return Options{}, planerr.Configuration("delimiter %q must be a single character", cfg.Delimiter)
		}
		opts.Delimiter = r
	}
	return opts, nil
}

// ReadFile reads a block model, choosing the parser from the extension.
func ReadFile(path string, opts Options) (*blockmodel.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, opts)
	case ".csv", ".txt", ".dat", "":
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, planerr.Wrap(planerr.CodeNotFound, err, "block model file %s", path)
			}
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		t, err := ReadCSV(f, opts)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return t, nil
	default:
		return nil, planerr.Configuration("unsupported block model format %q", filepath.Ext(path))
	}
}

// ReadCSV parses delimited text. Blank lines are skipped; every record
// must have the same number of fields.
func ReadCSV(r io.Reader, opts Options) (*blockmodel.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, planerr.Wrap(planerr.CodeInvalidInput, err, "malformed block table")
		}
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return buildTable(records, opts.Header)
}

// ReadXLSX parses a worksheet whose first row is treated according to
// opts.Header.
func ReadXLSX(path string, opts Options) (*blockmodel.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, planerr.Wrap(planerr.CodeNotFound, err, "block model file %s", path)
		}
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, planerr.New(planerr.CodeInvalidInput, "workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, planerr.Wrap(planerr.CodeInvalidInput, err, "reading sheet %q", sheet)
	}

	// GetRows trims trailing empty cells; pad to the widest row so short
	// rows surface as missing values rather than a width mismatch.
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return buildTable(rows, opts.Header)
}

func buildTable(records [][]string, header bool) (*blockmodel.Table, error) {
	records = dropBlank(records)
	if len(records) == 0 {
		return nil, planerr.New(planerr.CodeInvalidInput, "block table is empty")
	}

	var columns []string
	start := 0
	if header {
		columns = make([]string, len(records[0]))
		for i, name := range records[0] {
			columns[i] = strings.TrimSpace(name)
		}
		start = 1
	} else {
		columns = make([]string, len(records[0]))
		for i := range columns {
			columns[i] = strconv.Itoa(i)
		}
	}

	rows := make([][]float64, 0, len(records)-start)
	for r := start; r < len(records); r++ {
		rec := records[r]
		if len(rec) != len(columns) {
			return nil, planerr.New(planerr.CodeInvalidInput,
				"line %d has %d fields, want %d", r+1, len(rec), len(columns))
		}
		row := make([]float64, len(rec))
		for c, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, planerr.Wrap(planerr.CodeInvalidInput, err,
					"line %d column %q is not numeric", r+1, columns[c])
			}
			row[c] = v
		}
		rows = append(rows, row)
	}

	return blockmodel.NewTable(columns, rows)
}

func dropBlank(records [][]string) [][]string {
	out := records[:0]
	for _, rec := range records {
		blank := true
		for _, field := range rec {
			if strings.TrimSpace(field) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}

// ListFiles returns the names of the regular files in dir, sorted.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
