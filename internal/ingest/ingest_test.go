// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gvivero-alarcon/planning-app/internal/planerr"
	"github.com/gvivero-alarcon/planning-app/pkg/types"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		opts        Options
		wantColumns []string
		wantRows    int
		wantCode    planerr.Code
	}{
		{
			name:        "header row",
			input:       "x,y,z,profit\n0,0,0,-2\n0,0,10,5.5\n",
			opts:        Options{Header: true},
			wantColumns: []string{"x", "y", "z", "profit"},
			wantRows:    2,
		},
		{
			name:        "positional names without header",
			input:       "0;0;0;-2\n0;0;10;5\n",
			opts:        Options{Delimiter: ';'},
			wantColumns: []string{"0", "1", "2", "3"},
			wantRows:    2,
		},
		{
			name:        "blank lines and padded fields",
			input:       "x, y, z, profit\n\n 1, 2, 3, 4\n\n",
			opts:        Options{Header: true},
			wantColumns: []string{"x", "y", "z", "profit"},
			wantRows:    1,
		},
		{
			name:     "non numeric value",
			input:    "x,y\n1,abc\n",
			opts:     Options{Header: true},
			wantCode: planerr.CodeInvalidInput,
		},
		{
			name:     "ragged record",
			input:    "x,y\n1,2\n3\n",
			opts:     Options{Header: true},
			wantCode: planerr.CodeInvalidInput,
		},
		{
			name:     "empty input",
			input:    "",
			opts:     Options{Header: true},
			wantCode: planerr.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ReadCSV(strings.NewReader(tt.input), tt.opts)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, planerr.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantColumns, tbl.Columns())
			assert.Equal(t, tt.wantRows, tbl.Len())
		})
	}
}

func TestReadCSVValues(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("x\tz\n10\t-2.5\n"), Options{Delimiter: '\t', Header: true})
	require.NoError(t, err)

	z, ok := tbl.Column("z")
	require.True(t, ok)
	assert.Equal(t, []float64{-2.5}, z)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"x", "y", "z", "profit"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{0, 0, 0, -2}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{0, 0, 10, 10.5}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := ReadFile(path, Options{Header: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z", "profit"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())

	profit, _ := tbl.Column("profit")
	assert.Equal(t, []float64{-2, 10.5}, profit)
}

func TestReadXLSXMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := ReadXLSX(path, Options{Header: true, Sheet: "Blocks"})
	assert.True(t, planerr.Is(err, planerr.CodeInvalidInput))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "model.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("x,y,z,profit\n1,2,3,4\n"), 0o644))

	tbl, err := ReadFile(csvPath, Options{Header: true})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	_, err = ReadFile(filepath.Join(dir, "missing.csv"), Options{})
	assert.True(t, planerr.Is(err, planerr.CodeNotFound))

	_, err = ReadFile(filepath.Join(dir, "model.parquet"), Options{})
	assert.True(t, planerr.Is(err, planerr.CodeConfiguration))
}

func TestOptionsFromConfig(t *testing.T) {
	tests := []struct {
		delimiter string
		want      rune
		wantErr   bool
	}{
		{"", ',', false},
		{"tab", '\t', false},
		{"semicolon", ';', false},
		{"|", '|', false},
		{"space", ' ', false},
		{"::", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.delimiter, func(t *testing.T) {
			opts, err := OptionsFromConfig(types.IngestConfig{Delimiter: tt.delimiter, Header: true})
			if tt.wantErr {
				assert.True(t, planerr.Is(err, planerr.CodeConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.Delimiter)
			assert.True(t, opts.Header)
		})
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	names, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xlsx", "b.csv"}, names)

	_, err = ListFiles(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}
