// Package tabular loads the per-configuration systematic grid from CSV or
// XLSX files into the in-memory table the engine consumes, recording a
// SHA-256 checksum of the source for provenance.
package tabular

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"concord/domain/anchors"
	"concord/domain/core"
	"concord/internal/errors"
)

// Loaded pairs the parsed table with its input provenance
type Loaded struct {
	Table    anchors.Table
	Checksum core.Checksum
	Path     string
}

// Load reads a grid file, validates its integrity, and checksums it.
// The format is chosen by extension: .csv or .xlsx.
func Load(path string) (*Loaded, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, errors.InvalidInput("grid file must be .csv or .xlsx: " + path)
	}
	if err != nil {
		return nil, err
	}

	table, err := parseRows(rows)
	if err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	hash, err := core.HashFile(path)
	if err != nil {
		return nil, errors.IOError("checksum grid file", err)
	}
	return &Loaded{Table: table, Checksum: core.Checksum(hash), Path: path}, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IOError("open grid file", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.IOError("read grid csv", err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.IOError("open grid workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.DataIntegrity("grid workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.IOError("read grid sheet", err)
	}
	return rows, nil
}

// parseRows expects a header row naming at least "group" and "value"
// columns; a "variant" column is optional.
func parseRows(rows [][]string) (anchors.Table, error) {
	if len(rows) < 2 {
		return anchors.Table{}, errors.DataIntegrity("grid file has no data rows")
	}

	groupIdx, variantIdx, valueIdx := -1, -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "group", "anchor":
			groupIdx = i
		case "variant", "relation":
			variantIdx = i
		case "value", "h0":
			valueIdx = i
		}
	}
	if groupIdx < 0 || valueIdx < 0 {
		return anchors.Table{}, errors.DataIntegrity("grid file header must name group and value columns")
	}

	table := anchors.Table{Rows: make([]anchors.Row, 0, len(rows)-1)}
	for n, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if len(row) <= groupIdx || len(row) <= valueIdx {
			return anchors.Table{}, errors.DataIntegrityf("grid row %d is short", n+2)
		}
		group, err := anchors.ParseGroup(strings.TrimSpace(row[groupIdx]))
		if err != nil {
			return anchors.Table{}, errors.Wrapf(err, "grid row %d", n+2)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[valueIdx]), 64)
		if err != nil {
			return anchors.Table{}, errors.DataIntegrityf("grid row %d has non-numeric value %q", n+2, row[valueIdx])
		}
		variant := ""
		if variantIdx >= 0 && len(row) > variantIdx {
			variant = strings.TrimSpace(row[variantIdx])
		}
		table.Rows = append(table.Rows, anchors.Row{Group: group, Variant: variant, Value: value})
	}
	return table, nil
}
