// Package reader turns uploaded CSV and Excel files into header-keyed rows.
//
// The container format is sniffed from the content; the declared media type
// is only logged. Only the first sheet of a workbook is read.
package reader

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"

	"github.com/insightdelivered/due-invoice-extractor/internal/models"
)

// Format is a supported tabular container.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Detect identifies the container format from the leading bytes.
func Detect(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	default:
		return FormatCSV
	}
}

// Parse reads the first sheet of data and returns one Row per non-blank
// data line. An empty sheet yields an empty slice and no error.
func Parse(data []byte, mediaType string) ([]models.Row, error) {
	format := Detect(data)
	slog.Debug("parsing tabular upload", "format", format, "media_type", mediaType, "size", len(data))

	var (
		grid [][]string
		err  error
	)
	switch format {
	case FormatXLSX:
		grid, err = readXLSX(data)
	case FormatXLS:
		grid, err = readXLS(data)
	default:
		grid, err = readCSV(data)
	}
	if err != nil {
		return nil, newParseError(string(format), err)
	}

	return toRows(grid), nil
}

// toRows uses the first non-blank line as the header line and keys every
// following non-blank line by it.
func toRows(grid [][]string) []models.Row {
	start := -1
	width := 0
	for i, line := range grid {
		if start < 0 && !isBlank(line) {
			start = i
		}
		if len(line) > width {
			width = len(line)
		}
	}
	if start < 0 {
		return []models.Row{}
	}

	headers := headerNames(grid[start], width)
	rows := make([]models.Row, 0, len(grid)-start-1)
	for _, line := range grid[start+1:] {
		if isBlank(line) {
			continue
		}
		rows = append(rows, models.NewRow(headers, line))
	}
	return rows
}

// headerNames makes header keys unique: blank headers become __EMPTY and
// repeated names get a numeric suffix (_1, _2, ...).
func headerNames(line []string, width int) []string {
	headers := make([]string, width)
	used := make(map[string]bool, width)
	suffix := make(map[string]int)
	for i := 0; i < width; i++ {
		base := ""
		if i < len(line) {
			base = line[i]
		}
		if strings.TrimSpace(base) == "" {
			base = "__EMPTY"
		}
		name := base
		for used[name] {
			suffix[base]++
			name = base + "_" + strconv.Itoa(suffix[base])
		}
		used[name] = true
		headers[i] = name
	}
	return headers
}

func isBlank(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
