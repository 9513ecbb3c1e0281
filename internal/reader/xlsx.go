package reader

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayout is the text date-formatted cells are emitted as.
const dateLayout = "2006-01-02"

// readXLSX returns the formatted cell text of the first worksheet. Cells
// with a date number format are emitted as YYYY-MM-DD instead of their
// display text, which is locale dependent (e.g. "01-10-24").
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	dateStyles := make(map[int]bool)
	for r, line := range grid {
		for c, text := range line {
			if text == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if !isDateCell(f, sheet, cell, dateStyles) {
				continue
			}
			if day, ok := rawDate(f, sheet, cell); ok {
				line[c] = day
			}
		}
	}
	return grid, nil
}

// isDateCell reports whether the cell's number format shows a date.
// Results are cached per style index.
func isDateCell(f *excelize.File, sheet, cell string, cache map[int]bool) bool {
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := cache[idx]; ok {
		return v
	}

	isDate := false
	if style, err := f.GetStyle(idx); err == nil && style != nil {
		isDate = isBuiltinDateFormat(style.NumFmt) ||
			(style.CustomNumFmt != nil && isDateFormat(*style.CustomNumFmt))
	}
	cache[idx] = isDate
	return isDate
}

// rawDate reads the stored value of a date cell as canonical date text.
func rawDate(f *excelize.File, sheet, cell string) (string, bool) {
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", false
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return "", false
		}
		return t.Format(dateLayout), true
	}
	return isoDate(raw)
}

// isoDate converts an RFC 3339 timestamp, as stored by ISO 8601 date cells
// and returned by the BIFF decoder, to date text.
func isoDate(s string) (string, bool) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return t.Format(dateLayout), true
}

// isBuiltinDateFormat covers the built-in number formats that include a
// calendar date. Time-only formats (18-21, 45-47) are excluded.
func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormat reports whether a custom format code contains a year or day
// token outside quoted literals and bracketed sections.
func isDateFormat(code string) bool {
	inQuote, inBracket, escaped := false, false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'y', r == 'd':
			return true
		}
	}
	return false
}
