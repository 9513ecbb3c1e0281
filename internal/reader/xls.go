package reader

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/extrame/xls"
)

// legacyCharset is used for BIFF string records that are not stored as UTF-16.
const legacyCharset = "utf-8"

// readXLS returns the formatted cell text of the first worksheet of a
// legacy BIFF workbook. The decoder renders built-in date formats as
// RFC 3339 timestamps; those become YYYY-MM-DD.
func readXLS(data []byte) (grid [][]string, err error) {
	// The BIFF decoder panics on some truncated streams.
	defer func() {
		if rec := recover(); rec != nil {
			grid, err = nil, fmt.Errorf("corrupt workbook: %v", rec)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), legacyCharset)
	if err != nil {
		return nil, err
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}

	grid = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		line := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			text := row.Col(c)
			if day, ok := isoDate(text); ok {
				text = day
			}
			line[c] = text
		}
		grid = append(grid, line)
	}
	return grid, nil
}
