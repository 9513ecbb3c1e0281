// Package dates converts the date representations found in invoice sheets
// into canonical YYYY-MM-DD text.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Layout is the canonical date layout.
const Layout = "2006-01-02"

// Textual date patterns, tried in order.
var (
	// YYYY-M-D
	datePatternISO = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	// D/M/YYYY. The first number is the day even though US sheets use M/D/YYYY.
	datePatternSlash = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	// D-M-YYYY
	datePatternDash = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
)

// Normalize returns value as canonical date text. Numbers are spreadsheet
// date serials, time.Time values are taken in UTC, and text is matched
// against the known patterns. Unrecognized text comes back trimmed and
// unchanged; nil and blank input give "".
func Normalize(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(Layout)
	case float64:
		return fromSerial(v)
	case float32:
		return fromSerial(float64(v))
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case string:
		return fromText(v)
	default:
		return fromText(fmt.Sprint(v))
	}
}

// fromSerial converts a 1900-system spreadsheet serial, dropping the time
// of day.
func fromSerial(serial float64) string {
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return strconv.FormatFloat(serial, 'f', -1, 64)
	}
	return t.Format(Layout)
}

func fromText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if m := datePatternISO.FindStringSubmatch(s); m != nil {
		return join(m[1], m[2], m[3])
	}
	if m := datePatternSlash.FindStringSubmatch(s); m != nil {
		return join(m[3], m[2], m[1])
	}
	if m := datePatternDash.FindStringSubmatch(s); m != nil {
		return join(m[3], m[2], m[1])
	}
	return s
}

func join(year, month, day string) string {
	return year + "-" + pad2(month) + "-" + pad2(day)
}

func pad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// Parse reads canonical date text as midnight in loc. It reports false for
// text that is not a real calendar date, such as passthrough values or
// "2024-13-45".
func Parse(canonical string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(Layout, canonical, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
