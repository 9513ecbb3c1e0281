// Package duedate reconciles an explicit due date or a "days until due"
// figure into a canonical due date and a signed day count.
package duedate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/due-invoice-extractor/internal/dates"
)

// Resolution is the outcome for one row.
type Resolution struct {
	DueDate  string // canonical YYYY-MM-DD
	DaysLeft int    // negative = overdue
}

// Resolver evaluates every row of one pipeline run against the same day.
type Resolver struct {
	today time.Time
}

// New returns a Resolver for the calendar day of now in now's location.
func New(now time.Time) Resolver {
	return Resolver{today: Midnight(now)}
}

// Today is the midnight the resolver counts from.
func (r Resolver) Today() time.Time {
	return r.today
}

// Midnight truncates t to the start of its calendar day in its own location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// leadingInt matches the integer prefix a days figure starts with.
var leadingInt = regexp.MustCompile(`^\s*([+-]?\d+)`)

// Resolve prefers the due date when it names a real calendar date, and
// otherwise falls back to the days figure. It reports false when neither
// value yields a date; such rows carry no due information and are dropped.
func (r Resolver) Resolve(dueValue, daysValue any) (Resolution, bool) {
	if present(dueValue) {
		canonical := dates.Normalize(dueValue)
		if due, ok := dates.Parse(canonical, r.today.Location()); ok {
			return Resolution{DueDate: canonical, DaysLeft: daysBetween(r.today, due)}, true
		}
	}

	if present(daysValue) {
		if n, ok := parseDays(daysValue); ok {
			due := r.today.AddDate(0, 0, n)
			return Resolution{DueDate: due.Format(dates.Layout), DaysLeft: n}, true
		}
	}

	return Resolution{}, false
}

// daysBetween counts calendar days from a to b. Both are midnights in the
// same location, so rounding absorbs DST shifts.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// parseDays reads the leading integer of a days figure: "5 days" is 5 and
// "5.9" is 5.
func parseDays(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	}

	m := leadingInt.FindStringSubmatch(fmt.Sprint(value))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case time.Time:
		return !v.IsZero()
	default:
		return true
	}
}
