// Package columns finds semantic fields in rows whose headers vary between
// spreadsheet authors.
package columns

import (
	"strings"

	"github.com/insightdelivered/due-invoice-extractor/internal/models"
)

// Normalize lower-cases a header and drops everything but ASCII letters and
// digits, so "Party's GSTIN#" becomes "partysgstin".
func Normalize(header string) string {
	var b strings.Builder
	b.Grow(len(header))
	for _, r := range strings.ToLower(header) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve returns the value of the first header, in source column order,
// whose normalized form contains any of the candidates as a substring.
// The boolean is false when no header matches.
func Resolve(row models.Row, candidates []string) (models.Cell, bool) {
	for _, header := range row.Headers {
		normalized := Normalize(header)
		for _, c := range candidates {
			if strings.Contains(normalized, c) {
				return row.Values[header], true
			}
		}
	}
	return nil, false
}

// ResolveAll resolves every field against row. Fields without a matching
// header are absent from the result.
func ResolveAll(row models.Row, fields []Field) map[string]models.Cell {
	found := make(map[string]models.Cell, len(fields))
	for _, f := range fields {
		if v, ok := Resolve(row, f.Candidates); ok {
			found[f.Name] = v
		}
	}
	return found
}
