// Package extractor selects the invoices of a parsed sheet that are due soon.
package extractor

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/insightdelivered/due-invoice-extractor/internal/columns"
	"github.com/insightdelivered/due-invoice-extractor/internal/dates"
	"github.com/insightdelivered/due-invoice-extractor/internal/duedate"
	"github.com/insightdelivered/due-invoice-extractor/internal/models"
	"github.com/insightdelivered/due-invoice-extractor/internal/reader"
)

// ErrEmptyInput means the file parsed but held no data rows.
var ErrEmptyInput = errors.New("file is empty or could not be parsed")

// Window bounds days_left, inclusive on both ends.
type Window struct {
	Min int
	Max int
}

// DefaultWindow keeps invoices overdue by up to 30 days or due within 7.
var DefaultWindow = Window{Min: -30, Max: 7}

// Contains reports whether daysLeft falls inside the window.
func (w Window) Contains(daysLeft int) bool {
	return daysLeft >= w.Min && daysLeft <= w.Max
}

// Extractor turns parsed rows into due records. The zero value is not
// usable; build one with New.
type Extractor struct {
	Fields []columns.Field
	Window Window
	Now    func() time.Time
}

// New returns an Extractor using the invoice field table, the default
// window and the wall clock.
func New() *Extractor {
	return &Extractor{
		Fields: columns.InvoiceFields,
		Window: DefaultWindow,
		Now:    time.Now,
	}
}

// Extract returns the records of rows that name a party and a bill and are
// due inside the window, in input order. The current day is read once.
func (e *Extractor) Extract(rows []models.Row) []models.DueRecord {
	resolver := duedate.New(e.Now())
	records := make([]models.DueRecord, 0)
	slog.Debug("resolving due dates", "today", resolver.Today().Format(dates.Layout), "rows", len(rows))

	for i, row := range rows {
		found := columns.ResolveAll(row, e.Fields)

		party := text(found[columns.PartyName])
		billNo := text(found[columns.BillNo])
		if party == "" || billNo == "" {
			slog.Debug("skipping row without party or bill number", "row", i+1)
			continue
		}

		res, ok := resolver.Resolve(found[columns.DueDate], found[columns.DueDays])
		if !ok {
			slog.Debug("skipping row without due information", "row", i+1, "bill_no", billNo)
			continue
		}
		if !e.Window.Contains(res.DaysLeft) {
			continue
		}

		record := models.DueRecord{
			PartyName:  party,
			BillNo:     billNo,
			BillDate:   dates.Normalize(found[columns.BillDate]),
			DueDate:    res.DueDate,
			BillAmount: text(found[columns.BillAmount]),
			DaysLeft:   res.DaysLeft,
		}
		if gstin := text(found[columns.PartyGSTIN]); gstin != "" {
			record.PartyGSTIN = gstin
		}
		records = append(records, record)
	}

	return records
}

// Process parses an uploaded file and extracts its due records. Errors are
// a *reader.ParseError or ErrEmptyInput; no partial result is returned.
func (e *Extractor) Process(data []byte, mediaType string) (*models.ProcessResult, error) {
	rows, err := reader.Parse(data, mediaType)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	records := e.Extract(rows)
	slog.Info("extracted due records", "rows", len(rows), "due_records", len(records))

	return &models.ProcessResult{
		Status:     "success",
		DueRecords: records,
	}, nil
}

// text renders a resolved cell as trimmed text. Absent cells are "".
func text(v models.Cell) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}
