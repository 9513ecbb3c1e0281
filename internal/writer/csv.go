package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/due-invoice-extractor/internal/models"
)

// columns is the CSV header, in the field order of models.DueRecord.
var columns = []string{"party_name", "bill_no", "bill_date", "due_date", "bill_amount", "days_left", "party_gstin"}

// CSVWriter writes due records to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes records to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, records []models.DueRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, records)
}

// Write writes records in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, records []models.DueRecord) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		if err := writer.Write(columns); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, r := range records {
		row := []string{
			r.PartyName,
			r.BillNo,
			r.BillDate,
			r.DueDate,
			r.BillAmount,
			strconv.Itoa(r.DaysLeft),
			r.PartyGSTIN,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
