package models

import "time"

// Cell is a single spreadsheet cell value: string, float64, int or time.Time.
// Readers in this module only produce strings; other kinds come from callers
// that build rows directly.
type Cell any

// Row is one data line of a sheet keyed by its original header text.
// Headers keeps the source column order, since map iteration does not.
type Row struct {
	Headers []string
	Values  map[string]Cell
}

// NewRow builds a Row from parallel header and value slices. Missing values
// default to the empty string so every header is present.
func NewRow(headers []string, values []string) Row {
	row := Row{
		Headers: headers,
		Values:  make(map[string]Cell, len(headers)),
	}
	for i, h := range headers {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		row.Values[h] = v
	}
	return row
}

// DueRecord is one invoice whose due date falls inside the extraction window.
type DueRecord struct {
	PartyName  string `json:"party_name"`
	BillNo     string `json:"bill_no"`
	BillDate   string `json:"bill_date"`
	DueDate    string `json:"due_date"`
	BillAmount string `json:"bill_amount"`
	DaysLeft   int    `json:"days_left"` // negative = overdue
	PartyGSTIN string `json:"party_gstin,omitempty"`
}

// ProcessResult is what the extraction pipeline hands back to its caller.
type ProcessResult struct {
	Status     string      `json:"status"`
	DueRecords []DueRecord `json:"due_records"`
}

// UploadStatus records how processing of an uploaded file ended.
type UploadStatus string

const (
	UploadCompleted UploadStatus = "completed"
	UploadFailed    UploadStatus = "failed"
)

// Upload is the bookkeeping entry written for every processed file.
type Upload struct {
	ID              string       `json:"id"`
	FileName        string       `json:"file_name"`
	FilePath        string       `json:"file_path"`
	FileSize        int64        `json:"file_size"`
	MimeType        string       `json:"mime_type"`
	Status          UploadStatus `json:"status"`
	DueRecordsCount int          `json:"due_records_count"`
	Error           string       `json:"error,omitempty"`
	ProcessedAt     time.Time    `json:"processed_at"`
}
