package reader

import (
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"zip container", []byte("PK\x03\x04rest"), FormatXLSX},
		{"ole container", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}, FormatXLS},
		{"plain text", []byte("Party,Bill\n"), FormatCSV},
		{"empty", nil, FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.data); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfParty Name,Bill No,Due Date,Amount\n" +
		"Acme,INV-1,2024-01-10,100.00\n" +
		"\n" +
		"Beta,INV-2\n")

	rows, err := Parse(data, "text/csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}

	first := rows[0]
	wantHeaders := []string{"Party Name", "Bill No", "Due Date", "Amount"}
	if len(first.Headers) != len(wantHeaders) {
		t.Fatalf("headers: got %v, want %v", first.Headers, wantHeaders)
	}
	for i, h := range wantHeaders {
		if first.Headers[i] != h {
			t.Errorf("header[%d]: got %q, want %q", i, first.Headers[i], h)
		}
	}
	if first.Values["Due Date"] != "2024-01-10" {
		t.Errorf("Due Date: got %v", first.Values["Due Date"])
	}

	// Short lines are padded so every header is present.
	second := rows[1]
	v, ok := second.Values["Amount"]
	if !ok {
		t.Fatal("expected Amount key on short row")
	}
	if v != "" {
		t.Errorf("Amount: got %v, want empty", v)
	}
}

func TestParseCSVSemicolon(t *testing.T) {
	data := []byte("Customer;Invoice;Due\nGamma;G-3;01/03/2024\n")

	rows, err := Parse(data, "text/csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	if rows[0].Values["Invoice"] != "G-3" {
		t.Errorf("Invoice: got %v", rows[0].Values["Invoice"])
	}
}

func TestParseCSVQuotedHeaderNewline(t *testing.T) {
	data := []byte("\"Party, Full\nName\";Invoice;Due\nGamma;G-3;01/03/2024\n")

	rows, err := Parse(data, "text/csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	if got := rows[0].Values["Party, Full\nName"]; got != "Gamma" {
		t.Errorf("Party: got %v, want Gamma", got)
	}
	if got := rows[0].Values["Due"]; got != "01/03/2024" {
		t.Errorf("Due: got %v, want 01/03/2024", got)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"header only", []byte("Party,Bill,Due\n")},
		{"zero bytes", []byte{}},
		{"blank lines", []byte("\n\n,,\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Parse(tt.data, "text/csv")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rows) != 0 {
				t.Errorf("rows: got %d, want 0", len(rows))
			}
		})
	}
}

func TestParseCorrupt(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"truncated zip", []byte("PK\x03\x04not really a workbook"), "xlsx"},
		{"binary blob", []byte{'a', 0x00, 'b', 0x01}, "csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data, "application/octet-stream")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Format != tt.format {
				t.Errorf("format: got %q, want %q", perr.Format, tt.format)
			}
			if perr.Unwrap() == nil {
				t.Error("expected wrapped cause")
			}
		})
	}
}

func TestParseXLSXFirstSheetOnly(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	f.SetCellValue(sheet, "A1", "Party Name")
	f.SetCellValue(sheet, "B1", "Bill No")
	f.SetCellValue(sheet, "C1", "Due Days")
	f.SetCellValue(sheet, "A2", "Acme")
	f.SetCellValue(sheet, "B2", "INV-1")
	f.SetCellValue(sheet, "C2", 5)
	f.SetCellValue(sheet, "A3", "Beta")
	f.SetCellValue(sheet, "B3", "INV-2")

	if _, err := f.NewSheet("Archive"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	f.SetCellValue("Archive", "A1", "Ignored")
	f.SetCellValue("Archive", "A2", "never read")

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	rows, err := Parse(buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if rows[0].Values["Due Days"] != "5" {
		t.Errorf("Due Days: got %v (%T), want \"5\"", rows[0].Values["Due Days"], rows[0].Values["Due Days"])
	}
	if rows[1].Values["Due Days"] != "" {
		t.Errorf("missing cell: got %v, want empty", rows[1].Values["Due Days"])
	}
}

func TestHeaderNames(t *testing.T) {
	tests := []struct {
		name     string
		line     []string
		width    int
		expected []string
	}{
		{"unique", []string{"A", "B"}, 2, []string{"A", "B"}},
		{"duplicates", []string{"Date", "Date", "Date"}, 3, []string{"Date", "Date_1", "Date_2"}},
		{"blank", []string{"A", "", " "}, 3, []string{"A", "__EMPTY", "__EMPTY_1"}},
		{"wider data", []string{"A"}, 2, []string{"A", "__EMPTY"}},
		{"suffix collision", []string{"A", "A_1", "A"}, 3, []string{"A", "A_1", "A_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := headerNames(tt.line, tt.width)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("header[%d]: got %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		input    string
		expected rune
	}{
		{"a,b,c\n1,2,3", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"a|b", '|'},
		{`"x;y",b,c`, ','},
		{"single", ','},
		{"\"Party\nName\";Bill;Due\nAcme;1;2", ';'},
		{"\"a,\nb,c\"|x|y", '|'},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sniffDelimiter([]byte(tt.input)); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseXLSXDateCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	for cell, v := range map[string]any{
		"A1": "Party Name", "B1": "Bill No", "C1": "Bill Date", "D1": "Due Date", "E1": "Time", "F1": "Amount",
		"A2": "Acme", "B2": "INV-1",
		"C2": time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"D2": time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		"E2": 0.5,
		"F2": 1250,
	} {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatalf("SetCellValue %s: %v", cell, err)
		}
	}

	shortDate, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	custom := "dd/mm/yyyy"
	customDate, err := f.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	timeOnly, err := f.NewStyle(&excelize.Style{NumFmt: 20})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	f.SetCellStyle(sheet, "C2", "C2", customDate)
	f.SetCellStyle(sheet, "D2", "D2", shortDate)
	f.SetCellStyle(sheet, "E2", "E2", timeOnly)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	rows, err := Parse(buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}

	values := rows[0].Values
	if values["Due Date"] != "2024-01-10" {
		t.Errorf("Due Date: got %v, want 2024-01-10", values["Due Date"])
	}
	if values["Bill Date"] != "2024-01-02" {
		t.Errorf("Bill Date: got %v, want 2024-01-02", values["Bill Date"])
	}
	if values["Time"] == "" || values["Time"] == "1899-12-30" {
		t.Errorf("time-only cell should keep its display text, got %v", values["Time"])
	}
	if values["Amount"] != "1250" {
		t.Errorf("Amount: got %v, want 1250", values["Amount"])
	}
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		code     string
		expected bool
	}{
		{"dd/mm/yyyy", true},
		{"mmm d, yyyy", true},
		{"yyyy-mm-dd hh:mm", true},
		{"[$-409]d-mmm-yy", true},
		{"h:mm:ss", false},
		{"[h]:mm", false},
		{"#,##0.00", false},
		{`0 "days"`, false},
		{`\d0`, false},
		{"General", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := isDateFormat(tt.code); got != tt.expected {
				t.Errorf("isDateFormat(%q): got %v, want %v", tt.code, got, tt.expected)
			}
		})
	}
}

func TestIsBuiltinDateFormat(t *testing.T) {
	for _, id := range []int{14, 15, 16, 17, 22, 27, 36, 50, 58} {
		if !isBuiltinDateFormat(id) {
			t.Errorf("format %d should be a date format", id)
		}
	}
	for _, id := range []int{0, 1, 2, 18, 20, 21, 45, 47, 49} {
		if isBuiltinDateFormat(id) {
			t.Errorf("format %d should not be a date format", id)
		}
	}
}

func TestISODate(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"2024-01-10T00:00:00Z", "2024-01-10", true},
		{" 2023-12-31T00:00:00Z ", "2023-12-31", true},
		{"2024-01-10", "", false},
		{"45301", "", false},
		{"INV-1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := isoDate(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("isoDate(%q): got %q %v, want %q %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
