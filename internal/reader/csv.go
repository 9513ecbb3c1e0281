package reader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// delimiters tried when sniffing a CSV header line, in preference order.
var delimiters = []rune{',', ';', '\t', '|'}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, errors.New("content is binary, not delimited text")
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var grid [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		grid = append(grid, record)
	}
	return grid, nil
}

// sniffDelimiter picks the candidate that occurs most often, outside quotes,
// in the first record. A newline inside a quoted header does not end the
// record. Comma wins ties and the no-delimiter case.
func sniffDelimiter(data []byte) rune {
	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, r := range string(data) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		if r == '\n' {
			break
		}
		counts[r]++
	}

	best := delimiters[0]
	for _, d := range delimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}
