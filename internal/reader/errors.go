package reader

import "fmt"

// ParseError reports that an upload could not be read as tabular data.
type ParseError struct {
	Format string // "csv", "xlsx" or "xls"
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s file: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(format string, err error) *ParseError {
	return &ParseError{Format: format, Err: err}
}
