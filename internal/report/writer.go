package report

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
)

// Writer emits comma separated records, flushing after each line. Fields
// holding a comma, a quote or a line break are quoted.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer on w
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// Write writes one record and flushes it
func (w *Writer) Write(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// WriteAll writes the header followed by every row
func (w *Writer) WriteAll(header []string, rows [][]string) error {
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile creates or truncates path and writes the header and rows to it.
// The file is closed on every path; failures come back as *WriteError.
func WriteFile(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &WriteError{Path: path, Err: cerr}
		}
	}()

	if err := NewWriter(f).WriteAll(header, rows); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// UserRows renders users in UsersHeader order
func UserRows(users []UserRecord) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, u.Row())
	}
	return rows
}

// FindingRows renders findings in SecretsHeader order
func FindingRows(findings []FindingRecord, includeAssignee bool) [][]string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, f.Row(includeAssignee))
	}
	return rows
}

// IsWriteError reports whether err came from writing the report file
func IsWriteError(err error) bool {
	return errors.Is(err, ErrWrite)
}
