/*
PURPOSE:
  Writes the signal matrix to a CSV file for spreadsheet comparison.

REQUIREMENTS:
  User-specified:
  - Optional CSV export (--csv) of the same rows the console matrix shows.

  Implementation-discovered:
  - Columns follow the active rule table, so a custom table changes the
    header automatically.
  - Failed records are not matrix rows and are not exported here; the
    JSON artifact keeps them.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go
  - Consumes: internal/output.MatrixRow

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write.

USAGE:
  w, err := output.NewCSVWriter("matrix.csv", classifier.Rules())
  w.Write(row)
  w.Close()
*/

package output

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"

	"github.com/daryltucker/variant-runner/internal/signals"
)

// CSVWriter handles writing matrix rows to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	rules  []signals.Rule
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string, rules []signals.Rule) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)

	header := []string{"model", "prompt", "task"}
	for _, r := range rules {
		header = append(header, string(r.Category))
	}
	header = append(header, "total")
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVWriter{
		file:   f,
		writer: w,
		rules:  rules,
	}, nil
}

// Write writes a single matrix row.
// It is thread-safe.
func (cw *CSVWriter) Write(row MatrixRow) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	record := []string{row.Model, row.Prompt, row.Task}
	for _, r := range cw.rules {
		record = append(record, strconv.Itoa(row.Vector.Get(r.Category)))
	}
	record = append(record, strconv.Itoa(row.Vector.Total()))

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}

// WriteMatrixCSV writes all rows to path.
func WriteMatrixCSV(path string, rows []MatrixRow, rules []signals.Rule) error {
	w, err := NewCSVWriter(path, rules)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
