package roster

import (
	"fmt"
	"io"
	"strings"

	"github.com/p-n-ai/dia-canvas/internal/progress"
)

// Format is a spreadsheet file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks a format from a file name or format string, defaulting
// to CSV.
func FormatFor(name string) Format {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "xlsx" || strings.HasSuffix(n, ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Export writes the ranking table in the requested format.
func Export(w io.Writer, format Format, rows []Row) error {
	if format == FormatXLSX {
		return WriteXLSX(w, rows)
	}
	return WriteCSV(w, rows)
}

// ReadTable parses a spreadsheet into raw rows.
func ReadTable(r io.Reader, format Format) ([][]string, error) {
	if format == FormatXLSX {
		return readXLSXTable(r)
	}
	return readCSVTable(r)
}

// Import parses topic records from a spreadsheet. It returns ErrNoRecords
// when no row carries a topic id.
func Import(r io.Reader, format Format) ([]progress.TopicRecord, error) {
	table, err := ReadTable(r, format)
	if err != nil {
		return nil, err
	}
	records := parseRecords(table)
	if len(records) == 0 {
		return nil, fmt.Errorf("import %s: %w", format, ErrNoRecords)
	}
	return records, nil
}
