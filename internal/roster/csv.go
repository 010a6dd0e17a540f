package roster

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the ranking table as UTF-8 CSV with a byte-order mark so
// spreadsheet tools detect the encoding.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("writing bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.fields()); err != nil {
			return fmt.Errorf("writing row %d: %w", r.TopicID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// readCSVTable parses a CSV file, tolerating a leading BOM, ragged rows and
// stray quotes.
func readCSVTable(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, []byte(bom)) {
		_, _ = br.Discard(len(bom))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var table [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		table = append(table, rec)
	}
	return table, nil
}
