package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/outlined/internal/outline"
)

// CSVExtractor handles CSV files: row batches become level-1 sections so
// large sheets stay navigable.
type CSVExtractor struct{}

const csvBatchSize = 20

func (x *CSVExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	title := titleFromFilename(filename)
	if len(records) == 0 {
		return &Document{Title: title}, nil
	}

	headers := records[0]
	dataRows := records[1:]

	var buf strings.Builder
	var entries []outline.Entry

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		label := fmt.Sprintf("Rows %d-%d", i+2, end+1) // 1-indexed, skip header
		entries = append(entries, outline.Entry{
			Level: 1,
			Text:  label,
			Pos:   buf.Len(),
		})
		buf.WriteString(label)
		buf.WriteString("\n\n")

		for _, row := range dataRows[i:end] {
			for j, cell := range row {
				if j < len(headers) {
					buf.WriteString(headers[j] + ": " + cell)
				} else {
					buf.WriteString(cell)
				}
				if j < len(row)-1 {
					buf.WriteString(", ")
				}
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	text := buf.String()
	return &Document{
		Title:   title,
		Text:    text,
		Entries: closeSections(entries, len(text)),
	}, nil
}
