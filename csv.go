package sheetsync

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// ExportCSV renders the document's occupied region as CSV text. Cells are
// exported as their raw values so formulas survive a round trip; the region
// is trimmed to the bounding box of non-empty cells.
func ExportCSV(doc *Document) (string, error) {
	maxRow, maxCol := -1, -1
	for id, cell := range doc.Cells {
		if cell.DataType == TypeEmpty {
			continue
		}
		ref, err := ParseCellRef(id)
		if err != nil {
			continue
		}
		if ref.Row > maxRow {
			maxRow = ref.Row
		}
		if ref.Col > maxCol {
			maxCol = ref.Col
		}
	}
	if maxRow < 0 {
		return "", nil
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	record := make([]string, maxCol+1)
	for row := 0; row <= maxRow; row++ {
		for col := 0; col <= maxCol; col++ {
			record[col] = ""
			if cell := doc.CellAt(CellRef{Row: row, Col: col}.ID()); cell != nil {
				record[col] = cell.RawValue
			}
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv row %d: %w", row+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return sb.String(), nil
}

// ImportCSV replaces the document's cells with the parsed CSV content.
// Rows and columns beyond the grid bounds are dropped; blank fields are
// skipped rather than stored. Formula cells are recalculated once the full
// grid is loaded so ranges resolve against the imported data.
func ImportCSV(doc *Document, content, userID string) error {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1 // ragged rows are fine

	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	doc.Reset()
	for row, record := range records {
		if row >= doc.Rows {
			break
		}
		for col, field := range record {
			if col >= doc.Columns {
				break
			}
			if strings.TrimSpace(field) == "" {
				continue
			}
			if _, err := doc.SetCell(CellRef{Row: row, Col: col}.ID(), field, userID); err != nil {
				return fmt.Errorf("import cell %s: %w", CellRef{Row: row, Col: col}.ID(), err)
			}
		}
	}

	doc.Recalculate()
	return nil
}

// ExportFilename derives a download filename from the document title,
// e.g. "Untitled Spreadsheet" → "untitled_spreadsheet.csv".
func ExportFilename(doc *Document, ext string) string {
	title := strings.ToLower(strings.TrimSpace(doc.Metadata.Title))
	var sb strings.Builder
	pendingSep := false
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
			pendingSep = false
		} else {
			pendingSep = true
		}
	}
	slug := sb.String()
	if slug == "" {
		slug = "spreadsheet"
	}
	return slug + "." + ext
}
