package sheetsync

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the document as an Excel workbook to w. Numbers are
// written as numeric cells, formulas as live Excel formulas (SUM, AVERAGE
// and COUNT share Excel's semantics over plain ranges), everything else as
// strings.
func ExportXLSX(doc *Document, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	for id, cell := range doc.Cells {
		if cell.DataType == TypeEmpty {
			continue
		}
		if _, err := ParseCellRef(id); err != nil {
			continue
		}

		switch cell.DataType {
		case TypeNumber:
			num, err := strconv.ParseFloat(cell.Value, 64)
			if err != nil {
				if err := f.SetCellValue(sheet, id, cell.Value); err != nil {
					return fmt.Errorf("set cell %s: %w", id, err)
				}
				continue
			}
			if err := f.SetCellValue(sheet, id, num); err != nil {
				return fmt.Errorf("set cell %s: %w", id, err)
			}
		case TypeFormula:
			formula := strings.TrimPrefix(cell.RawValue, "=")
			if err := f.SetCellFormula(sheet, id, formula); err != nil {
				return fmt.Errorf("set formula %s: %w", id, err)
			}
		default:
			if err := f.SetCellValue(sheet, id, cell.RawValue); err != nil {
				return fmt.Errorf("set cell %s: %w", id, err)
			}
		}
	}

	if err := f.SetSheetName(sheet, SafeSheetName(doc.Metadata.Title)); err != nil {
		return fmt.Errorf("set sheet name: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SafeSheetName sanitizes a string for use as an Excel sheet name.
// It replaces forbidden characters ([]*?/\:) with underscore and truncates
// to 31 chars.
func SafeSheetName(name string) string {
	forbidden := []rune{'/', '\\', ':', '*', '?', '[', ']'}
	runes := []rune(name)
	for i, r := range runes {
		for _, f := range forbidden {
			if r == f {
				runes[i] = '_'
				break
			}
		}
	}
	if len(runes) > 31 {
		runes = runes[:31]
	}
	if len(runes) == 0 {
		return "Sheet1"
	}
	return string(runes)
}
