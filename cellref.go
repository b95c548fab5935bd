// Package sheetsync implements the document model for a collaborative
// spreadsheet: cell references, data-type validation, formula evaluation,
// and row/column structural operations over an in-memory cell map.
package sheetsync

import (
	"fmt"
	"strings"
)

// CellRef identifies a single cell by zero-based row and column indices.
type CellRef struct {
	Row int // 0-based row index
	Col int // 0-based column index
}

// NewCellRef creates a CellRef with explicit row and column.
func NewCellRef(row, col int) CellRef {
	return CellRef{Row: row, Col: col}
}

// ParseCellRef parses an A1-notation cell reference like "A1" or "$B$12".
func ParseCellRef(s string) (CellRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellRef{}, fmt.Errorf("empty cell reference")
	}

	s = strings.ReplaceAll(s, "$", "")

	i := 0
	for i < len(s) && isAlpha(s[i]) {
		i++
	}
	if i == 0 || i == len(s) {
		return CellRef{}, fmt.Errorf("invalid cell reference: %q", s)
	}

	col, err := NameToCol(s[:i])
	if err != nil {
		return CellRef{}, fmt.Errorf("invalid cell reference %q: %w", s, err)
	}

	rowNum := 0
	for _, ch := range s[i:] {
		if ch < '0' || ch > '9' {
			return CellRef{}, fmt.Errorf("invalid row in cell reference: %q", s)
		}
		rowNum = rowNum*10 + int(ch-'0')
	}
	if rowNum < 1 {
		return CellRef{}, fmt.Errorf("invalid row number in cell reference: %q", s)
	}

	return CellRef{Row: rowNum - 1, Col: col}, nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// ID formats the CellRef as an A1-notation coordinate string like "B12".
func (c CellRef) ID() string {
	return ColToName(c.Col) + fmt.Sprintf("%d", c.Row+1)
}

// String returns the A1-notation form of the reference.
func (c CellRef) String() string {
	return c.ID()
}

// InBounds reports whether the reference lies inside a grid of the given
// dimensions.
func (c CellRef) InBounds(rows, cols int) bool {
	return c.Row >= 0 && c.Row < rows && c.Col >= 0 && c.Col < cols
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA"
func ColToName(col int) string {
	result := ""
	col++ // convert to 1-based for algorithm
	for col > 0 {
		col-- // adjust for 0-indexed letter
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// NameToCol converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func NameToCol(name string) (int, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// RangeRef represents a rectangular cell range defined by two references.
type RangeRef struct {
	Start CellRef
	End   CellRef
}

// ParseRangeRef parses a range reference string like "A1:C5". The two
// endpoints may be given in any order; use Normalize for a canonical form.
func ParseRangeRef(s string) (RangeRef, error) {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return RangeRef{}, fmt.Errorf("invalid range reference (missing ':'): %q", s)
	}

	start, err := ParseCellRef(parts[0])
	if err != nil {
		return RangeRef{}, fmt.Errorf("invalid range reference %q: %w", s, err)
	}

	end, err := ParseCellRef(parts[1])
	if err != nil {
		return RangeRef{}, fmt.Errorf("invalid range reference %q: %w", s, err)
	}

	return RangeRef{Start: start, End: end}, nil
}

// Normalize returns an equivalent range with Start ≤ End on both axes.
func (r RangeRef) Normalize() RangeRef {
	out := r
	if out.Start.Row > out.End.Row {
		out.Start.Row, out.End.Row = out.End.Row, out.Start.Row
	}
	if out.Start.Col > out.End.Col {
		out.Start.Col, out.End.Col = out.End.Col, out.Start.Col
	}
	return out
}

// Clamp restricts both endpoints to a grid of the given dimensions. The
// result is normalized.
func (r RangeRef) Clamp(rows, cols int) RangeRef {
	n := r.Normalize()
	n.Start.Row = clamp(n.Start.Row, 0, rows-1)
	n.Start.Col = clamp(n.Start.Col, 0, cols-1)
	n.End.Row = clamp(n.End.Row, 0, rows-1)
	n.End.Col = clamp(n.End.Col, 0, cols-1)
	return n
}

// Contains reports whether the given reference lies within the range.
func (r RangeRef) Contains(ref CellRef) bool {
	n := r.Normalize()
	return ref.Row >= n.Start.Row && ref.Row <= n.End.Row &&
		ref.Col >= n.Start.Col && ref.Col <= n.End.Col
}

// Size returns the dimensions of the range.
func (r RangeRef) Size() (rows, cols int) {
	n := r.Normalize()
	return n.End.Row - n.Start.Row + 1, n.End.Col - n.Start.Col + 1
}

// Refs returns every cell reference in the range in row-major order,
// inclusive of both endpoints.
func (r RangeRef) Refs() []CellRef {
	n := r.Normalize()
	rows, cols := r.Size()
	refs := make([]CellRef, 0, rows*cols)
	for row := n.Start.Row; row <= n.End.Row; row++ {
		for col := n.Start.Col; col <= n.End.Col; col++ {
			refs = append(refs, CellRef{Row: row, Col: col})
		}
	}
	return refs
}

// String formats the range as "A1:C5" in normalized order.
func (r RangeRef) String() string {
	n := r.Normalize()
	return n.Start.ID() + ":" + n.End.ID()
}
