package sheetsync

import (
	"fmt"
	"time"
)

// Default grid dimensions: columns A-Z, rows 1-100.
const (
	DefaultColumns = 26
	DefaultRows    = 100
)

// Cell holds the stored state of a single spreadsheet cell.
//
// Value is the display form (formatted number, formula result, or the text
// itself); RawValue is what the user typed. Cells are never deleted, only
// overwritten to empty.
type Cell struct {
	Value            string    `json:"value"`
	RawValue         string    `json:"raw_value"`
	DataType         DataType  `json:"data_type"`
	IsValid          bool      `json:"is_valid"`
	ValidationErrors []string  `json:"validation_errors,omitempty"`
	LastModifiedBy   string    `json:"last_modified_by,omitempty"`
	LastModifiedAt   time.Time `json:"last_modified_at"`
	Revision         uint64    `json:"revision"`
}

// Clone returns a deep copy of the cell.
func (c *Cell) Clone() *Cell {
	out := *c
	if c.ValidationErrors != nil {
		out.ValidationErrors = append([]string(nil), c.ValidationErrors...)
	}
	return &out
}

// Metadata holds document-level attributes.
type Metadata struct {
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// Document is the aggregate spreadsheet state: a cell map keyed by
// A1-notation coordinate plus fixed grid dimensions and metadata.
//
// Document is not safe for concurrent use; callers serialize access
// (the relay hub funnels every mutation through a single goroutine).
type Document struct {
	Cells    map[string]*Cell `json:"cells"`
	Columns  int              `json:"columns"`
	Rows     int              `json:"rows"`
	Metadata Metadata         `json:"metadata"`

	validator Validator
	evaluator Evaluator
	now       func() time.Time
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithTitle sets the document title.
func WithTitle(title string) DocumentOption {
	return func(d *Document) { d.Metadata.Title = title }
}

// WithDimensions sets the grid size. Non-positive values keep the defaults.
func WithDimensions(rows, cols int) DocumentOption {
	return func(d *Document) {
		if rows > 0 {
			d.Rows = rows
		}
		if cols > 0 {
			d.Columns = cols
		}
	}
}

// WithDateOrder sets how ambiguous numeric dates are interpreted.
func WithDateOrder(order DateOrder) DocumentOption {
	return func(d *Document) { d.validator.DateOrder = order }
}

// WithStrictNumeric restricts formula ranges to cells whose detected type
// is number. The default (lenient) also coerces text cells that parse as
// numbers.
func WithStrictNumeric(strict bool) DocumentOption {
	return func(d *Document) { d.evaluator.StrictNumeric = strict }
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) DocumentOption {
	return func(d *Document) { d.now = now }
}

// NewDocument creates an empty document with default dimensions.
func NewDocument(opts ...DocumentOption) *Document {
	d := &Document{
		Cells:   make(map[string]*Cell),
		Columns: DefaultColumns,
		Rows:    DefaultRows,
		now:     time.Now,
	}
	d.Metadata.Title = "Untitled Spreadsheet"
	for _, opt := range opts {
		opt(d)
	}
	d.Metadata.CreatedAt = d.now()
	d.Metadata.LastModified = d.Metadata.CreatedAt
	return d
}

// Validator returns the document's configured validator.
func (d *Document) Validator() Validator {
	return d.validator
}

// CellAt returns the cell at the given coordinate, or nil if it was never
// written.
func (d *Document) CellAt(id string) *Cell {
	return d.Cells[id]
}

// SetCell validates raw, evaluates it if it is a formula, and overwrites
// the cell unconditionally (last write wins). The returned cell is the
// stored instance.
func (d *Document) SetCell(id, raw, userID string) (*Cell, error) {
	ref, err := ParseCellRef(id)
	if err != nil {
		return nil, err
	}
	if !ref.InBounds(d.Rows, d.Columns) {
		return nil, fmt.Errorf("cell %s out of bounds (%dx%d grid)", ref.ID(), d.Rows, d.Columns)
	}

	vr := d.validator.Validate(raw)

	cell := &Cell{
		Value:            vr.FormattedValue,
		RawValue:         raw,
		DataType:         vr.DetectedType,
		IsValid:          vr.IsValid,
		ValidationErrors: vr.Errors,
		LastModifiedBy:   userID,
		LastModifiedAt:   d.now(),
		Revision:         1,
	}
	if prev := d.Cells[ref.ID()]; prev != nil {
		cell.Revision = prev.Revision + 1
	}

	if vr.DetectedType == TypeFormula {
		cell.Value = d.evaluator.DisplayValue(raw, d)
	}

	d.Cells[ref.ID()] = cell
	d.Metadata.LastModified = cell.LastModifiedAt
	return cell, nil
}

// RowOperation applies an insert or delete at the given row pivot and
// returns whether the document changed. Out-of-range pivots are clamped
// into the grid rather than rejected.
func (d *Document) RowOperation(op string, index int) (bool, error) {
	index = clamp(index, 0, d.Rows-1)
	switch op {
	case "insert":
		d.shiftCells(func(ref CellRef) (CellRef, bool) {
			if ref.Row >= index {
				ref.Row++
			}
			return ref, ref.Row < d.Rows
		})
	case "delete":
		d.shiftCells(func(ref CellRef) (CellRef, bool) {
			if ref.Row == index {
				return ref, false
			}
			if ref.Row > index {
				ref.Row--
			}
			return ref, true
		})
	default:
		return false, fmt.Errorf("unknown row operation: %q", op)
	}
	d.Metadata.LastModified = d.now()
	d.Recalculate()
	return true, nil
}

// ColumnOperation applies an insert or delete at the given column pivot.
func (d *Document) ColumnOperation(op string, index int) (bool, error) {
	index = clamp(index, 0, d.Columns-1)
	switch op {
	case "insert":
		d.shiftCells(func(ref CellRef) (CellRef, bool) {
			if ref.Col >= index {
				ref.Col++
			}
			return ref, ref.Col < d.Columns
		})
	case "delete":
		d.shiftCells(func(ref CellRef) (CellRef, bool) {
			if ref.Col == index {
				return ref, false
			}
			if ref.Col > index {
				ref.Col--
			}
			return ref, true
		})
	default:
		return false, fmt.Errorf("unknown column operation: %q", op)
	}
	d.Metadata.LastModified = d.now()
	d.Recalculate()
	return true, nil
}

// shiftCells rebuilds the cell map, remapping each coordinate through fn.
// A false return from fn drops the cell.
func (d *Document) shiftCells(fn func(CellRef) (CellRef, bool)) {
	shifted := make(map[string]*Cell, len(d.Cells))
	for id, cell := range d.Cells {
		ref, err := ParseCellRef(id)
		if err != nil {
			continue // unreachable for keys written through SetCell
		}
		newRef, keep := fn(ref)
		if !keep {
			continue
		}
		shifted[newRef.ID()] = cell
	}
	d.Cells = shifted
}

// Recalculate re-evaluates the display value of every formula cell.
// There is no dependency graph; each formula is evaluated independently
// against the current cell map.
func (d *Document) Recalculate() {
	for _, cell := range d.Cells {
		if cell.DataType == TypeFormula {
			cell.Value = d.evaluator.DisplayValue(cell.RawValue, d)
		}
	}
}

// Snapshot returns a deep copy of the document state, safe to hand to
// another goroutine for serialization.
func (d *Document) Snapshot() *Document {
	out := &Document{
		Cells:    make(map[string]*Cell, len(d.Cells)),
		Columns:  d.Columns,
		Rows:     d.Rows,
		Metadata: d.Metadata,
	}
	for id, cell := range d.Cells {
		out.Cells[id] = cell.Clone()
	}
	return out
}

// Reset discards all cells and restores initial metadata, keeping the
// configured title and dimensions.
func (d *Document) Reset() {
	d.Cells = make(map[string]*Cell)
	d.Metadata.CreatedAt = d.now()
	d.Metadata.LastModified = d.Metadata.CreatedAt
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
