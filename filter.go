package sheetsync

import (
	"fmt"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// CellMatch is one result of a filter query: the coordinate plus the
// matched cell's state.
type CellMatch struct {
	ID   string `json:"id"`
	Cell *Cell  `json:"cell"`
}

// Filter evaluates boolean predicates over the cells of a document.
// Predicates are expr-lang expressions with the following environment per
// cell: id, value, raw, type, valid, row, col, revision.
//
// Example: `type == "number" && float(value) > 100`
type Filter struct {
	cache sync.Map // expression string → compiled *vm.Program
}

// NewFilter creates a Filter with an empty compilation cache.
func NewFilter() *Filter {
	return &Filter{}
}

func filterEnv(id string, ref CellRef, cell *Cell) map[string]any {
	return map[string]any{
		"id":       id,
		"value":    cell.Value,
		"raw":      cell.RawValue,
		"type":     cell.DataType.String(),
		"valid":    cell.IsValid,
		"row":      ref.Row,
		"col":      ref.Col,
		"revision": int(cell.Revision),
	}
}

// Compile checks the predicate's syntax and caches the compiled program.
func (f *Filter) Compile(predicate string) (*vm.Program, error) {
	if cached, ok := f.cache.Load(predicate); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(predicate,
		expr.Env(filterEnv("", CellRef{}, &Cell{})),
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", predicate, err)
	}
	f.cache.Store(predicate, program)
	return program, nil
}

// Match returns all non-empty cells for which the predicate evaluates to
// true, ordered by coordinate (row-major). A predicate that errors on an
// individual cell skips that cell rather than failing the whole query.
func (f *Filter) Match(doc *Document, predicate string) ([]CellMatch, error) {
	program, err := f.Compile(predicate)
	if err != nil {
		return nil, err
	}

	var matches []CellMatch
	for id, cell := range doc.Cells {
		if cell.DataType == TypeEmpty {
			continue
		}
		ref, err := ParseCellRef(id)
		if err != nil {
			continue
		}
		result, err := expr.Run(program, filterEnv(id, ref, cell))
		if err != nil {
			continue
		}
		if matched, ok := result.(bool); ok && matched {
			matches = append(matches, CellMatch{ID: id, Cell: cell})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, _ := ParseCellRef(matches[i].ID)
		b, _ := ParseCellRef(matches[j].ID)
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return matches, nil
}
