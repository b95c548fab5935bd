package sheetsync

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Formula evaluation errors. All evaluation failures wrap one of these so
// callers can classify with errors.Is; nothing in this file panics.
var (
	ErrInvalidFormula      = errors.New("invalid formula syntax")
	ErrUnsupportedFunction = errors.New("unsupported function")
	ErrArgCount            = errors.New("wrong argument count")
	ErrInvalidRange        = errors.New("invalid cell range")
)

// ErrorToken is rendered in place of a value when formula evaluation fails.
const ErrorToken = "#ERROR!"

// formulaRegexp matches "=FUNCTION(args)".
var formulaRegexp = regexp.MustCompile(`^=(\w+)\((.*)\)$`)

// ParsedFormula is the decomposed form of a formula string.
type ParsedFormula struct {
	Function string   // upper-cased function name
	Args     []string // raw argument strings, whitespace-trimmed
}

// ParseFormula decomposes a formula like "=SUM(A1:B10)" into its function
// name and arguments. It does not check that the function is supported.
// Surrounding whitespace is ignored, matching how type detection trims
// before classifying a value as a formula.
func ParseFormula(formula string) (ParsedFormula, error) {
	formula = strings.TrimSpace(formula)
	if !strings.HasPrefix(formula, "=") {
		return ParsedFormula{}, fmt.Errorf("%w: missing '=' prefix", ErrInvalidFormula)
	}
	m := formulaRegexp.FindStringSubmatch(formula)
	if m == nil {
		return ParsedFormula{}, fmt.Errorf("%w: %q", ErrInvalidFormula, formula)
	}
	args := strings.Split(m[2], ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return ParsedFormula{Function: strings.ToUpper(m[1]), Args: args}, nil
}

// Evaluator resolves SUM/AVERAGE/COUNT formulas over rectangular ranges of
// a Document. The zero value is ready to use.
type Evaluator struct {
	// StrictNumeric restricts range extraction to cells whose detected
	// type is number. When false (the default), text cells whose content
	// parses as a float are also included.
	StrictNumeric bool
}

// Evaluate resolves a formula against the document and returns its numeric
// result. Supported: SUM, AVERAGE (0 over an empty range), COUNT.
// A formula whose single argument is not a colon range is rejected even if
// a scalar cell reference would be semantically plausible.
func (e Evaluator) Evaluate(formula string, doc *Document) (float64, error) {
	parsed, err := ParseFormula(formula)
	if err != nil {
		return 0, err
	}

	switch parsed.Function {
	case "SUM", "AVERAGE", "COUNT":
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFunction, parsed.Function)
	}

	if len(parsed.Args) != 1 {
		return 0, fmt.Errorf("%w: %s requires exactly 1 argument", ErrArgCount, parsed.Function)
	}

	values, err := e.RangeValues(parsed.Args[0], doc)
	if err != nil {
		return 0, err
	}

	switch parsed.Function {
	case "SUM":
		total := 0.0
		for _, v := range values {
			total += v
		}
		return total, nil
	case "AVERAGE":
		if len(values) == 0 {
			return 0, nil
		}
		total := 0.0
		for _, v := range values {
			total += v
		}
		return total / float64(len(values)), nil
	default: // COUNT
		return float64(len(values)), nil
	}
}

// RangeValues extracts the numeric values in a range like "A1:B10",
// visiting every coordinate in the rectangle regardless of endpoint order.
// Empty and date cells contribute nothing. Text cells are coerced only in
// lenient mode.
//
// Endpoints beyond the grid are clamped to it, never iterated: the cell map
// cannot hold anything outside the grid, and an unclamped rectangle would
// let one formula allocate an arbitrarily large coordinate list.
func (e Evaluator) RangeValues(rangeStr string, doc *Document) ([]float64, error) {
	rng, err := ParseRangeRef(rangeStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, rangeStr)
	}
	rng = rng.Clamp(doc.Rows, doc.Columns)

	var values []float64
	for _, ref := range rng.Refs() {
		cell := doc.CellAt(ref.ID())
		if cell == nil {
			continue
		}
		switch cell.DataType {
		case TypeNumber:
			if v, err := strconv.ParseFloat(strings.TrimSpace(cell.Value), 64); err == nil {
				values = append(values, v)
			}
		case TypeText:
			if e.StrictNumeric {
				continue
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(cell.Value), 64); err == nil {
				values = append(values, v)
			}
		}
	}
	return values, nil
}

// DisplayValue evaluates the formula and formats the result for rendering:
// whole numbers without a decimal point, everything else to two decimal
// places, failures as the fixed error token.
func (e Evaluator) DisplayValue(formula string, doc *Document) string {
	result, err := e.Evaluate(formula, doc)
	if err != nil {
		return ErrorToken
	}
	if result == float64(int64(result)) {
		return strconv.FormatInt(int64(result), 10)
	}
	return strconv.FormatFloat(result, 'f', 2, 64)
}

// FormulaError returns a human-readable description of what is wrong with
// a formula, or empty if the formula is well-formed and supported.
func (e Evaluator) FormulaError(formula string) string {
	parsed, err := ParseFormula(formula)
	if err != nil {
		return "Invalid formula syntax"
	}
	switch parsed.Function {
	case "SUM", "AVERAGE", "COUNT":
	default:
		return fmt.Sprintf("Unsupported function: %s", parsed.Function)
	}
	if len(parsed.Args) != 1 {
		return fmt.Sprintf("%s requires exactly 1 argument", parsed.Function)
	}
	if _, err := ParseRangeRef(parsed.Args[0]); err != nil {
		return "Invalid cell range"
	}
	return ""
}
