package sheetsync

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillColumn writes values "1".."10" into A1:A10.
func fillColumn(t *testing.T, doc *Document) {
	t.Helper()
	for i := 1; i <= 10; i++ {
		_, err := doc.SetCell(fmt.Sprintf("A%d", i), fmt.Sprintf("%d", i), "tester")
		require.NoError(t, err)
	}
}

func TestEvaluate_Sum(t *testing.T) {
	doc := NewDocument()
	fillColumn(t, doc)

	result, err := Evaluator{}.Evaluate("=SUM(A1:A10)", doc)
	require.NoError(t, err)
	assert.Equal(t, 55.0, result)
}

func TestEvaluate_Average(t *testing.T) {
	doc := NewDocument()
	fillColumn(t, doc)

	result, err := Evaluator{}.Evaluate("=AVERAGE(A1:A10)", doc)
	require.NoError(t, err)
	assert.Equal(t, 5.5, result)
}

func TestEvaluate_Count(t *testing.T) {
	doc := NewDocument()
	fillColumn(t, doc)

	result, err := Evaluator{}.Evaluate("=COUNT(A1:A10)", doc)
	require.NoError(t, err)
	assert.Equal(t, 10.0, result)
}

func TestEvaluate_AverageEmptyRange(t *testing.T) {
	doc := NewDocument()
	result, err := Evaluator{}.Evaluate("=AVERAGE(B1:B10)", doc)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result)
}

func TestEvaluate_IgnoresNonNumericCells(t *testing.T) {
	doc := NewDocument()
	fillColumn(t, doc)
	_, err := doc.SetCell("A11", "not a number", "tester")
	require.NoError(t, err)
	_, err = doc.SetCell("A12", "12/25/2024", "tester")
	require.NoError(t, err)

	result, err := Evaluator{}.Evaluate("=SUM(A1:A12)", doc)
	require.NoError(t, err)
	assert.Equal(t, 55.0, result)
}

func TestEvaluate_NumericCoercionModes(t *testing.T) {
	doc := NewDocument()
	_, err := doc.SetCell("A1", "10", "tester")
	require.NoError(t, err)

	// Force a text cell whose content parses as a number.
	doc.Cells["A2"] = &Cell{Value: "32", RawValue: "32", DataType: TypeText, IsValid: true}

	lenient, err := Evaluator{}.Evaluate("=SUM(A1:A2)", doc)
	require.NoError(t, err)
	assert.Equal(t, 42.0, lenient)

	strict, err := Evaluator{StrictNumeric: true}.Evaluate("=SUM(A1:A2)", doc)
	require.NoError(t, err)
	assert.Equal(t, 10.0, strict)
}

func TestEvaluate_ClampsRangeToGrid(t *testing.T) {
	doc := NewDocument()
	fillColumn(t, doc)

	// Endpoints far beyond the 100x26 grid clamp to it; the rectangle
	// actually iterated can never exceed the grid.
	result, err := Evaluator{}.Evaluate("=SUM(A1:ZZZ9999999)", doc)
	require.NoError(t, err)
	assert.Equal(t, 55.0, result)

	count, err := Evaluator{}.Evaluate("=COUNT(A1:Z100000)", doc)
	require.NoError(t, err)
	assert.Equal(t, 10.0, count)
}

func TestEvaluate_ReversedRange(t *testing.T) {
	doc := NewDocument()
	fillColumn(t, doc)

	result, err := Evaluator{}.Evaluate("=SUM(A10:A1)", doc)
	require.NoError(t, err)
	assert.Equal(t, 55.0, result)
}

func TestEvaluate_Errors(t *testing.T) {
	doc := NewDocument()

	tests := []struct {
		formula string
		wantErr error
	}{
		{"SUM(A1:A2)", ErrInvalidFormula},    // missing '='
		{"=SUM A1:A2", ErrInvalidFormula},    // no parens
		{"=MEDIAN(A1:A2)", ErrUnsupportedFunction},
		{"=SUM(A1:A2,B1:B2)", ErrArgCount},
		{"=SUM(A1)", ErrInvalidRange},        // scalar ref rejected
		{"=SUM(1:2)", ErrInvalidRange},
		{"=SUM()", ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			_, err := Evaluator{}.Evaluate(tt.formula, doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDisplayValue(t *testing.T) {
	doc := NewDocument()
	fillColumn(t, doc)

	e := Evaluator{}
	assert.Equal(t, "55", e.DisplayValue("=SUM(A1:A10)", doc))
	assert.Equal(t, "5.50", e.DisplayValue("=AVERAGE(A1:A10)", doc))
	assert.Equal(t, ErrorToken, e.DisplayValue("=BOGUS(A1:A10)", doc))
	assert.Equal(t, ErrorToken, e.DisplayValue("=SUM(A1)", doc))
}

func TestDisplayValue_TwoDecimalPlaces(t *testing.T) {
	doc := NewDocument()
	_, err := doc.SetCell("A1", "1", "tester")
	require.NoError(t, err)
	_, err = doc.SetCell("A2", "2", "tester")
	require.NoError(t, err)
	_, err = doc.SetCell("A3", "2", "tester")
	require.NoError(t, err)

	// 5/3 = 1.666... renders to exactly two decimals.
	assert.Equal(t, "1.67", Evaluator{}.DisplayValue("=AVERAGE(A1:A3)", doc))
}

func TestParseFormula(t *testing.T) {
	parsed, err := ParseFormula("=sum(A1:B10)")
	require.NoError(t, err)
	assert.Equal(t, "SUM", parsed.Function)
	assert.Equal(t, []string{"A1:B10"}, parsed.Args)

	parsed, err = ParseFormula("=COUNT( A1:A5 , B1:B5 )")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1:A5", "B1:B5"}, parsed.Args)

	// Padding around the whole formula is ignored, matching how type
	// detection trims before classifying.
	parsed, err = ParseFormula("  =SUM(A1:A10)  ")
	require.NoError(t, err)
	assert.Equal(t, "SUM", parsed.Function)
	assert.Equal(t, []string{"A1:A10"}, parsed.Args)
}

func TestFormulaError(t *testing.T) {
	e := Evaluator{}
	assert.Equal(t, "", e.FormulaError("=SUM(A1:A10)"))
	assert.Equal(t, "Invalid formula syntax", e.FormulaError("=oops"))
	assert.Equal(t, "Unsupported function: MAX", e.FormulaError("=MAX(A1:A2)"))
	assert.Equal(t, "SUM requires exactly 1 argument", e.FormulaError("=SUM(A1:A2,B1:B2)"))
	assert.Equal(t, "Invalid cell range", e.FormulaError("=SUM(A1)"))
}
