package sheetsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		input string
		row   int
		col   int
	}{
		{"A1", 0, 0},
		{"B12", 11, 1},
		{"Z100", 99, 25},
		{"AA1", 0, 26},
		{"$A$1", 0, 0},
		{"  C3  ", 2, 2},
		{"a1", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref, err := ParseCellRef(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.row, ref.Row)
			assert.Equal(t, tt.col, ref.Col)
		})
	}
}

func TestParseCellRef_Invalid(t *testing.T) {
	invalid := []string{"", "A", "1", "A0", "1A", "A-1", "A1B", "!!"}
	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCellRef(input)
			assert.Error(t, err)
		})
	}
}

func TestCellRef_ID_RoundTrip(t *testing.T) {
	refs := []CellRef{
		{Row: 0, Col: 0},
		{Row: 11, Col: 1},
		{Row: 99, Col: 25},
		{Row: 0, Col: 26},
		{Row: 49, Col: 701},
	}
	for _, ref := range refs {
		parsed, err := ParseCellRef(ref.ID())
		require.NoError(t, err)
		assert.Equal(t, ref, parsed)
	}
}

func TestColToName(t *testing.T) {
	assert.Equal(t, "A", ColToName(0))
	assert.Equal(t, "Z", ColToName(25))
	assert.Equal(t, "AA", ColToName(26))
	assert.Equal(t, "AZ", ColToName(51))
	assert.Equal(t, "AAA", ColToName(702))
}

func TestNameToCol(t *testing.T) {
	col, err := NameToCol("A")
	require.NoError(t, err)
	assert.Equal(t, 0, col)

	col, err = NameToCol("AA")
	require.NoError(t, err)
	assert.Equal(t, 26, col)

	_, err = NameToCol("A1")
	assert.Error(t, err)
}

func TestCellRef_InBounds(t *testing.T) {
	assert.True(t, CellRef{Row: 0, Col: 0}.InBounds(100, 26))
	assert.True(t, CellRef{Row: 99, Col: 25}.InBounds(100, 26))
	assert.False(t, CellRef{Row: 100, Col: 0}.InBounds(100, 26))
	assert.False(t, CellRef{Row: 0, Col: 26}.InBounds(100, 26))
	assert.False(t, CellRef{Row: -1, Col: 0}.InBounds(100, 26))
}

func TestParseRangeRef(t *testing.T) {
	rng, err := ParseRangeRef("A1:C5")
	require.NoError(t, err)
	assert.Equal(t, CellRef{Row: 0, Col: 0}, rng.Start)
	assert.Equal(t, CellRef{Row: 4, Col: 2}, rng.End)

	_, err = ParseRangeRef("A1")
	assert.Error(t, err)

	_, err = ParseRangeRef("A1:??")
	assert.Error(t, err)
}

func TestRangeRef_Normalize(t *testing.T) {
	// Endpoints given in reverse order on both axes.
	rng, err := ParseRangeRef("C5:A1")
	require.NoError(t, err)

	n := rng.Normalize()
	assert.Equal(t, CellRef{Row: 0, Col: 0}, n.Start)
	assert.Equal(t, CellRef{Row: 4, Col: 2}, n.End)
	assert.Equal(t, "A1:C5", rng.String())
}

func TestRangeRef_Clamp(t *testing.T) {
	rng, err := ParseRangeRef("A1:ZZZ9999999")
	require.NoError(t, err)

	c := rng.Clamp(100, 26)
	assert.Equal(t, CellRef{Row: 0, Col: 0}, c.Start)
	assert.Equal(t, CellRef{Row: 99, Col: 25}, c.End)

	// Ranges already inside the grid are untouched.
	inside, err := ParseRangeRef("B2:C3")
	require.NoError(t, err)
	assert.Equal(t, inside.Normalize(), inside.Clamp(100, 26))
}

func TestRangeRef_Contains(t *testing.T) {
	rng, err := ParseRangeRef("B2:D4")
	require.NoError(t, err)

	assert.True(t, rng.Contains(CellRef{Row: 1, Col: 1}))
	assert.True(t, rng.Contains(CellRef{Row: 3, Col: 3}))
	assert.True(t, rng.Contains(CellRef{Row: 2, Col: 2}))
	assert.False(t, rng.Contains(CellRef{Row: 0, Col: 0}))
	assert.False(t, rng.Contains(CellRef{Row: 4, Col: 1}))
}

func TestRangeRef_Refs(t *testing.T) {
	rng, err := ParseRangeRef("A1:B2")
	require.NoError(t, err)

	refs := rng.Refs()
	require.Len(t, refs, 4)
	assert.Equal(t, "A1", refs[0].ID())
	assert.Equal(t, "B1", refs[1].ID())
	assert.Equal(t, "A2", refs[2].ID())
	assert.Equal(t, "B2", refs[3].ID())

	// Reversed endpoints cover the same rectangle.
	reversed, err := ParseRangeRef("B2:A1")
	require.NoError(t, err)
	assert.Equal(t, refs, reversed.Refs())
}

func TestRangeRef_Size(t *testing.T) {
	rng, err := ParseRangeRef("A1:C5")
	require.NoError(t, err)
	rows, cols := rng.Size()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 3, cols)
}
