package sheetsync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV_Empty(t *testing.T) {
	doc := NewDocument()
	content, err := ExportCSV(doc)
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestExportCSV_TrimsToBoundingBox(t *testing.T) {
	doc := NewDocument()
	_, err := doc.SetCell("B2", "x", "u")
	require.NoError(t, err)

	content, err := ExportCSV(doc)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, ",", lines[0])
	assert.Equal(t, ",x", lines[1])
}

func TestImportCSV_ReplacesDocument(t *testing.T) {
	doc := NewDocument()
	_, err := doc.SetCell("Z99", "stale", "u")
	require.NoError(t, err)

	err = ImportCSV(doc, "name,amount\nwidget,42\n", "importer")
	require.NoError(t, err)

	assert.Nil(t, doc.CellAt("Z99"))
	assert.Equal(t, "name", doc.CellAt("A1").Value)
	assert.Equal(t, "amount", doc.CellAt("B1").Value)
	assert.Equal(t, "widget", doc.CellAt("A2").Value)
	assert.Equal(t, "42", doc.CellAt("B2").Value)
	assert.Equal(t, TypeNumber, doc.CellAt("B2").DataType)
	assert.Equal(t, "importer", doc.CellAt("A1").LastModifiedBy)
}

func TestImportCSV_SkipsBlanksAndClipsToGrid(t *testing.T) {
	doc := NewDocument(WithDimensions(2, 2))

	err := ImportCSV(doc, "a,,c\n1,2\nignored,row\n", "u")
	require.NoError(t, err)

	assert.Equal(t, "a", doc.CellAt("A1").Value)
	assert.Nil(t, doc.CellAt("B1"))   // blank field skipped
	assert.Nil(t, doc.CellAt("C1"))   // beyond 2 columns
	assert.Equal(t, "1", doc.CellAt("A2").Value)
	assert.Equal(t, "2", doc.CellAt("B2").Value)
	assert.Nil(t, doc.CellAt("A3")) // beyond 2 rows
}

func TestImportCSV_Malformed(t *testing.T) {
	doc := NewDocument()
	err := ImportCSV(doc, "\"unterminated", "u")
	assert.Error(t, err)
}

func TestCSV_RoundTrip(t *testing.T) {
	doc := NewDocument()
	_, err := doc.SetCell("A1", "10", "u")
	require.NoError(t, err)
	_, err = doc.SetCell("A2", "20.5", "u")
	require.NoError(t, err)
	_, err = doc.SetCell("B1", "hello, world", "u") // embedded comma
	require.NoError(t, err)
	_, err = doc.SetCell("B2", "12/25/2024", "u")
	require.NoError(t, err)
	_, err = doc.SetCell("C1", "=SUM(A1:A2)", "u")
	require.NoError(t, err)

	content, err := ExportCSV(doc)
	require.NoError(t, err)

	restored := NewDocument()
	require.NoError(t, ImportCSV(restored, content, "u"))

	require.Len(t, restored.Cells, len(doc.Cells))
	for id, want := range doc.Cells {
		got := restored.CellAt(id)
		require.NotNil(t, got, "cell %s missing after round trip", id)
		assert.Equal(t, want.RawValue, got.RawValue, "cell %s", id)
		assert.Equal(t, want.Value, got.Value, "cell %s", id)
		assert.Equal(t, want.DataType, got.DataType, "cell %s", id)
	}

	// The formula still evaluates against the re-imported data.
	assert.Equal(t, "30.50", restored.CellAt("C1").Value)
}

func TestExportFilename(t *testing.T) {
	doc := NewDocument(WithTitle("Q3 Budget / Final"))
	assert.Equal(t, "q3_budget_final.csv", ExportFilename(doc, "csv"))

	blank := NewDocument(WithTitle("///"))
	assert.Equal(t, "spreadsheet.xlsx", ExportFilename(blank, "xlsx"))
}
