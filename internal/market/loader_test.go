package market

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTemp(t, "prices.csv", "date,volume,close\n2024-01-02,1,10.5\n2024-01-03,2,11\n2024-01-04,3,9.75\n")
	loader := Loader{}

	series, err := loader.Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, []float64{10.5, 11, 9.75}, series.Closes())
	assert.Equal(t, "prices.csv", series.Name)
}

func TestLoadCSVCustomColumns(t *testing.T) {
	path := writeTemp(t, "prices.csv", "Day,RMB_price\n2024/01/02,100\n2024/01/03,101\n")
	loader := Loader{DateColumn: "day", CloseColumn: "rmb_price"}

	series, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101}, series.Closes())
}

func TestLoadCSVUnsortedGetsNormalized(t *testing.T) {
	path := writeTemp(t, "prices.csv", "date,close\n2024-01-04,3\n2024-01-02,1\n2024-01-03,2\n2024-01-03,2.5\n")
	loader := Loader{}

	series, err := loader.Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, []float64{1, 2.5, 3}, series.Closes())
	require.NoError(t, series.Validate())
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := writeTemp(t, "prices.csv", "date,open\n2024-01-02,10\n")
	loader := Loader{}

	_, err := loader.Load(path)
	var dataErr *DataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestLoadCSVBadPrice(t *testing.T) {
	path := writeTemp(t, "prices.csv", "date,close\n2024-01-02,abc\n")
	loader := Loader{}

	_, err := loader.Load(path)
	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 2, dataErr.Row)
}

func TestLoadJSON(t *testing.T) {
	path := writeTemp(t, "prices.json",
		`[{"date":"2024-01-02","close":10},{"date":"2024-01-03","close":"11.5"}]`)
	loader := Loader{}

	series, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11.5}, series.Closes())
}

func TestLoadJSONNotArray(t *testing.T) {
	path := writeTemp(t, "prices.json", `{"date":"2024-01-02"}`)
	loader := Loader{}

	_, err := loader.Load(path)
	var dataErr *DataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestLoadExcel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"date", "RMB_price"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2024-01-02", 10.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"2024-01-03", 11.25}))
	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	loader := Loader{}
	series, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{10.5, 11.25}, series.Closes())
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "prices.txt", "whatever")
	loader := Loader{}

	_, err := loader.Load(path)
	var dataErr *DataError
	assert.ErrorAs(t, err, &dataErr)
}
