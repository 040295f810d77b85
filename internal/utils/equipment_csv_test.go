package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Equipment Name,Type,Flowrate,Pressure,Temperature\n"

func csvCode(t *testing.T, err error) CSVErrorCode {
	t.Helper()
	var csvErr *CSVError
	require.True(t, errors.As(err, &csvErr), "expected *CSVError, got %v", err)
	return csvErr.Code
}

func TestIsCSVFilename(t *testing.T) {
	assert.True(t, IsCSVFilename("readings.csv"))
	assert.True(t, IsCSVFilename("a.b.csv"))
	assert.False(t, IsCSVFilename("readings.xlsx"))
	assert.False(t, IsCSVFilename("readings.CSV"))
	assert.False(t, IsCSVFilename("csv"))
}

func TestParseEquipmentCSV_DropsRowsWithBlankCells(t *testing.T) {
	content := header +
		"Pump-1,Pump,10,20,30\n" +
		"Pump-2,Pump,20,30,40\n" +
		"Valve-1,Valve,,50,60\n"

	table, err := ParseEquipmentCSV([]byte(content))
	require.NoError(t, err)

	require.Len(t, table.Records, 2)
	assert.Equal(t, 1, table.Dropped)
	assert.Equal(t, EquipmentRecord{Line: 2, Name: "Pump-1", Type: "Pump", Flowrate: 10, Pressure: 20, Temperature: 30}, table.Records[0])
	assert.Equal(t, "Pump-2", table.Records[1].Name)
	assert.Equal(t, 3, table.Records[1].Line)
}

func TestParseEquipmentCSV_ColumnOrderAndExtraColumns(t *testing.T) {
	content := "Temperature,Notes,Type,Equipment Name,Pressure,Flowrate\n" +
		"100.5,ok,Reactor,R-1,5.2,120\n" +
		"90,,Reactor,R-2,4,110\n" // 额外列为空也整行丢弃

	table, err := ParseEquipmentCSV([]byte(content))
	require.NoError(t, err)

	require.Len(t, table.Records, 1)
	rec := table.Records[0]
	assert.Equal(t, "R-1", rec.Name)
	assert.Equal(t, "Reactor", rec.Type)
	assert.Equal(t, 120.0, rec.Flowrate)
	assert.Equal(t, 5.2, rec.Pressure)
	assert.Equal(t, 100.5, rec.Temperature)
	assert.Equal(t, 1, table.Dropped)
}

func TestParseEquipmentCSV_NATokensAreMissing(t *testing.T) {
	content := header +
		"P-1,Pump,NA,1,1\n" +
		"P-2,Pump,1,NaN,1\n" +
		"P-3,Pump,1,1,null\n" +
		"P-4,, ,1,1\n" +
		"P-5,Pump,1.5,2.5,3.5\n"

	table, err := ParseEquipmentCSV([]byte(content))
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, "P-5", table.Records[0].Name)
	assert.Equal(t, 4, table.Dropped)
}

func TestParseEquipmentCSV_ShortRowIsDropped(t *testing.T) {
	table, err := ParseEquipmentCSV([]byte(header + "P-1,Pump,1,2\nP-2,Pump,1,2,3\n"))
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, 1, table.Dropped)
}

func TestParseEquipmentCSV_LongRowFails(t *testing.T) {
	_, err := ParseEquipmentCSV([]byte(header + "P-1,Pump,1,2,3,4\n"))
	require.Error(t, err)
	assert.Equal(t, CSVErrMalformed, csvCode(t, err))
	assert.Contains(t, err.Error(), "Expected 5 fields")
}

func TestParseEquipmentCSV_MissingColumns(t *testing.T) {
	_, err := ParseEquipmentCSV([]byte("Equipment Name,Flowrate,Temperature\nP-1,1,2\n"))
	require.Error(t, err)
	assert.Equal(t, CSVErrMissingColumns, csvCode(t, err))
	assert.Equal(t, "Missing columns: Type, Pressure", err.Error())

	var csvErr *CSVError
	require.True(t, errors.As(err, &csvErr))
	assert.Equal(t, []string{"Type", "Pressure"}, csvErr.Missing)
}

func TestParseEquipmentCSV_HeaderWhitespaceAndBOM(t *testing.T) {
	content := "\xEF\xBB\xBFEquipment Name , Type,Flowrate,Pressure,Temperature\nP-1,Pump,1,2,3\n"
	table, err := ParseEquipmentCSV([]byte(content))
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
}

func TestParseEquipmentCSV_InvalidNumberFailsWholeFile(t *testing.T) {
	_, err := ParseEquipmentCSV([]byte(header + "P-1,Pump,1,2,3\nP-2,Pump,fast,2,3\n"))
	require.Error(t, err)
	assert.Equal(t, CSVErrInvalidNumber, csvCode(t, err))
	assert.Equal(t, `invalid Flowrate value "fast" on line 3`, err.Error())
}

func TestParseEquipmentCSV_InfinityRejected(t *testing.T) {
	_, err := ParseEquipmentCSV([]byte(header + "P-1,Pump,1,+Inf,3\n"))
	require.Error(t, err)
	assert.Equal(t, CSVErrInvalidNumber, csvCode(t, err))
}

func TestParseEquipmentCSV_Empty(t *testing.T) {
	_, err := ParseEquipmentCSV(nil)
	require.Error(t, err)
	assert.Equal(t, CSVErrEmpty, csvCode(t, err))
	assert.Equal(t, "No columns to parse from file", err.Error())
}

func TestParseEquipmentCSV_InvalidUTF8(t *testing.T) {
	_, err := ParseEquipmentCSV([]byte(header + "P\xff,Pump,1,2,3\n"))
	require.Error(t, err)
	assert.Equal(t, CSVErrEncoding, csvCode(t, err))
}

func TestParseEquipmentCSV_BareQuoteIsMalformed(t *testing.T) {
	_, err := ParseEquipmentCSV([]byte(header + "P\"1,Pump,1,2,3\n"))
	require.Error(t, err)
	assert.Equal(t, CSVErrMalformed, csvCode(t, err))
}

func TestParseEquipmentCSV_HeaderOnly(t *testing.T) {
	table, err := ParseEquipmentCSV([]byte(header))
	require.NoError(t, err)
	assert.Empty(t, table.Records)
}

func TestParseEquipmentCSV_QuotedFieldsKeptVerbatim(t *testing.T) {
	table, err := ParseEquipmentCSV([]byte(header + "\"Pump, north\",\"Centrifugal Pump\",1,2,3\n"))
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, "Pump, north", table.Records[0].Name)
	assert.Equal(t, "Centrifugal Pump", table.Records[0].Type)
}
