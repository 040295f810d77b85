package utils

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// CSV 必需的列名
const (
	ColumnEquipmentName = "Equipment Name"
	ColumnType          = "Type"
	ColumnFlowrate      = "Flowrate"
	ColumnPressure      = "Pressure"
	ColumnTemperature   = "Temperature"
)

// RequiredColumns 必需列，顺序即缺列时的提示顺序
var RequiredColumns = []string{
	ColumnEquipmentName,
	ColumnType,
	ColumnFlowrate,
	ColumnPressure,
	ColumnTemperature,
}

// missingTokens 视为缺失值的单元格内容
var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"NULL": {}, "null": {}, "None": {}, "<NA>": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {},
	"-1.#IND": {}, "-1.#QNAN": {}, "1.#IND": {}, "1.#QNAN": {},
}

// CSVErrorCode CSV校验错误类型
type CSVErrorCode int

const (
	CSVErrNotCSV CSVErrorCode = iota + 1
	CSVErrEncoding
	CSVErrEmpty
	CSVErrMalformed
	CSVErrMissingColumns
	CSVErrInvalidNumber
)

// CSVError CSV校验错误
type CSVError struct {
	Code    CSVErrorCode
	Message string
	// Missing 缺少的列，仅 CSVErrMissingColumns 时有值
	Missing []string
}

func (e *CSVError) Error() string {
	return e.Message
}

// EquipmentRecord 清洗后的一行设备读数
type EquipmentRecord struct {
	Line        int
	Name        string
	Type        string
	Flowrate    float64
	Pressure    float64
	Temperature float64
}

// EquipmentTable 解析结果
type EquipmentTable struct {
	Records []EquipmentRecord
	// Dropped 因含缺失值被丢弃的行数
	Dropped int
}

// columnIndex 表头到列下标的映射，每次上传只构建一次
type columnIndex struct {
	name, typ, flowrate, pressure, temperature int
	width                                      int
}

// IsCSVFilename 文件名是否以 .csv 结尾
func IsCSVFilename(filename string) bool {
	return strings.HasSuffix(filename, ".csv")
}

// ParseEquipmentCSV 解析设备读数CSV：校验表头、丢弃含缺失值的行、把读数转换为浮点数
func ParseEquipmentCSV(content []byte) (*EquipmentTable, error) {
	// 去掉UTF-8 BOM
	content = bytes.TrimPrefix(content, []byte("\xEF\xBB\xBF"))
	if !utf8.Valid(content) {
		return nil, &CSVError{Code: CSVErrEncoding, Message: "File is not valid UTF-8 text"}
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	// 读取列名
	headers, err := reader.Read()
	if err == io.EOF {
		return nil, &CSVError{Code: CSVErrEmpty, Message: "No columns to parse from file"}
	}
	if err != nil {
		return nil, malformed(err)
	}

	idx, err := buildColumnIndex(headers)
	if err != nil {
		return nil, err
	}

	table := &EquipmentTable{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}

		line, _ := reader.FieldPos(0)
		if len(row) > idx.width {
			return nil, &CSVError{
				Code:    CSVErrMalformed,
				Message: fmt.Sprintf("Error tokenizing data. Expected %d fields in line %d, saw %d", idx.width, line, len(row)),
			}
		}

		// 整行丢弃：任意一列缺失
		if len(row) < idx.width || hasMissing(row) {
			table.Dropped++
			continue
		}

		record, err := idx.record(row, line)
		if err != nil {
			return nil, err
		}
		table.Records = append(table.Records, record)
	}

	return table, nil
}

func buildColumnIndex(headers []string) (*columnIndex, error) {
	positions := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if _, seen := positions[h]; !seen {
			positions[h] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := positions[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &CSVError{
			Code:    CSVErrMissingColumns,
			Message: "Missing columns: " + strings.Join(missing, ", "),
			Missing: missing,
		}
	}

	return &columnIndex{
		name:        positions[ColumnEquipmentName],
		typ:         positions[ColumnType],
		flowrate:    positions[ColumnFlowrate],
		pressure:    positions[ColumnPressure],
		temperature: positions[ColumnTemperature],
		width:       len(headers),
	}, nil
}

func (idx *columnIndex) record(row []string, line int) (EquipmentRecord, error) {
	rec := EquipmentRecord{
		Line: line,
		Name: row[idx.name],
		Type: row[idx.typ],
	}

	var err error
	if rec.Flowrate, err = parseReading(row[idx.flowrate], ColumnFlowrate, line); err != nil {
		return rec, err
	}
	if rec.Pressure, err = parseReading(row[idx.pressure], ColumnPressure, line); err != nil {
		return rec, err
	}
	if rec.Temperature, err = parseReading(row[idx.temperature], ColumnTemperature, line); err != nil {
		return rec, err
	}
	return rec, nil
}

func parseReading(raw, column string, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &CSVError{
			Code:    CSVErrInvalidNumber,
			Message: fmt.Sprintf("invalid %s value %q on line %d", column, raw, line),
		}
	}
	return v, nil
}

func hasMissing(row []string) bool {
	for _, cell := range row {
		if _, ok := missingTokens[strings.TrimSpace(cell)]; ok {
			return true
		}
	}
	return false
}

func malformed(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &CSVError{Code: CSVErrMalformed, Message: parseErr.Error()}
	}
	return &CSVError{Code: CSVErrMalformed, Message: err.Error()}
}
