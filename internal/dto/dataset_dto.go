package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DatasetFields 列表与详情共有的字段
type DatasetFields struct {
	ID             uint      `json:"id"`
	Filename       string    `json:"filename"`
	UploadedAt     time.Time `json:"uploaded_at"`
	TotalRecords   int       `json:"total_records"`
	AvgFlowrate    *float64  `json:"avg_flowrate"`
	AvgPressure    *float64  `json:"avg_pressure"`
	AvgTemperature *float64  `json:"avg_temperature"`
}

// DatasetResponse 数据集列表项
type DatasetResponse struct {
	DatasetFields
	// EquipmentCount 当前关联的设备读数条数，不是上传时记录的 TotalRecords
	EquipmentCount int64 `json:"equipment_count"`
}

// DatasetDetailResponse 数据集详情
type DatasetDetailResponse struct {
	DatasetFields
	Equipment        []EquipmentResponse `json:"equipment"`
	TypeDistribution TypeDistribution    `json:"type_distribution"`
}

// EquipmentResponse 设备读数
type EquipmentResponse struct {
	ID            uint    `json:"id"`
	EquipmentName string  `json:"equipment_name"`
	EquipmentType string  `json:"equipment_type"`
	Flowrate      float64 `json:"flowrate"`
	Pressure      float64 `json:"pressure"`
	Temperature   float64 `json:"temperature"`
}

// TypeCount 某一设备类型的条数
type TypeCount struct {
	Type  string
	Count int64
}

// TypeDistribution 设备类型分布，按条数从多到少排列。
// 序列化为JSON对象，且保留切片中的顺序；条数相同的类型之间顺序不作保证。
type TypeDistribution []TypeCount

// Total 各类型条数之和
func (d TypeDistribution) Total() int64 {
	var total int64
	for _, tc := range d {
		total += tc.Count
	}
	return total
}

// Map 转换为 类型->条数
func (d TypeDistribution) Map() map[string]int64 {
	m := make(map[string]int64, len(d))
	for _, tc := range d {
		m[tc.Type] = tc.Count
	}
	return m
}

// MarshalJSON 按切片顺序输出JSON对象
func (d TypeDistribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tc := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tc.Type)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", tc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 按JSON对象中键的顺序解析
func (d *TypeDistribution) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("type_distribution: expected object, got %v", tok)
	}

	result := TypeDistribution{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("type_distribution: invalid key %v", keyTok)
		}
		var count int64
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("type_distribution[%s]: %w", key, err)
		}
		result = append(result, TypeCount{Type: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = result
	return nil
}
