package models

import (
	"time"
)

// Dataset 一次CSV上传的元数据和汇总统计
type Dataset struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UserID         uint      `gorm:"not null;index:idx_datasets_user_uploaded,priority:1" json:"user_id"`
	Filename       string    `gorm:"size:255;not null" json:"filename"`
	UploadedAt     time.Time `gorm:"not null;index:idx_datasets_user_uploaded,priority:2" json:"uploaded_at"`
	TotalRecords   int       `gorm:"not null;default:0" json:"total_records"`
	AvgFlowrate    *float64  `json:"avg_flowrate"`
	AvgPressure    *float64  `json:"avg_pressure"`
	AvgTemperature *float64  `json:"avg_temperature"`

	// 关联
	Equipment []Equipment `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"equipment,omitempty"`
}

// TableName 指定表名
func (Dataset) TableName() string {
	return "datasets"
}

// Equipment 数据集中的一条设备读数
type Equipment struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	DatasetID     uint    `gorm:"not null;index" json:"dataset_id"`
	EquipmentName string  `gorm:"size:255;not null" json:"equipment_name"`
	EquipmentType string  `gorm:"size:100;not null;index" json:"equipment_type"`
	Flowrate      float64 `gorm:"not null" json:"flowrate"`
	Pressure      float64 `gorm:"not null" json:"pressure"`
	Temperature   float64 `gorm:"not null" json:"temperature"`
}

// TableName 指定表名
func (Equipment) TableName() string {
	return "equipment"
}
