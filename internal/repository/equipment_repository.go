package repository

import (
	"context"

	"equipment-go/internal/models"

	"gorm.io/gorm"
)

// insertBatchSize 批量插入每批行数
const insertBatchSize = 500

// EquipmentRepository 设备读数数据访问层
type EquipmentRepository struct {
	db *gorm.DB
}

// NewEquipmentRepository 创建设备读数Repository
func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// CreateBatch 批量创建设备读数
func (r *EquipmentRepository) CreateBatch(ctx context.Context, rows []models.Equipment) error {
	if len(rows) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).CreateInBatches(&rows, insertBatchSize).Error)
}

// ListByDatasetID 获取数据集的全部设备读数，按名称排序
func (r *EquipmentRepository) ListByDatasetID(ctx context.Context, datasetID uint) ([]models.Equipment, error) {
	var rows []models.Equipment
	err := r.db.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Order("equipment_name ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// CountByDatasetIDs 统计每个数据集当前的设备读数条数
func (r *EquipmentRepository) CountByDatasetIDs(ctx context.Context, datasetIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(datasetIDs))
	if len(datasetIDs) == 0 {
		return counts, nil
	}

	var results []struct {
		DatasetID uint
		Count     int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Equipment{}).
		Select("dataset_id, COUNT(id) AS count").
		Where("dataset_id IN ?", datasetIDs).
		Group("dataset_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		counts[res.DatasetID] = res.Count
	}
	return counts, nil
}

// TypeDistribution 按设备类型统计条数，数量多的在前
func (r *EquipmentRepository) TypeDistribution(ctx context.Context, datasetID uint) ([]TypeCount, error) {
	var results []TypeCount
	err := r.db.WithContext(ctx).
		Model(&models.Equipment{}).
		Select("equipment_type, COUNT(id) AS count").
		Where("dataset_id = ?", datasetID).
		Group("equipment_type").
		Order("count DESC, equipment_type ASC").
		Scan(&results).Error
	return results, err
}
