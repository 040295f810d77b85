package repository

import (
	"context"

	"equipment-go/internal/models"

	"gorm.io/gorm"
)

// newestFirst 数据集默认排序，上传时间相同按ID倒序
const newestFirst = "uploaded_at DESC, id DESC"

// DatasetRepository 数据集数据访问层
type DatasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository 创建数据集Repository
func NewDatasetRepository(db *gorm.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Create 创建数据集
func (r *DatasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	return translate(r.db.WithContext(ctx).Omit("Equipment").Create(dataset).Error)
}

// GetByIDAndUserID 根据ID和用户ID获取数据集
func (r *DatasetRepository) GetByIDAndUserID(ctx context.Context, id, userID uint) (*models.Dataset, error) {
	var dataset models.Dataset
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&dataset).Error
	if err != nil {
		return nil, translate(err)
	}
	return &dataset, nil
}

// ListByUserID 获取用户最新的数据集
func (r *DatasetRepository) ListByUserID(ctx context.Context, userID uint, limit int) ([]models.Dataset, error) {
	var datasets []models.Dataset
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Limit(limit).
		Find(&datasets).Error
	return datasets, err
}

// IDsByUserID 获取用户全部数据集ID，最新的在前
func (r *DatasetRepository) IDsByUserID(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Dataset{}).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteByIDs 批量删除数据集及其设备读数
func (r *DatasetRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 外键级联依赖连接参数，这里显式删除子表
		if err := tx.Where("dataset_id IN ?", ids).Delete(&models.Equipment{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Dataset{}).Error
	})
}

// DeleteByUserID 删除用户的全部数据集
func (r *DatasetRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	ids, err := r.IDsByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return r.DeleteByIDs(ctx, ids)
}
