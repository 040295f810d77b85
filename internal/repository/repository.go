package repository

import (
	"context"
	"errors"
	"strings"

	"equipment-go/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 唯一约束冲突
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepo 用户数据访问接口
type UserRepo interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Delete(ctx context.Context, id uint) error
}

// DatasetRepo 数据集数据访问接口
type DatasetRepo interface {
	Create(ctx context.Context, dataset *models.Dataset) error
	GetByIDAndUserID(ctx context.Context, id, userID uint) (*models.Dataset, error)
	ListByUserID(ctx context.Context, userID uint, limit int) ([]models.Dataset, error)
	IDsByUserID(ctx context.Context, userID uint) ([]uint, error)
	DeleteByIDs(ctx context.Context, ids []uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
}

// EquipmentRepo 设备读数数据访问接口
type EquipmentRepo interface {
	CreateBatch(ctx context.Context, rows []models.Equipment) error
	ListByDatasetID(ctx context.Context, datasetID uint) ([]models.Equipment, error)
	CountByDatasetIDs(ctx context.Context, datasetIDs []uint) (map[uint]int64, error)
	TypeDistribution(ctx context.Context, datasetID uint) ([]TypeCount, error)
}

// TypeCount 按设备类型分组的计数
type TypeCount struct {
	EquipmentType string
	Count         int64
}

// Store 聚合各Repository，并提供事务
type Store interface {
	Users() UserRepo
	Datasets() DatasetRepo
	Equipment() EquipmentRepo
	// Transaction 在一个事务中执行fn，fn返回错误时回滚
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore 基于GORM的Store实现
type GormStore struct {
	db *gorm.DB
}

// NewStore 创建Store
func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Users 用户Repository
func (s *GormStore) Users() UserRepo {
	return NewUserRepository(s.db)
}

// Datasets 数据集Repository
func (s *GormStore) Datasets() DatasetRepo {
	return NewDatasetRepository(s.db)
}

// Equipment 设备读数Repository
func (s *GormStore) Equipment() EquipmentRepo {
	return NewEquipmentRepository(s.db)
}

// Transaction 开启事务
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translate 把GORM错误转换为Repository错误
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return ErrDuplicate
	default:
		return err
	}
}
