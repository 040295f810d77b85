package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"equipment-go/internal/config"
	"equipment-go/internal/dto"
	"equipment-go/internal/models"
	"equipment-go/internal/repository"
	"equipment-go/internal/utils"
	"equipment-go/pkg/ownerlock"

	"github.com/sirupsen/logrus"
)

// DatasetService 数据集服务：CSV导入、保留清理和查询
type DatasetService struct {
	store       repository.Store
	locker      ownerlock.Locker
	logger      *logrus.Logger
	maxDatasets int
	maxBytes    int64
	lockTimeout time.Duration
	now         func() time.Time
}

// NewDatasetService 创建数据集服务
func NewDatasetService(store repository.Store, locker ownerlock.Locker, logger *logrus.Logger, cfg *config.Config) *DatasetService {
	return &DatasetService{
		store:       store,
		locker:      locker,
		logger:      logger,
		maxDatasets: cfg.Retention.MaxDatasets,
		maxBytes:    cfg.Upload.MaxBytes,
		lockTimeout: cfg.Upload.GetLockTimeout(),
		now:         time.Now,
	}
}

// MaxBytes 允许上传的最大字节数
func (s *DatasetService) MaxBytes() int64 {
	return s.maxBytes
}

// stats 清洗后数据的汇总统计
type stats struct {
	count          int
	avgFlowrate    float64
	avgPressure    float64
	avgTemperature float64
}

// aggregate 计算条数和各读数的算术平均值，没有有效行时返回错误
// 使用增量均值，读数接近 float64 上限时求和也不会溢出
func aggregate(records []utils.EquipmentRecord) (stats, error) {
	if len(records) == 0 {
		return stats{}, newError(ErrKindValidation, "No valid rows after removing rows with missing values", nil)
	}

	var flow, pressure, temp float64
	for i, r := range records {
		n := float64(i + 1)
		flow += r.Flowrate/n - flow/n
		pressure += r.Pressure/n - pressure/n
		temp += r.Temperature/n - temp/n
	}

	means := []struct {
		column string
		value  float64
	}{{"Flowrate", flow}, {"Pressure", pressure}, {"Temperature", temp}}
	for _, m := range means {
		if math.IsInf(m.value, 0) || math.IsNaN(m.value) {
			return stats{}, newError(ErrKindValidation, fmt.Sprintf("Average %s is out of range", m.column), nil)
		}
	}

	return stats{
		count:          len(records),
		avgFlowrate:    flow,
		avgPressure:    pressure,
		avgTemperature: temp,
	}, nil
}

// Upload 导入CSV：校验、解析、汇总，在同一事务中写入数据集和设备读数并清理超出保留数量的旧数据集
func (s *DatasetService) Upload(ctx context.Context, userID uint, filename string, content []byte) (*dto.DatasetDetailResponse, error) {
	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "filename": filename})

	if !utils.IsCSVFilename(filename) {
		return nil, newError(ErrKindValidation, "File must be a CSV", nil)
	}
	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		return nil, newError(ErrKindValidation, fmt.Sprintf("File exceeds the %d byte upload limit", s.maxBytes), nil)
	}

	table, err := utils.ParseEquipmentCSV(content)
	if err != nil {
		log.WithError(err).Warn("CSV校验失败")
		return nil, newError(ErrKindValidation, err.Error(), err)
	}

	st, err := aggregate(table.Records)
	if err != nil {
		return nil, err
	}

	// 同一用户的写入和清理串行执行，防止并发上传绕过保留数量
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, fmt.Sprintf("upload:%d", userID))
	if err != nil {
		log.WithError(err).Warn("获取上传锁失败")
		return nil, newError(ErrKindBusy, "Upload already in progress, retry later", err)
	}
	defer unlock()

	dataset := &models.Dataset{
		UserID:         userID,
		Filename:       filename,
		UploadedAt:     s.now().UTC(),
		TotalRecords:   st.count,
		AvgFlowrate:    &st.avgFlowrate,
		AvgPressure:    &st.avgPressure,
		AvgTemperature: &st.avgTemperature,
	}

	var pruned []uint
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Datasets().Create(ctx, dataset); err != nil {
			return err
		}

		rows := make([]models.Equipment, len(table.Records))
		for i, r := range table.Records {
			rows[i] = models.Equipment{
				DatasetID:     dataset.ID,
				EquipmentName: r.Name,
				EquipmentType: r.Type,
				Flowrate:      r.Flowrate,
				Pressure:      r.Pressure,
				Temperature:   r.Temperature,
			}
		}
		if err := tx.Equipment().CreateBatch(ctx, rows); err != nil {
			return err
		}

		// 新数据集已在排序中，保留最新的 maxDatasets 个
		ids, err := tx.Datasets().IDsByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if len(ids) > s.maxDatasets {
			pruned = ids[s.maxDatasets:]
			return tx.Datasets().DeleteByIDs(ctx, pruned)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("保存数据集失败")
		return nil, newError(ErrKindValidation, "Failed to save dataset", err)
	}

	log.WithFields(logrus.Fields{
		"dataset_id": dataset.ID,
		"rows":       st.count,
		"dropped":    table.Dropped,
		"pruned":     len(pruned),
	}).Info("数据集导入成功")

	return s.detail(ctx, dataset)
}

// List 获取用户最新的数据集
func (s *DatasetService) List(ctx context.Context, userID uint) ([]dto.DatasetResponse, error) {
	datasets, err := s.store.Datasets().ListByUserID(ctx, userID, s.maxDatasets)
	if err != nil {
		return nil, newError(ErrKindInternal, "查询数据集失败", err)
	}

	ids := make([]uint, len(datasets))
	for i := range datasets {
		ids[i] = datasets[i].ID
	}
	counts, err := s.store.Equipment().CountByDatasetIDs(ctx, ids)
	if err != nil {
		return nil, newError(ErrKindInternal, "统计设备读数失败", err)
	}

	result := make([]dto.DatasetResponse, len(datasets))
	for i := range datasets {
		result[i] = dto.DatasetResponse{
			DatasetFields:  toDatasetFields(&datasets[i]),
			EquipmentCount: counts[datasets[i].ID],
		}
	}
	return result, nil
}

// Get 获取数据集详情，不属于该用户的数据集视为不存在
func (s *DatasetService) Get(ctx context.Context, userID, datasetID uint) (*dto.DatasetDetailResponse, error) {
	dataset, err := s.owned(ctx, userID, datasetID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, dataset)
}

// Delete 删除数据集及其设备读数
func (s *DatasetService) Delete(ctx context.Context, userID, datasetID uint) error {
	dataset, err := s.owned(ctx, userID, datasetID)
	if err != nil {
		return err
	}

	if err := s.store.Datasets().DeleteByIDs(ctx, []uint{dataset.ID}); err != nil {
		return newError(ErrKindInternal, "删除数据集失败", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "dataset_id": dataset.ID}).Info("数据集已删除")
	return nil
}

func (s *DatasetService) owned(ctx context.Context, userID, datasetID uint) (*models.Dataset, error) {
	dataset, err := s.store.Datasets().GetByIDAndUserID(ctx, datasetID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrKindNotFound, "Dataset not found", nil)
		}
		return nil, newError(ErrKindInternal, "查询数据集失败", err)
	}
	return dataset, nil
}

func (s *DatasetService) detail(ctx context.Context, dataset *models.Dataset) (*dto.DatasetDetailResponse, error) {
	rows, err := s.store.Equipment().ListByDatasetID(ctx, dataset.ID)
	if err != nil {
		return nil, newError(ErrKindInternal, "查询设备读数失败", err)
	}

	distribution, err := s.store.Equipment().TypeDistribution(ctx, dataset.ID)
	if err != nil {
		return nil, newError(ErrKindInternal, "统计设备类型失败", err)
	}

	resp := &dto.DatasetDetailResponse{
		DatasetFields:    toDatasetFields(dataset),
		Equipment:        make([]dto.EquipmentResponse, len(rows)),
		TypeDistribution: make(dto.TypeDistribution, len(distribution)),
	}
	for i, r := range rows {
		resp.Equipment[i] = dto.EquipmentResponse{
			ID:            r.ID,
			EquipmentName: r.EquipmentName,
			EquipmentType: r.EquipmentType,
			Flowrate:      r.Flowrate,
			Pressure:      r.Pressure,
			Temperature:   r.Temperature,
		}
	}
	for i, tc := range distribution {
		resp.TypeDistribution[i] = dto.TypeCount{Type: tc.EquipmentType, Count: tc.Count}
	}
	return resp, nil
}

func toDatasetFields(d *models.Dataset) dto.DatasetFields {
	return dto.DatasetFields{
		ID:             d.ID,
		Filename:       d.Filename,
		UploadedAt:     d.UploadedAt,
		TotalRecords:   d.TotalRecords,
		AvgFlowrate:    d.AvgFlowrate,
		AvgPressure:    d.AvgPressure,
		AvgTemperature: d.AvgTemperature,
	}
}
