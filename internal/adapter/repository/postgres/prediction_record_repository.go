package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/domain/entity"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/domain/repository"
)

type predictionRecordRepository struct {
	db *gorm.DB
}

// NewPredictionRecordRepository creates a new prediction record repository
func NewPredictionRecordRepository(db *gorm.DB) repository.PredictionRecordRepository {
	return &predictionRecordRepository{db: db}
}

func (r *predictionRecordRepository) Create(ctx context.Context, record *entity.PredictionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *predictionRecordRepository) CreateBatch(ctx context.Context, records []*entity.PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(records, 100).Error
}

func (r *predictionRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.PredictionRecord, error) {
	var record entity.PredictionRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *predictionRecordRepository) List(ctx context.Context, limit, offset int) ([]*entity.PredictionRecord, int64, error) {
	var records []*entity.PredictionRecord
	var total int64

	if err := r.db.WithContext(ctx).Model(&entity.PredictionRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *predictionRecordRepository) CountByClass(ctx context.Context) (map[entity.ClassLabel]int64, error) {
	var rows []struct {
		PredictedClass entity.ClassLabel
		Count          int64
	}

	err := r.db.WithContext(ctx).
		Model(&entity.PredictionRecord{}).
		Select("predicted_class, COUNT(*) AS count").
		Group("predicted_class").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.ClassLabel]int64, entity.LabelCount())
	for _, label := range entity.Labels() {
		counts[label] = 0
	}
	for _, row := range rows {
		counts[row.PredictedClass] = row.Count
	}
	return counts, nil
}
