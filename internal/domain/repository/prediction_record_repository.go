package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/domain/entity"
)

// PredictionRecordRepository defines the interface for prediction audit records
type PredictionRecordRepository interface {
	// Create stores a single record
	Create(ctx context.Context, record *entity.PredictionRecord) error

	// CreateBatch stores the records of one batch request at once
	CreateBatch(ctx context.Context, records []*entity.PredictionRecord) error

	// GetByID retrieves a record by its ID, nil when absent
	GetByID(ctx context.Context, id uuid.UUID) (*entity.PredictionRecord, error)

	// List retrieves records newest first with pagination
	List(ctx context.Context, limit, offset int) ([]*entity.PredictionRecord, int64, error)

	// CountByClass counts records per predicted class
	CountByClass(ctx context.Context) (map[entity.ClassLabel]int64, error)
}
