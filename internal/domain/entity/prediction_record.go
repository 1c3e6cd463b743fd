package entity

import (
	"time"

	"github.com/google/uuid"
)

// PredictionRecord is the audit trail entry for a served prediction
type PredictionRecord struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	RequestID      string     `json:"request_id" gorm:"type:varchar(64);index"`
	Filename       string     `json:"filename" gorm:"type:varchar(255);not null"`
	PredictedClass ClassLabel `json:"predicted_class" gorm:"type:varchar(32);not null;index"`
	Confidence     float64    `json:"confidence" gorm:"type:decimal(5,4)"`
	Batch          bool       `json:"batch" gorm:"default:false"`
	LatencyMs      int64      `json:"latency_ms" gorm:"default:0"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM
func (PredictionRecord) TableName() string {
	return "prediction_records"
}

// NewPredictionRecord creates a record for a prediction served under requestID
func NewPredictionRecord(requestID, filename string, p *Prediction, batch bool, latencyMs int64) *PredictionRecord {
	return &PredictionRecord{
		ID:             uuid.New(),
		RequestID:      requestID,
		Filename:       filename,
		PredictedClass: p.Class,
		Confidence:     p.Confidence,
		Batch:          batch,
		LatencyMs:      latencyMs,
	}
}
