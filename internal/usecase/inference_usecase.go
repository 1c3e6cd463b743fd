package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/domain/entity"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/domain/repository"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/domain/service"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/infrastructure/metrics"
)

// Error definitions for the inference usecase
var (
	ErrServiceUnavailable = errors.New("model not loaded")
	ErrInvalidFormat      = errors.New("unsupported file format")
	ErrDecode             = errors.New("invalid image format")
	ErrInference          = errors.New("prediction error")
	ErrTooManyItems       = errors.New("too many files")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrHistoryUnavailable = errors.New("prediction history not configured")
	ErrRecordNotFound     = errors.New("prediction record not found")
)

// MaxBatchSize is the most images accepted by one batch request
const MaxBatchSize = 10

// SupportedFormats lists the accepted filename extensions
var SupportedFormats = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff"}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PredictInput is one uploaded image
type PredictInput struct {
	Data        []byte
	Filename    string
	ContentType string
}

// PredictionOutput is the result of classifying one image
type PredictionOutput struct {
	Filename           string                        `json:"filename"`
	PredictedClass     entity.ClassLabel             `json:"predicted_class"`
	Confidence         float64                       `json:"confidence"`
	ClassProbabilities map[entity.ClassLabel]float64 `json:"class_probabilities"`
	Timestamp          string                        `json:"timestamp"`
}

// BatchItemOutput is either a prediction or an error entry
type BatchItemOutput struct {
	Filename           string                        `json:"filename"`
	PredictedClass     entity.ClassLabel             `json:"predicted_class,omitempty"`
	Confidence         float64                       `json:"confidence,omitempty"`
	ClassProbabilities map[entity.ClassLabel]float64 `json:"class_probabilities,omitempty"`
	Error              string                        `json:"error,omitempty"`
	Status             string                        `json:"status"`
}

// BatchOutput is the ordered result of a batch request
type BatchOutput struct {
	TotalFiles            int                `json:"total_files"`
	SuccessfulPredictions int                `json:"successful_predictions"`
	FailedPredictions     int                `json:"failed_predictions"`
	Results               []*BatchItemOutput `json:"results"`
	Timestamp             string             `json:"timestamp"`
}

// HealthOutput reports model availability
type HealthOutput struct {
	Status           string              `json:"status"`
	ModelLoaded      bool                `json:"model_loaded"`
	RuntimeVersion   string              `json:"runtime_version"`
	SupportedClasses []entity.ClassLabel `json:"supported_classes"`
	SupportedFormats []string            `json:"supported_formats"`
	Timestamp        string              `json:"timestamp"`
}

// ClassesOutput lists the label set with descriptions
type ClassesOutput struct {
	Classes           []entity.ClassLabel          `json:"classes"`
	TotalClasses      int                          `json:"total_classes"`
	ClassDescriptions map[entity.ClassLabel]string `json:"class_descriptions"`
}

// HistoryListOutput represents a page of prediction records
type HistoryListOutput struct {
	Records []*entity.PredictionRecord `json:"records"`
	Total   int64                      `json:"total"`
	Limit   int                        `json:"limit"`
	Offset  int                        `json:"offset"`
	HasMore bool                       `json:"has_more"`
}

// HistoryStatsOutput counts served predictions per class
type HistoryStatsOutput struct {
	Total   int64                       `json:"total"`
	ByClass map[entity.ClassLabel]int64 `json:"by_class"`
}

// InferenceUsecase defines the prediction business logic
type InferenceUsecase interface {
	Health(ctx context.Context) *HealthOutput
	ListClasses() *ClassesOutput
	Predict(ctx context.Context, requestID string, input *PredictInput) (*PredictionOutput, error)
	PredictBatch(ctx context.Context, requestID string, inputs []*PredictInput) (*BatchOutput, error)
	ListHistory(ctx context.Context, limit, offset int) (*HistoryListOutput, error)
	GetHistory(ctx context.Context, id uuid.UUID) (*entity.PredictionRecord, error)
	HistoryStats(ctx context.Context) (*HistoryStatsOutput, error)
}

type inferenceUsecase struct {
	classifier service.Classifier
	records    repository.PredictionRecordRepository
	log        *zap.Logger
	now        func() time.Time
}

// NewInferenceUsecase creates a new inference usecase. A nil classifier puts
// the service in the unavailable state; a nil repository disables history.
func NewInferenceUsecase(classifier service.Classifier, records repository.PredictionRecordRepository, log *zap.Logger) InferenceUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &inferenceUsecase{
		classifier: classifier,
		records:    records,
		log:        log,
		now:        time.Now,
	}
}

func (u *inferenceUsecase) Health(_ context.Context) *HealthOutput {
	out := &HealthOutput{
		Status:           "unhealthy",
		ModelLoaded:      u.classifier != nil,
		RuntimeVersion:   "unavailable",
		SupportedClasses: entity.Labels(),
		SupportedFormats: append([]string(nil), SupportedFormats...),
		Timestamp:        u.timestamp(),
	}
	if u.classifier != nil {
		out.Status = "healthy"
		out.RuntimeVersion = u.classifier.RuntimeVersion()
	}
	return out
}

func (u *inferenceUsecase) ListClasses() *ClassesOutput {
	labels := entity.Labels()
	descriptions := make(map[entity.ClassLabel]string, len(labels))
	for _, l := range labels {
		descriptions[l] = l.Description()
	}
	return &ClassesOutput{
		Classes:           labels,
		TotalClasses:      len(labels),
		ClassDescriptions: descriptions,
	}
}

func (u *inferenceUsecase) Predict(ctx context.Context, requestID string, input *PredictInput) (*PredictionOutput, error) {
	if u.classifier == nil {
		metrics.ObservePredictionError(metrics.ErrorKindUnavailable)
		return nil, ErrServiceUnavailable
	}

	prediction, latency, err := u.classify(ctx, input)
	if err != nil {
		metrics.ObservePredictionError(errorKind(err))
		return nil, err
	}
	metrics.ObservePrediction(string(prediction.Class), latency)

	u.store(ctx, entity.NewPredictionRecord(requestID, input.Filename, prediction, false, latency.Milliseconds()))

	return &PredictionOutput{
		Filename:           input.Filename,
		PredictedClass:     prediction.Class,
		Confidence:         prediction.Confidence,
		ClassProbabilities: prediction.Probabilities,
		Timestamp:          u.timestamp(),
	}, nil
}

func (u *inferenceUsecase) PredictBatch(ctx context.Context, requestID string, inputs []*PredictInput) (*BatchOutput, error) {
	if u.classifier == nil {
		metrics.ObservePredictionError(metrics.ErrorKindUnavailable)
		return nil, ErrServiceUnavailable
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no files provided", ErrInvalidRequest)
	}
	if len(inputs) > MaxBatchSize {
		metrics.ObservePredictionError(metrics.ErrorKindTooManyItems)
		return nil, fmt.Errorf("%w: maximum %d files allowed per batch", ErrTooManyItems, MaxBatchSize)
	}

	metrics.ObserveBatchSize(len(inputs))

	out := &BatchOutput{
		TotalFiles: len(inputs),
		Results:    make([]*BatchItemOutput, 0, len(inputs)),
	}
	records := make([]*entity.PredictionRecord, 0, len(inputs))

	for _, input := range inputs {
		prediction, latency, err := u.classify(ctx, input)
		if err != nil {
			metrics.ObservePredictionError(errorKind(err))
			u.log.Debug("Batch item failed",
				zap.String("request_id", requestID),
				zap.String("filename", input.Filename),
				zap.Error(err),
			)
			out.FailedPredictions++
			out.Results = append(out.Results, &BatchItemOutput{
				Filename: input.Filename,
				Error:    err.Error(),
				Status:   StatusError,
			})
			continue
		}

		metrics.ObservePrediction(string(prediction.Class), latency)
		records = append(records, entity.NewPredictionRecord(requestID, input.Filename, prediction, true, latency.Milliseconds()))

		out.SuccessfulPredictions++
		out.Results = append(out.Results, &BatchItemOutput{
			Filename:           input.Filename,
			PredictedClass:     prediction.Class,
			Confidence:         prediction.Confidence,
			ClassProbabilities: prediction.Probabilities,
			Status:             StatusSuccess,
		})
	}

	u.storeBatch(ctx, records)
	out.Timestamp = u.timestamp()
	return out, nil
}

func (u *inferenceUsecase) ListHistory(ctx context.Context, limit, offset int) (*HistoryListOutput, error) {
	if u.records == nil {
		return nil, ErrHistoryUnavailable
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := u.records.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	return &HistoryListOutput{
		Records: records,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	}, nil
}

func (u *inferenceUsecase) GetHistory(ctx context.Context, id uuid.UUID) (*entity.PredictionRecord, error) {
	if u.records == nil {
		return nil, ErrHistoryUnavailable
	}

	record, err := u.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

func (u *inferenceUsecase) HistoryStats(ctx context.Context) (*HistoryStatsOutput, error) {
	if u.records == nil {
		return nil, ErrHistoryUnavailable
	}

	counts, err := u.records.CountByClass(ctx)
	if err != nil {
		return nil, err
	}

	out := &HistoryStatsOutput{ByClass: make(map[entity.ClassLabel]int64, len(counts))}
	for label, n := range counts {
		if !label.IsValid() {
			u.log.Warn("Skipping unknown class in prediction history", zap.String("class", string(label)), zap.Int64("count", n))
			continue
		}
		out.ByClass[label] = n
		out.Total += n
	}
	return out, nil
}

// classify validates, decodes and runs one image through the model
func (u *inferenceUsecase) classify(ctx context.Context, input *PredictInput) (*entity.Prediction, time.Duration, error) {
	if err := ValidateUpload(input.Filename, input.ContentType); err != nil {
		return nil, 0, err
	}

	img, err := decodeImage(input.Data)
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	output, err := u.classifier.Classify(ctx, img)
	latency := time.Since(start)
	if err != nil {
		u.log.Error("Inference failed", zap.String("filename", input.Filename), zap.Error(err))
		return nil, latency, fmt.Errorf("%w: %v", ErrInference, err)
	}

	prediction, err := entity.NewPrediction(output)
	if err != nil {
		u.log.Error("Unexpected model output", zap.String("filename", input.Filename), zap.Error(err))
		return nil, latency, fmt.Errorf("%w: %v", ErrInference, err)
	}

	return prediction, latency, nil
}

// ValidateUpload checks the declared content type and the filename extension
func ValidateUpload(filename, contentType string) error {
	if !strings.HasPrefix(contentType, "image/") || !IsSupportedExtension(filename) {
		return fmt.Errorf("%w. Supported formats: %s", ErrInvalidFormat, strings.Join(SupportedFormats, ", "))
	}
	return nil
}

// IsSupportedExtension reports whether filename carries an allow-listed extension.
// Leading dots belong to the name, so ".png" has no extension.
func IsSupportedExtension(filename string) bool {
	base := strings.TrimLeft(filepath.Base(filename), ".")
	ext := strings.ToLower(filepath.Ext(base))
	for _, f := range SupportedFormats {
		if ext == f {
			return true
		}
	}
	return false
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

func (u *inferenceUsecase) store(ctx context.Context, record *entity.PredictionRecord) {
	if u.records == nil {
		return
	}
	if err := u.records.Create(ctx, record); err != nil {
		u.log.Warn("Failed to store prediction record", zap.String("request_id", record.RequestID), zap.Error(err))
	}
}

func (u *inferenceUsecase) storeBatch(ctx context.Context, records []*entity.PredictionRecord) {
	if u.records == nil || len(records) == 0 {
		return
	}
	if err := u.records.CreateBatch(ctx, records); err != nil {
		u.log.Warn("Failed to store batch prediction records", zap.Int("count", len(records)), zap.Error(err))
	}
}

func (u *inferenceUsecase) timestamp() string {
	return u.now().UTC().Format(time.RFC3339)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return metrics.ErrorKindInvalidFormat
	case errors.Is(err, ErrDecode):
		return metrics.ErrorKindDecode
	default:
		return metrics.ErrorKindInference
	}
}
