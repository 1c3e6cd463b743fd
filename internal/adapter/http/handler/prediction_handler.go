package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/usecase"
)

// PredictionHandler handles classification and history requests
type PredictionHandler struct {
	inferenceUC usecase.InferenceUsecase
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(inferenceUC usecase.InferenceUsecase) *PredictionHandler {
	return &PredictionHandler{inferenceUC: inferenceUC}
}

// ListClasses handles GET /classes
func (h *PredictionHandler) ListClasses(c *gin.Context) {
	c.JSON(http.StatusOK, h.inferenceUC.ListClasses())
}

// Predict handles POST /predict
func (h *PredictionHandler) Predict(c *gin.Context) {
	fh, err := c.FormFile(FileField)
	if err != nil {
		handleFormError(c, err, "No file provided. Use 'file' as the form field name")
		return
	}

	input, err := ReadUpload(fh)
	if err != nil {
		HandleInvalidRequest(c, err.Error())
		return
	}

	output, err := h.inferenceUC.Predict(c.Request.Context(), requestID(c), input)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

// PredictBatch handles POST /predict/batch
func (h *PredictionHandler) PredictBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		handleFormError(c, err, "No files provided. Use 'files' as the form field name")
		return
	}

	files := form.File[FilesField]
	if len(files) == 0 {
		HandleInvalidRequest(c, "No files provided. Use 'files' as the form field name")
		return
	}

	inputs := make([]*usecase.PredictInput, 0, len(files))
	if len(files) <= usecase.MaxBatchSize {
		for _, fh := range files {
			input, err := ReadUpload(fh)
			if err != nil {
				HandleInvalidRequest(c, err.Error())
				return
			}
			inputs = append(inputs, input)
		}
	} else {
		// the usecase rejects oversized batches before touching any item
		for _, fh := range files {
			inputs = append(inputs, &usecase.PredictInput{Filename: fh.Filename})
		}
	}

	output, err := h.inferenceUC.PredictBatch(c.Request.Context(), requestID(c), inputs)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

// ListPredictions handles GET /predictions
func (h *PredictionHandler) ListPredictions(c *gin.Context) {
	pagination := ParsePagination(c)

	output, err := h.inferenceUC.ListHistory(c.Request.Context(), pagination.Limit, pagination.Offset)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, output)
}

// GetPrediction handles GET /predictions/:id
func (h *PredictionHandler) GetPrediction(c *gin.Context) {
	id, err := ExtractUUIDParam(c, "id")
	if err != nil {
		HandleInvalidUUID(c, "prediction id")
		return
	}

	record, err := h.inferenceUC.GetHistory(c.Request.Context(), id)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, record)
}

// PredictionStats handles GET /predictions/stats
func (h *PredictionHandler) PredictionStats(c *gin.Context) {
	output, err := h.inferenceUC.HistoryStats(c.Request.Context())
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, output)
}

func handleFormError(c *gin.Context, err error, message string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		HandlePayloadTooLarge(c)
		return
	}
	HandleInvalidRequest(c, message)
}
