package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/usecase"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	StatusCode int
	Code       string
	Message    string
}

// MapUsecaseError maps usecase errors to HTTP error responses.
// Known kinds carry the wrapped detail; anything else is reported generically.
func MapUsecaseError(err error) ErrorResponse {
	switch {
	case errors.Is(err, usecase.ErrServiceUnavailable):
		return ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Code:       "SERVICE_UNAVAILABLE",
			Message:    "Model not loaded",
		}
	case errors.Is(err, usecase.ErrHistoryUnavailable):
		return ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Code:       "SERVICE_UNAVAILABLE",
			Message:    err.Error(),
		}
	case errors.Is(err, usecase.ErrInvalidFormat):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "INVALID_FORMAT",
			Message:    err.Error(),
		}
	case errors.Is(err, usecase.ErrDecode):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "DECODE_ERROR",
			Message:    err.Error(),
		}
	case errors.Is(err, usecase.ErrTooManyItems):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "TOO_MANY_ITEMS",
			Message:    err.Error(),
		}
	case errors.Is(err, usecase.ErrInference):
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       "INFERENCE_ERROR",
			Message:    err.Error(),
		}
	case errors.Is(err, usecase.ErrRecordNotFound):
		return ErrorResponse{
			StatusCode: http.StatusNotFound,
			Code:       "NOT_FOUND",
			Message:    "prediction record not found",
		}
	case errors.Is(err, usecase.ErrInvalidRequest):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "INVALID_REQUEST",
			Message:    err.Error(),
		}
	default:
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       "INTERNAL_ERROR",
			Message:    "internal server error",
		}
	}
}

// HandleUsecaseError handles a usecase error by sending an appropriate HTTP response.
func HandleUsecaseError(c *gin.Context, err error) {
	errResp := MapUsecaseError(err)
	respondError(c, errResp.StatusCode, errResp.Code, errResp.Message)
}

// HandleInvalidUUID handles an invalid UUID parameter error.
func HandleInvalidUUID(c *gin.Context, paramName string) {
	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid "+paramName)
}

// HandleInvalidRequest handles a generic invalid request error.
func HandleInvalidRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", message)
}

// HandlePayloadTooLarge handles uploads rejected by the body size limit.
func HandlePayloadTooLarge(c *gin.Context) {
	respondError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "upload exceeds the maximum allowed size")
}
