package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response defines the standard API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// ErrorInfo provides details for error responses.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID  string      `json:"requestId"`
	Timestamp  string      `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta: Meta{
			RequestID: getRequestID(c),
			Timestamp: time.Now().Format(time.RFC3339),
		},
	})
}

// SuccessWithPagination writes a success response with pagination metadata.
func SuccessWithPagination(c *gin.Context, code int, message string, data interface{}, page, limit, totalItems int) {
	// safety defaults
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (totalItems + limit - 1) / limit
	}
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta: Meta{
			RequestID: getRequestID(c),
			Timestamp: time.Now().Format(time.RFC3339),
			Pagination: &Pagination{
				Page:       page,
				Limit:      limit,
				TotalItems: totalItems,
				TotalPages: totalPages,
			},
		},
	})
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
		},
		Meta: Meta{
			RequestID: getRequestID(c),
			Timestamp: time.Now().Format(time.RFC3339),
		},
	})
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}

// ErrorFrom maps a sentinel service error onto an HTTP error response.
// Unknown errors become a 500 with a generic message.
func ErrorFrom(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrRingNotFound):
		Error(c, http.StatusNotFound, ErrRingNotFound.Error(), "Ring not found")
	case errors.Is(err, ErrSlugExists):
		Error(c, http.StatusConflict, ErrSlugExists.Error(), "A ring with this code already exists")
	case errors.Is(err, ErrInvalidRing):
		Error(c, http.StatusBadRequest, ErrInvalidRing.Error(), err.Error())
	case errors.Is(err, ErrInvalidImage):
		Error(c, http.StatusBadRequest, ErrInvalidImage.Error(), "El archivo debe ser una imagen")
	case errors.Is(err, ErrImageTooLarge):
		Error(c, http.StatusBadRequest, ErrImageTooLarge.Error(), "La imagen no puede superar los 5MB")
	case errors.Is(err, ErrInvalidImageURL):
		Error(c, http.StatusBadRequest, ErrInvalidImageURL.Error(), "URL de imagen inválida")
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, ErrInvalidCredentials.Error(), "Credenciales inválidas")
	case errors.Is(err, ErrTooManyAttempts):
		Error(c, http.StatusTooManyRequests, ErrTooManyAttempts.Error(), "Too many login attempts")
	case errors.Is(err, ErrImportRunning):
		Error(c, http.StatusConflict, ErrImportRunning.Error(), "An import is already running")
	case errors.Is(err, ErrStorageUnconfigured):
		Error(c, http.StatusServiceUnavailable, ErrStorageUnconfigured.Error(), "Object storage is not configured")
	default:
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
