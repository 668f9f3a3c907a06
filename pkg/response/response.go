package response

import (
	"musicsocial/internal/logger"
	"musicsocial/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response format
type Response struct {
	Status     string         `json:"status"`      // "success" or "error"
	StatusCode int            `json:"status_code"` // HTTP status code
	Data       interface{}    `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
	Code       apperror.Code  `json:"code,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromAppError renders a typed failure. Causes stay server-side.
func FromAppError(e *apperror.AppError) Response {
	return Response{
		Status:     "error",
		StatusCode: e.HTTPStatus,
		Error:      e.Message,
		Code:       e.Code,
		Details:    e.Details,
	}
}

// Fail writes err to the client and aborts. Foreign errors are logged and reported as SERVER_ERROR.
func Fail(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		logger.WithComponent("http").Error("unhandled error", logger.Fields(
			"path", c.FullPath(),
			"error", err.Error(),
		))
		appErr = apperror.Server(err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, FromAppError(appErr))
}
