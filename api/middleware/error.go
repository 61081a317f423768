package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/fyerfyer/contract-filler/api/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 错误类型
const (
	ErrorTypeValidation    = "VALIDATION_ERROR"
	ErrorTypeNotFound      = "NOT_FOUND_ERROR"
	ErrorTypeConflict      = "CONFLICT_ERROR"
	ErrorTypeGone          = "GONE_ERROR"
	ErrorTypeUnprocessable = "UNPROCESSABLE_ERROR"
	ErrorTypeInternal      = "INTERNAL_ERROR"
)

// AppError 应用错误，由 ErrorMiddleware 统一输出
// 设置了 Data 时会放在响应的 data 字段中返回
type AppError struct {
	Type    string
	Message string
	Details string
	Code    int
	Data    interface{}
}

func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// WithData 返回携带 data 的错误副本
func (e AppError) WithData(data interface{}) AppError {
	e.Data = data
	return e
}

// NewValidationError 创建参数校验错误（400）
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewNotFoundError 创建资源不存在错误（404）
func NewNotFoundError(message string) AppError {
	return AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// NewConflictError 创建状态冲突错误（409）
func NewConflictError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeConflict,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusConflict,
	}
}

// NewGoneError 创建资源已失效错误（410）
func NewGoneError(message string) AppError {
	return AppError{
		Type:    ErrorTypeGone,
		Message: message,
		Code:    http.StatusGone,
	}
}

// NewUnprocessableError 创建无法处理错误（422）
func NewUnprocessableError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeUnprocessable,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusUnprocessableEntity,
	}
}

// NewInternalError 创建内部错误（500）
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// ErrorMiddleware 错误处理中间件
// 捕获panic，并将上下文中最后一个错误以统一的JSON格式返回
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(logrus.Fields{
					FieldError: err,
					"stack":    string(debug.Stack()),
					FieldPath:  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				errorResponse := model.NewErrorResponse(
					http.StatusInternalServerError,
					"Erro inesperado",
				)
				if gin.Mode() == gin.DebugMode {
					errorResponse.Message = fmt.Sprintf("Panic: %v", err)
				}
				errorResponse.TraceID = traceID(c)

				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		id := traceID(c)

		var appErr AppError
		switch e := err.(type) {
		case AppError:
			appErr = e
		case *AppError:
			appErr = *e
		default:
			appErr = NewInternalError("Erro interno do servidor")
			if gin.Mode() == gin.DebugMode {
				appErr.Message = err.Error()
			}
		}

		entry := log.WithFields(logrus.Fields{
			"error_type": appErr.Type,
			FieldTraceID: id,
			FieldPath:    c.Request.URL.Path,
		})
		if appErr.Code >= http.StatusInternalServerError {
			entry.WithField(FieldError, err.Error()).Error(appErr.Message)
		} else {
			entry.Warn(appErr.Message)
		}

		errResp := model.NewErrorResponse(appErr.Code, appErr.Message)
		errResp.Data = appErr.Data
		errResp.TraceID = id
		c.AbortWithStatusJSON(appErr.Code, errResp)
	}
}

// HandleError 记录错误，交给 ErrorMiddleware 处理
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}

func traceID(c *gin.Context) string {
	if v, ok := c.Get(TraceIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
