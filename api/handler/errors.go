package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyerfyer/contract-filler/api/middleware"
	"github.com/fyerfyer/contract-filler/internal/models"
)

// toAppError 将服务层错误转换为对应的HTTP错误
func toAppError(err error) middleware.AppError {
	var parseErr *models.DocumentParseError
	switch {
	case errors.As(err, &parseErr):
		return middleware.NewUnprocessableError(
			fmt.Sprintf("Não foi possível ler o documento %s", parseErr.Slot),
			parseErr.Error(),
		)
	case errors.Is(err, models.ErrMissingDocument):
		return middleware.NewValidationError("Documento ausente", err.Error())
	case errors.Is(err, models.ErrInvalidDocumentType):
		return middleware.NewValidationError("Tipo de documento inválido", err.Error())
	case errors.Is(err, models.ErrRunNotFound):
		return middleware.NewNotFoundError("Execução não encontrada")
	case errors.Is(err, models.ErrRunNotCompleted):
		return middleware.NewConflictError("Execução sem documento gerado", err.Error())
	case errors.Is(err, models.ErrDownloadExpired):
		return middleware.NewGoneError("Download expirado")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return middleware.NewInternalError("Processamento cancelado", err.Error())
	}
	return middleware.NewInternalError("Erro interno do servidor", err.Error())
}
