package handler

import (
	"net/http"

	"github.com/fyerfyer/contract-filler/api/middleware"
	"github.com/fyerfyer/contract-filler/api/model"
	"github.com/fyerfyer/contract-filler/internal/docx"
	"github.com/fyerfyer/contract-filler/internal/extract"
	"github.com/fyerfyer/contract-filler/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ExtractHandler 单文档提取和模板工具接口
type ExtractHandler struct {
	service *services.ContractService
	logger  *logrus.Logger
}

// NewExtractHandler 创建提取处理器
func NewExtractHandler(service *services.ContractService) *ExtractHandler {
	return &ExtractHandler{
		service: service,
		logger:  middleware.GetLogger(),
	}
}

// ExtractDocument 提取单个文档的字段
// POST /api/extract/:kind
func (h *ExtractHandler) ExtractDocument(c *gin.Context) {
	kind, err := extract.ParseKind(c.Param("kind"))
	if err != nil {
		middleware.HandleError(c, middleware.NewValidationError("Tipo de documento desconhecido", err.Error()))
		return
	}

	var req model.ExtractRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("Arquivo não enviado", err.Error()))
		return
	}

	upload, closer, err := openUpload(req.File)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open uploaded file")
		middleware.HandleError(c, middleware.NewInternalError("Não foi possível abrir o arquivo enviado"))
		return
	}
	defer closer.Close()

	result, err := h.service.ExtractFile(c.Request.Context(), kind, upload)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}

	missing := result.Missing
	if missing == nil {
		missing = []string{}
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ExtractResponse{
		Kind:    string(result.Kind),
		Fields:  result.Fields,
		Missing: missing,
	}))
}

// NormalizeTemplate 将模板中的标签改写为占位符后返回
// POST /api/templates/normalize
func (h *ExtractHandler) NormalizeTemplate(c *gin.Context) {
	var req model.NormalizeRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("Modelo não enviado", err.Error()))
		return
	}

	upload, closer, err := openUpload(req.File)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open uploaded file")
		middleware.HandleError(c, middleware.NewInternalError("Não foi possível abrir o arquivo enviado"))
		return
	}
	defer closer.Close()

	result, err := h.service.NormalizeTemplate(c.Request.Context(), upload)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"file":     req.File.Filename,
		"rewrites": result.Report.Total(),
		"unknown":  result.Unknown,
	}).Info("Template normalized")

	c.Header("Content-Disposition", attachment(services.NormalizedTemplateName))
	c.Data(http.StatusOK, docx.MimeType, result.Document)
}

// ListFields 列出每个替换步骤填充的占位符
// GET /api/fields
func (h *ExtractHandler) ListFields(c *gin.Context) {
	steps := services.FieldSteps()
	groups := make([]model.FieldGroup, 0, len(steps))
	for _, step := range steps {
		groups = append(groups, model.FieldGroup{Step: step.Name, Fields: step.FieldNames()})
	}

	kinds := make([]string, 0, len(extract.Kinds()))
	for _, k := range extract.Kinds() {
		kinds = append(kinds, string(k))
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.FieldsResponse{Steps: groups, Kinds: kinds}))
}
