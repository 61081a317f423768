package handler

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/fyerfyer/contract-filler/api/middleware"
	"github.com/fyerfyer/contract-filler/api/model"
	"github.com/fyerfyer/contract-filler/internal/docx"
	"github.com/fyerfyer/contract-filler/internal/models"
	"github.com/fyerfyer/contract-filler/internal/services"
	"github.com/fyerfyer/contract-filler/internal/template"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ContractHandler 合同填充相关接口
type ContractHandler struct {
	service       *services.ContractService
	defaultGender template.Gender
	logger        *logrus.Logger
}

// NewContractHandler 创建合同处理器
// 请求未提供 sexo 时使用 defaultGender，为空时按男性处理
func NewContractHandler(service *services.ContractService, defaultGender template.Gender) *ContractHandler {
	if defaultGender == "" {
		defaultGender = template.Male
	}
	return &ContractHandler{
		service:       service,
		defaultGender: defaultGender,
		logger:        middleware.GetLogger(),
	}
}

// FillContract 根据上传的文档填充合同
// POST /api/contracts
func (h *ContractHandler) FillContract(c *gin.Context) {
	var req model.FillContractRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid fill request")
		middleware.HandleError(c, middleware.NewValidationError("Parâmetros inválidos", err.Error()))
		return
	}

	gender := h.defaultGender
	if req.Gender != "" {
		gender, _ = template.ParseGender(req.Gender)
	}

	files := make(map[services.Slot]services.Upload)
	for field, header := range req.Uploads() {
		if header == nil {
			continue
		}
		upload, closer, err := openUpload(header)
		if err != nil {
			h.logger.WithError(err).WithField("slot", field).Error("Failed to open uploaded file")
			middleware.HandleError(c, middleware.NewInternalError("Não foi possível abrir o arquivo enviado", field))
			return
		}
		defer closer.Close()
		files[services.Slot(field)] = upload
	}

	result, err := h.service.Fill(c.Request.Context(), services.FillRequest{Gender: gender, Files: files})
	if err != nil {
		appErr := toAppError(err)
		if result != nil {
			appErr = appErr.WithData(model.FailedRunResponse{RunID: result.RunID, Events: result.Events})
		}
		middleware.HandleError(c, appErr)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"run_id":          result.RunID,
		"contract_number": result.ContractNumber,
		"unresolved":      len(result.Unresolved),
	}).Info("Contract filled")

	if download, _ := strconv.ParseBool(c.Query("download")); download {
		c.Header("Content-Disposition", attachment(h.service.OutputName()))
		c.Header("X-Run-ID", result.RunID)
		c.Data(http.StatusOK, docx.MimeType, result.Document)
		return
	}

	resp := model.FillContractResponse{
		RunID:          result.RunID,
		Status:         string(models.RunStatusCompleted),
		ContractNumber: result.ContractNumber,
		Fields:         fieldsByKind(result),
		Unresolved:     result.Unresolved,
		Events:         result.Events,
		FileName:       h.service.OutputName(),
	}
	if h.service.RecordsRuns() {
		resp.DownloadURL = downloadURL(result.RunID)
	}
	if result.Output != nil {
		resp.Size = result.Output.Size
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListRuns 获取执行记录列表
// GET /api/contracts
func (h *ContractHandler) ListRuns(c *gin.Context) {
	var req model.RunListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("Parâmetros inválidos", err.Error()))
		return
	}

	page, pageSize := req.GetPage(), req.GetPageSize()
	runs, total, err := h.service.ListRuns(c.Request.Context(), page, pageSize, models.RunStatus(req.Status))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		middleware.HandleError(c, toAppError(err))
		return
	}

	items := make([]model.RunInfo, 0, len(runs))
	for _, run := range runs {
		items = append(items, model.ConvertToRunInfo(run, downloadURL(run.ID)))
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.RunListResponse{
		PaginationResponse: model.PaginationResponse{Total: total, Page: page, PageSize: pageSize},
		Runs:               items,
	}))
}

// GetRun 获取执行详情，包括字段和事件
// GET /api/contracts/:id
func (h *ContractHandler) GetRun(c *gin.Context) {
	var req model.RunRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("Identificador inválido", err.Error()))
		return
	}

	run, err := h.service.GetRun(c.Request.Context(), req.ID)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}

	events, err := run.EventLog()
	if err != nil {
		middleware.HandleError(c, toAppError(fmt.Errorf("failed to decode events: %w", err)))
		return
	}
	fields, err := run.FieldValues()
	if err != nil {
		middleware.HandleError(c, toAppError(fmt.Errorf("failed to decode fields: %w", err)))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.RunDetailResponse{
		RunInfo: model.ConvertToRunInfo(run, downloadURL(run.ID)),
		Fields:  fields,
		Events:  events,
	}))
}

// Download 下载执行生成的合同
// GET /api/contracts/:id/download
func (h *ContractHandler) Download(c *gin.Context) {
	var req model.RunRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("Identificador inválido", err.Error()))
		return
	}

	rc, run, err := h.service.OpenOutput(c.Request.Context(), req.ID)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}
	defer rc.Close()

	size := run.OutputSize
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, docx.MimeType, rc, map[string]string{
		"Content-Disposition": attachment(h.service.OutputName()),
		"X-Run-ID":            run.ID,
	})
}

// Report 生成执行的HTML报告
// GET /api/contracts/:id/report
func (h *ContractHandler) Report(c *gin.Context) {
	var req model.RunRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("Identificador inválido", err.Error()))
		return
	}

	html, err := h.service.Report(c.Request.Context(), req.ID)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func fieldsByKind(result *services.FillResult) map[string]map[string]string {
	out := make(map[string]map[string]string, len(result.Fields))
	for kind, fields := range result.Fields {
		out[string(kind)] = fields
	}
	return out
}

func downloadURL(runID string) string {
	return "/api/contracts/" + runID + "/download"
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func openUpload(header *multipart.FileHeader) (services.Upload, io.Closer, error) {
	f, err := header.Open()
	if err != nil {
		return services.Upload{}, nil, err
	}
	return services.Upload{Filename: header.Filename, Reader: f}, f, nil
}
