package model

import (
	"time"

	"github.com/fyerfyer/contract-filler/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 成功时为0
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// FillContractResponse 合同填充响应
type FillContractResponse struct {
	RunID          string                       `json:"run_id"`
	Status         string                       `json:"status"`
	ContractNumber string                       `json:"contract_number"`
	Fields         map[string]map[string]string `json:"fields"`
	Unresolved     []string                     `json:"unresolved"`
	Events         []models.Event               `json:"events"`
	FileName       string                       `json:"filename,omitempty"`
	Size           int64                        `json:"size,omitempty"`
	DownloadURL    string                       `json:"download_url,omitempty"`
}

// FailedRunResponse 执行失败时返回的数据
type FailedRunResponse struct {
	RunID  string         `json:"run_id"`
	Events []models.Event `json:"events"`
}

// RunInfo 执行记录摘要
type RunInfo struct {
	RunID          string     `json:"run_id"`
	Status         string     `json:"status"`
	Gender         string     `json:"sexo"`
	TemplateName   string     `json:"template_name"`
	ContractNumber string     `json:"contract_number"`
	Size           int64      `json:"size,omitempty"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	DownloadURL    string     `json:"download_url,omitempty"`
}

// RunDetailResponse 执行详情响应，包括字段和事件
type RunDetailResponse struct {
	RunInfo
	Fields map[string]map[string]string `json:"fields"`
	Events []models.Event               `json:"events"`
}

// RunListResponse 执行记录列表响应
type RunListResponse struct {
	PaginationResponse
	Runs []RunInfo `json:"runs"`
}

// ExtractResponse 单文档字段提取响应
type ExtractResponse struct {
	Kind    string            `json:"kind"`
	Fields  map[string]string `json:"fields"`
	Missing []string          `json:"missing"`
}

// FieldGroup 一个替换步骤填充的占位符
type FieldGroup struct {
	Step   string   `json:"step"`
	Fields []string `json:"fields"`
}

// FieldsResponse 占位符词汇表响应
type FieldsResponse struct {
	Steps []FieldGroup `json:"steps"`
	Kinds []string     `json:"kinds"`
}

// ConvertToRunInfo 将执行记录转换为响应结构，只有已完成的执行才设置 downloadURL
func ConvertToRunInfo(run *models.ContractRun, downloadURL string) RunInfo {
	info := RunInfo{
		RunID:          run.ID,
		Status:         string(run.Status),
		Gender:         run.Gender,
		TemplateName:   run.TemplateName,
		ContractNumber: run.ContractNumber,
		Size:           run.OutputSize,
		Error:          run.Error,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
	}
	if run.Status == models.RunStatusCompleted {
		info.DownloadURL = downloadURL
	}
	return info
}

// PaginationResponse 分页信息
type PaginationResponse struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
