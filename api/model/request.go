package model

import (
	"mime/multipart"
)

// PaginationRequest 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页条数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页条数，默认10，最大100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// FillContractRequest 合同填充请求（multipart表单）
// 文件是否存在及扩展名由合同服务统一校验
type FillContractRequest struct {
	Template     *multipart.FileHeader `form:"modelo"`
	Registration *multipart.FileHeader `form:"ficha"`
	PropertyDeed *multipart.FileHeader `form:"matricula"`
	FederalCND   *multipart.FileHeader `form:"cnd"`
	StateCND     *multipart.FileHeader `form:"cnd_estadual"`
	LaborCND     *multipart.FileHeader `form:"cnd_trabalhista"`
	MunicipalCND *multipart.FileHeader `form:"cnd_prefeitura"`
	TransferTax  *multipart.FileHeader `form:"itbi"`
	Gender       string                `form:"sexo" binding:"omitempty,gender"`
}

// Uploads 按表单字段返回上传的文件
func (r *FillContractRequest) Uploads() map[string]*multipart.FileHeader {
	return map[string]*multipart.FileHeader{
		"modelo":          r.Template,
		"ficha":           r.Registration,
		"matricula":       r.PropertyDeed,
		"cnd":             r.FederalCND,
		"cnd_estadual":    r.StateCND,
		"cnd_trabalhista": r.LaborCND,
		"cnd_prefeitura":  r.MunicipalCND,
		"itbi":            r.TransferTax,
	}
}

// RunRequest 执行记录请求
type RunRequest struct {
	ID string `uri:"id" binding:"required"`
}

// RunListRequest 执行记录列表请求
type RunListRequest struct {
	PaginationRequest
	Status string `form:"status" json:"status" binding:"omitempty,oneof=processing completed failed"`
}

// ExtractRequest 单文档字段提取请求
type ExtractRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
}

// NormalizeRequest 模板标准化请求
type NormalizeRequest struct {
	File *multipart.FileHeader `form:"modelo" binding:"required"`
}
