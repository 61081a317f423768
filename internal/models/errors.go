package models

import (
	"errors"
	"fmt"
)

var (
	// ErrRunNotFound 执行记录不存在
	ErrRunNotFound = errors.New("contract run not found")

	// ErrRunNotCompleted 请求未完成执行的输出文件
	ErrRunNotCompleted = errors.New("contract run not completed")

	// ErrDownloadExpired 下载凭证已过期
	ErrDownloadExpired = errors.New("download expired")

	// ErrMissingDocument 缺少必需的上传文件
	ErrMissingDocument = errors.New("missing document")

	// ErrInvalidDocumentType 上传文件的扩展名无法处理
	ErrInvalidDocumentType = errors.New("invalid document type")
)

// DocumentParseError 源文档解析失败，发生时中止本次执行
type DocumentParseError struct {
	Slot string
	File string
	Err  error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("failed to parse %s (%s): %v", e.Slot, e.File, e.Err)
}

func (e *DocumentParseError) Unwrap() error {
	return e.Err
}
