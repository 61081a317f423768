// Package storage 保存生成的合同文件，支持本地目录和兼容S3的存储桶
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound 路径下没有对象时返回
var ErrNotFound = errors.New("file not found")

// FileInfo 已存储文件的信息
type FileInfo struct {
	ID       string // 唯一标识，同时是对象的文件名
	Name     string // 原始文件名
	Size     int64
	MimeType string
	Path     string // 存储内以斜杠分隔的位置
}

// Storage 文件存储接口，路径均为 Save 返回的路径
type Storage interface {
	// Save 以新的ID保存reader中的内容
	Save(ctx context.Context, reader io.Reader, filename string) (FileInfo, error)

	// Open 打开指定路径的文件内容
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete 删除指定路径的文件
	Delete(ctx context.Context, path string) error

	// Exists 检查指定路径的文件是否存在
	Exists(ctx context.Context, path string) (bool, error)

	// List 列出所有已存储的文件
	List(ctx context.Context) ([]FileInfo, error)
}

// Config 存储配置
type Config struct {
	Type  string // "local" 或 "minio"
	Local LocalConfig
	Minio MinioConfig
}

// New 根据 cfg.Type 创建存储实例
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.Local)
	case "minio":
		return NewMinioStorage(cfg.Minio)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// objectPath 生成按日期组织的对象路径
func objectPath(now time.Time, id, filename string) string {
	return fmt.Sprintf("%04d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), id, strings.ToLower(filepath.Ext(filename)))
}

// cleanPath 拒绝跳出存储目录的路径
func cleanPath(p string) (string, error) {
	cleaned := path.Clean("/" + filepath.ToSlash(p))[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(filepath.ToSlash(p), "/") {
		return "", fmt.Errorf("invalid storage path: %q", p)
	}
	return cleaned, nil
}

// idFromPath 从对象路径的文件名中取出ID
func idFromPath(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// MimeType 根据文件扩展名推断内容类型
func MimeType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".html":
		return "text/html"
	case ".json":
		return "application/json"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	default:
		return "application/octet-stream"
	}
}
