// Package document 将合同执行的源文件解析为纯文本，供字段提取使用
package document

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType 不支持的文件类型
var ErrUnsupportedType = errors.New("unsupported document type")

// Parser 文档解析器接口
// 负责将不同格式的文档解析为纯文本
type Parser interface {
	// Parse 解析文档，返回文本内容
	Parse(filePath string) (string, error)

	// ParseReader 从Reader解析文档，返回文本内容
	// filename用于确定文档类型和错误信息
	ParseReader(r io.Reader, filename string) (string, error)
}

// ContentType 表示文档的内容类型
type ContentType string

const (
	PDF       ContentType = "pdf"
	DOCX      ContentType = "docx"
	PlainText ContentType = "plaintext"
	Unknown   ContentType = "unknown"
)

// ParserFactory 解析器工厂函数，根据文件类型创建对应的解析器
func ParserFactory(filePath string) (Parser, error) {
	switch DetectContentType(filePath) {
	case PDF:
		return NewPDFParser(), nil
	case DOCX:
		return NewDocxParser(), nil
	case PlainText:
		return NewPlainTextParser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Base(filePath))
	}
}

// DetectContentType 根据文件扩展名检测内容类型
func DetectContentType(filePath string) ContentType {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	case ".txt":
		return PlainText
	default:
		return Unknown
	}
}
