package document

import (
	"fmt"
	"io"

	"github.com/fyerfyer/contract-filler/internal/docx"
)

// DocxParser Word文档解析器，每个段落一行
type DocxParser struct{}

// NewDocxParser 创建Word文档解析器
func NewDocxParser() Parser {
	return &DocxParser{}
}

// Parse 解析指定路径的文档
func (p *DocxParser) Parse(filePath string) (string, error) {
	doc, err := docx.OpenFile(filePath)
	if err != nil {
		return "", err
	}
	return doc.Text(docx.Body), nil
}

// ParseReader 从Reader解析文档
func (p *DocxParser) ParseReader(r io.Reader, filename string) (string, error) {
	doc, err := docx.Read(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return doc.Text(docx.Body), nil
}
