package document

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// PlainTextParser 纯文本解析器，主要用于直接传入已提取的文本
type PlainTextParser struct{}

// NewPlainTextParser 创建纯文本解析器
func NewPlainTextParser() Parser {
	return &PlainTextParser{}
}

// Parse 读取文本文件
func (p *PlainTextParser) Parse(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open text file: %w", err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader 从Reader读取文本，去掉开头的BOM
func (p *PlainTextParser) ParseReader(r io.Reader, filename string) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read text file %s: %w", filename, err)
	}
	return strings.TrimPrefix(string(content), "\ufeff"), nil
}
