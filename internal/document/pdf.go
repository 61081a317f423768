package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
)

// PDFParser PDF文档解析器
//
// 按行读取每一页，保留字段规则依赖的行结构
// 页面读取不到文本时，用pdfcpu导出原始内容流并解码其中的文本操作符
// 没有文本层的PDF（扫描件）解析结果为空字符串，不返回错误
type PDFParser struct{}

// NewPDFParser 创建PDF解析器
func NewPDFParser() Parser {
	return &PDFParser{}
}

// Parse 解析PDF文件，返回文本内容
func (p *PDFParser) Parse(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF file: %w", err)
	}

	text, err := readRows(data)
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF %s: %w", filepath.Base(filePath), err)
	}
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	// 到这里文件已确认是可读的PDF，备用方案失败说明没有可提取的文本
	text, err = extractContentStreams(filePath)
	if err != nil {
		return "", nil
	}
	return text, nil
}

// ParseReader 将Reader内容写入临时文件后解析
func (p *PDFParser) ParseReader(r io.Reader, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "contract-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to buffer PDF %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to buffer PDF %s: %w", filename, err)
	}
	return p.Parse(tmp.Name())
}

// readRows 返回每页的文本，每个文本行一行
// 部分格式错误的文件会导致读取时panic，这里转换为错误返回
func readRows(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			line := joinRow(row.Content)
			if strings.TrimSpace(line) == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// joinRow 拼接一行中的文本片段，片段之间有水平间距时补一个空格
func joinRow(chunks pdf.TextHorizontal) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i > 0 {
			prev := chunks[i-1]
			gap := c.X - (prev.X + prev.W)
			if gap > prev.FontSize*0.15 && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(c.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(c.S)
	}
	return sb.String()
}

var (
	textOperator = regexp.MustCompile(`\[((?:\\.|[^\]\\])*)\]\s*TJ|\(((?:\\.|[^\\)])*)\)\s*(?:Tj|'|")|(?:^|\s)(T\*|Td|TD|ET)\b`)
	arrayString  = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
	octalEscape  = regexp.MustCompile(`^[0-7]{1,3}`)
)

// extractContentStreams 用pdfcpu导出页面内容流，并解码文本操作符显示的字符串
func extractContentStreams(filePath string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pdfcpu_extract_")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(filePath, tmpDir, nil, conf); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted content dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return pageNumber(names[i]) < pageNumber(names[j])
	})

	var sb strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(tmpDir, name))
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", name, err)
		}
		sb.WriteString(decodeTextOperators(string(data)))
	}
	return strings.TrimLeft(sb.String(), "\n"), nil
}

// pageNumber 从导出的内容文件名中读取页码，例如 "deed_Content_page_12.txt"
func pageNumber(name string) int {
	base := strings.TrimSuffix(name, ".txt")
	idx := strings.LastIndexByte(base, '_')
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

func decodeTextOperators(content string) string {
	var sb strings.Builder
	for _, m := range textOperator.FindAllStringSubmatch(content, -1) {
		switch {
		case m[3] != "":
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte('\n')
			}
		case m[1] != "":
			for _, s := range arrayString.FindAllStringSubmatch(m[1], -1) {
				sb.WriteString(decodeLiteral(s[1]))
			}
		default:
			sb.WriteString(decodeLiteral(m[2]))
		}
	}
	if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteByte('\n')
	}
	return sb.String()
}

// decodeLiteral 处理PDF字面字符串中的转义，并按标准字体使用的WinAnsi编码解码
func decodeLiteral(s string) string {
	var raw []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			raw = append(raw, c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			raw = append(raw, '\n')
		case 'r':
			raw = append(raw, '\r')
		case 't':
			raw = append(raw, '\t')
		case 'b':
			raw = append(raw, '\b')
		case 'f':
			raw = append(raw, '\f')
		case '\n':
		default:
			if oct := octalEscape.FindString(s[i:]); oct != "" {
				v, _ := strconv.ParseUint(oct, 8, 8)
				raw = append(raw, byte(v))
				i += len(oct) - 1
				continue
			}
			raw = append(raw, s[i])
		}
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
