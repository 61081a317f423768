// Package docx 以带格式的文本片段（run）为单位读取和改写Word文档（.docx）的文本
//
// Document 不可变：Edit 返回新的 Document，原文档保持不变
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// MimeType .docx 文件的内容类型
const MimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const mainPart = "word/document.xml"

// ErrInvalidDocument 数据不是可读的.docx文件
var ErrInvalidDocument = errors.New("invalid docx document")

// PartKind 文档内容部件的类型
type PartKind string

const (
	Body   PartKind = "body"
	Header PartKind = "header"
	Footer PartKind = "footer"
	Notes  PartKind = "notes"
)

// AllParts 按文件中的顺序列出所有部件类型
var AllParts = []PartKind{Body, Header, Footer, Notes}

// Run 段落中的一个带格式的文本片段
type Run struct {
	Text   string
	Bold   bool
	Italic bool
}

// Paragraph 一个段落中按顺序排列的文本片段
type Paragraph struct {
	Kind PartKind
	Part string
	Runs []Run
}

// Text 拼接所有片段的文本
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Document 已打开的.docx文档
type Document struct {
	files   []file
	stories []*story
}

type file struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

type story struct {
	file int
	kind PartKind
	runs []textRun
}

// Open 从内存数据解析.docx文档
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc := &Document{}
	hasMain := false
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidDocument, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidDocument, f.Name, err)
		}

		doc.files = append(doc.files, file{
			name:     f.Name,
			method:   f.Method,
			modified: f.Modified,
			data:     content,
		})

		kind, ok := partKind(f.Name)
		if !ok {
			continue
		}
		if kind == Body {
			hasMain = true
		}
		doc.stories = append(doc.stories, &story{
			file: len(doc.files) - 1,
			kind: kind,
			runs: scan(content),
		})
	}

	if !hasMain {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidDocument, mainPart)
	}
	return doc, nil
}

// Read 从Reader解析.docx文档
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Open(data)
}

// OpenFile 解析指定路径的.docx文档
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Open(data)
}

// Paragraphs 按文件顺序返回指定部件中的段落，不指定时只返回正文
// 没有任何文本片段的段落会被跳过
func (d *Document) Paragraphs(kinds ...PartKind) []Paragraph {
	if len(kinds) == 0 {
		kinds = []PartKind{Body}
	}

	var out []Paragraph
	for _, s := range d.stories {
		if !containsKind(kinds, s.kind) {
			continue
		}
		for _, g := range s.paragraphs() {
			p := Paragraph{Kind: s.kind, Part: d.files[s.file].name}
			for _, i := range g {
				r := s.runs[i]
				p.Runs = append(p.Runs, Run{Text: r.text, Bold: r.bold, Italic: r.italic})
			}
			out = append(out, p)
		}
	}
	return out
}

// Text 返回指定部件的纯文本，每个段落一行，不指定时只使用正文
func (d *Document) Text(kinds ...PartKind) string {
	paragraphs := d.Paragraphs(kinds...)
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		lines = append(lines, p.Text())
	}
	return strings.Join(lines, "\n")
}

// Edit 对每个部件的每个段落调用fn，返回带有修改后文本的新文档
// fn 只能修改已有片段的 Text，增删片段或修改格式时该段落的修改会被忽略
func (d *Document) Edit(fn func(p *Paragraph)) *Document {
	out := &Document{
		files:   make([]file, len(d.files)),
		stories: make([]*story, len(d.stories)),
	}
	copy(out.files, d.files)

	for si, s := range d.stories {
		edits := make(map[int]string)
		for _, g := range s.paragraphs() {
			p := Paragraph{Kind: s.kind, Part: d.files[s.file].name}
			for _, i := range g {
				r := s.runs[i]
				p.Runs = append(p.Runs, Run{Text: r.text, Bold: r.bold, Italic: r.italic})
			}

			fn(&p)

			if len(p.Runs) != len(g) {
				continue
			}
			for k, i := range g {
				if p.Runs[k].Text != s.runs[i].text {
					edits[i] = p.Runs[k].Text
				}
			}
		}

		if len(edits) == 0 {
			out.stories[si] = s
			continue
		}

		f := d.files[s.file]
		f.data = render(f.data, s.runs, edits)
		out.files[s.file] = f
		out.stories[si] = &story{file: s.file, kind: s.kind, runs: scan(f.data)}
	}
	return out
}

// Bytes 将文档序列化为.docx文件，保留原文件的条目顺序和压缩方式
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range d.files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   f.method,
			Modified: f.modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create entry %s: %w", f.name, err)
		}
		if _, err := w.Write(f.data); err != nil {
			return nil, fmt.Errorf("failed to write entry %s: %w", f.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize document: %w", err)
	}
	return buf.Bytes(), nil
}

// paragraphs 按段落对片段下标分组，按首次出现的顺序排列
func (s *story) paragraphs() [][]int {
	var groups [][]int
	index := make(map[int]int)
	for i, r := range s.runs {
		g, ok := index[r.para]
		if !ok {
			g = len(groups)
			index[r.para] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func partKind(name string) (PartKind, bool) {
	switch {
	case name == mainPart:
		return Body, true
	case strings.HasPrefix(name, "word/header") && strings.HasSuffix(name, ".xml"):
		return Header, true
	case strings.HasPrefix(name, "word/footer") && strings.HasSuffix(name, ".xml"):
		return Footer, true
	case name == "word/footnotes.xml", name == "word/endnotes.xml":
		return Notes, true
	}
	return "", false
}

func containsKind(kinds []PartKind, k PartKind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}
