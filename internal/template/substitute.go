package template

import (
	"sort"
	"strings"

	"github.com/fyerfyer/contract-filler/internal/docx"
)

// SubstitutionReport 一次替换的报告
type SubstitutionReport struct {
	Replaced   map[string]int
	Unresolved []string
}

// Total 返回替换的占位符总数
func (r SubstitutionReport) Total() int {
	n := 0
	for _, c := range r.Replaced {
		n += c
	}
	return n
}

type tokenEdit struct {
	start, end int
	value      string
}

// Substitute 将名称在fields中的 {{NAME}} 占位符替换为对应的值（按字面写入），返回新文档
//
// 占位符在整个段落的文本上查找，跨多个片段的占位符也能找到
// 值写入包含起始括号的片段，占位符的其余部分从后续片段中删除，不增删片段也不改格式
// fields中没有的占位符保持不变
func Substitute(doc *docx.Document, fields map[string]string) (*docx.Document, SubstitutionReport) {
	report := SubstitutionReport{Replaced: make(map[string]int)}
	unresolved := make(map[string]struct{})

	out := doc.Edit(func(p *docx.Paragraph) {
		full := p.Text()
		matches := tokenPattern.FindAllStringSubmatchIndex(full, -1)
		if len(matches) == 0 {
			return
		}

		var edits []tokenEdit
		for _, m := range matches {
			name := full[m[2]:m[3]]
			value, ok := fields[name]
			if !ok {
				unresolved[name] = struct{}{}
				continue
			}
			edits = append(edits, tokenEdit{start: m[0], end: m[1], value: value})
			report.Replaced[name]++
		}
		if len(edits) == 0 {
			return
		}

		applyEdits(p, full, edits)
	})

	report.Unresolved = make([]string, 0, len(unresolved))
	for name := range unresolved {
		report.Unresolved = append(report.Unresolved, name)
	}
	sort.Strings(report.Unresolved)
	return out, report
}

// applyEdits 改写p的片段，将full中每个编辑区间替换为对应的值，edits 有序且不重叠
func applyEdits(p *docx.Paragraph, full string, edits []tokenEdit) {
	runStart := 0
	for i := range p.Runs {
		runEnd := runStart + len(p.Runs[i].Text)

		var sb strings.Builder
		pos := runStart
		for _, e := range edits {
			if e.end <= runStart || e.start >= runEnd {
				continue
			}
			if e.start > pos {
				sb.WriteString(full[pos:e.start])
			}
			if e.start >= runStart {
				sb.WriteString(e.value)
			}
			pos = min(e.end, runEnd)
		}
		if pos < runEnd {
			sb.WriteString(full[pos:runEnd])
		}

		p.Runs[i].Text = sb.String()
		runStart = runEnd
	}
}
