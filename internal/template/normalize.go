package template

import (
	"regexp"
	"strings"

	"github.com/fyerfyer/contract-filler/internal/docx"
	"github.com/fyerfyer/contract-filler/internal/extract"
)

// NormalizeRule 将文本片段中的标签改写为占位符
// 设置了 Rewrite 时优先于 Replacement
type NormalizeRule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
	Rewrite     func(label string) string
}

// NormalizeReport 按规则统计改写次数
type NormalizeReport struct {
	Rewrites map[string]int
}

// Total 返回改写总数
func (r NormalizeReport) Total() int {
	n := 0
	for _, c := range r.Rewrites {
		n += c
	}
	return n
}

// blank 匹配模板中常见的待填写标记
const blank = `(?:_{3,}|\.{4,}|X{3,}|\[[^\]\n]*\])`

// DefaultNormalizeRules 返回合同模板的默认改写规则
func DefaultNormalizeRules() []NormalizeRule {
	birthplace := Token(extract.FieldBirthplace)
	return []NormalizeRule{
		newNormalizeRule("naturalidade", `(?i)(naturalidade\s*:?)\s*`+blank, "${1} "+birthplace),
		newNormalizeRule("natural_de", `(?i)(natural\s+de)\s*`+blank, "${1} "+birthplace),
		newGenderRule("brasileiro", `(?i)\bbrasileir[oa]\s*\(\s*a\s*\)`, "BRASILEIRO"),
		newGenderRule("nascido", `(?i)\bnascid[oa]\s*\(\s*a\s*\)`, "NASCIDO"),
		newGenderRule("portador", `(?i)\bportador\s*\(\s*a\s*\)`, "PORTADOR"),
		newGenderRule("inscrito", `(?i)\binscrit[oa]\s*\(\s*a\s*\)`, "INSCRITO"),
		newGenderRule("domiciliado", `(?i)\bdomiciliad[oa]\s*\(\s*a\s*\)`, "DOMICILIADO"),
		newGenderRule("do_da", `(?i)\bdo\s*\(\s*a\s*\)`, "DO_DA"),
		newGenderRule("o_a", `(?i)\bo\s*\(\s*a\s*\)`, "O_A"),
	}
}

func newNormalizeRule(name, pattern, replacement string) NormalizeRule {
	return NormalizeRule{Name: name, Pattern: regexp.MustCompile(pattern), Replacement: replacement}
}

// newGenderRule 按标签的大小写形式改写为对应的性别占位符
func newGenderRule(name, pattern, token string) NormalizeRule {
	return NormalizeRule{
		Name:    name,
		Pattern: regexp.MustCompile(pattern),
		Rewrite: func(label string) string {
			return Token(caseOf(strings.TrimSpace(label)).token(token))
		},
	}
}

// Normalizer 将模板中已知的标签改写为占位符
// 每个片段单独处理，保留模板的片段结构和格式，跨片段的标签保持不变
type Normalizer struct {
	rules []NormalizeRule
}

// NewNormalizer 创建标准化器，未指定规则时使用默认规则
func NewNormalizer(rules ...NormalizeRule) *Normalizer {
	if len(rules) == 0 {
		rules = DefaultNormalizeRules()
	}
	return &Normalizer{rules: rules}
}

// Normalize 返回标准化后的文档副本，对已标准化的文档再次处理不会有变化
func (n *Normalizer) Normalize(doc *docx.Document) (*docx.Document, NormalizeReport) {
	report := NormalizeReport{Rewrites: make(map[string]int)}

	out := doc.Edit(func(p *docx.Paragraph) {
		for i := range p.Runs {
			for _, r := range n.rules {
				text := p.Runs[i].Text
				count := len(r.Pattern.FindAllStringIndex(text, -1))
				if count == 0 {
					continue
				}
				if r.Rewrite != nil {
					p.Runs[i].Text = r.Pattern.ReplaceAllStringFunc(text, r.Rewrite)
				} else {
					p.Runs[i].Text = r.Pattern.ReplaceAllString(text, r.Replacement)
				}
				report.Rewrites[r.Name] += count
			}
		}
	})
	return out, report
}
