// Package extract 从不动产买卖的证明文件文本中提取合同字段
// （登记表、不动产登记簿、各类无欠款证明和ITBI缴税凭证）
//
// 每种文档由一张有序的规则表描述，字段取第一条匹配且解析出非空值的规则的结果
// 没有规则能填充的字段为空字符串
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kind 文档类型，每种类型有自己的提取规则
type Kind string

const (
	KindRegistration     Kind = "ficha"
	KindPropertyDeed     Kind = "matricula"
	KindPropertyRecord   Kind = "matricula_info"
	KindFederalCND       Kind = "cnd"
	KindStateCND         Kind = "cnd_estadual"
	KindLaborCND         Kind = "cnd_trabalhista"
	KindMunicipalCND     Kind = "cnd_prefeitura"
	KindTransferTax      Kind = "itbi"
	KindContractTemplate Kind = "contrato"
)

// FieldMap 字段名到提取值的映射，包含该类型的所有字段，缺失的值为空字符串
type FieldMap map[string]string

// Missing 返回排序后的空字段名
func (m FieldMap) Missing() []string {
	var missing []string
	for k, v := range m {
		if v == "" {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

// Found 统计非空字段数
func (m FieldMap) Found() int {
	n := 0
	for _, v := range m {
		if v != "" {
			n++
		}
	}
	return n
}

// ParseFunc 将捕获的原始文本转换为字段值，结果为空时尝试下一条规则
type ParseFunc func(raw string) string

// Rule 字段提取规则，正则的第一个捕获组为原始值
type Rule struct {
	Field   string
	Pattern *regexp.Regexp
	Parse   ParseFunc
}

// NewRule 编译正则生成规则，正则无效时panic，用于包级规则表
func NewRule(field, pattern string, parse ParseFunc) Rule {
	if parse == nil {
		parse = Text
	}
	return Rule{Field: field, Pattern: regexp.MustCompile(pattern), Parse: parse}
}

// Extractor 字段提取器接口
type Extractor interface {
	Kind() Kind
	Fields() []string
	Extract(text string) FieldMap
}

// RuleExtractor 基于规则表的提取器
type RuleExtractor struct {
	kind   Kind
	fields []string
	rules  []Rule
}

// NewRuleExtractor 创建提取器，fields 为输出的字段，引用其他字段的规则会被忽略
func NewRuleExtractor(kind Kind, fields []string, rules []Rule) *RuleExtractor {
	return &RuleExtractor{kind: kind, fields: fields, rules: rules}
}

// Kind 返回文档类型
func (e *RuleExtractor) Kind() Kind { return e.kind }

// Fields 返回输出的字段
func (e *RuleExtractor) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Extract 对文本应用规则表
func (e *RuleExtractor) Extract(text string) FieldMap {
	text = Prepare(text)

	out := make(FieldMap, len(e.fields))
	for _, f := range e.fields {
		out[f] = ""
	}

	for _, r := range e.rules {
		current, known := out[r.Field]
		if !known || current != "" {
			continue
		}
		m := r.Pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		out[r.Field] = r.Parse(m[1])
	}
	return out
}

var registry = map[Kind]Extractor{}

// Register 注册提取器，同类型已注册的提取器会被替换
func Register(e Extractor) {
	registry[e.Kind()] = e
}

// For 获取指定类型的提取器
func For(kind Kind) (Extractor, error) {
	e, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown document kind: %q", kind)
	}
	return e, nil
}

// Extract 使用指定类型的提取器处理文本
func Extract(kind Kind, text string) (FieldMap, error) {
	e, err := For(kind)
	if err != nil {
		return nil, err
	}
	return e.Extract(text), nil
}

// Kinds 按处理顺序列出内置的文档类型
func Kinds() []Kind {
	return []Kind{
		KindRegistration,
		KindPropertyDeed,
		KindPropertyRecord,
		KindFederalCND,
		KindStateCND,
		KindLaborCND,
		KindMunicipalCND,
		KindTransferTax,
		KindContractTemplate,
	}
}

// ParseKind 校验文档类型名
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[k]; !ok {
		return "", fmt.Errorf("unknown document kind: %q", s)
	}
	return k, nil
}

// Vocabulary 返回所有已注册类型的字段
func Vocabulary() map[Kind][]string {
	out := make(map[Kind][]string, len(registry))
	for k, e := range registry {
		out[k] = e.Fields()
	}
	return out
}
