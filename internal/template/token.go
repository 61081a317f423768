// Package template 标准化合同模板，并在不破坏格式的情况下填充 {{FIELD}} 占位符
package template

import (
	"regexp"
	"sort"

	"github.com/fyerfyer/contract-filler/internal/docx"
	"github.com/fyerfyer/contract-filler/internal/extract"
)

var tokenPattern = regexp.MustCompile(`\{\{([A-Z][A-Z0-9_]*)\}\}`)

// Token 生成字段的占位符
func Token(field string) string {
	return "{{" + field + "}}"
}

// Tokens 列出文档中出现的所有占位符名（去重）
func Tokens(doc *docx.Document) []string {
	seen := make(map[string]struct{})
	for _, p := range doc.Paragraphs(docx.AllParts...) {
		for _, m := range tokenPattern.FindAllStringSubmatch(p.Text(), -1) {
			seen[m[1]] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Vocabulary 列出所有可以填充的占位符
func Vocabulary() []string {
	seen := make(map[string]struct{})
	for _, fields := range extract.Vocabulary() {
		for _, f := range fields {
			seen[f] = struct{}{}
		}
	}
	for f := range GenderFields(Male) {
		seen[f] = struct{}{}
	}
	return sortedKeys(seen)
}

// UnknownTokens 列出文档中不在词汇表内的占位符
func UnknownTokens(doc *docx.Document) []string {
	known := make(map[string]struct{})
	for _, f := range Vocabulary() {
		known[f] = struct{}{}
	}

	var unknown []string
	for _, t := range Tokens(doc) {
		if _, ok := known[t]; !ok {
			unknown = append(unknown, t)
		}
	}
	return unknown
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
