package template

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Gender 性别，决定性别占位符填入的词形
type Gender string

const (
	Male   Gender = "masculino"
	Female Gender = "feminino"
)

// ParseGender 解析葡萄牙语或英语的性别写法，空字符串为男性
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "m", "masculino", "male":
		return Male, nil
	case "f", "feminino", "female":
		return Female, nil
	}
	return "", fmt.Errorf("invalid gender: %q", s)
}

var genderForms = map[string][2]string{
	"BRASILEIRO":  {"brasileiro", "brasileira"},
	"NASCIDO":     {"nascido", "nascida"},
	"PORTADOR":    {"portador", "portadora"},
	"INSCRITO":    {"inscrito", "inscrita"},
	"DOMICILIADO": {"domiciliado", "domiciliada"},
	"O_A":         {"o", "a"},
	"DO_DA":       {"do", "da"},
}

// 性别标签的大小写形式
// 首字母大写的标签对应 _CAP 结尾的占位符，全大写的标签对应 _UPPER
type letterCase int

const (
	lowerCase letterCase = iota
	capitalCase
	upperCase
)

func (c letterCase) token(base string) string {
	switch c {
	case capitalCase:
		return base + "_CAP"
	case upperCase:
		return base + "_UPPER"
	}
	return base
}

func (c letterCase) apply(s string) string {
	switch c {
	case capitalCase:
		r, size := utf8.DecodeRuneInString(s)
		return string(unicode.ToUpper(r)) + s[size:]
	case upperCase:
		return strings.ToUpper(s)
	}
	return s
}

// caseOf 判断标签的大小写形式，"O(A)" 算作全大写
func caseOf(label string) letterCase {
	var letters []rune
	for _, r := range label {
		if unicode.IsLetter(r) {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 || !unicode.IsUpper(letters[0]) {
		return lowerCase
	}
	for _, r := range letters[1:] {
		if !unicode.IsUpper(r) {
			return capitalCase
		}
	}
	if len(letters) == 1 {
		return capitalCase
	}
	return upperCase
}

// GenderFields 返回性别g下所有大小写形式的性别占位符取值
func GenderFields(g Gender) map[string]string {
	idx := 0
	if g == Female {
		idx = 1
	}

	out := make(map[string]string, 3*len(genderForms))
	for token, forms := range genderForms {
		for _, c := range []letterCase{lowerCase, capitalCase, upperCase} {
			out[c.token(token)] = c.apply(forms[idx])
		}
	}
	return out
}
