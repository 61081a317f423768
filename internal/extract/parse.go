package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00A0}\x{2007}\x{202F}]+`)
	anySpace        = regexp.MustCompile(`\s+`)

	numericDate = regexp.MustCompile(`(\d{1,2})\s*[/.\-]\s*(\d{1,2})\s*[/.\-]\s*(\d{4}|\d{2})\b`)
	writtenDate = regexp.MustCompile(`(?i)(\d{1,2})\s*[ºo°]?\s+de\s+(\p{L}+)\s+de\s+(\d{4})`)
	clockTime   = regexp.MustCompile(`(\d{1,2})\s*[:hH]\s*(\d{2})(?:\s*[:mM]\s*(\d{2}))?`)
	brAmount    = regexp.MustCompile(`(\d{1,3}(?:\.\d{3})+|\d+),(\d{2})\b`)
	dotAmount   = regexp.MustCompile(`(\d+)(?:\.(\d{2}))?\b`)
)

var months = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"março":     time.March,
	"marco":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

// Prepare 匹配前规范化文本：NFC组合、LF换行、合并空白并去掉行首尾空白
func Prepare(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

// Text 合并空白并去掉两端的分隔符
func Text(raw string) string {
	s := anySpace.ReplaceAllString(raw, " ")
	s = strings.TrimLeft(s, " :-–")
	s = strings.TrimRight(s, " ,;:-–")
	return s
}

// Upper Text 的大写形式
func Upper(raw string) string {
	return strings.ToUpper(Text(raw))
}

// Title Text 按葡萄牙语规则转换为首字母大写
func Title(raw string) string {
	return cases.Title(language.BrazilianPortuguese).String(strings.ToLower(Text(raw)))
}

// Code 规范化登记号、证明编号和凭证号：大写、去空白、去掉两端的标点
func Code(raw string) string {
	s := strings.ToUpper(anySpace.ReplaceAllString(raw, ""))
	return strings.Trim(s, ".,;:-/")
}

// CutAt 返回一个解析函数，从第一个出现的标签开始截断，标签按单词匹配且不区分大小写
func CutAt(labels ...string) ParseFunc {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = regexp.QuoteMeta(l)
	}
	tail := regexp.MustCompile(`(?is)\s*\b(?:` + strings.Join(quoted, "|") + `)\b.*$`)

	return func(raw string) string {
		return Text(tail.ReplaceAllString(raw, ""))
	}
}

// Date 将数字日期（12/03/2024、12.03.24、12-03-2024）和文字日期
// （"12 de março de 2024"）转换为 dd/mm/yyyy
func Date(raw string) string {
	if m := numericDate.FindStringSubmatch(raw); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year = expandYear(year)
		}
		return formatDate(year, time.Month(month), day)
	}

	if m := writtenDate.FindStringSubmatch(raw); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := months[strings.ToLower(m[2])]
		if !ok {
			return ""
		}
		year, _ := strconv.Atoi(m[3])
		return formatDate(year, month, day)
	}
	return ""
}

func expandYear(y int) int {
	if y < 70 {
		return 2000 + y
	}
	return 1900 + y
}

func formatDate(year int, month time.Month, day int) string {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return ""
	}
	return t.Format("02/01/2006")
}

// Time 解析 10:23:45、9:05 或 10h23 形式的时间
func Time(raw string) string {
	m := clockTime.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	h, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if h > 23 || minute > 59 {
		return ""
	}
	if m[3] == "" {
		return fmt.Sprintf("%02d:%02d", h, minute)
	}
	sec, _ := strconv.Atoi(m[3])
	if sec > 59 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, minute, sec)
}

// Currency 将金额格式化为雷亚尔，例如 "R$ 1.234,56"
func Currency(raw string) string {
	s := strings.ReplaceAll(raw, "R$", "")
	s = anySpace.ReplaceAllString(s, "")

	var units, cents string
	if m := brAmount.FindStringSubmatch(s); m != nil {
		units, cents = strings.ReplaceAll(m[1], ".", ""), m[2]
	} else if m := dotAmount.FindStringSubmatch(s); m != nil {
		units, cents = m[1], m[2]
		if cents == "" {
			cents = "00"
		}
	} else {
		return ""
	}

	units = strings.TrimLeft(units, "0")
	if units == "" {
		units = "0"
	}
	return "R$ " + groupThousands(units) + "," + cents
}

func groupThousands(digits string) string {
	var sb strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	sb.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		sb.WriteByte('.')
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
