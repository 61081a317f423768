package docx

import (
	"bytes"
	"encoding/xml"
	"html"
	"regexp"
)

// textRun 部件中的一个 w:t 元素
type textRun struct {
	tagStart int // "<w:t" 的偏移
	start    int // 文本内容的偏移
	end      int // "</w:t>" 的偏移
	text     string
	para     int
	bold     bool
	italic   bool
}

var (
	markupPattern = regexp.MustCompile(`<w:(p|r|rPr|b|i)(?:\s[^>]*)?/?>|</w:(p|r|rPr)>|<w:t(?:\s[^>]*)?>[^<]*</w:t>`)
	disabledValue = regexp.MustCompile(`w:val=["'](?:0|false|off)["']`)
)

const closeText = "</w:t>"

type runProps struct {
	bold   bool
	italic bool
}

// scan 定位部件中的文本元素，记录所在段落以及所属run的粗体/斜体状态
func scan(data []byte) []textRun {
	var (
		runs      []textRun
		paraStack []int
		propStack []runProps
		inProps   bool
		paraCount int
	)

	for _, loc := range markupPattern.FindAllSubmatchIndex(data, -1) {
		tok := data[loc[0]:loc[1]]
		selfClosing := bytes.HasSuffix(tok, []byte("/>"))

		switch {
		case loc[2] >= 0:
			switch string(data[loc[2]:loc[3]]) {
			case "p":
				if !selfClosing {
					paraStack = append(paraStack, paraCount)
					paraCount++
				}
			case "r":
				if !selfClosing {
					propStack = append(propStack, runProps{})
				}
			case "rPr":
				inProps = !selfClosing && len(propStack) > 0
			case "b":
				if inProps && len(propStack) > 0 {
					propStack[len(propStack)-1].bold = !disabledValue.Match(tok)
				}
			case "i":
				if inProps && len(propStack) > 0 {
					propStack[len(propStack)-1].italic = !disabledValue.Match(tok)
				}
			}

		case loc[4] >= 0:
			switch string(data[loc[4]:loc[5]]) {
			case "p":
				if len(paraStack) > 0 {
					paraStack = paraStack[:len(paraStack)-1]
				}
			case "r":
				if len(propStack) > 0 {
					propStack = propStack[:len(propStack)-1]
				}
				inProps = false
			case "rPr":
				inProps = false
			}

		default:
			r := textRun{
				tagStart: loc[0],
				start:    loc[0] + bytes.IndexByte(tok, '>') + 1,
				end:      loc[1] - len(closeText),
			}
			r.text = html.UnescapeString(string(data[r.start:r.end]))

			if len(paraStack) > 0 {
				r.para = paraStack[len(paraStack)-1]
			} else {
				r.para = paraCount
				paraCount++
			}
			if len(propStack) > 0 {
				top := propStack[len(propStack)-1]
				r.bold, r.italic = top.bold, top.italic
			}
			runs = append(runs, r)
		}
	}
	return runs
}

// render 改写被修改片段的文本内容
func render(data []byte, runs []textRun, edits map[int]string) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data))

	last := 0
	for i, r := range runs {
		text, ok := edits[i]
		if !ok {
			continue
		}
		buf.Write(data[last:r.tagStart])
		buf.Write(preserveSpace(data[r.tagStart:r.start]))
		_ = xml.EscapeText(&buf, []byte(text))
		last = r.end
	}
	buf.Write(data[last:])
	return buf.Bytes()
}

// preserveSpace 确保 w:t 标签保留内容首尾的空白
func preserveSpace(tag []byte) []byte {
	if bytes.Contains(tag, []byte("xml:space")) {
		return tag
	}
	out := make([]byte, 0, len(tag)+len(` xml:space="preserve"`))
	out = append(out, tag[:len(tag)-1]...)
	out = append(out, ` xml:space="preserve">`...)
	return out
}
