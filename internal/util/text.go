package util

import (
	"regexp"
	"strings"
)

var (
	codeFenceRe  = regexp.MustCompile("(?s)```[a-zA-Z]*\\n?(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	boldUnderRe  = regexp.MustCompile(`__(.*?)__`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numListRe    = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown 去除AI回答中的Markdown标记，保留纯文本
// 对已经是纯文本的输入调用是幂等的
func StripMarkdown(text string) string {
	text = codeFenceRe.ReplaceAllString(text, "$1")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = boldRe.ReplaceAllString(text, "$1")
	text = boldUnderRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = numListRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var jsonArrayRe = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

// ExtractJSONArray 从模型自由文本输出中提取首个JSON对象数组
// 先剥掉代码围栏，再做贪婪匹配，找不到时返回空串
func ExtractJSONArray(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return jsonArrayRe.FindString(text)
}
