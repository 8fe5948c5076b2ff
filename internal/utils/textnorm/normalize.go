package textnorm

import (
	"regexp"
	"strings"
)

var (
	corporateSuffix = regexp.MustCompile(`(?i)\b(Inc|Incorporated|Corp|Corporation|LLC|LP|Ltd|S\.A\.|AG|PLC)\.?\b`)
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9 &\-]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// NormalizeIssuer 去掉公司后缀与标点并压缩空白，结果既作为精确匹配的键（再转小写），也作为模糊匹配的查询
func NormalizeIssuer(name string) string {
	s := corporateSuffix.ReplaceAllString(name, "")
	s = disallowedChars.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IssuerKey 参考表查找键
func IssuerKey(name string) string {
	return strings.ToLower(NormalizeIssuer(name))
}
