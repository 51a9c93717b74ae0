package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slug 把食物名称规范化为目录键：小写、去标点、空白转连字符。
// 规范化后相同的不同名称会落到同一个目录项上。
func Slug(name string) string {
	lowered := cases.Lower(language.Und).String(name)

	var b strings.Builder
	pendingSeparator := false
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r):
			if pendingSeparator && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSeparator = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingSeparator = true
		}
	}

	return b.String()
}

// FoodKey 返回名称对应的目录键，slug 为空时使用 fallback 生成的唯一标识
func FoodKey(name string, fallback func() string) string {
	if key := Slug(name); key != "" {
		return key
	}
	return fallback()
}
