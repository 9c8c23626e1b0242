package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// 支持的语言
const (
	LocaleES = "es-MX"
	LocaleEN = "en-US"
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleES

var supportedTags = []language.Tag{
	language.MustParse(LocaleES),
	language.MustParse(LocaleEN),
}

var matcher = language.NewMatcher(supportedTags)

// ResolveLocale 按 lang 查询参数、X-Locale 头、Accept-Language 头的顺序解析语言
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	if lang := strings.TrimSpace(c.GetHeader("X-Locale")); lang != "" {
		return NormalizeLocale(lang)
	}
	return MatchAcceptLanguage(c.GetHeader("Accept-Language"))
}

// MatchAcceptLanguage 解析 Accept-Language 并匹配支持的语言
func MatchAcceptLanguage(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return supportedTags[index].String()
}

// NormalizeLocale 将任意语言标记归一到支持的语言
func NormalizeLocale(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return DefaultLocale
	}
	return supportedTags[index].String()
}

// T 翻译，缺失时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	if catalog, ok := catalogs[NormalizeLocale(locale)]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译后格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
