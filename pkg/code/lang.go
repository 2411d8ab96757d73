package code

import (
	"strings"
)

// lang type, used to store English and Chinese text
// lang 类型，用来存储英文和中文文本
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

const FALLBACK_LNG = "en"

// GetMessage returns the message in the given language, falling back to English
// GetMessage 根据传入的语言返回相应的消息，缺失时回退英文
func (l lang) GetMessage(language string) string {
	switch NormalizeLang(language) {
	case "zh_cn":
		if l.zh_cn != "" {
			return l.zh_cn
		}
	}
	return l.en
}

// NormalizeLang folds a request language (zh-CN, zh, en-US ...) to a supported key
// NormalizeLang 将请求语言折叠为受支持的语言键
func NormalizeLang(language string) string {
	language = strings.ToLower(strings.ReplaceAll(language, "-", "_"))
	if language == "zh" || strings.HasPrefix(language, "zh_") {
		return "zh_cn"
	}
	return FALLBACK_LNG
}

// GetSupportedLanguages returns all languages supported by the lang type
// GetSupportedLanguages 返回支持的所有语言
func GetSupportedLanguages() []string {
	return []string{"en", "zh_cn"}
}
