package middleware

import (
	"github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 创建带翻译器的语言中间件（支持依赖注入）
// 语言取自 lang 查询参数、lang 请求头或 Accept-Language
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {

	return func(c *gin.Context) {

		var lang string

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		} else if s = c.GetHeader("Accept-Language"); len(s) >= 2 {
			lang = s[:2]
		}

		lang = code.NormalizeLang(lang)
		c.Set(app.LangKey, lang)

		if uni != nil {
			locale := "en"
			if lang == "zh_cn" {
				locale = "zh"
			}
			trans, found := uni.GetTranslator(locale)
			if !found {
				trans, _ = uni.GetTranslator("en")
			}
			c.Set(app.TransKey, trans)
		}

		c.Next()
	}
}
