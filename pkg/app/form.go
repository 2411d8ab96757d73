package app

import (
	"strings"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// BindAndValid 绑定请求参数并校验，校验错误按请求语言翻译
func BindAndValid(c *gin.Context, obj any) (bool, ValidErrors) {
	var errs ValidErrors
	if err := c.ShouldBind(obj); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs = append(errs, &ValidError{Key: "body", Message: err.Error()})
			return false, errs
		}

		trans, _ := c.Value(TransKey).(ut.Translator)
		for _, v := range verrs {
			msg := v.Error()
			if trans != nil {
				msg = v.Translate(trans)
			}
			errs = append(errs, &ValidError{Key: v.Field(), Message: msg})
		}
		return false, errs
	}
	return true, nil
}
