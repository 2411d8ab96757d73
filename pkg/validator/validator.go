// Package validator 提供 gin 绑定使用的校验器和自定义规则
package validator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/pkg/errors"
)

// CustomValidator 实现 binding.StructValidator
type CustomValidator struct {
	once     sync.Once
	validate *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct 校验结构体及结构体指针，其他类型直接放行
func (v *CustomValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	v.lazyinit()
	return v.validate.Struct(obj)
}

// Engine 返回底层 *validator.Validate
func (v *CustomValidator) Engine() any {
	v.lazyinit()
	return v.validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.validate = validator.New()
		v.validate.SetTagName("binding")
	})
}

var profilePattern = regexp.MustCompile(`^[A-Za-z0-9_.@-]{1,128}$`)

// RegisterCustom 在 gin 的校验引擎上注册自定义规则：
// profile 档案名，sourcekind 卡片来源类型
func RegisterCustom() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("profile", func(fl validator.FieldLevel) bool {
		return profilePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("sourcekind", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "note", "recording":
			return true
		}
		return false
	})
}

// ValidProfile 档案名是否合法
func ValidProfile(s string) bool {
	return profilePattern.MatchString(s)
}

// Setup 替换 gin 的校验器，注册自定义规则，并返回 en / zh 翻译器
// 错误信息中的字段名取 json 标签
func Setup() (*ut.UniversalTranslator, error) {
	cv := NewCustomValidator()
	binding.Validator = cv
	v := cv.Engine().(*validator.Validate)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	RegisterCustom()

	uni := ut.New(en.New(), en.New(), zh.New())
	enTrans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(v, enTrans); err != nil {
		return nil, errors.Wrap(err, "register en translations failed")
	}
	zhTrans, _ := uni.GetTranslator("zh")
	if err := zhTranslations.RegisterDefaultTranslations(v, zhTrans); err != nil {
		return nil, errors.Wrap(err, "register zh translations failed")
	}
	return uni, nil
}
