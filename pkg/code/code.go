package code

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a Code so callers can react without matching individual numbers
// Kind 错误分类，调用方无需逐个匹配错误码即可处理
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindValidation
	KindStorage
	KindRemote
	KindRateLimited
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	case KindRemote:
		return "remote"
	case KindRateLimited:
		return "rate_limited"
	case KindInternal:
		return "internal"
	}
	return "none"
}

type Code struct {
	// 状态码
	code int
	// 状态
	status bool
	kind   Kind
	// 错误消息
	Lang lang
	// 数据
	data     interface{}
	haveData bool
	// 错误详细信息
	details     []string
	haveDetails bool
}

var codes = map[int]string{}
var sussCodes = map[int]string{}

// NewError registers a failure code, panics on duplicates
// NewError 注册错误码，重复注册会 panic
func NewError(code int, kind Kind, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.en
	return &Code{code: code, status: false, kind: kind, Lang: l}
}

// NewSuss registers a success code
// NewSuss 注册成功码
func NewSuss(code int, l lang) *Code {
	if _, ok := sussCodes[code]; ok {
		panic(fmt.Sprintf("成功码 %d 已经存在，请更换一个", code))
	}
	sussCodes[code] = l.en
	return &Code{code: code, status: true, Lang: l}
}

// Clone returns a copy without data and details
// Clone 创建一个不含数据和详情的副本
func (e *Code) Clone() *Code {
	return &Code{
		code:    e.code,
		status:  e.status,
		kind:    e.kind,
		Lang:    e.Lang,
		details: []string{},
	}
}

func (e *Code) Error() string {
	if e.haveDetails {
		return fmt.Sprintf("%s: %v", e.Msg(), e.details)
	}
	return e.Msg()
}

// Is matches by code number so errors.Is works on clones
// Is 按错误码比较，使 errors.Is 对副本同样有效
func (e *Code) Is(target error) bool {
	var t *Code
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code && t.status == e.status
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Kind() Kind {
	return e.kind
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage(FALLBACK_LNG)
}

// MsgIn returns the message in the given language
// MsgIn 返回指定语言的消息
func (e *Code) MsgIn(language string) string {
	return e.Lang.GetMessage(language)
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

func (e *Code) WithData(data interface{}) *Code {
	c := e.clone()
	c.haveData = true
	c.data = data
	return c
}

func (e *Code) WithDetails(details ...string) *Code {
	c := e.clone()
	c.haveDetails = true
	c.details = append([]string{}, details...)
	return c
}

// clone keeps data and details, unlike Clone
func (e *Code) clone() *Code {
	c := *e
	c.details = append([]string{}, e.details...)
	return &c
}

// StatusCode maps the kind to an HTTP status
// StatusCode 根据分类映射 HTTP 状态码
func (e *Code) StatusCode() int {
	switch e.kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindRemote:
		return http.StatusBadGateway
	case KindStorage, KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

// KindOf returns the kind of the first Code in err's chain
// KindOf 返回错误链中第一个 Code 的分类
func KindOf(err error) Kind {
	var c *Code
	if errors.As(err, &c) {
		return c.kind
	}
	return KindNone
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func IsStorage(err error) bool {
	return KindOf(err) == KindStorage
}

func IsRemote(err error) bool {
	return KindOf(err) == KindRemote
}
