package app

import (
	"strings"

	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	// LangKey 请求语言
	LangKey = "lang"
	// TransKey 校验错误翻译器
	TransKey = "trans"
	// StatusCodeKey 已写出的 HTTP 状态码，供访问日志使用
	StatusCodeKey = "status_code"
)

// VersionInfo version information // 版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

type Response struct {
	Ctx *gin.Context
}

type ListRes struct {
	List  interface{} `json:"list"`  // Data list // 数据清单
	Total int         `json:"total"` // Total rows // 总数
}

// Res is the unified response structure: Code/Status/Message/Data
// Res 是统一的响应结构，Details 为 nil 时不序列化
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{
		Ctx: ctx,
	}
}

// Lang 当前请求语言，未设置时回退英文
func Lang(c *gin.Context) string {
	if c == nil {
		return code.FALLBACK_LNG
	}
	if v, ok := c.Get(LangKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return code.FALLBACK_LNG
}

// GetRequestIP gets the request IP
// GetRequestIP 获取ip
func GetRequestIP(c *gin.Context) string {
	reqIP := c.ClientIP()
	if reqIP == "::1" {
		reqIP = "127.0.0.1"
	}
	return reqIP
}

// ToResponse output to browser: unified use of Res
// ToResponse 输出到浏览器：统一使用 Res
func (r *Response) ToResponse(codeObj *code.Code) {
	r.Ctx.Set(StatusCodeKey, codeObj.StatusCode())

	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.MsgIn(Lang(r.Ctx)),
		Data:    codeObj.Data(),
	}

	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}

	r.send(codeObj.StatusCode(), content)
}

// ToResponseList outputs list response using ListRes as Data
// ToResponseList 输出列表响应，使用 ListRes 作为 Data
func (r *Response) ToResponseList(codeObj *code.Code, list interface{}, total int) {
	r.Ctx.Set(StatusCodeKey, codeObj.StatusCode())

	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.MsgIn(Lang(r.Ctx)),
		Data: ListRes{
			List:  list,
			Total: total,
		},
	}

	r.send(codeObj.StatusCode(), content)
}

func (r *Response) send(statusCode int, content interface{}) {
	r.Ctx.JSON(statusCode, content)
}
