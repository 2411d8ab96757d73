// Package convert 字符串形式配置与表单值的转换
package convert

import (
	"strconv"
	"strings"
)

// StrTo 待转换的字符串
type StrTo string

// Float64 解析浮点数，如表单中的录音时长
func (s StrTo) Float64() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
}

// sizeUnits 按后缀长度从长到短匹配
var sizeUnits = []struct {
	suffix string
	factor int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ToSize 将 "200MB"、"2kb"、"512" 这类写法转换为字节数，空串为 0
func (s StrTo) ToSize() (int64, error) {
	str := strings.ToUpper(strings.TrimSpace(string(s)))
	if str == "" {
		return 0, nil
	}
	factor := int64(1)
	for _, u := range sizeUnits {
		if rest, ok := strings.CutSuffix(str, u.suffix); ok {
			str, factor = rest, u.factor
			break
		}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64)
	if err != nil {
		return 0, err
	}
	return n * factor, nil
}

// MustToSize 出错或非正数时返回 def
func (s StrTo) MustToSize(def int64) int64 {
	if v, err := s.ToSize(); err == nil && v > 0 {
		return v
	}
	return def
}
