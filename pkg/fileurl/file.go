// Package fileurl 本地路径工具
package fileurl

import (
	"os"
	"path/filepath"
)

// IsDir 判断所给路径是否为文件夹
func IsDir(path string) bool {
	s, err := os.Stat(path)
	if err != nil {
		return false
	}
	return s.IsDir()
}

// IsExist 判断所给路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// CreatePath 创建文件所在目录
func CreatePath(dst string, perm os.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), perm)
}

// FirstExisting 按顺序返回第一个存在的路径，都不存在时返回空字符串
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if IsExist(p) {
			return p
		}
	}
	return ""
}
