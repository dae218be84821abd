// Package fileurl 文件路径与对象 key 的辅助函数
package fileurl

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GetFileExt gets file extension, lower-cased
// GetFileExt 获取文件后缀（小写）
func GetFileExt(name string) string {
	return strings.ToLower(path.Ext(name))
}

// GetDatePath gets date save path, default layout "200601/02"
// GetDatePath 获取日期保存路径，默认格式 "200601/02"
func GetDatePath(t time.Time, layout string) string {
	if layout == "" {
		layout = "200601/02"
	}
	return t.Format(layout)
}

// NewObjectKey builds "<date path>/<uuid><ext>" for an uploaded file
// NewObjectKey 为上传文件生成 "<日期路径>/<uuid><后缀>" 形式的 key
func NewObjectKey(t time.Time, fileName string) string {
	return GetDatePath(t, "") + "/" + uuid.New().String() + GetFileExt(fileName)
}

// PathSuffixCheckAdd checks path suffix, adds it if not exists
// PathSuffixCheckAdd 检查路径后缀，如果没有则添加
func PathSuffixCheckAdd(p string, suffix string) string {
	if !strings.HasSuffix(p, suffix) {
		p = p + suffix
	}
	return p
}

// JoinKey prefixes key with customPath, ignoring an empty prefix
// JoinKey 在 key 前拼接自定义前缀，前缀为空时原样返回
func JoinKey(customPath, key string) string {
	key = strings.TrimPrefix(key, "/")
	if customPath == "" {
		return key
	}
	return PathSuffixCheckAdd(strings.TrimPrefix(customPath, "/"), "/") + key
}

// IsExist determines if the given path exists
// IsExist 判断所给路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	return err == nil
}

// CreatePath creates the parent directory of dst
// CreatePath 创建 dst 的父目录
func CreatePath(dst string, perm os.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), perm)
}

// GetExePath gets directory of the current executable
// GetExePath 获取当前执行文件所在目录
func GetExePath() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
