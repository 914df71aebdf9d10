package utils

import (
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// IsValidVideoID 验证视频ID格式
func IsValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// SanitizeString 清理字符串中的特殊字符
func SanitizeString(s string) string {
	// 去除首尾空白
	s = strings.TrimSpace(s)

	// 替换多个空白为单个空格
	s = strings.Join(strings.Fields(s), " ")

	return s
}
