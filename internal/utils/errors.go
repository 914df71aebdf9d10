package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// 请求相关错误
	ErrInvalidVideoID = errors.New("invalid video id")

	// 提取结果错误
	ErrNotFound            = errors.New("could not retrieve video information")
	ErrNoAudioURL          = errors.New("no audio URL found in any format")
	ErrAuthRequired        = errors.New("sign-in required")
	ErrUnavailable         = errors.New("video unavailable")
	ErrCopyrightRestricted = errors.New("video restricted due to copyright")
	ErrGeoRestricted       = errors.New("video is geo-restricted")
	ErrExtractionFailed    = errors.New("extraction failed")
	// ErrExtractionTimeout 仍归入 ErrExtractionFailed
	ErrExtractionTimeout = fmt.Errorf("%w: timed out", ErrExtractionFailed)

	// 系统相关错误
	ErrCacheMiss     = errors.New("cache miss")
	ErrYTDLPNotFound = errors.New("yt-dlp binary not found")
)

// ExtractionError 提取器抛出的错误, 携带原始信息和分类
type ExtractionError struct {
	Kind    error
	Message string
}

// NewExtractionError 根据错误信息创建分类后的提取错误
func NewExtractionError(message string) *ExtractionError {
	return &ExtractionError{
		Kind:    ClassifyMessage(message),
		Message: message,
	}
}

// NewTimeoutError 提取超时
func NewTimeoutError() *ExtractionError {
	return &ExtractionError{
		Kind:    ErrExtractionTimeout,
		Message: "extraction timed out",
	}
}

func (e *ExtractionError) Error() string {
	return e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Kind
}

// classifierRule 子串匹配规则, 按顺序匹配
type classifierRule struct {
	kind     error
	patterns []string
}

// 地区限制和版权限制的提示通常也包含 "video unavailable", 需先于其匹配
var classifierRules = []classifierRule{
	{ErrAuthRequired, []string{"sign in to", "login required", "use --cookies"}},
	{ErrGeoRestricted, []string{"available in your country", "geo restrict", "geo-restrict", "blocked it in your country"}},
	{ErrCopyrightRestricted, []string{"copyright"}},
	{ErrUnavailable, []string{"video unavailable", "private video", "has been removed", "has been deleted", "no longer available"}},
}

// ClassifyMessage 按错误信息粗略分类, 无法识别时归为 ErrExtractionFailed
//
// 匹配依赖上游措辞, 仅作尽力而为的分类。
func ClassifyMessage(message string) error {
	lower := strings.ToLower(message)

	for _, rule := range classifierRules {
		for _, p := range rule.patterns {
			if strings.Contains(lower, p) {
				return rule.kind
			}
		}
	}

	return ErrExtractionFailed
}

// StatusCode 将错误映射到 HTTP 状态码
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidVideoID):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoAudioURL), errors.Is(err, ErrUnavailable):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthRequired), errors.Is(err, ErrCopyrightRestricted):
		return http.StatusForbidden
	case errors.Is(err, ErrGeoRestricted):
		return http.StatusUnavailableForLegalReasons
	default:
		return http.StatusInternalServerError
	}
}

// IsExpected 是否为已分类的错误 (可将信息直接返回给调用方)
func IsExpected(err error) bool {
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return true
	}
	return errors.Is(err, ErrInvalidVideoID) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoAudioURL)
}
