package detector

import (
	"regexp"
	"strings"

	"vasset/resolver-service/internal/utils"
)

// VideoIDDetector 从链接或裸 ID 中识别视频 ID
type VideoIDDetector struct {
	patterns []*regexp.Regexp
}

// NewVideoIDDetector 创建视频 ID 检测器
func NewVideoIDDetector() *VideoIDDetector {
	return &VideoIDDetector{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^https?://(?:www\.|m\.|music\.)?youtube\.com/watch\?(?:.*&)?v=([A-Za-z0-9_-]+)`),
			regexp.MustCompile(`^https?://(?:www\.|m\.)?youtube\.com/(?:shorts|embed|live|v)/([A-Za-z0-9_-]+)`),
			regexp.MustCompile(`^https?://youtu\.be/([A-Za-z0-9_-]+)`),
		},
	}
}

// Detect 返回视频 ID; 非链接的输入按裸 ID 校验
func (d *VideoIDDetector) Detect(input string) (string, error) {
	input = utils.SanitizeString(input)

	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		if !utils.IsValidVideoID(input) {
			return "", utils.ErrInvalidVideoID
		}
		return input, nil
	}

	for _, pattern := range d.patterns {
		if m := pattern.FindStringSubmatch(input); m != nil && utils.IsValidVideoID(m[1]) {
			return m[1], nil
		}
	}

	return "", utils.ErrInvalidVideoID
}
