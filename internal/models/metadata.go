package models

// AudioCodecNone yt-dlp 表示"无音轨"的取值
const AudioCodecNone = "none"

// FormatDescriptor 单个可用流
type FormatDescriptor struct {
	FormatID   string   `json:"format_id"`
	URL        string   `json:"url"`
	Ext        string   `json:"ext"`
	ACodec     string   `json:"acodec"`
	VCodec     string   `json:"vcodec"`
	FormatNote string   `json:"format_note"`
	TBR        *float64 `json:"tbr"`
}

// HasAudio 是否包含音轨
func (f FormatDescriptor) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != AudioCodecNone
}

// Bitrate 总码率, 缺失时为 0
func (f FormatDescriptor) Bitrate() float64 {
	if f.TBR == nil {
		return 0
	}
	return *f.TBR
}

// VideoMetadata 一次提取的结果
type VideoMetadata struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	Formats []FormatDescriptor `json:"formats"`
	// RequestedFormats 仅自适应流(音视频分轨)时存在, nil 表示缺失
	RequestedFormats []FormatDescriptor `json:"requested_formats,omitempty"`

	// 提取器返回单一合并流时, 顶层记录上的字段
	DirectURL        string `json:"direct_url,omitempty"`
	DirectFormatNote string `json:"direct_format_note,omitempty"`
	DirectFormatID   string `json:"direct_format_id,omitempty"`
	DirectACodec     string `json:"direct_acodec,omitempty"`
}

// HasAudio 格式列表中是否存在音轨
func (m *VideoMetadata) HasAudio() bool {
	for _, f := range m.Formats {
		if f.HasAudio() {
			return true
		}
	}
	return false
}
