package utils

import (
	"vasset/resolver-service/internal/models"
)

// FormatSummary /formats 接口中的单个格式
type FormatSummary struct {
	FormatID   string   `json:"format_id"`
	Ext        string   `json:"ext"`
	ACodec     string   `json:"acodec"`
	VCodec     string   `json:"vcodec"`
	TBR        *float64 `json:"tbr"`
	FormatNote string   `json:"format_note"`
}

// NormalizeFormats 将提取到的格式转换为列表输出, 保持原顺序
func NormalizeFormats(formats []models.FormatDescriptor) []FormatSummary {
	result := make([]FormatSummary, 0, len(formats))

	for _, f := range formats {
		result = append(result, FormatSummary{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			ACodec:     f.ACodec,
			VCodec:     f.VCodec,
			TBR:        f.TBR,
			FormatNote: SanitizeString(f.FormatNote),
		})
	}

	return result
}

// CountAudioFormats 统计包含音轨的格式数
func CountAudioFormats(formats []models.FormatDescriptor) int {
	n := 0
	for _, f := range formats {
		if f.HasAudio() {
			n++
		}
	}
	return n
}
