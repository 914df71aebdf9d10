// Package selector picks the best audio-bearing stream out of extracted metadata.
package selector

import (
	"sort"

	"vasset/resolver-service/internal/models"
)

// DefaultTitle 标题缺失时使用
const DefaultTitle = "Unknown Title"

const unknownCodec = "unknown"

// Outcome 选择结果类型
type Outcome int

const (
	Success Outcome = iota
	NoAudio
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NoAudio:
		return "no_audio"
	default:
		return "not_found"
	}
}

// Tier 命中的候选层级
type Tier string

const (
	TierNone       Tier = ""
	TierAdaptive   Tier = "adaptive"
	TierDirect     Tier = "direct"
	TierExhaustive Tier = "exhaustive"
)

// Result 选择结果
type Result struct {
	Outcome    Outcome
	Tier       Tier
	URL        string
	Title      string
	FormatNote string
	FormatID   string
	ACodec     string
}

// Select 按 自适应 -> 直链 -> 全量码率排序 的顺序选择音频流, 首个命中即返回
func Select(meta *models.VideoMetadata) Result {
	if meta == nil {
		return Result{Outcome: NotFound}
	}

	title := meta.Title
	if title == "" {
		title = DefaultTitle
	}

	// 有格式但全部无音轨: 图片/纯视频内容, 不是错误
	if len(meta.Formats) > 0 && !meta.HasAudio() {
		return Result{Outcome: NoAudio, Title: title}
	}

	// 自适应流保持提取器给出的偏好顺序
	for _, f := range meta.RequestedFormats {
		if f.HasAudio() {
			return fromFormat(f, title, TierAdaptive)
		}
	}

	// 直链不校验编码
	if meta.DirectURL != "" {
		acodec := meta.DirectACodec
		if acodec == "" {
			acodec = unknownCodec
		}
		return Result{
			Outcome:    Success,
			Tier:       TierDirect,
			URL:        meta.DirectURL,
			Title:      title,
			FormatNote: meta.DirectFormatNote,
			FormatID:   meta.DirectFormatID,
			ACodec:     acodec,
		}
	}

	candidates := make([]models.FormatDescriptor, 0, len(meta.Formats))
	for _, f := range meta.Formats {
		if f.HasAudio() {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return Result{Outcome: NotFound, Title: title}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Bitrate() > candidates[j].Bitrate()
	})

	return fromFormat(candidates[0], title, TierExhaustive)
}

func fromFormat(f models.FormatDescriptor, title string, tier Tier) Result {
	return Result{
		Outcome:    Success,
		Tier:       tier,
		URL:        f.URL,
		Title:      title,
		FormatNote: f.FormatNote,
		FormatID:   f.FormatID,
		ACodec:     f.ACodec,
	}
}
