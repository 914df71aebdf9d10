// Package native resolves video metadata in-process with github.com/kkdai/youtube/v2,
// for deployments without a yt-dlp binary.
package native

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"vasset/resolver-service/internal/config"
	"vasset/resolver-service/internal/models"
	"vasset/resolver-service/internal/utils"
)

// VideoClient kkdai 客户端中用到的部分
type VideoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)
}

// Extractor 进程内提取器
type Extractor struct {
	client  VideoClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewExtractor 创建进程内提取器
func NewExtractor(cfg *config.ExtractorConfig, logger *zap.Logger) *Extractor {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.SocketTimeout) * time.Second,
	}
	return &Extractor{
		client:  &youtube.Client{HTTPClient: httpClient},
		timeout: cfg.GetTimeout(),
		logger:  logger,
	}
}

// NewExtractorWithClient 使用指定客户端创建提取器
func NewExtractorWithClient(client VideoClient, timeout time.Duration, logger *zap.Logger) *Extractor {
	return &Extractor{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Name 后端名称
func (e *Extractor) Name() string {
	return config.BackendNative
}

// Version 库版本固定在 go.mod 中
func (e *Extractor) Version(ctx context.Context) (string, error) {
	return "kkdai/youtube/v2", nil
}

// ExtractInfo 提取视频信息; 不支持通用提取模式, generic 时返回 nil, nil
func (e *Extractor) ExtractInfo(ctx context.Context, url string, generic bool) (*models.VideoMetadata, error) {
	if generic {
		e.logger.Debug("generic extraction not supported by native backend", zap.String("url", url))
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, utils.NewTimeoutError()
		}
		return nil, mapError(err)
	}
	if video == nil {
		return nil, nil
	}

	meta := &models.VideoMetadata{
		ID:      video.ID,
		Title:   utils.SanitizeString(video.Title),
		Formats: make([]models.FormatDescriptor, 0, len(video.Formats)),
	}

	for i := range video.Formats {
		f := &video.Formats[i]

		streamURL := f.URL
		if streamURL == "" {
			// 需要解密签名
			streamURL, err = e.client.GetStreamURLContext(ctx, video, f)
			if err != nil {
				e.logger.Debug("skip format without stream url",
					zap.Int("itag", f.ItagNo),
					zap.Error(err))
				continue
			}
		}

		meta.Formats = append(meta.Formats, toDescriptor(f, streamURL))
	}

	return meta, nil
}

// toDescriptor 将 kkdai 的格式转换为统一描述
func toDescriptor(f *youtube.Format, streamURL string) models.FormatDescriptor {
	ext, vcodec, acodec := parseMimeType(f.MimeType, f.AudioChannels > 0)

	note := f.QualityLabel
	if note == "" {
		note = strings.TrimPrefix(f.AudioQuality, "AUDIO_QUALITY_")
		note = strings.ToLower(note)
	}

	d := models.FormatDescriptor{
		FormatID:   strconv.Itoa(f.ItagNo),
		URL:        streamURL,
		Ext:        ext,
		ACodec:     acodec,
		VCodec:     vcodec,
		FormatNote: note,
	}

	bitrate := f.AverageBitrate
	if bitrate == 0 {
		bitrate = f.Bitrate
	}
	if bitrate > 0 {
		tbr := float64(bitrate) / 1000
		d.TBR = &tbr
	}

	return d
}

// parseMimeType 解析 `audio/webm; codecs="opus"` 形式的 mime 类型
func parseMimeType(mimeType string, hasAudioChannels bool) (ext, vcodec, acodec string) {
	vcodec, acodec = models.AudioCodecNone, models.AudioCodecNone

	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", vcodec, acodec
	}

	kind, ext, _ := strings.Cut(mediaType, "/")

	var codecs []string
	for _, c := range strings.Split(params["codecs"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			codecs = append(codecs, c)
		}
	}

	switch kind {
	case "audio":
		if len(codecs) > 0 {
			acodec = codecs[0]
		}
	case "video":
		if len(codecs) > 0 {
			vcodec = codecs[0]
		}
		if len(codecs) > 1 {
			acodec = codecs[1]
		} else if hasAudioChannels {
			acodec = "unknown"
		}
	}

	return ext, vcodec, acodec
}

// mapError 优先按 kkdai 的错误类型分类, 其余交给信息匹配
func mapError(err error) error {
	var statusErr *youtube.ErrPlayabiltyStatus
	switch {
	case errors.Is(err, youtube.ErrLoginRequired):
		return &utils.ExtractionError{Kind: utils.ErrAuthRequired, Message: err.Error()}
	case errors.Is(err, youtube.ErrVideoPrivate):
		return &utils.ExtractionError{Kind: utils.ErrUnavailable, Message: err.Error()}
	case errors.As(err, &statusErr):
		return utils.NewExtractionError(fmt.Sprintf("%s: %s", statusErr.Status, statusErr.Reason))
	default:
		return utils.NewExtractionError(err.Error())
	}
}
