package adapter

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"vasset/resolver-service/internal/models"
	"vasset/resolver-service/internal/utils"
)

const (
	watchURLPrefix = "https://www.youtube.com/watch?v="
	shortURLPrefix = "https://youtu.be/"
)

// WatchURL 标准观看地址
func WatchURL(videoID string) string {
	return watchURLPrefix + videoID
}

// ShortURL 短链地址
func ShortURL(videoID string) string {
	return shortURLPrefix + videoID
}

// YouTubeAdapter YouTube平台适配器
type YouTubeAdapter struct {
	extractor Extractor
	logger    *zap.Logger
}

// NewYouTubeAdapter 创建YouTube适配器
func NewYouTubeAdapter(extractor Extractor, logger *zap.Logger) *YouTubeAdapter {
	return &YouTubeAdapter{
		extractor: extractor,
		logger:    logger,
	}
}

// Extract 提取视频元数据
//
// 标准地址出错时改用短链重试一次; 无结果时用通用提取模式再试一次。
// 提取器调用最多三次, 不做退避; 超时或 ctx 结束时不再重试。
func (a *YouTubeAdapter) Extract(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	if !utils.IsValidVideoID(videoID) {
		return nil, utils.ErrInvalidVideoID
	}

	url := WatchURL(videoID)
	meta, err := a.extractor.ExtractInfo(ctx, url, false)
	if err != nil {
		// 超时后再试短链会超出请求的写超时
		if ctx.Err() != nil || errors.Is(err, utils.ErrExtractionTimeout) {
			return nil, err
		}

		a.logger.Warn("extraction failed, retrying with short url",
			zap.String("video_id", videoID),
			zap.Error(err))

		shortURL := ShortURL(videoID)
		var altErr error
		meta, altErr = a.extractor.ExtractInfo(ctx, shortURL, false)
		if altErr != nil {
			a.logger.Warn("short url extraction failed",
				zap.String("video_id", videoID),
				zap.Error(altErr))
			// 返回标准地址的错误, 信息更完整
			return nil, err
		}
		url = shortURL
	}

	if meta != nil {
		return meta, nil
	}

	a.logger.Info("no metadata returned, retrying with generic extractor",
		zap.String("video_id", videoID),
		zap.String("url", url))

	meta, err = a.extractor.ExtractInfo(ctx, url, true)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, utils.ErrExtractionTimeout) {
			return nil, err
		}
		a.logger.Warn("generic extraction failed",
			zap.String("video_id", videoID),
			zap.Error(err))
		return nil, utils.ErrNotFound
	}
	if meta == nil {
		return nil, utils.ErrNotFound
	}

	return meta, nil
}
