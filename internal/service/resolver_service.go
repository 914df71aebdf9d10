package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"vasset/resolver-service/internal/adapter"
	"vasset/resolver-service/internal/config"
	"vasset/resolver-service/internal/models"
	"vasset/resolver-service/internal/selector"
	"vasset/resolver-service/internal/utils"
)

// MetadataCache 元数据缓存, 为 nil 时不使用缓存
type MetadataCache interface {
	Get(ctx context.Context, videoID string) (*models.VideoMetadata, error)
	Set(ctx context.Context, videoID string, meta *models.VideoMetadata) error
	Ping(ctx context.Context) error
}

// FormatsReport 格式列表
type FormatsReport struct {
	Title    string                `json:"title"`
	Formats  []utils.FormatSummary `json:"formats"`
	HasAudio bool                  `json:"has_audio"`
}

// ExtractorInfo 提取后端信息
type ExtractorInfo struct {
	Backend string `json:"backend"`
	Version string `json:"version"`
}

// ResolverService 音频流解析服务
type ResolverService struct {
	extractor adapter.Extractor
	adapter   adapter.Adapter
	cache     MetadataCache
	limiter   *utils.ConcurrencyLimiter
	logger    *zap.Logger

	requestTimeout time.Duration

	version string
}

// NewResolverService 创建解析服务
func NewResolverService(
	cfg *config.Config,
	extractor adapter.Extractor,
	cache MetadataCache,
	logger *zap.Logger,
) *ResolverService {
	return &ResolverService{
		extractor: extractor,
		adapter:   adapter.NewYouTubeAdapter(extractor, logger),
		cache:     cache,
		limiter:   utils.NewConcurrencyLimiter(cfg.Extractor.MaxConcurrent),
		logger:    logger,

		requestTimeout: cfg.Server.RequestTimeout,
	}
}

// DetectVersion 启动时读取提取器版本, 仅用于展示
func (s *ResolverService) DetectVersion(ctx context.Context) {
	version, err := s.extractor.Version(ctx)
	if err != nil {
		s.logger.Warn("failed to detect extractor version",
			zap.String("backend", s.extractor.Name()),
			zap.Error(err))
		version = "unknown"
	}
	s.version = version
	s.logger.Info("extractor ready",
		zap.String("backend", s.extractor.Name()),
		zap.String("version", version))
}

// Extractor 提取后端信息
func (s *ResolverService) Extractor() ExtractorInfo {
	return ExtractorInfo{Backend: s.extractor.Name(), Version: s.version}
}

// CacheEnabled 是否启用缓存
func (s *ResolverService) CacheEnabled() bool {
	return s.cache != nil
}

// PingCache 检查缓存连接
func (s *ResolverService) PingCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Ping(ctx)
}

// Resolve 解析视频的音频流地址
func (s *ResolverService) Resolve(ctx context.Context, videoID string) (selector.Result, error) {
	meta, err := s.fetch(ctx, videoID)
	if err != nil {
		return selector.Result{}, err
	}

	result := selector.Select(meta)

	s.logger.Info("resolve finished",
		zap.String("video_id", videoID),
		zap.Stringer("outcome", result.Outcome),
		zap.String("tier", string(result.Tier)),
		zap.String("format_id", result.FormatID))

	return result, nil
}

// Formats 列出视频的全部格式
func (s *ResolverService) Formats(ctx context.Context, videoID string) (*FormatsReport, error) {
	meta, err := s.fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}

	return &FormatsReport{
		Title:    meta.Title,
		Formats:  utils.NormalizeFormats(meta.Formats),
		HasAudio: meta.HasAudio(),
	}, nil
}

// fetch 获取元数据, 优先读缓存
func (s *ResolverService) fetch(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	if !utils.IsValidVideoID(videoID) {
		return nil, utils.ErrInvalidVideoID
	}

	// 1. 检查缓存
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, videoID)
		if err == nil {
			s.logger.Debug("cache hit", zap.String("video_id", videoID))
			return cached, nil
		}
		if !errors.Is(err, utils.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.Error(err))
		}
	}

	// 2. 排队和全部重试共用一个时限, 保证在写超时之前返回
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	// 3. 并发控制
	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, utils.NewTimeoutError()
		}
		return nil, err
	}
	defer s.limiter.Release()

	// 4. 调用适配器提取
	s.logger.Info("extracting video",
		zap.String("video_id", videoID),
		zap.String("backend", s.extractor.Name()))

	meta, err := s.adapter.Extract(ctx, videoID)
	if err != nil {
		s.logger.Error("extract failed",
			zap.String("video_id", videoID),
			zap.Error(err))
		return nil, err
	}

	// 5. 写入缓存
	if s.cache != nil {
		if err := s.cache.Set(ctx, videoID, meta); err != nil {
			s.logger.Warn("cache set failed", zap.Error(err))
		}
	}

	s.logger.Info("extract success",
		zap.String("video_id", videoID),
		zap.Int("format_count", len(meta.Formats)),
		zap.Int("audio_format_count", utils.CountAudioFormats(meta.Formats)))

	return meta, nil
}
