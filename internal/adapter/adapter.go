package adapter

import (
	"context"

	"vasset/resolver-service/internal/models"
)

// Extractor 提取后端接口 (yt-dlp 子进程或进程内实现)
type Extractor interface {
	// ExtractInfo 提取视频信息, 无结果时返回 nil, nil; generic 为 true 时使用通用提取模式
	ExtractInfo(ctx context.Context, url string, generic bool) (*models.VideoMetadata, error)
	// Name 后端名称
	Name() string
	// Version 后端版本
	Version(ctx context.Context) (string, error)
}

// Adapter 平台适配器接口
type Adapter interface {
	// Extract 根据视频ID提取元数据
	Extract(ctx context.Context, videoID string) (*models.VideoMetadata, error)
}
