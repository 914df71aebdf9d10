package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vasset/resolver-service/internal/models"
	"vasset/resolver-service/internal/utils"
)

// Service 缓存服务, 缓存提取到的元数据 (不缓存媒体内容)
type Service struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewService 创建缓存服务
func NewService(redisClient *redis.Client, ttl time.Duration) *Service {
	return &Service{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get 从缓存获取元数据
func (s *Service) Get(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	key := generateCacheKey(videoID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, utils.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var meta models.VideoMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &meta, nil
}

// Set 将元数据写入缓存
func (s *Service) Set(ctx context.Context, videoID string, meta *models.VideoMetadata) error {
	key := generateCacheKey(videoID)

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Ping 检查 Redis 连接
func (s *Service) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

// generateCacheKey 生成缓存key
func generateCacheKey(videoID string) string {
	hash := md5.Sum([]byte(videoID))
	return fmt.Sprintf("resolver:video:%x", hash)
}
