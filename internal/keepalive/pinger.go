package keepalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"vasset/resolver-service/internal/config"
)

// Pinger 定期请求自身地址, 防止托管平台休眠实例
type Pinger struct {
	url      string
	interval time.Duration
	enabled  bool
	client   *http.Client
	logger   *zap.Logger
}

// NewPinger 创建自 ping 任务
func NewPinger(cfg *config.KeepAliveConfig, logger *zap.Logger) *Pinger {
	return &Pinger{
		url:      cfg.URL,
		interval: cfg.GetInterval(),
		enabled:  cfg.Enabled,
		client:   &http.Client{Timeout: cfg.GetTimeout()},
		logger:   logger,
	}
}

// Start 启动任务, 阻塞直到 ctx 取消
func (p *Pinger) Start(ctx context.Context) {
	if !p.enabled {
		p.logger.Debug("keepalive disabled")
		return
	}

	p.logger.Info("keepalive started",
		zap.String("url", p.url),
		zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.Ping(ctx); err != nil {
				p.logger.Warn("keepalive ping failed", zap.Error(err))
			}
		case <-ctx.Done():
			p.logger.Info("keepalive stopped")
			return
		}
	}
}

// Ping 发送一次请求
func (p *Pinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build keepalive request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("keepalive request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("keepalive got status %d", resp.StatusCode)
	}

	p.logger.Debug("keepalive ping", zap.Int("status", resp.StatusCode))
	return nil
}
