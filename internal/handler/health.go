package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vasset/resolver-service/internal/service"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	resolver  *service.ResolverService
	startTime time.Time
	version   string
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(resolver *service.ResolverService, version string) *HealthHandler {
	return &HealthHandler{
		resolver:  resolver,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status       string                `json:"status"`
	Version      string                `json:"version"`
	Uptime       int64                 `json:"uptime"`
	Extractor    service.ExtractorInfo `json:"extractor"`
	Dependencies map[string]string     `json:"dependencies"`
}

// HealthCheck 健康检查
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dependencies := make(map[string]string)
	allHealthy := true

	// 检查 Redis
	if h.resolver.CacheEnabled() {
		if err := h.resolver.PingCache(ctx); err != nil {
			dependencies["redis"] = "unhealthy"
			allHealthy = false
		} else {
			dependencies["redis"] = "healthy"
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:       status,
		Version:      h.version,
		Uptime:       int64(time.Since(h.startTime).Seconds()),
		Extractor:    h.resolver.Extractor(),
		Dependencies: dependencies,
	})
}

// Ready 就绪检查
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.resolver.PingCache(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "redis not available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// Live 存活检查
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
