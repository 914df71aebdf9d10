package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vasset/resolver-service/internal/cookies"
	"vasset/resolver-service/internal/service"
)

// IndexHandler 服务信息与调试处理器
type IndexHandler struct {
	resolver   *service.ResolverService
	cookieFile string
	logger     *zap.Logger
}

// NewIndexHandler 创建服务信息处理器
func NewIndexHandler(resolver *service.ResolverService, cookieFile string, logger *zap.Logger) *IndexHandler {
	return &IndexHandler{
		resolver:   resolver,
		cookieFile: cookieFile,
		logger:     logger,
	}
}

// Index 服务信息 GET /
func (h *IndexHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "API is running",
		"endpoints": gin.H{
			"/rv/<video_id>":      "Get audio stream URL",
			"/formats/<video_id>": "List all available formats",
			"/debug/cookies":      "Inspect the cookie file",
			"/health":             "Health check",
		},
		"extractor": h.resolver.Extractor(),
	})
}

// DebugCookies cookie 文件概况 GET /debug/cookies
func (h *IndexHandler) DebugCookies(c *gin.Context) {
	report, err := cookies.Inspect(h.cookieFile)
	if err != nil {
		h.logger.Error("inspect cookie file failed",
			zap.String("path", h.cookieFile),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
