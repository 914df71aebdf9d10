package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vasset/resolver-service/internal/selector"
	"vasset/resolver-service/internal/service"
	"vasset/resolver-service/internal/utils"
)

// ResolveHandler 音频流解析处理器
type ResolveHandler struct {
	resolver *service.ResolverService
	logger   *zap.Logger
}

// NewResolveHandler 创建解析处理器
func NewResolveHandler(resolver *service.ResolverService, logger *zap.Logger) *ResolveHandler {
	return &ResolveHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// GetAudioStream 解析音频流地址 GET /rv/:video_id
func (h *ResolveHandler) GetAudioStream(c *gin.Context) {
	videoID := c.Param("video_id")

	result, err := h.resolver.Resolve(c.Request.Context(), videoID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	switch result.Outcome {
	case selector.Success:
		c.JSON(http.StatusOK, AudioResponse{
			URL:        result.URL,
			Title:      result.Title,
			FormatNote: result.FormatNote,
			FormatID:   result.FormatID,
			ACodec:     result.ACodec,
		})
	case selector.NoAudio:
		c.JSON(http.StatusOK, NewNoAudioResponse(result.Title))
	default:
		writeError(c, h.logger, utils.ErrNoAudioURL)
	}
}

// ListFormats 列出全部格式 GET /formats/:video_id
func (h *ResolveHandler) ListFormats(c *gin.Context) {
	videoID := c.Param("video_id")

	report, err := h.resolver.Formats(c.Request.Context(), videoID)
	if err != nil {
		status := utils.StatusCode(err)
		if status != http.StatusNotFound && status != http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		writeErrorStatus(c, h.logger, err, status)
		return
	}

	c.JSON(http.StatusOK, report)
}
