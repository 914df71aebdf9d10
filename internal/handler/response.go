package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vasset/resolver-service/internal/middleware"
	"vasset/resolver-service/internal/utils"
)

// AudioResponse 解析成功响应
type AudioResponse struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	FormatNote string `json:"format_note"`
	FormatID   string `json:"format_id"`
	ACodec     string `json:"acodec"`
}

// NoAudioResponse 内容存在但没有音轨 (如图片帖), 以 200 返回
type NoAudioResponse struct {
	Error string `json:"error"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	// NoAudioMessage 无音轨时的提示
	NoAudioMessage = "This YouTube content has no audio streams"
	// NoAudioType 无音轨内容的类型标记
	NoAudioType = "image_only"

	internalMessage = "internal server error"
)

// NewNoAudioResponse 创建无音轨响应
func NewNoAudioResponse(title string) NoAudioResponse {
	return NoAudioResponse{
		Error: NoAudioMessage,
		Title: title,
		Type:  NoAudioType,
	}
}

// writeError 将错误转换为 JSON 响应; 未分类的错误只返回通用信息并记录日志
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	writeErrorStatus(c, logger, err, utils.StatusCode(err))
}

func writeErrorStatus(c *gin.Context, logger *zap.Logger, err error, status int) {
	if !utils.IsExpected(err) {
		logger.Error("unexpected error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Bool("client_gone", c.Request.Context().Err() != nil),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: internalMessage})
		return
	}

	c.JSON(status, ErrorResponse{Error: err.Error()})
}
