package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"vasset/resolver-service/internal/config"
	"vasset/resolver-service/internal/models"
	"vasset/resolver-service/internal/utils"
)

// rawFormat yt-dlp返回的格式信息
type rawFormat struct {
	FormatID   string   `json:"format_id"`
	URL        string   `json:"url"`
	Ext        string   `json:"ext"`
	ACodec     string   `json:"acodec"`
	VCodec     string   `json:"vcodec"`
	FormatNote string   `json:"format_note"`
	TBR        *float64 `json:"tbr"`
}

// VideoInfo yt-dlp返回的视频信息
type VideoInfo struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Formats          []rawFormat `json:"formats"`
	RequestedFormats []rawFormat `json:"requested_formats"`

	// 单一格式时顶层会带上所选格式的字段
	URL        string `json:"url"`
	FormatID   string `json:"format_id"`
	FormatNote string `json:"format_note"`
	ACodec     string `json:"acodec"`
}

// Wrapper yt-dlp命令封装器
type Wrapper struct {
	binaryPath string
	timeout    time.Duration
	cfg        config.ExtractorConfig
	runner     Runner
	logger     *zap.Logger
}

// NewWrapper 创建yt-dlp封装器
func NewWrapper(cfg *config.ExtractorConfig, runner Runner, logger *zap.Logger) *Wrapper {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Wrapper{
		binaryPath: cfg.BinaryPath,
		timeout:    cfg.GetTimeout(),
		cfg:        *cfg,
		runner:     runner,
		logger:     logger,
	}
}

// Name 后端名称
func (w *Wrapper) Name() string {
	return config.BackendYTDLP
}

// buildArgs 构建命令参数
func (w *Wrapper) buildArgs(url string, generic bool) []string {
	args := []string{
		"--dump-json",
		"--skip-download",
		"--no-progress",
		"-f", w.cfg.Format,
		"--extractor-retries", strconv.Itoa(w.cfg.Retries),
		"--socket-timeout", strconv.Itoa(w.cfg.SocketTimeout),
		"--playlist-items", w.cfg.PlaylistItems,
	}

	if w.cfg.NoCheckCertificate {
		args = append(args, "--no-check-certificates")
	}
	if w.cfg.GeoBypass {
		args = append(args, "--geo-bypass")
	}
	if w.cfg.IgnoreErrors {
		args = append(args, "--ignore-errors")
	}

	// 添加代理 (如果配置了)
	if w.cfg.Proxy != "" {
		args = append(args, "--proxy", w.cfg.Proxy)
	}

	// 添加 cookie 文件 (如果存在)
	if w.cfg.CookieFile != "" {
		if _, err := os.Stat(w.cfg.CookieFile); err == nil {
			args = append(args, "--cookies", w.cfg.CookieFile)
		}
	}

	args = append(args, w.cfg.ExtraArgs...)

	if generic {
		args = append(args, "--force-generic-extractor")
	}

	// 添加 URL
	args = append(args, "--", url)

	return args
}

// ExtractInfo 提取视频信息, 无结果时返回 nil, nil
func (w *Wrapper) ExtractInfo(ctx context.Context, url string, generic bool) (*models.VideoMetadata, error) {
	args := w.buildArgs(url, generic)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	stdout, stderr, err := w.runner.Run(ctx, w.binaryPath, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", utils.ErrYTDLPNotFound, w.binaryPath)
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, utils.NewTimeoutError()
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	info, parseErr := parseOutput(stdout)
	if err != nil {
		// ignore-errors 模式下部分失败仍可能输出结果
		if info != nil {
			w.logger.Warn("yt-dlp exited with error but produced output",
				zap.String("url", url),
				zap.String("stderr", lastErrorLine(stderr)))
			return info.toMetadata(), nil
		}
		return nil, utils.NewExtractionError(errorMessage(stderr, err))
	}
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", parseErr)
	}
	if info == nil {
		return nil, nil
	}

	return info.toMetadata(), nil
}

// Version 获取 yt-dlp 版本
func (w *Wrapper) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	stdout, _, err := w.runner.Run(ctx, w.binaryPath, "--version")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", utils.ErrYTDLPNotFound
		}
		return "", fmt.Errorf("yt-dlp --version failed: %w", err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

// parseOutput 取第一条 JSON 记录 (播放列表逐条输出), 跳过记录之前的非 JSON 行
func parseOutput(stdout []byte) (*VideoInfo, error) {
	rest := stdout
	for len(rest) > 0 {
		line, next, _ := bytes.Cut(rest, []byte("\n"))
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 && trimmed[0] == '{' {
			// 记录可能跨行, 交给解码器读完整个对象
			var info VideoInfo
			if err := json.NewDecoder(bytes.NewReader(rest)).Decode(&info); err != nil {
				return nil, err
			}
			return &info, nil
		}
		rest = next
	}
	return nil, nil
}

func (i *VideoInfo) toMetadata() *models.VideoMetadata {
	meta := &models.VideoMetadata{
		ID:               i.ID,
		Title:            utils.SanitizeString(i.Title),
		Formats:          convertFormats(i.Formats),
		DirectURL:        i.URL,
		DirectFormatNote: i.FormatNote,
		DirectFormatID:   i.FormatID,
		DirectACodec:     i.ACodec,
	}
	if i.RequestedFormats != nil {
		meta.RequestedFormats = convertFormats(i.RequestedFormats)
	}
	return meta
}

func convertFormats(raw []rawFormat) []models.FormatDescriptor {
	formats := make([]models.FormatDescriptor, 0, len(raw))
	for _, f := range raw {
		formats = append(formats, models.FormatDescriptor{
			FormatID:   f.FormatID,
			URL:        f.URL,
			Ext:        f.Ext,
			ACodec:     f.ACodec,
			VCodec:     f.VCodec,
			FormatNote: f.FormatNote,
			TBR:        f.TBR,
		})
	}
	return formats
}

// lastErrorLine 取 stderr 中最后一条 ERROR 行
func lastErrorLine(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	return ""
}

func errorMessage(stderr []byte, runErr error) string {
	if msg := lastErrorLine(stderr); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		return msg
	}
	return runErr.Error()
}
