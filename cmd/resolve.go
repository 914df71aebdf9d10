package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vasset/resolver-service/internal/detector"
	"vasset/resolver-service/internal/handler"
	"vasset/resolver-service/internal/selector"
	"vasset/resolver-service/internal/service"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <video_id|url>",
	Short: "Resolve the audio stream URL for one video and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, logger, err := newCLIResolver()
		if err != nil {
			return err
		}
		defer logger.Sync()

		videoID, err := detector.NewVideoIDDetector().Detect(args[0])
		if err != nil {
			return err
		}

		result, err := resolver.Resolve(cmd.Context(), videoID)
		if err != nil {
			return err
		}

		switch result.Outcome {
		case selector.Success:
			return printJSON(map[string]string{
				"url":         result.URL,
				"title":       result.Title,
				"format_note": result.FormatNote,
				"format_id":   result.FormatID,
				"acodec":      result.ACodec,
				"tier":        string(result.Tier),
			})
		case selector.NoAudio:
			return printJSON(handler.NewNoAudioResponse(result.Title))
		default:
			return fmt.Errorf("no audio stream found for %s", videoID)
		}
	},
}

var formatsCmd = &cobra.Command{
	Use:   "formats <video_id|url>",
	Short: "List every format the extractor reports for one video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, logger, err := newCLIResolver()
		if err != nil {
			return err
		}
		defer logger.Sync()

		videoID, err := detector.NewVideoIDDetector().Detect(args[0])
		if err != nil {
			return err
		}

		report, err := resolver.Formats(cmd.Context(), videoID)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the service and extractor versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, logger, err := newCLIResolver()
		if err != nil {
			return err
		}
		defer logger.Sync()

		resolver.DetectVersion(cmd.Context())
		info := resolver.Extractor()
		fmt.Printf("resolver-service %s\n%s %s\n", Version, info.Backend, info.Version)
		return nil
	},
}

// newCLIResolver 单次命令使用的解析服务, 不启用缓存
func newCLIResolver() (*service.ResolverService, *zap.Logger, error) {
	if !flagDebug {
		cfg.Logging.Level = "warn"
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.NewResolverService(cfg, newExtractor(cfg, logger), nil, logger), logger, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
