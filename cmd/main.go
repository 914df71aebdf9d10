package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vasset/resolver-service/internal/adapter"
	"vasset/resolver-service/internal/config"
	"vasset/resolver-service/internal/native"
	"vasset/resolver-service/internal/ytdlp"
)

// Version 构建时通过 ldflags 注入
var Version = "dev"

var (
	flagConfig string
	flagDebug  bool
)

// cfg 加载后的配置
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:               "resolver-service",
	Short:             "Resolve playable audio stream URLs for video ids",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              serveRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "config/dev.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig 加载配置, 命令行参数优先
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagDebug {
		cfg.Server.Mode = "debug"
		cfg.Logging.Level = "debug"
	}
	return nil
}

// newLogger 根据配置创建日志
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Server.Mode == "debug" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// newExtractor 根据配置选择提取后端
func newExtractor(cfg *config.Config, logger *zap.Logger) adapter.Extractor {
	if cfg.Extractor.Backend == config.BackendNative {
		return native.NewExtractor(&cfg.Extractor, logger)
	}
	return ytdlp.NewWrapper(&cfg.Extractor, nil, logger)
}
