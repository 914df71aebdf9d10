package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vasset/resolver-service/internal/cache"
	"vasset/resolver-service/internal/config"
	"vasset/resolver-service/internal/cookies"
	"vasset/resolver-service/internal/handler"
	"vasset/resolver-service/internal/keepalive"
	"vasset/resolver-service/internal/router"
	"vasset/resolver-service/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func serveRun(cmd *cobra.Command, args []string) error {
	// 1. 初始化日志
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting Resolver Service",
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", cfg.Extractor.Backend),
		zap.String("version", Version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 连接 Redis (可选)
	var metadataCache service.MetadataCache
	if cfg.Cache.Enabled {
		redisClient := initRedis(&cfg.Redis)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Failed to connect to Redis, requests will fall through to the extractor", zap.Error(err))
		} else {
			logger.Info("✓ Connected to Redis")
		}
		metadataCache = cache.NewService(redisClient, cfg.Cache.GetCacheTTL())
	}

	// 3. 准备 cookie 文件
	if cfg.Extractor.CreateCookieFile {
		created, err := cookies.EnsureFile(cfg.Extractor.CookieFile)
		if err != nil {
			logger.Warn("Failed to create cookie file", zap.String("path", cfg.Extractor.CookieFile), zap.Error(err))
		} else if created {
			logger.Info("Created empty cookie file", zap.String("path", cfg.Extractor.CookieFile))
		}
	}

	// 4. 初始化解析服务
	resolver := service.NewResolverService(cfg, newExtractor(cfg, logger), metadataCache, logger)
	versionCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	resolver.DetectVersion(versionCtx)
	cancel()

	// 5. 初始化 HTTP 服务
	r := router.SetupRouter(&router.Dependencies{
		Config:   cfg,
		Resolver: resolver,
		Logger:   logger,
		Version:  Version,
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// 6. gRPC 健康检查 (可选), 先监听端口, 失败时 HTTP 服务尚未启动
	var grpcHealth *handler.GRPCHealthServer
	var grpcLis net.Listener
	if cfg.Server.GRPCPort > 0 {
		grpcLis, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcHealth = handler.NewGRPCHealthServer(resolver, logger)
	}

	serverErr := make(chan error, 2)
	go func() {
		logger.Info("✓ HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	if grpcHealth != nil {
		go grpcHealth.Watch(ctx, 30*time.Second)
		go func() {
			logger.Info("✓ gRPC health server listening", zap.Int("port", cfg.Server.GRPCPort))
			if err := grpcHealth.Serve(grpcLis); err != nil {
				serverErr <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	// 7. 自 ping 任务
	go keepalive.NewPinger(&cfg.KeepAlive, logger).Start(ctx)

	// 8. 优雅关闭
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		logger.Error("Server failed", zap.Error(runErr))
		stop()
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if grpcHealth != nil {
		grpcHealth.GracefulStop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server stopped")
	return runErr
}

// initRedis 初始化 Redis 连接
func initRedis(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
