package handler

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"vasset/resolver-service/internal/service"
)

// ResolverServiceName gRPC 健康检查中的服务名
const ResolverServiceName = "vasset.resolver.v1.Resolver"

// GRPCHealthServer gRPC 健康检查服务器
type GRPCHealthServer struct {
	server   *grpc.Server
	health   *health.Server
	resolver *service.ResolverService
	logger   *zap.Logger
}

// NewGRPCHealthServer 创建 gRPC 健康检查服务器
func NewGRPCHealthServer(resolver *service.ResolverService, logger *zap.Logger) *GRPCHealthServer {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	return &GRPCHealthServer{
		server:   s,
		health:   hs,
		resolver: resolver,
		logger:   logger,
	}
}

// Serve 启动服务, 阻塞直到停止
func (s *GRPCHealthServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// UpdateStatus 根据依赖状态更新服务状态
func (s *GRPCHealthServer) UpdateStatus(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.resolver.PingCache(ctx); err != nil {
		s.logger.Warn("cache unavailable, reporting NOT_SERVING", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ResolverServiceName, status)
}

// Watch 周期性刷新状态, ctx 取消时返回
func (s *GRPCHealthServer) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.UpdateStatus(ctx)
	for {
		select {
		case <-ticker.C:
			s.UpdateStatus(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// GracefulStop 标记为 NOT_SERVING 并优雅关闭
func (s *GRPCHealthServer) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
