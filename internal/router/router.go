package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vasset/resolver-service/internal/config"
	"vasset/resolver-service/internal/handler"
	"vasset/resolver-service/internal/middleware"
	"vasset/resolver-service/internal/service"
)

// Dependencies 路由依赖
type Dependencies struct {
	Config   *config.Config
	Resolver *service.ResolverService
	Logger   *zap.Logger
	Version  string
}

// SetupRouter 设置路由
func SetupRouter(deps *Dependencies) *gin.Engine {
	// 设置 Gin 模式
	if deps.Config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(&deps.Config.CORS))

	rateLimiter := middleware.NewRateLimiter(&deps.Config.RateLimit)

	resolveHandler := handler.NewResolveHandler(deps.Resolver, deps.Logger)
	indexHandler := handler.NewIndexHandler(deps.Resolver, deps.Config.Extractor.CookieFile, deps.Logger)
	healthHandler := handler.NewHealthHandler(deps.Resolver, deps.Version)

	// 健康检查 (不限流)
	r.GET("/", indexHandler.Index)
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/live", healthHandler.Live)

	api := r.Group("/")
	api.Use(middleware.IPRateLimit(rateLimiter))
	{
		api.GET("/rv/:video_id", resolveHandler.GetAudioStream)
		api.GET("/formats/:video_id", resolveHandler.ListFormats)
		api.GET("/debug/cookies", indexHandler.DebugCookies)
	}

	return r
}
