// internal/api/router.go
package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/di"
	"github.com/Corphon/StoryboardMCP/internal/services"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

// 生成接口限流：每个客户端每分钟最多 30 次
const (
	generationRateLimit  = 30
	generationRateWindow = time.Minute
)

// RouterOptions 路由可选组件
type RouterOptions struct {
	RateLimiter *RateLimiter
}

// SetupRouter 从全局容器取服务并配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	storyboards, err := di.MustResolve[*services.StoryboardService](container, "storyboard")
	if err != nil {
		return nil, fmt.Errorf("分镜服务未正确初始化: %w", err)
	}
	characters, err := di.MustResolve[*services.CharacterService](container, "character")
	if err != nil {
		return nil, fmt.Errorf("角色服务未正确初始化: %w", err)
	}
	exports, err := di.MustResolve[*services.ExportService](container, "export")
	if err != nil {
		return nil, fmt.Errorf("导出服务未正确初始化: %w", err)
	}
	progress, err := di.MustResolve[*services.ProgressService](container, "progress")
	if err != nil {
		return nil, fmt.Errorf("进度服务未正确初始化: %w", err)
	}
	configService, err := di.MustResolve[*services.ConfigService](container, "config")
	if err != nil {
		return nil, fmt.Errorf("配置服务未正确初始化: %w", err)
	}
	metrics, err := di.MustResolve[*utils.StoryboardMetrics](container, "metrics")
	if err != nil {
		return nil, fmt.Errorf("指标服务未正确初始化: %w", err)
	}

	manager := NewWebSocketManager()
	limiter := NewRateLimiter(generationRateLimit, generationRateWindow)
	// 交给应用的定期维护任务清理
	container.Register("websocket", manager)
	container.Register("ratelimiter", limiter)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := NewHandler(storyboards, characters, exports, progress, configService, metrics, manager)
	return NewRouter(handler, RouterOptions{RateLimiter: limiter}), nil
}

// NewHandler 创建API处理器
func NewHandler(
	storyboards *services.StoryboardService,
	characters *services.CharacterService,
	exports *services.ExportService,
	progress *services.ProgressService,
	configService *services.ConfigService,
	metrics *utils.StoryboardMetrics,
	manager *WebSocketManager,
) *Handler {
	return &Handler{
		Storyboards:      storyboards,
		Characters:       characters,
		Exports:          exports,
		Progress:         progress,
		Config:           configService,
		Metrics:          metrics,
		WebSocketHandler: NewWebSocketHandler(progress, manager),
		Response:         NewResponseHelper(),
	}
}

// NewRouter 注册中间件和全部路由
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(corsMiddleware())
	r.Use(metricsMiddleware(handler.Metrics))

	var generationGuards []gin.HandlerFunc
	if opts.RateLimiter != nil {
		generationGuards = append(generationGuards, opts.RateLimiter.Middleware(handler.Response))
	}

	r.GET("/health", handler.Health)

	// WebSocket 进度推送
	r.GET("/ws/storyboards/:taskID", handler.ProgressWebSocket)

	api := r.Group("/api")
	{
		// ===============================
		// 分镜相关路由
		// ===============================
		storyboards := api.Group("/storyboards")
		{
			generation := storyboards.Group("", generationGuards...)
			generation.POST("", handler.CreateStoryboard)
			generation.POST("/batch", handler.CreateStoryboardBatch)
			storyboards.GET("", handler.ListStoryboards)
			storyboards.GET("/:id", handler.GetStoryboard)
			storyboards.DELETE("/:id", handler.DeleteStoryboard)
			storyboards.GET("/:id/quality", handler.GetQuality)
			storyboards.GET("/:id/flow", handler.GetFlow)
			storyboards.GET("/:id/format", handler.FormatStoryboard)
			storyboards.GET("/:id/compatibility", handler.GetCompatibility)
			storyboards.GET("/:id/export", handler.ExportStoryboard)
		}

		api.GET("/platforms", handler.GetPlatforms)

		// ===============================
		// 角色档案
		// ===============================
		characters := api.Group("/characters")
		{
			characters.GET("", handler.ListCharacters)
			characters.GET("/:id", handler.GetCharacter)
			characters.PUT("/:id", handler.PutCharacter)
			characters.DELETE("/:id", handler.DeleteCharacter)
		}

		// ===============================
		// 进度
		// ===============================
		api.GET("/progress/:taskID", handler.SubscribeProgress)
		api.GET("/progress/:taskID/status", handler.GetProgress)

		// ===============================
		// 配置与运行状态
		// ===============================
		configGroup := api.Group("/config")
		{
			configGroup.GET("/engine", handler.GetEngineConfig)
			configGroup.PUT("/engine", handler.UpdateEngineConfig)
			configGroup.GET("/history", handler.GetConfigHistory)
		}
		api.GET("/metrics", handler.GetMetrics)
		api.GET("/ws/status", handler.GetWebSocketStatus)
	}

	return r
}
