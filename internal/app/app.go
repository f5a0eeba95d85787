// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/di"
	"github.com/Corphon/StoryboardMCP/internal/platform"
	"github.com/Corphon/StoryboardMCP/internal/services"
	"github.com/Corphon/StoryboardMCP/internal/storage"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

// 容器中的服务名称
const (
	ServiceStorage    = "storage"
	ServiceLocks      = "locks"
	ServiceMetrics    = "metrics"
	ServicePlatforms  = "platforms"
	ServiceProgress   = "progress"
	ServiceConfig     = "config"
	ServiceCharacter  = "character"
	ServiceStoryboard = "storyboard"
	ServiceExport     = "export"

	// 由 api.SetupRouter 注册
	ServiceWebSocket   = "websocket"
	ServiceRateLimiter = "ratelimiter"
)

// httpServer 便于在测试中替换真实的 http.Server
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 应用程序实例
type App struct {
	config   *config.AppConfig
	router   http.Handler
	server   httpServer
	stopChan chan os.Signal

	cancel context.CancelFunc
}

var (
	instance      *App
	instanceMutex sync.Mutex
)

// GetApp 获取应用实例（单例）
func GetApp() *App {
	instanceMutex.Lock()
	defer instanceMutex.Unlock()

	if instance == nil {
		instance = &App{
			stopChan: make(chan os.Signal, 1),
		}
	}
	return instance
}

// Initialize 加载配置、初始化日志并注册所有服务
func Initialize(dataDir string) error {
	if err := config.InitConfig(dataDir); err != nil {
		return fmt.Errorf("初始化配置失败: %w", err)
	}

	cfg := config.GetCurrentConfig()
	GetApp().config = cfg

	if err := initLogger(cfg.LogDir); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}
	utils.GetLogger().SetLogLevel(utils.ParseLogLevel(cfg.LogLevel))

	if err := InitServices(); err != nil {
		return fmt.Errorf("初始化服务失败: %w", err)
	}
	return nil
}

// initLogger 日志写入 logDir/storyboard_<日期>.log
func initLogger(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}
	logFile := filepath.Join(logDir, fmt.Sprintf("storyboard_%s.log", time.Now().Format("2006-01-02")))
	return utils.InitLogger(logFile)
}

// InitServices 按依赖顺序创建服务并注册到全局容器
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	store, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("创建存储失败: %w", err)
	}
	container.Register(ServiceStorage, store)

	locks := services.NewLockManager()
	container.Register(ServiceLocks, locks)

	metrics := utils.NewStoryboardMetrics()
	container.Register(ServiceMetrics, metrics)

	platforms := platform.NewRegistry()
	container.Register(ServicePlatforms, platforms)

	progress := services.NewProgressService()
	container.Register(ServiceProgress, progress)

	configService := services.NewConfigService()
	container.Register(ServiceConfig, configService)

	characters := services.NewCharacterService(store, locks)
	container.Register(ServiceCharacter, characters)

	storyboards := services.NewStoryboardService(store, characters, platforms, progress, configService, metrics, locks)
	container.Register(ServiceStoryboard, storyboards)

	exports := services.NewExportService(storyboards, filepath.Join(cfg.DataDir, "exports"))
	container.Register(ServiceExport, exports)

	utils.GetLogger().Info("Services initialized", map[string]interface{}{
		"services":  container.GetNames(),
		"data_dir":  cfg.DataDir,
		"platforms": platforms.Platforms(),
	})
	return nil
}

// SetHandler 设置 HTTP 处理器
func (a *App) SetHandler(handler http.Handler) {
	a.router = handler
}

// GetConfig 返回应用配置
func (a *App) GetConfig() *config.AppConfig {
	return a.config
}

// GetDIContainer 返回全局依赖注入容器
func GetDIContainer() *di.Container {
	return di.GetContainer()
}

// IsDebugMode 是否处于调试模式
func IsDebugMode() bool {
	instanceMutex.Lock()
	defer instanceMutex.Unlock()

	return instance != nil && instance.config != nil && instance.config.DebugMode
}

// Run 启动 HTTP 服务并阻塞到收到停止信号，然后优雅关闭
func Run() error {
	a := GetApp()

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.startMaintenance(ctx)

	if a.server == nil {
		port := "8080"
		if a.config != nil && a.config.Port != "" {
			port = a.config.Port
		}
		a.server = &http.Server{
			Addr:              ":" + port,
			Handler:           a.router,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)

	select {
	case err := <-serverErr:
		a.cleanup()
		return fmt.Errorf("启动服务器失败: %w", err)
	case <-a.stopChan:
	}

	utils.GetLogger().Info("Shutting down server", nil)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	err := a.server.Shutdown(shutdownCtx)
	a.cleanup()
	if err != nil {
		return fmt.Errorf("服务器强制关闭: %w", err)
	}
	return nil
}

// periodicCleaner 由路由层注册的可清理组件（WebSocket 连接、限流记录）
type periodicCleaner interface {
	Cleanup() int
}

// startMaintenance 定期清理已结束的进度任务、闲置的锁和过期连接，并输出指标摘要
func (a *App) startMaintenance(ctx context.Context) {
	container := di.GetContainer()
	if metrics, ok := di.Resolve[*utils.StoryboardMetrics](container, ServiceMetrics); ok {
		metrics.StartMetricsCollection(ctx, 5*time.Minute)
	}

	tasks := make(map[string]func() int)
	if progress, ok := di.Resolve[*services.ProgressService](container, ServiceProgress); ok {
		tasks[ServiceProgress] = func() int { return progress.CleanupCompletedTasks(time.Hour) }
	}
	if locks, ok := di.Resolve[*services.LockManager](container, ServiceLocks); ok {
		tasks[ServiceLocks] = locks.CleanupUnused
	}
	for _, name := range []string{ServiceWebSocket, ServiceRateLimiter} {
		if cleaner, ok := di.Resolve[periodicCleaner](container, name); ok {
			tasks[name] = cleaner.Cleanup
		}
	}
	if len(tasks) == 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := make(map[string]interface{}, len(tasks))
				for name, task := range tasks {
					removed[name] = task()
				}
				utils.GetLogger().Debug("Maintenance completed", removed)
			}
		}
	}()
}

// cleanup 释放后台任务、存储和日志文件
func (a *App) cleanup() {
	if a.cancel != nil {
		a.cancel()
	}
	if store, ok := di.Resolve[*storage.FileStorage](di.GetContainer(), ServiceStorage); ok {
		store.Close()
	}
	utils.GetLogger().Info("Cleanup completed", nil)
	utils.CloseLogger()
}
