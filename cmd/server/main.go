// cmd/server/main.go
package main

import (
	"fmt"
	"log"

	"github.com/Corphon/StoryboardMCP/internal/api"
	"github.com/Corphon/StoryboardMCP/internal/app"
	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/di"
)

func main() {
	log.Println("🚀 启动 StoryboardMCP 服务器...")

	// 1. 加载基础配置（环境变量 / .env）
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	log.Printf("✅ 基础配置加载完成，端口: %s", baseConfig.Port)

	// 2. 初始化配置、日志和服务
	if err := app.Initialize(baseConfig.DataDir); err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	log.Println("✅ 所有服务初始化完成")

	if err := performHealthCheck(); err != nil {
		log.Printf("⚠️ 服务健康检查警告: %v", err)
	}

	// 3. 设置路由（只从容器获取服务）
	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("❌ 设置路由失败: %v", err)
	}
	app.GetApp().SetHandler(router)
	log.Println("✅ 路由设置完成")

	log.Printf("🌐 服务器启动在端口 %s", baseConfig.Port)
	log.Printf("🔗 健康检查: http://localhost:%s/health", baseConfig.Port)

	// 4. 阻塞直到收到停止信号
	if err := app.Run(); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("✅ 服务器优雅关闭完成")
}

// performHealthCheck 检查关键服务是否已注册
func performHealthCheck() error {
	container := di.GetContainer()

	criticalServices := []string{
		app.ServiceStorage,
		app.ServiceConfig,
		app.ServiceCharacter,
		app.ServiceStoryboard,
		app.ServiceExport,
	}
	for _, name := range criticalServices {
		if !container.Has(name) {
			return fmt.Errorf("关键服务未注册: %s", name)
		}
	}

	log.Println("✅ 服务健康检查通过")
	return nil
}
