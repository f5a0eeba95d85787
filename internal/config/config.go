// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/Corphon/StoryboardMCP/internal/errors"
)

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// EngineConfig 分镜引擎的可调参数，会持久化到 config.json
type EngineConfig struct {
	Seed                int64  `json:"seed"` // 0 表示按时间取种子
	QualityThreshold    int    `json:"quality_threshold"`
	MaxRepairIterations int    `json:"max_repair_iterations"`
	BatchConcurrency    int    `json:"batch_concurrency"`
	DefaultPlatform     string `json:"default_platform"`
}

// AppConfig 包含应用程序的所有配置
type AppConfig struct {
	// 基础配置（始终以环境变量为准）
	Port      string `json:"port"`
	DataDir   string `json:"data_dir"`
	LogDir    string `json:"log_dir"`
	LogLevel  string `json:"log_level"`
	DebugMode bool   `json:"debug_mode"`

	// 引擎配置（文件中的值优先）
	Engine EngineConfig `json:"engine"`
}

// Config 存储从环境变量读取的配置
type Config struct {
	Port      string
	DataDir   string
	LogDir    string
	LogLevel  string
	DebugMode bool
	Engine    EngineConfig
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// .env 文件是可选的
	_ = godotenv.Load()

	config := &Config{
		Port:      getEnv("PORT", "8080"),
		DataDir:   getEnvPath("DATA_DIR", "data"),
		LogDir:    getEnvPath("LOG_DIR", "logs"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		DebugMode: getEnvBool("DEBUG_MODE", true),
		Engine: EngineConfig{
			Seed:                getEnvInt64("STORYBOARD_SEED", 0),
			QualityThreshold:    getEnvInt("QUALITY_THRESHOLD", 70),
			MaxRepairIterations: getEnvInt("MAX_REPAIR_ITERATIONS", 3),
			BatchConcurrency:    getEnvInt("BATCH_CONCURRENCY", 4),
			DefaultPlatform:     strings.ToLower(getEnv("DEFAULT_PLATFORM", "runway")),
		},
	}

	if err := config.Engine.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate 检查引擎参数范围
func (e EngineConfig) Validate() error {
	switch {
	case e.QualityThreshold < 1 || e.QualityThreshold > 100:
		return errors.NewValidationError(fmt.Sprintf("quality threshold must be in [1,100], got %d", e.QualityThreshold), nil)
	case e.MaxRepairIterations < 1:
		return errors.NewValidationError(fmt.Sprintf("max repair iterations must be positive, got %d", e.MaxRepairIterations), nil)
	case e.BatchConcurrency < 1:
		return errors.NewValidationError(fmt.Sprintf("batch concurrency must be positive, got %d", e.BatchConcurrency), nil)
	case e.DefaultPlatform == "":
		return errors.NewValidationError("default platform must not be empty", nil)
	}
	return nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath 获取环境变量表示的路径，并确保目录存在
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "警告: 创建目录失败 %s: %v\n", path, err)
		}
	}
	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt 获取整数环境变量，无法解析时使用默认值
func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvInt64(key string, defaultValue int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

// InitConfig 初始化配置管理器，合并 dataDir/config.json 中保存的引擎配置
func InitConfig(dataDir string) error {
	baseConfig, err := Load()
	if err != nil {
		return err
	}
	if dataDir == "" {
		dataDir = baseConfig.DataDir
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	configFile = filepath.Join(dataDir, "config.json")
	currentConfig = &AppConfig{
		Port:      baseConfig.Port,
		DataDir:   baseConfig.DataDir,
		LogDir:    baseConfig.LogDir,
		LogLevel:  baseConfig.LogLevel,
		DebugMode: baseConfig.DebugMode,
		Engine:    baseConfig.Engine,
	}

	if data, err := os.ReadFile(configFile); err == nil {
		var saved AppConfig
		if json.Unmarshal(data, &saved) == nil && saved.Engine.Validate() == nil {
			currentConfig.Engine = saved.Engine
		}
	}

	return saveLocked()
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		// 未初始化时直接使用环境变量
		baseConfig, err := Load()
		if err != nil {
			baseConfig = &Config{Port: "8080", DataDir: "data", LogDir: "logs", LogLevel: "info", Engine: DefaultEngineConfig()}
		}
		return &AppConfig{
			Port:      baseConfig.Port,
			DataDir:   baseConfig.DataDir,
			LogDir:    baseConfig.LogDir,
			LogLevel:  baseConfig.LogLevel,
			DebugMode: baseConfig.DebugMode,
			Engine:    baseConfig.Engine,
		}
	}

	configCopy := *currentConfig
	return &configCopy
}

// DefaultEngineConfig 默认引擎参数
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		QualityThreshold:    70,
		MaxRepairIterations: 3,
		BatchConcurrency:    4,
		DefaultPlatform:     "runway",
	}
}

// UpdateEngineConfig 更新并保存引擎配置
func UpdateEngineConfig(engine EngineConfig) error {
	engine.DefaultPlatform = strings.ToLower(strings.TrimSpace(engine.DefaultPlatform))
	if err := engine.Validate(); err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}
	currentConfig.Engine = engine
	return saveLocked()
}

// SaveConfig 保存当前配置到文件
func SaveConfig() error {
	configMutex.Lock()
	defer configMutex.Unlock()
	return saveLocked()
}

func saveLocked() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	return os.WriteFile(configFile, data, 0644)
}
