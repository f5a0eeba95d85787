// internal/services/config_service.go
package services

import (
	"sync"
	"time"

	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

// ConfigService 管理运行时可调整的引擎配置
type ConfigService struct {
	// 配置历史记录
	changeHistory []ConfigChangeRecord

	// 读取配置的来源，测试中可替换
	load   func() config.EngineConfig
	update func(config.EngineConfig) error

	mu     sync.RWMutex
	logger *utils.Logger
}

// ConfigChangeRecord 配置变更记录
type ConfigChangeRecord struct {
	Timestamp time.Time           `json:"timestamp"`
	ChangedBy string              `json:"changed_by"`
	OldValue  config.EngineConfig `json:"old_value"`
	NewValue  config.EngineConfig `json:"new_value"`
}

const maxConfigHistory = 100

// NewConfigService 创建配置服务实例，读写全局配置
func NewConfigService() *ConfigService {
	return &ConfigService{
		changeHistory: make([]ConfigChangeRecord, 0, 16),
		load: func() config.EngineConfig {
			return config.GetCurrentConfig().Engine
		},
		update: config.UpdateEngineConfig,
		logger: utils.GetLogger().WithFields(map[string]interface{}{"component": "config_service"}),
	}
}

// NewStaticConfigService 使用固定的引擎配置，不落盘
func NewStaticConfigService(engine config.EngineConfig) *ConfigService {
	s := &ConfigService{
		changeHistory: make([]ConfigChangeRecord, 0, 16),
		logger:        utils.GetLogger().WithFields(map[string]interface{}{"component": "config_service"}),
	}
	current := engine
	s.load = func() config.EngineConfig { return current }
	s.update = func(e config.EngineConfig) error {
		if err := e.Validate(); err != nil {
			return err
		}
		current = e
		return nil
	}
	return s
}

// EngineConfig 返回当前引擎配置
func (s *ConfigService) EngineConfig() config.EngineConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

// UpdateEngineConfig 校验并保存引擎配置，记录变更
func (s *ConfigService) UpdateEngineConfig(engine config.EngineConfig, changedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.load()
	if err := s.update(engine); err != nil {
		return err
	}

	if len(s.changeHistory) >= maxConfigHistory {
		s.changeHistory = s.changeHistory[1:]
	}
	s.changeHistory = append(s.changeHistory, ConfigChangeRecord{
		Timestamp: time.Now(),
		ChangedBy: changedBy,
		OldValue:  old,
		NewValue:  s.load(),
	})

	s.logger.Info("Engine config updated", map[string]interface{}{
		"changed_by":        changedBy,
		"quality_threshold": engine.QualityThreshold,
		"max_iterations":    engine.MaxRepairIterations,
		"default_platform":  engine.DefaultPlatform,
	})
	return nil
}

// GetChangeHistory 获取最近的配置变更
func (s *ConfigService) GetChangeHistory(limit int) []ConfigChangeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.changeHistory) {
		limit = len(s.changeHistory)
	}
	history := make([]ConfigChangeRecord, limit)
	copy(history, s.changeHistory[len(s.changeHistory)-limit:])
	return history
}
