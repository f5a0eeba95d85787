// internal/services/storyboard_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/errors"
	"github.com/Corphon/StoryboardMCP/internal/models"
	"github.com/Corphon/StoryboardMCP/internal/platform"
	"github.com/Corphon/StoryboardMCP/internal/storage"
	"github.com/Corphon/StoryboardMCP/internal/storyboard"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

const storyboardCollection = "storyboards"

// 生成流水线阶段
const (
	StageCharacters = "characters"
	StagePlanning   = "planning"
	StagePersisting = "persisting"
)

// StoryboardService 分镜生成、存储、校验与平台格式化
type StoryboardService struct {
	Characters *CharacterService
	Platforms  *platform.Registry
	Progress   *ProgressService
	Config     *ConfigService

	store   storage.Store
	locks   *LockManager
	metrics *utils.StoryboardMetrics
	logger  *utils.Logger
	clock   func() time.Time
}

// NewStoryboardService 创建分镜服务
func NewStoryboardService(
	store storage.Store,
	characters *CharacterService,
	platforms *platform.Registry,
	progress *ProgressService,
	cfg *ConfigService,
	metrics *utils.StoryboardMetrics,
	locks *LockManager,
) *StoryboardService {
	if locks == nil {
		locks = NewLockManager()
	}
	if progress == nil {
		progress = NewProgressService()
	}
	if platforms == nil {
		platforms = platform.NewRegistry()
	}
	if metrics == nil {
		metrics = utils.NewStoryboardMetrics()
	}
	return &StoryboardService{
		Characters: characters,
		Platforms:  platforms,
		Progress:   progress,
		Config:     cfg,
		store:      store,
		locks:      locks,
		metrics:    metrics,
		logger:     utils.GetLogger().WithFields(map[string]interface{}{"component": "storyboard_service"}),
		clock:      time.Now,
	}
}

func storyboardLockKey(id string) string {
	return storyboardCollection + "/" + id
}

// seedFor 批量生成时每个剧本使用独立的种子；基础种子为0时按时间取种子
func seedFor(base int64, index int) int64 {
	if base == 0 {
		return time.Now().UnixNano() + int64(index)
	}
	return base + int64(index)
}

func validateScreenplay(sp *models.Screenplay) error {
	if sp == nil {
		return errors.NewValidationError("screenplay is required", nil)
	}
	for i, scene := range sp.Scenes {
		if scene.Heading == "" && scene.Content == "" {
			return errors.NewValidationError(fmt.Sprintf("scene %d has neither heading nor content", i+1), nil)
		}
	}
	return nil
}

// Generate 同步生成分镜并保存。taskID 非空时通过进度服务报告进度
func (s *StoryboardService) Generate(ctx context.Context, sp *models.Screenplay, taskID string) (*models.StoryboardResult, error) {
	var tracker *ProgressTracker
	if taskID != "" {
		tracker = s.Progress.CreateTracker(taskID)
	}

	result, err := s.generate(ctx, sp, 0, tracker)
	if err != nil {
		if tracker != nil {
			tracker.Fail(err.Error())
		}
		return nil, err
	}
	if tracker != nil {
		tracker.Complete(result.Storyboard.ID, fmt.Sprintf("generated %d shots", len(result.Storyboard.Shots)))
	}
	return result, nil
}

// StartGeneration 后台生成分镜，返回可用于订阅进度的任务ID
func (s *StoryboardService) StartGeneration(sp *models.Screenplay) (string, error) {
	if err := validateScreenplay(sp); err != nil {
		return "", err
	}

	taskID := uuid.New().String()
	s.Progress.CreateTracker(taskID)

	go func() {
		if _, err := s.Generate(context.Background(), sp, taskID); err != nil {
			s.logger.Error("Background generation failed", map[string]interface{}{
				"task_id": taskID,
				"error":   err.Error(),
			})
		}
	}()
	return taskID, nil
}

// GenerateBatch 并发生成多个分镜，并发度由引擎配置限制
func (s *StoryboardService) GenerateBatch(ctx context.Context, screenplays []*models.Screenplay) ([]*models.StoryboardResult, error) {
	if len(screenplays) == 0 {
		return nil, errors.NewValidationError("batch must contain at least one screenplay", nil)
	}
	for _, sp := range screenplays {
		if err := validateScreenplay(sp); err != nil {
			return nil, err
		}
	}

	results := make([]*models.StoryboardResult, len(screenplays))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.engine().BatchConcurrency)

	for i, sp := range screenplays {
		i, sp := i, sp
		g.Go(func() error {
			result, err := s.generate(gctx, sp, i, nil)
			if err != nil {
				return fmt.Errorf("screenplay %d: %w", i+1, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("Batch generation completed", map[string]interface{}{"count": len(results)})
	return results, nil
}

func (s *StoryboardService) engine() config.EngineConfig {
	if s.Config == nil {
		return config.DefaultEngineConfig()
	}
	engine := s.Config.EngineConfig()
	if engine.BatchConcurrency < 1 {
		engine.BatchConcurrency = 1
	}
	return engine
}

func (s *StoryboardService) generate(ctx context.Context, sp *models.Screenplay, index int, tracker *ProgressTracker) (*models.StoryboardResult, error) {
	if err := validateScreenplay(sp); err != nil {
		return nil, err
	}
	start := s.clock()

	report := func(progress int, stage, message string) {
		if tracker != nil {
			tracker.UpdateProgress(progress, stage, message)
		}
	}

	report(10, StageCharacters, "resolving characters")
	var registry storyboard.CharacterRegistry
	if s.Characters != nil {
		loaded, err := s.Characters.RegistryFor(ctx, sp)
		if err != nil {
			s.metrics.RecordError("character_lookup", "storyboard_service")
			return nil, errors.WrapError(err, "加载角色失败", errors.ErrorTypeError)
		}
		registry = loaded
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeTimeout, "generation cancelled", err)
	}

	report(30, StagePlanning, fmt.Sprintf("planning %d scenes", len(sp.Scenes)))
	engine := s.engine()
	creator := storyboard.NewCreator(registry, storyboard.Options{
		Angles:              storyboard.NewSeededAngles(seedFor(engine.Seed, index)),
		QualityThreshold:    engine.QualityThreshold,
		MaxRepairIterations: engine.MaxRepairIterations,
		Clock:               s.clock,
	})
	result := creator.CreateStoryboard(sp)
	sb := result.Storyboard

	report(80, StagePersisting, "saving storyboard")
	err := s.locks.WithLock(storyboardLockKey(sb.ID), func() error {
		return s.store.Put(ctx, storyboardCollection, sb.ID, result)
	})
	if err != nil {
		s.metrics.RecordError("persist", "storyboard_service")
		return nil, errors.WrapError(err, "保存分镜失败", errors.ErrorTypeError)
	}

	elapsed := s.clock().Sub(start)
	s.metrics.RecordGeneration(len(sb.Shots), len(sb.Transitions), result.Quality.RepairedCount, elapsed)
	s.logger.Info("Storyboard generated", map[string]interface{}{
		"storyboard_id":  sb.ID,
		"episode_id":     sb.EpisodeID,
		"scenes":         len(sp.Scenes),
		"shots":          len(sb.Shots),
		"transitions":    len(sb.Transitions),
		"repaired":       result.Quality.RepairedCount,
		"average_score":  result.Quality.AverageScore,
		"total_duration": sb.TotalDuration,
		"elapsed_ms":     elapsed.Milliseconds(),
	})
	return result, nil
}

// GetResult 读取保存的完整生成结果
func (s *StoryboardService) GetResult(ctx context.Context, id string) (*models.StoryboardResult, error) {
	var result models.StoryboardResult
	err := s.locks.WithReadLock(storyboardLockKey(id), func() error {
		return s.store.Get(ctx, storyboardCollection, id, &result)
	})
	if err != nil {
		return nil, errors.WrapError(err, fmt.Sprintf("读取分镜失败: %s", id), errors.ErrorTypeError)
	}
	if result.Storyboard == nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("storyboard %s has no content", id), nil)
	}
	return &result, nil
}

// Get 读取保存的分镜
func (s *StoryboardService) Get(ctx context.Context, id string) (*models.Storyboard, error) {
	result, err := s.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	return result.Storyboard, nil
}

// List 返回已保存的分镜ID
func (s *StoryboardService) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx, storyboardCollection)
}

// Delete 删除分镜
func (s *StoryboardService) Delete(ctx context.Context, id string) error {
	return s.locks.WithLock(storyboardLockKey(id), func() error {
		return s.store.Delete(ctx, storyboardCollection, id)
	})
}

// Quality 用当前阈值重新校验保存的分镜
func (s *StoryboardService) Quality(ctx context.Context, id string) (*models.StoryboardQuality, error) {
	sb, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	quality := storyboard.Revalidate(sb, s.engine().QualityThreshold)
	return &quality, nil
}

// Flow 分析保存的分镜的转场流畅度
func (s *StoryboardService) Flow(ctx context.Context, id string) (*models.FlowReport, error) {
	sb, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	flow := storyboard.AnalyzeFlow(sb)
	return &flow, nil
}

// resolvePlatform 空平台使用配置中的默认平台
func (s *StoryboardService) resolvePlatform(platformID string) string {
	if platformID == "" {
		return s.engine().DefaultPlatform
	}
	return platformID
}

// Format 将分镜转换为指定平台的请求载荷
func (s *StoryboardService) Format(ctx context.Context, id, platformID string) (*platform.Payload, error) {
	platformID = s.resolvePlatform(platformID)
	if _, err := s.Platforms.Get(platformID); err != nil {
		s.metrics.RecordError("unsupported_platform", "storyboard_service")
		return nil, err
	}

	sb, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := s.Platforms.Format(sb, platformID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordFormat(payload.Platform)
	s.logger.Info("Storyboard formatted", map[string]interface{}{
		"storyboard_id": id,
		"platform":      payload.Platform,
		"shots":         len(payload.Shots),
		"notes":         len(payload.Notes),
	})
	return payload, nil
}

// Compatibility 检查分镜与平台的兼容性
func (s *StoryboardService) Compatibility(ctx context.Context, id, platformID string) (*models.CompatibilityReport, error) {
	platformID = s.resolvePlatform(platformID)
	if _, err := s.Platforms.Get(platformID); err != nil {
		return nil, err
	}

	sb, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	report, err := s.Platforms.ValidateCompatibility(sb, platformID)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// PlatformIDs 返回已注册的平台
func (s *StoryboardService) PlatformIDs() []string {
	return s.Platforms.Platforms()
}
