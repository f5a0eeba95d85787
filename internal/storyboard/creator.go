// internal/storyboard/creator.go
package storyboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

// CharacterRegistry 角色档案只读查询
type CharacterRegistry interface {
	Lookup(id string) (models.CharacterProfile, bool)
}

// StaticRegistry 基于内存映射的角色注册表
type StaticRegistry map[string]models.CharacterProfile

// Lookup 实现 CharacterRegistry
func (r StaticRegistry) Lookup(id string) (models.CharacterProfile, bool) {
	p, ok := r[id]
	return p, ok
}

// Options 分镜生成选项
type Options struct {
	Angles              AngleStrategy
	QualityThreshold    int
	MaxRepairIterations int
	Clock               func() time.Time
}

// Creator 把剧本转换为分镜：分类 -> 镜头规划 -> 转场选择 -> 质量修复 -> 流畅度分析。
// 一个 Creator 持有自己的机位策略，不要在多个 goroutine 间共享。
type Creator struct {
	registry  CharacterRegistry
	planner   *ShotPlanner
	optimizer *Optimizer
	clock     func() time.Time
}

// NewCreator 创建分镜生成器，registry 可以为空
func NewCreator(registry CharacterRegistry, opts Options) *Creator {
	if registry == nil {
		registry = StaticRegistry{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Creator{
		registry:  registry,
		planner:   NewShotPlanner(opts.Angles),
		optimizer: NewOptimizer(opts.QualityThreshold, opts.MaxRepairIterations),
		clock:     clock,
	}
}

// CreateStoryboard 生成分镜；退化输入（无场景、无角色）得到空或简化的结果，不返回错误
func (c *Creator) CreateStoryboard(sp *models.Screenplay) *models.StoryboardResult {
	sb := &models.Storyboard{
		ID:           uuid.New().String(),
		EpisodeID:    sp.EpisodeID,
		ScreenplayID: sp.ID,
		Title:        sp.Title,
		Shots:        []models.Shot{},
		Transitions:  []models.Transition{},
		CreatedAt:    c.clock(),
	}

	scenes := make([]models.SceneClassification, 0, len(sp.Scenes))
	var previous *models.Setting
	for i := range sp.Scenes {
		scene := &sp.Scenes[i]
		cast := c.resolveCast(scene.CharacterIDs)
		cls := ClassifyScene(scene.Heading, scene.Content, len(cast))
		setting := ResolveSetting(scene, previous)
		previous = &setting

		scenes = append(scenes, cls)
		sb.Shots = append(sb.Shots, c.planner.PlanScene(i, scene, cls, setting, cast)...)
	}

	for _, s := range sb.Shots {
		sb.TotalDuration += s.Duration
	}
	sb.TotalDuration = roundTenth(sb.TotalDuration)

	sb.Transitions = BuildTransitions(sb.Shots)
	quality := c.optimizer.Optimize(sb)
	flow := AnalyzeFlow(sb)

	return &models.StoryboardResult{
		Storyboard: sb,
		Quality:    &quality,
		Flow:       &flow,
		Scenes:     scenes,
	}
}

// resolveCast 按ID解析角色，未注册的角色以ID为名，重复ID只保留一次
func (c *Creator) resolveCast(ids []string) []models.CharacterProfile {
	cast := make([]models.CharacterProfile, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		profile, ok := c.registry.Lookup(id)
		if !ok {
			profile = models.CharacterProfile{ID: id, Name: id}
		}
		if profile.ID == "" {
			profile.ID = id
		}
		if profile.Name == "" {
			profile.Name = id
		}
		cast = append(cast, profile)
	}
	return cast
}
