// internal/platform/registry.go
package platform

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Corphon/StoryboardMCP/internal/errors"
	"github.com/Corphon/StoryboardMCP/internal/models"
)

// Projection 把中间表示投影为某个视频生成平台的请求字段
type Projection interface {
	ID() string
	// MaxDuration 平台单个片段允许的最长时长（秒）
	MaxDuration() float64
	ProjectShot(shot ShotIR, duration float64, index int) map[string]interface{}
	ProjectTransition(t TransitionIR) map[string]interface{}
}

// Payload 平台请求体
type Payload struct {
	Platform      string                   `json:"platform"`
	StoryboardID  string                   `json:"storyboard_id"`
	Shots         []map[string]interface{} `json:"shots"`
	Transitions   []map[string]interface{} `json:"transitions"`
	TotalDuration float64                  `json:"total_duration"`
	Notes         []string                 `json:"notes,omitempty"`
}

// Registry 平台ID -> 投影
type Registry struct {
	mu          sync.RWMutex
	projections map[string]Projection
}

// NewRegistry 创建包含内置平台的注册表
func NewRegistry() *Registry {
	r := &Registry{projections: make(map[string]Projection)}
	for _, p := range builtinProjections() {
		r.Register(p)
	}
	return r
}

// Register 注册或替换平台投影
func (r *Registry) Register(p Projection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projections[normalizeID(p.ID())] = p
}

// Get 查找平台投影
func (r *Registry) Get(platform string) (Projection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projections[normalizeID(platform)]
	if !ok {
		return nil, errors.NewUnsupportedPlatformError(platform)
	}
	return p, nil
}

// Platforms 返回已注册的平台ID（排序）
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.projections))
	for id := range r.projections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Format 把分镜格式化为指定平台的请求体，超长镜头按平台上限截断
func (r *Registry) Format(sb *models.Storyboard, platform string) (*Payload, error) {
	p, err := r.Get(platform)
	if err != nil {
		return nil, err
	}
	return project(BuildIntermediate(sb), p), nil
}

func project(ir *Intermediate, p Projection) *Payload {
	payload := &Payload{
		Platform:     p.ID(),
		StoryboardID: ir.StoryboardID,
		Shots:        make([]map[string]interface{}, 0, len(ir.Shots)),
		Transitions:  make([]map[string]interface{}, 0, len(ir.Transitions)),
	}

	for i, shot := range ir.Shots {
		d, note := clampFor(shot, p)
		if note != "" {
			payload.Notes = append(payload.Notes, note)
		}
		fields := p.ProjectShot(shot, d, i)
		fields["shot_id"] = shot.ShotID
		payload.Shots = append(payload.Shots, fields)
		payload.TotalDuration += d
	}
	for _, t := range ir.Transitions {
		payload.Transitions = append(payload.Transitions, p.ProjectTransition(t))
	}
	return payload
}

func clampFor(shot ShotIR, p Projection) (float64, string) {
	if limit := p.MaxDuration(); limit > 0 && shot.Duration > limit {
		return limit, fmt.Sprintf("shot %s duration %.1fs exceeds %s limit, clamped to %.1fs",
			shot.ShotID, shot.Duration, p.ID(), limit)
	}
	return shot.Duration, ""
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
