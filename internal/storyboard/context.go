// internal/storyboard/context.go
package storyboard

import (
	"math"
	"strings"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

// ChangeLevel 变化幅度
type ChangeLevel string

const (
	ChangeNone  ChangeLevel = "none"
	ChangeMinor ChangeLevel = "minor"
	ChangeMajor ChangeLevel = "major"
)

// EmotionalShift 情绪变化幅度
type EmotionalShift string

const (
	ShiftNone     EmotionalShift = "none"
	ShiftSubtle   EmotionalShift = "subtle"
	ShiftDramatic EmotionalShift = "dramatic"
)

// Pace 叙事节奏
type Pace string

const (
	PaceFast   Pace = "fast"
	PaceMedium Pace = "medium"
	PaceSlow   Pace = "slow"
)

// TransitionContext 相邻两个镜头之间的上下文信号
type TransitionContext struct {
	LocationChange      bool           `json:"location_change"`
	TimeChange          bool           `json:"time_change"`
	ScaleChange         ChangeLevel    `json:"scale_change"`
	AngleChange         ChangeLevel    `json:"angle_change"`
	EmotionalShift      EmotionalShift `json:"emotional_shift"`
	CharacterContinuity float64        `json:"character_continuity"`
	NarrativePace       Pace           `json:"narrative_pace"`
	LightingChange      bool           `json:"lighting_change"`
	AtmosphereChange    bool           `json:"atmosphere_change"`
}

// AnalyzeContext 计算两个镜头之间的上下文信号
func AnalyzeContext(from, to *models.Shot) TransitionContext {
	return TransitionContext{
		LocationChange:      !strings.EqualFold(from.Setting.Location, to.Setting.Location),
		TimeChange:          !strings.EqualFold(from.Setting.TimeOfDay, to.Setting.TimeOfDay),
		ScaleChange:         ScaleChange(from.Scale, to.Scale),
		AngleChange:         AngleChange(from.Angle, to.Angle),
		EmotionalShift:      EmotionalShiftBetween(from.EmotionalBeat, to.EmotionalBeat),
		CharacterContinuity: CharacterContinuity(from.CharacterIDs(), to.CharacterIDs()),
		NarrativePace:       NarrativePace(from.Duration, to.Duration),
		LightingChange:      !strings.EqualFold(from.Setting.Lighting, to.Setting.Lighting),
		AtmosphereChange:    !strings.EqualFold(from.Setting.Atmosphere, to.Setting.Atmosphere),
	}
}

// ScaleChange 景别排序距离：0 无，1 轻微，≥2 显著
func ScaleChange(a, b models.ShotScale) ChangeLevel {
	ia, okA := scaleOrder[a]
	ib, okB := scaleOrder[b]
	if !okA || !okB {
		if a == b {
			return ChangeNone
		}
		return ChangeMajor
	}
	switch d := abs(ia - ib); {
	case d == 0:
		return ChangeNone
	case d == 1:
		return ChangeMinor
	default:
		return ChangeMajor
	}
}

// AngleChange 常规机位与戏剧性机位之间切换为显著变化
func AngleChange(a, b models.CameraAngle) ChangeLevel {
	if a == b {
		return ChangeNone
	}
	if standardAngles[a] != standardAngles[b] {
		return ChangeMajor
	}
	return ChangeMinor
}

// EmotionalShiftBetween 按节拍强度差划分：0 无，<0.4 细微，≥0.4 剧烈
func EmotionalShiftBetween(a, b string) EmotionalShift {
	d := math.Abs(BeatIntensity(a) - BeatIntensity(b))
	// 消除浮点误差
	d = math.Round(d*1000) / 1000
	switch {
	case d == 0:
		return ShiftNone
	case d < 0.4:
		return ShiftSubtle
	default:
		return ShiftDramatic
	}
}

// CharacterContinuity 角色集合的 Jaccard 相似度；两边都为空为1，仅一边为空为0
func CharacterContinuity(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for id := range setA {
		if setB[id] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// NarrativePace 两个镜头平均时长 <2 快，>5 慢
func NarrativePace(d1, d2 float64) Pace {
	mean := (d1 + d2) / 2
	switch {
	case mean < 2:
		return PaceFast
	case mean > 5:
		return PaceSlow
	default:
		return PaceMedium
	}
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
