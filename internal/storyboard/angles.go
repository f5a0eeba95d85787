// internal/storyboard/angles.go
package storyboard

import (
	"math/rand"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

// AngleStrategy 在候选机位中选择一个
type AngleStrategy interface {
	Choose(options []models.CameraAngle) models.CameraAngle
}

// SeededAngles 以固定种子随机选择机位，同一种子得到同一序列。
// 非并发安全，每次生成使用独立实例。
type SeededAngles struct {
	rng *rand.Rand
}

// NewSeededAngles 创建带种子的机位策略
func NewSeededAngles(seed int64) *SeededAngles {
	return &SeededAngles{rng: rand.New(rand.NewSource(seed))}
}

// Choose 随机选择
func (s *SeededAngles) Choose(options []models.CameraAngle) models.CameraAngle {
	if len(options) == 0 {
		return models.AngleEyeLevel
	}
	return options[s.rng.Intn(len(options))]
}

// FixedAngles 总是返回第一个候选，用于测试和可复现输出
type FixedAngles struct{}

// Choose 返回第一个候选
func (FixedAngles) Choose(options []models.CameraAngle) models.CameraAngle {
	if len(options) == 0 {
		return models.AngleEyeLevel
	}
	return options[0]
}

var (
	actionAngles    = []models.CameraAngle{models.AngleLow, models.AngleHigh, models.AngleDutch}
	emotionalAngles = []models.CameraAngle{models.AngleHigh, models.AngleLow}
)
