// internal/storyboard/planner.go
package storyboard

import (
	"fmt"
	"math"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

// ShotPlanner 把单个场景展开为镜头序列
type ShotPlanner struct {
	angles AngleStrategy
}

// NewShotPlanner 创建镜头规划器，angles 为空时使用 FixedAngles
func NewShotPlanner(angles AngleStrategy) *ShotPlanner {
	if angles == nil {
		angles = FixedAngles{}
	}
	return &ShotPlanner{angles: angles}
}

// shotSlot 一个待生成镜头的骨架
type shotSlot struct {
	scale   models.ShotScale
	role    shotRole
	content bool
}

type shotRole int

const (
	roleEstablishing shotRole = iota
	roleContent
	roleClosing
)

// PlanScene 生成场景镜头：定场镜头 + 景别序列中的内容镜头 + 可选收尾镜头。
// cast 为已解析的出场角色，按剧本顺序排列。
func (p *ShotPlanner) PlanScene(
	sceneIndex int,
	scene *models.ScreenplayScene,
	cls models.SceneClassification,
	setting models.Setting,
	cast []models.CharacterProfile,
) []models.Shot {
	slots := []shotSlot{{scale: models.ScaleExtremeWide, role: roleEstablishing}}

	sequence, ok := sceneShotSequences[cls.SceneType]
	if !ok {
		sequence = sceneShotSequences[models.SceneDialogue]
	}
	for _, scale := range sequence {
		slots = append(slots, shotSlot{scale: scale, role: roleContent, content: true})
	}
	if cls.NeedsClosingShot {
		slots = append(slots, shotSlot{scale: models.ScaleWide, role: roleClosing})
	}

	factor := contentFactor(scene.WordCount())
	beat := sceneBeat(cls)

	shots := make([]models.Shot, 0, len(slots))
	for i, slot := range slots {
		shot := models.Shot{
			ID:            ShotID(sceneIndex, i),
			SceneIndex:    sceneIndex,
			Sequence:      i,
			Duration:      shotDuration(slot.scale, factor),
			Angle:         p.chooseAngle(slot, cls.SceneType),
			Scale:         slot.scale,
			Setting:       setting,
			EmotionalBeat: shotBeat(beat, slot.scale, cls.SceneType),
		}
		shot.Characters = frameCharacters(cast, slot.scale, shot.EmotionalBeat, cls.SceneType)
		shot.Prompt = BuildShotPrompt(&shot, cast)
		shots = append(shots, shot)
	}
	return shots
}

// ShotID 镜头ID由场景序号与镜头位置决定（均从1开始）
func ShotID(sceneIndex, position int) string {
	return fmt.Sprintf("scene%d_shot%d", sceneIndex+1, position+1)
}

func (p *ShotPlanner) chooseAngle(slot shotSlot, sceneType models.SceneType) models.CameraAngle {
	if !slot.content {
		return models.AngleEyeLevel
	}
	switch sceneType {
	case models.SceneAction:
		return p.angles.Choose(actionAngles)
	case models.SceneEmotional:
		if isCloseScale(slot.scale) {
			return p.angles.Choose(emotionalAngles)
		}
	}
	return models.AngleEyeLevel
}

func isCloseScale(scale models.ShotScale) bool {
	return scale == models.ScaleCloseUp || scale == models.ScaleExtremeCloseUp
}

func isWideScale(scale models.ShotScale) bool {
	return scale == models.ScaleWide || scale == models.ScaleExtremeWide
}

// contentFactor 正文越长镜头越长，最多两倍
func contentFactor(words int) float64 {
	return math.Min(2, 1+float64(words)/200)
}

func shotDuration(scale models.ShotScale, factor float64) float64 {
	r, ok := scaleDurations[scale]
	if !ok {
		r = scaleDurations[models.ScaleMedium]
	}
	return roundTenth((r.Min + r.Max) / 2 * factor)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// sceneBeat 场景的情绪节拍：主导情绪优先，否则由场景类型决定
func sceneBeat(cls models.SceneClassification) string {
	if beat, ok := emotionBeats[cls.DominantEmotion]; ok {
		return beat
	}
	switch cls.SceneType {
	case models.SceneAction:
		return "tense"
	case models.SceneEstablishing, models.SceneTransition:
		return "calm"
	default:
		return "neutral"
	}
}

// shotBeat 情绪场景中非特写镜头使用弱化节拍，情绪随景别推近而加强
func shotBeat(beat string, scale models.ShotScale, sceneType models.SceneType) string {
	if sceneType != models.SceneEmotional || isCloseScale(scale) {
		return beat
	}
	if softer, ok := softerBeats[beat]; ok {
		return softer
	}
	return beat
}

// frameCharacters 按景别上限截取角色并安排站位与层次，超出上限的角色不入镜
func frameCharacters(cast []models.CharacterProfile, scale models.ShotScale, beat string, sceneType models.SceneType) []models.ShotCharacter {
	n := len(cast)
	if limit := MaxCharacters(scale); n > limit {
		n = limit
	}

	expression, ok := beatExpressions[beat]
	if !ok {
		expression = beatExpressions["neutral"]
	}

	chars := make([]models.ShotCharacter, 0, n)
	for i := 0; i < n; i++ {
		chars = append(chars, models.ShotCharacter{
			CharacterID: cast[i].ID,
			Name:        cast[i].Name,
			Position:    framePosition(i, n),
			Prominence:  prominence(i, scale),
			Expression:  expression,
			Action:      characterAction(i, sceneType),
		})
	}
	return chars
}

func framePosition(i, n int) models.FramePosition {
	switch {
	case n == 1:
		return models.PositionCenter
	case i == 0:
		return models.PositionLeft
	case i == n-1:
		return models.PositionRight
	default:
		return models.PositionCenter
	}
}

func prominence(i int, scale models.ShotScale) models.Prominence {
	switch {
	case isCloseScale(scale):
		return models.ProminenceForeground
	case isWideScale(scale):
		return models.ProminenceMidground
	case i == 0:
		// 过肩与中景：第一位角色在前景
		return models.ProminenceForeground
	default:
		return models.ProminenceMidground
	}
}

func characterAction(i int, sceneType models.SceneType) string {
	switch sceneType {
	case models.SceneDialogue:
		if i == 0 {
			return "speaking"
		}
		return "listening"
	case models.SceneAction:
		return "in motion"
	case models.SceneEmotional:
		return "reacting"
	default:
		return ""
	}
}
