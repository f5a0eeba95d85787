// internal/models/storyboard.go
package models

import (
	"time"
)

// CameraAngle 机位角度
type CameraAngle string

const (
	AngleEyeLevel CameraAngle = "eye-level"
	AngleHigh     CameraAngle = "high"
	AngleLow      CameraAngle = "low"
	AngleBirdsEye CameraAngle = "birds-eye"
	AngleWormsEye CameraAngle = "worms-eye"
	AngleDutch    CameraAngle = "dutch"
)

// ShotScale 景别
type ShotScale string

const (
	ScaleExtremeWide    ShotScale = "extreme-wide"
	ScaleWide           ShotScale = "wide"
	ScaleMedium         ShotScale = "medium"
	ScaleCloseUp        ShotScale = "close-up"
	ScaleExtremeCloseUp ShotScale = "extreme-close-up"
	ScaleOverShoulder   ShotScale = "over-shoulder"
)

// FramePosition 角色在画面中的位置
type FramePosition string

const (
	PositionLeft   FramePosition = "left"
	PositionCenter FramePosition = "center"
	PositionRight  FramePosition = "right"
)

// Prominence 角色在画面中的层次
type Prominence string

const (
	ProminenceForeground Prominence = "foreground"
	ProminenceMidground  Prominence = "midground"
	ProminenceBackground Prominence = "background"
)

// TransitionKind 转场类型
type TransitionKind string

const (
	TransitionCut      TransitionKind = "cut"
	TransitionFade     TransitionKind = "fade"
	TransitionDissolve TransitionKind = "dissolve"
	TransitionWipe     TransitionKind = "wipe"
	TransitionZoom     TransitionKind = "zoom"
	TransitionPan      TransitionKind = "pan"
)

// ShotCharacter 镜头中的角色
type ShotCharacter struct {
	CharacterID string        `json:"character_id" yaml:"character_id"`
	Name        string        `json:"name" yaml:"name"`
	Position    FramePosition `json:"position" yaml:"position"`
	Prominence  Prominence    `json:"prominence" yaml:"prominence"`
	Expression  string        `json:"expression,omitempty" yaml:"expression,omitempty"`
	Action      string        `json:"action,omitempty" yaml:"action,omitempty"`
}

// Setting 镜头的场景快照
type Setting struct {
	Location   string `json:"location" yaml:"location"`
	TimeOfDay  string `json:"time_of_day" yaml:"time_of_day"`
	Lighting   string `json:"lighting" yaml:"lighting"`
	Atmosphere string `json:"atmosphere" yaml:"atmosphere"`
}

// ShotPrompt 镜头的生成提示词
type ShotPrompt struct {
	Description    string `json:"description" yaml:"description"`
	AIPrompt       string `json:"ai_prompt" yaml:"ai_prompt"`
	NegativePrompt string `json:"negative_prompt" yaml:"negative_prompt"`
	StylePrompt    string `json:"style_prompt" yaml:"style_prompt"`
}

// Shot 一个连续的镜头规格
type Shot struct {
	ID            string          `json:"id" yaml:"id"`
	SceneIndex    int             `json:"scene_index" yaml:"scene_index"`
	Sequence      int             `json:"sequence" yaml:"sequence"`
	Duration      float64         `json:"duration" yaml:"duration"` // 秒
	Angle         CameraAngle     `json:"angle" yaml:"angle"`
	Scale         ShotScale       `json:"scale" yaml:"scale"`
	Characters    []ShotCharacter `json:"characters" yaml:"characters"`
	Setting       Setting         `json:"setting" yaml:"setting"`
	EmotionalBeat string          `json:"emotional_beat,omitempty" yaml:"emotional_beat,omitempty"`
	Prompt        ShotPrompt      `json:"prompt" yaml:"prompt"`
}

// CharacterIDs 返回镜头中的角色ID列表
func (s *Shot) CharacterIDs() []string {
	ids := make([]string, 0, len(s.Characters))
	for _, c := range s.Characters {
		ids = append(ids, c.CharacterID)
	}
	return ids
}

// Transition 两个镜头之间的转场
type Transition struct {
	ID            string         `json:"id" yaml:"id"`
	FromShotID    string         `json:"from_shot_id" yaml:"from_shot_id"`
	ToShotID      string         `json:"to_shot_id" yaml:"to_shot_id"`
	Kind          TransitionKind `json:"kind" yaml:"kind"`
	Duration      float64        `json:"duration" yaml:"duration"`
	Description   string         `json:"description" yaml:"description"`
	SceneBoundary bool           `json:"scene_boundary,omitempty" yaml:"scene_boundary,omitempty"`
}

// Storyboard 一集的完整分镜
type Storyboard struct {
	ID            string       `json:"id" yaml:"id"`
	EpisodeID     string       `json:"episode_id" yaml:"episode_id"`
	ScreenplayID  string       `json:"screenplay_id,omitempty" yaml:"screenplay_id,omitempty"`
	Title         string       `json:"title,omitempty" yaml:"title,omitempty"`
	Shots         []Shot       `json:"shots" yaml:"shots"`
	Transitions   []Transition `json:"transitions" yaml:"transitions"`
	TotalDuration float64      `json:"total_duration" yaml:"total_duration"`
	CreatedAt     time.Time    `json:"created_at" yaml:"created_at"`
}

// ShotByID 按ID查找镜头
func (sb *Storyboard) ShotByID(id string) (*Shot, bool) {
	for i := range sb.Shots {
		if sb.Shots[i].ID == id {
			return &sb.Shots[i], true
		}
	}
	return nil, false
}

// ShotIndex 建立 镜头ID -> 镜头 的索引
func (sb *Storyboard) ShotIndex() map[string]*Shot {
	index := make(map[string]*Shot, len(sb.Shots))
	for i := range sb.Shots {
		index[sb.Shots[i].ID] = &sb.Shots[i]
	}
	return index
}

// SceneType 场景类型
type SceneType string

const (
	SceneEstablishing SceneType = "establishing"
	SceneDialogue     SceneType = "dialogue"
	SceneAction       SceneType = "action"
	SceneEmotional    SceneType = "emotional"
	SceneTransition   SceneType = "transition"
)

// SceneClassification 场景分类结果（临时数据，不持久化）
type SceneClassification struct {
	HasDialogue        bool      `json:"has_dialogue"`
	HasAction          bool      `json:"has_action"`
	EmotionalIntensity float64   `json:"emotional_intensity"`
	SceneType          SceneType `json:"scene_type"`
	NeedsClosingShot   bool      `json:"needs_closing_shot"`
	DominantEmotion    string    `json:"dominant_emotion,omitempty"`
}
