// internal/platform/ir.go
package platform

import (
	"github.com/Corphon/StoryboardMCP/internal/models"
)

// 中间表示的固定技术参数
const (
	AspectRatio = "16:9"
	Resolution  = "1080p"
	FrameRate   = 24

	QualityHigh     = "high"
	QualityStandard = "standard"
)

// TechnicalSpec 镜头技术参数
type TechnicalSpec struct {
	AspectRatio string `json:"aspect_ratio"`
	Resolution  string `json:"resolution"`
	FPS         int    `json:"fps"`
	Quality     string `json:"quality"`
}

// PromptBlock 提示词块
type PromptBlock struct {
	Primary  string `json:"primary"`
	Detailed string `json:"detailed"`
	Negative string `json:"negative"`
	Style    string `json:"style"`
}

// CameraBlock 摄影机参数
type CameraBlock struct {
	Angle    string `json:"angle"`
	Scale    string `json:"scale"`
	Movement string `json:"movement"`
}

// ShotIR 平台无关的镜头表示
type ShotIR struct {
	ShotID     string        `json:"shot_id"`
	Duration   float64       `json:"duration"`
	Technical  TechnicalSpec `json:"technical"`
	Prompt     PromptBlock   `json:"prompt"`
	Camera     CameraBlock   `json:"camera"`
	Characters []string      `json:"characters,omitempty"`
}

// TransitionIR 平台无关的转场表示
type TransitionIR struct {
	ID         string                 `json:"id"`
	FromShotID string                 `json:"from_shot_id"`
	ToShotID   string                 `json:"to_shot_id"`
	Type       string                 `json:"type"`
	Duration   float64                `json:"duration"`
	Parameters map[string]interface{} `json:"parameters"`
}

// Intermediate 分镜的中间表示，所有平台投影都从这里开始
type Intermediate struct {
	StoryboardID  string         `json:"storyboard_id"`
	EpisodeID     string         `json:"episode_id"`
	Title         string         `json:"title,omitempty"`
	Shots         []ShotIR       `json:"shots"`
	Transitions   []TransitionIR `json:"transitions"`
	TotalDuration float64        `json:"total_duration"`
}

// BuildIntermediate 把分镜转换为中间表示
func BuildIntermediate(sb *models.Storyboard) *Intermediate {
	ir := &Intermediate{
		StoryboardID: sb.ID,
		EpisodeID:    sb.EpisodeID,
		Title:        sb.Title,
		Shots:        make([]ShotIR, 0, len(sb.Shots)),
		Transitions:  make([]TransitionIR, 0, len(sb.Transitions)),
	}

	for i := range sb.Shots {
		s := &sb.Shots[i]
		names := make([]string, 0, len(s.Characters))
		for _, c := range s.Characters {
			names = append(names, c.Name)
		}
		ir.Shots = append(ir.Shots, ShotIR{
			ShotID:   s.ID,
			Duration: s.Duration,
			Technical: TechnicalSpec{
				AspectRatio: AspectRatio,
				Resolution:  Resolution,
				FPS:         FrameRate,
				Quality:     qualityTier(s.Scale),
			},
			Prompt: PromptBlock{
				Primary:  s.Prompt.AIPrompt,
				Detailed: s.Prompt.Description,
				Negative: s.Prompt.NegativePrompt,
				Style:    s.Prompt.StylePrompt,
			},
			Camera: CameraBlock{
				Angle:    string(s.Angle),
				Scale:    string(s.Scale),
				Movement: cameraMovement(s.Scale, s.Angle),
			},
			Characters: names,
		})
		ir.TotalDuration += s.Duration
	}

	index := sb.ShotIndex()
	for _, t := range sb.Transitions {
		ir.Transitions = append(ir.Transitions, TransitionIR{
			ID:         t.ID,
			FromShotID: t.FromShotID,
			ToShotID:   t.ToShotID,
			Type:       string(t.Kind),
			Duration:   t.Duration,
			Parameters: transitionParameters(t.Kind, index[t.FromShotID], index[t.ToShotID]),
		})
	}
	return ir
}

// 人脸占画面主体的景别使用高质量档
func qualityTier(scale models.ShotScale) string {
	switch scale {
	case models.ScaleCloseUp, models.ScaleExtremeCloseUp, models.ScaleOverShoulder:
		return QualityHigh
	default:
		return QualityStandard
	}
}

func cameraMovement(scale models.ShotScale, angle models.CameraAngle) string {
	if angle == models.AngleDutch {
		return "handheld"
	}
	switch scale {
	case models.ScaleExtremeWide:
		return "slow pan"
	case models.ScaleCloseUp:
		return "slow push in"
	default:
		return "static"
	}
}

// 景别从宽到紧的排序，用于判断变焦方向
var scaleRank = map[models.ShotScale]int{
	models.ScaleExtremeWide:    0,
	models.ScaleWide:           1,
	models.ScaleMedium:         2,
	models.ScaleOverShoulder:   3,
	models.ScaleCloseUp:        4,
	models.ScaleExtremeCloseUp: 5,
}

// transitionParameters 按转场类型生成参数
func transitionParameters(kind models.TransitionKind, from, to *models.Shot) map[string]interface{} {
	switch kind {
	case models.TransitionFade:
		return map[string]interface{}{"color": "black", "curve": "ease-in-out"}
	case models.TransitionDissolve:
		return map[string]interface{}{"blend": "cross", "curve": "linear"}
	case models.TransitionWipe:
		return map[string]interface{}{"direction": "left-to-right", "edge": "soft"}
	case models.TransitionZoom:
		direction := "in"
		if from != nil && to != nil && scaleRank[to.Scale] < scaleRank[from.Scale] {
			direction = "out"
		}
		return map[string]interface{}{"direction": direction, "anchor": "center"}
	case models.TransitionPan:
		direction := "right"
		if to != nil && len(to.Characters) > 0 && to.Characters[0].Position == models.PositionLeft {
			direction = "left"
		}
		return map[string]interface{}{"direction": direction, "easing": "ease-in-out"}
	default:
		return map[string]interface{}{}
	}
}
