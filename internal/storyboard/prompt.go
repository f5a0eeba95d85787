// internal/storyboard/prompt.go
package storyboard

import (
	"fmt"
	"strings"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

var scaleLabels = map[models.ShotScale]string{
	models.ScaleExtremeWide:    "extreme wide shot",
	models.ScaleWide:           "wide shot",
	models.ScaleMedium:         "medium shot",
	models.ScaleCloseUp:        "close-up",
	models.ScaleExtremeCloseUp: "extreme close-up",
	models.ScaleOverShoulder:   "over-the-shoulder shot",
}

var angleLabels = map[models.CameraAngle]string{
	models.AngleEyeLevel: "eye-level angle",
	models.AngleHigh:     "high angle",
	models.AngleLow:      "low angle",
	models.AngleBirdsEye: "bird's-eye view",
	models.AngleWormsEye: "worm's-eye view",
	models.AngleDutch:    "dutch angle",
}

var scaleLenses = map[models.ShotScale]string{
	models.ScaleExtremeWide:    "deep focus, 18mm lens",
	models.ScaleWide:           "deep focus, 24mm lens",
	models.ScaleMedium:         "50mm lens",
	models.ScaleOverShoulder:   "50mm lens, foreground shoulder softly out of focus",
	models.ScaleCloseUp:        "shallow depth of field, 85mm lens",
	models.ScaleExtremeCloseUp: "macro detail, 100mm lens",
}

const baseNegativePrompt = "blurry, low quality, distorted anatomy, extra limbs, watermark, text, inconsistent character design"

// ScaleLabel 景别的可读名称
func ScaleLabel(scale models.ShotScale) string {
	if l, ok := scaleLabels[scale]; ok {
		return l
	}
	return string(scale)
}

// AngleLabel 机位的可读名称
func AngleLabel(angle models.CameraAngle) string {
	if l, ok := angleLabels[angle]; ok {
		return l
	}
	return string(angle)
}

// BuildShotPrompt 由景别、机位、设定和角色外观组合镜头提示词
func BuildShotPrompt(shot *models.Shot, cast []models.CharacterProfile) models.ShotPrompt {
	profiles := make(map[string]*models.CharacterProfile, len(cast))
	for i := range cast {
		profiles[cast[i].ID] = &cast[i]
	}

	scale := ScaleLabel(shot.Scale)
	angle := AngleLabel(shot.Angle)
	set := shot.Setting

	// 描述
	var desc strings.Builder
	fmt.Fprintf(&desc, "%s%s, %s, %s at %s.",
		strings.ToUpper(scale[:1]), scale[1:], angle, set.Location, set.TimeOfDay)
	if len(shot.Characters) > 0 {
		placed := make([]string, 0, len(shot.Characters))
		for _, c := range shot.Characters {
			placed = append(placed, fmt.Sprintf("%s (%s, %s)", c.Name, c.Position, c.Prominence))
		}
		desc.WriteString(" Characters: " + strings.Join(placed, ", ") + ".")
	}
	if shot.EmotionalBeat != "" && shot.EmotionalBeat != "neutral" {
		desc.WriteString(" Mood: " + shot.EmotionalBeat + ".")
	}

	// 生成提示词
	parts := []string{
		"cinematic " + scale,
		angle,
		set.Location,
		set.TimeOfDay,
		set.Lighting,
		set.Atmosphere + " atmosphere",
	}
	for _, c := range shot.Characters {
		subject := c.Name
		if p, ok := profiles[c.CharacterID]; ok {
			subject = p.VisualDescriptor()
		}
		entry := fmt.Sprintf("%s on the %s", subject, c.Position)
		if c.Position == models.PositionCenter {
			entry = subject + " in the center"
		}
		if c.Expression != "" {
			entry += ", " + c.Expression
		}
		if c.Action != "" {
			entry += ", " + c.Action
		}
		parts = append(parts, entry)
	}
	if shot.EmotionalBeat != "" && shot.EmotionalBeat != "neutral" {
		parts = append(parts, shot.EmotionalBeat+" mood")
	}

	negative := baseNegativePrompt
	if isCloseScale(shot.Scale) {
		negative += ", deformed face, asymmetrical eyes"
	}
	if len(shot.Characters) == 0 {
		negative += ", people, crowds"
	}

	lens, ok := scaleLenses[shot.Scale]
	if !ok {
		lens = scaleLenses[models.ScaleMedium]
	}
	style := fmt.Sprintf("cinematic film still, 35mm film grain, %s, lit by %s", lens, set.Lighting)

	return models.ShotPrompt{
		Description:    desc.String(),
		AIPrompt:       strings.Join(nonEmpty(parts), ", "),
		NegativePrompt: negative,
		StylePrompt:    style,
	}
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
