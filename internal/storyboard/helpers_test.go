package storyboard

import (
	"github.com/Corphon/StoryboardMCP/internal/models"
)

// testShot 构造测试镜头，默认同一场景、同一地点与时间
type testShot struct {
	id       string
	scene    int
	scale    models.ShotScale
	angle    models.CameraAngle
	beat     string
	location string
	time     string
	lighting string
	mood     string
	duration float64
	chars    []string
}

func (ts testShot) build() models.Shot {
	s := models.Shot{
		ID:            ts.id,
		SceneIndex:    ts.scene,
		Duration:      ts.duration,
		Scale:         ts.scale,
		Angle:         ts.angle,
		EmotionalBeat: ts.beat,
		Setting: models.Setting{
			Location:   ts.location,
			TimeOfDay:  ts.time,
			Lighting:   ts.lighting,
			Atmosphere: ts.mood,
		},
	}
	if s.Scale == "" {
		s.Scale = models.ScaleMedium
	}
	if s.Angle == "" {
		s.Angle = models.AngleEyeLevel
	}
	if s.Setting.Location == "" {
		s.Setting.Location = "Office"
	}
	if s.Setting.TimeOfDay == "" {
		s.Setting.TimeOfDay = "day"
	}
	if s.Setting.Lighting == "" {
		s.Setting.Lighting = timeLighting[s.Setting.TimeOfDay]
	}
	if s.Setting.Atmosphere == "" {
		s.Setting.Atmosphere = "neutral"
	}
	if s.Duration == 0 {
		s.Duration = 3
	}
	for _, id := range ts.chars {
		s.Characters = append(s.Characters, models.ShotCharacter{CharacterID: id, Name: id})
	}
	return s
}

func pair(a, b testShot) (*models.Shot, *models.Shot) {
	if a.id == "" {
		a.id = "a"
	}
	if b.id == "" {
		b.id = "b"
	}
	from, to := a.build(), b.build()
	return &from, &to
}
