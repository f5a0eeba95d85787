package storyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

func TestCharacterContinuity(t *testing.T) {
	assert.Equal(t, 1.0, CharacterContinuity(nil, nil))
	assert.Equal(t, 0.0, CharacterContinuity([]string{"A"}, nil))
	assert.Equal(t, 0.0, CharacterContinuity(nil, []string{"A"}))
	assert.InDelta(t, 1.0/3.0, CharacterContinuity([]string{"A", "B"}, []string{"B", "C"}), 1e-9)
	assert.Equal(t, 1.0, CharacterContinuity([]string{"A", "B"}, []string{"B", "A"}))
	assert.Equal(t, 0.0, CharacterContinuity([]string{"A"}, []string{"B"}))
}

func TestScaleChange(t *testing.T) {
	assert.Equal(t, ChangeNone, ScaleChange(models.ScaleMedium, models.ScaleMedium))
	assert.Equal(t, ChangeMinor, ScaleChange(models.ScaleMedium, models.ScaleOverShoulder))
	assert.Equal(t, ChangeMinor, ScaleChange(models.ScaleOverShoulder, models.ScaleCloseUp))
	assert.Equal(t, ChangeMajor, ScaleChange(models.ScaleMedium, models.ScaleCloseUp))
	assert.Equal(t, ChangeMajor, ScaleChange(models.ScaleExtremeCloseUp, models.ScaleExtremeWide))
}

func TestAngleChange(t *testing.T) {
	assert.Equal(t, ChangeNone, AngleChange(models.AngleLow, models.AngleLow))
	assert.Equal(t, ChangeMinor, AngleChange(models.AngleLow, models.AngleHigh))
	assert.Equal(t, ChangeMajor, AngleChange(models.AngleEyeLevel, models.AngleDutch))
	assert.Equal(t, ChangeMajor, AngleChange(models.AngleWormsEye, models.AngleEyeLevel))
}

func TestEmotionalShiftBetween(t *testing.T) {
	assert.Equal(t, ShiftNone, EmotionalShiftBetween("sad", "sad"))
	assert.Equal(t, ShiftNone, EmotionalShiftBetween("", "neutral"))
	assert.Equal(t, ShiftSubtle, EmotionalShiftBetween("sad", "fearful"))
	assert.Equal(t, ShiftDramatic, EmotionalShiftBetween("neutral", "tense"))
	// 0.9 - 0.5 恰好为 0.4，属于剧烈变化
	assert.Equal(t, ShiftDramatic, EmotionalShiftBetween("tense", "grief"))
}

func TestNarrativePace(t *testing.T) {
	assert.Equal(t, PaceFast, NarrativePace(1.5, 2.0))
	assert.Equal(t, PaceMedium, NarrativePace(2, 2))
	assert.Equal(t, PaceMedium, NarrativePace(5, 5))
	assert.Equal(t, PaceSlow, NarrativePace(5, 6))
}

func TestAnalyzeContext(t *testing.T) {
	from, to := pair(
		testShot{scale: models.ScaleWide, location: "Office", time: "day", chars: []string{"A", "B"}},
		testShot{scale: models.ScaleCloseUp, angle: models.AngleLow, location: "office", time: "night", chars: []string{"B"}},
	)
	ctx := AnalyzeContext(from, to)

	assert.False(t, ctx.LocationChange, "location comparison ignores case")
	assert.True(t, ctx.TimeChange)
	assert.True(t, ctx.LightingChange)
	assert.Equal(t, ChangeMajor, ctx.ScaleChange)
	assert.Equal(t, ChangeMajor, ctx.AngleChange)
	assert.Equal(t, 0.5, ctx.CharacterContinuity)
	assert.Equal(t, PaceMedium, ctx.NarrativePace)
}
