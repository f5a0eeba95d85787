package platform

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryboardMCP/internal/errors"
	"github.com/Corphon/StoryboardMCP/internal/models"
)

func testStoryboard(durations ...float64) *models.Storyboard {
	sb := &models.Storyboard{ID: "sb-1", EpisodeID: "ep-1"}
	scales := []models.ShotScale{models.ScaleWide, models.ScaleCloseUp}
	for i, d := range durations {
		sb.Shots = append(sb.Shots, models.Shot{
			ID:       fmt.Sprintf("scene1_shot%d", i+1),
			Duration: d,
			Angle:    models.AngleEyeLevel,
			Scale:    scales[i%2],
			Characters: []models.ShotCharacter{
				{CharacterID: "anna", Name: "Anna", Position: models.PositionCenter},
			},
			Prompt: models.ShotPrompt{
				Description:    "Wide shot of the harbour.",
				AIPrompt:       "cinematic wide shot, harbour",
				NegativePrompt: "blurry",
				StylePrompt:    "35mm film grain",
			},
		})
		sb.TotalDuration += d
	}
	for i := 0; i+1 < len(sb.Shots); i++ {
		sb.Transitions = append(sb.Transitions, models.Transition{
			ID:         fmt.Sprintf("transition_%d", i+1),
			FromShotID: sb.Shots[i].ID,
			ToShotID:   sb.Shots[i+1].ID,
			Kind:       models.TransitionZoom,
			Duration:   1.2,
		})
	}
	return sb
}

func TestBuildIntermediate(t *testing.T) {
	ir := BuildIntermediate(testStoryboard(3, 2))

	require.Len(t, ir.Shots, 2)
	shot := ir.Shots[0]
	assert.Equal(t, "16:9", shot.Technical.AspectRatio)
	assert.Equal(t, "1080p", shot.Technical.Resolution)
	assert.Equal(t, 24, shot.Technical.FPS)
	assert.Equal(t, QualityStandard, shot.Technical.Quality)
	assert.Equal(t, QualityHigh, ir.Shots[1].Technical.Quality)
	assert.Equal(t, "cinematic wide shot, harbour", shot.Prompt.Primary)
	assert.Equal(t, "Wide shot of the harbour.", shot.Prompt.Detailed)
	assert.Equal(t, "wide", shot.Camera.Scale)
	assert.Equal(t, "static", shot.Camera.Movement)
	assert.Equal(t, []string{"Anna"}, shot.Characters)
	assert.Equal(t, 5.0, ir.TotalDuration)

	require.Len(t, ir.Transitions, 1)
	assert.Equal(t, "zoom", ir.Transitions[0].Type)
	assert.Equal(t, "in", ir.Transitions[0].Parameters["direction"])
}

func TestRegistry_Platforms(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"luma", "pika", "runway", "stability"}, r.Platforms())
}

func TestRegistry_UnknownPlatform(t *testing.T) {
	_, err := NewRegistry().Format(testStoryboard(3), "sora")
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedPlatformError(err))
	assert.Contains(t, err.Error(), "sora")
}

func TestFormat_StabilityClampsLongShot(t *testing.T) {
	payload, err := NewRegistry().Format(testStoryboard(8), "stability")
	require.NoError(t, err)

	require.Len(t, payload.Shots, 1)
	shot := payload.Shots[0]
	assert.Equal(t, 4.0, shot["duration"])
	assert.Equal(t, 96, shot["duration_frames"])
	assert.Equal(t, 24, shot["fps"])
	assert.Equal(t, "blurry", shot["negative_prompt"])
	assert.Contains(t, shot, "motion_bucket_id")
	assert.Contains(t, shot, "cfg_scale")
	require.Len(t, payload.Notes, 1)
	assert.Contains(t, payload.Notes[0], "clamped to 4.0s")
	assert.Equal(t, 4.0, payload.TotalDuration)
}

func TestFormat_PlatformKeys(t *testing.T) {
	tests := []struct {
		platform string
		keys     []string
		duration float64
	}{
		{"runway", []string{"promptText", "duration", "ratio", "seed", "model"}, 8},
		{"pika", []string{"text", "camera", "negative_prompt", "duration", "fps"}, 3},
		{"stability", []string{"prompt", "negative_prompt", "duration", "duration_frames", "fps", "motion_bucket_id", "cfg_scale"}, 4},
		{"luma", []string{"prompt", "aspect_ratio", "duration", "loop", "camera_motion"}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			payload, err := NewRegistry().Format(testStoryboard(8, 2), tt.platform)
			require.NoError(t, err)
			assert.Equal(t, tt.platform, payload.Platform)

			shot := payload.Shots[0]
			for _, k := range tt.keys {
				assert.Contains(t, shot, k)
			}
			assert.Equal(t, tt.duration, shot["duration"])
			assert.Equal(t, 2.0, payload.Shots[1]["duration"])
			assert.Equal(t, "scene1_shot1", shot["shot_id"])
			require.Len(t, payload.Transitions, 1)
			assert.Equal(t, "zoom", payload.Transitions[0]["type"])
		})
	}
}

func TestFormat_PlatformIDIsCaseInsensitive(t *testing.T) {
	payload, err := NewRegistry().Format(testStoryboard(2), "  Runway ")
	require.NoError(t, err)
	assert.Equal(t, "runway", payload.Platform)
}

type fixedProjection struct{}

func (fixedProjection) ID() string           { return "custom" }
func (fixedProjection) MaxDuration() float64 { return 0 }
func (fixedProjection) ProjectShot(shot ShotIR, d float64, i int) map[string]interface{} {
	return map[string]interface{}{"index": i, "seconds": d}
}
func (fixedProjection) ProjectTransition(t TransitionIR) map[string]interface{} {
	return map[string]interface{}{"kind": t.Type}
}

func TestRegistry_RegisterCustom(t *testing.T) {
	r := NewRegistry()
	r.Register(fixedProjection{})

	payload, err := r.Format(testStoryboard(30), "custom")
	require.NoError(t, err)
	assert.Equal(t, 30.0, payload.Shots[0]["seconds"])
	assert.Empty(t, payload.Notes)
	assert.Contains(t, r.Platforms(), "custom")
}

func TestCheckIntermediate(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		report := CheckIntermediate(BuildIntermediate(testStoryboard(3, 4)))
		assert.Equal(t, 100, report.Score)
		assert.True(t, report.Compatible)
		assert.Empty(t, report.Issues)
		assert.Empty(t, report.Warnings)
	})

	t.Run("issues and warnings", func(t *testing.T) {
		sb := testStoryboard(3, 0.2, 12)
		sb.Shots[0].ID = ""
		sb.Shots[1].Prompt.AIPrompt = ""
		sb.Shots[2].Angle = ""

		report := CheckIntermediate(BuildIntermediate(sb))
		assert.Len(t, report.Issues, 3)
		assert.Len(t, report.Warnings, 2)
		assert.Equal(t, 100-60-10, report.Score)
		assert.False(t, report.Compatible)
	})

	t.Run("score floors at zero", func(t *testing.T) {
		sb := testStoryboard(1, 1, 1, 1, 1, 1)
		for i := range sb.Shots {
			sb.Shots[i].Prompt.AIPrompt = ""
		}
		report := CheckIntermediate(BuildIntermediate(sb))
		assert.Equal(t, 0, report.Score)
	})

	t.Run("recommendations", func(t *testing.T) {
		durations := make([]float64, 60)
		for i := range durations {
			durations[i] = 1.5
		}
		report := CheckIntermediate(BuildIntermediate(testStoryboard(durations...)))
		assert.Len(t, report.Recommendations, 2)
		assert.Equal(t, 100, report.Score)

		report = CheckIntermediate(BuildIntermediate(testStoryboard(9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9)))
		assert.Len(t, report.Recommendations, 1)
		assert.Contains(t, report.Recommendations[0], "render in segments")
	})
}

func TestValidateCompatibility_ClampNotesAreRecommendations(t *testing.T) {
	r := NewRegistry()
	report, err := r.ValidateCompatibility(testStoryboard(8, 2), "pika")
	require.NoError(t, err)

	assert.Equal(t, 100, report.Score)
	assert.Empty(t, report.Warnings)
	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0], "pika")

	_, err = r.ValidateCompatibility(testStoryboard(8), "unknown")
	assert.True(t, errors.IsUnsupportedPlatformError(err))
}
