package storyboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

func castOf(n int) []models.CharacterProfile {
	cast := make([]models.CharacterProfile, n)
	for i := range cast {
		cast[i] = models.CharacterProfile{ID: fmt.Sprintf("c%d", i+1), Name: fmt.Sprintf("Char%d", i+1)}
	}
	return cast
}

func planScene(t *testing.T, angles AngleStrategy, sceneType models.SceneType, closing bool, cast []models.CharacterProfile) []models.Shot {
	t.Helper()
	scene := &models.ScreenplayScene{Heading: "INT. OFFICE - DAY", Content: "A short scene."}
	cls := models.SceneClassification{SceneType: sceneType, NeedsClosingShot: closing}
	setting := ResolveSetting(scene, nil)
	return NewShotPlanner(angles).PlanScene(0, scene, cls, setting, cast)
}

func TestPlanScene_Structure(t *testing.T) {
	tests := []struct {
		sceneType models.SceneType
		closing   bool
		scales    []models.ShotScale
	}{
		{models.SceneEstablishing, false, []models.ShotScale{
			models.ScaleExtremeWide, models.ScaleWide, models.ScaleMedium}},
		{models.SceneDialogue, false, []models.ShotScale{
			models.ScaleExtremeWide, models.ScaleMedium, models.ScaleOverShoulder,
			models.ScaleCloseUp, models.ScaleOverShoulder, models.ScaleCloseUp}},
		{models.SceneAction, true, []models.ShotScale{
			models.ScaleExtremeWide, models.ScaleWide, models.ScaleMedium,
			models.ScaleCloseUp, models.ScaleWide, models.ScaleWide}},
		{models.SceneEmotional, false, []models.ShotScale{
			models.ScaleExtremeWide, models.ScaleMedium, models.ScaleCloseUp, models.ScaleExtremeCloseUp}},
		{models.SceneTransition, false, []models.ShotScale{
			models.ScaleExtremeWide, models.ScaleWide}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sceneType), func(t *testing.T) {
			shots := planScene(t, FixedAngles{}, tt.sceneType, tt.closing, castOf(2))
			require.Len(t, shots, len(tt.scales))
			for i, s := range shots {
				assert.Equal(t, tt.scales[i], s.Scale, "shot %d", i)
				assert.Equal(t, fmt.Sprintf("scene1_shot%d", i+1), s.ID)
				assert.Equal(t, i, s.Sequence)
			}
		})
	}
}

func TestPlanScene_ShotInvariants(t *testing.T) {
	cast := castOf(12)
	for _, st := range []models.SceneType{
		models.SceneEstablishing, models.SceneDialogue, models.SceneAction,
		models.SceneEmotional, models.SceneTransition,
	} {
		for _, s := range planScene(t, NewSeededAngles(7), st, true, cast) {
			assert.Greater(t, s.Duration, 0.0, s.ID)
			assert.LessOrEqual(t, len(s.Characters), MaxCharacters(s.Scale), s.ID)
			assert.NotEmpty(t, s.Prompt.AIPrompt, s.ID)
			assert.NotEmpty(t, s.Prompt.NegativePrompt, s.ID)
		}
	}
}

func TestPlanScene_CharacterCapsDropOverflow(t *testing.T) {
	shots := planScene(t, FixedAngles{}, models.SceneDialogue, false, castOf(12))

	assert.Len(t, shots[0].Characters, 10) // extreme-wide
	assert.Len(t, shots[1].Characters, 3)  // medium
	assert.Len(t, shots[2].Characters, 2)  // over-shoulder
	assert.Len(t, shots[3].Characters, 1)  // close-up
	assert.Equal(t, "c1", shots[3].Characters[0].CharacterID)
}

func TestFramePositionsAndProminence(t *testing.T) {
	shots := planScene(t, FixedAngles{}, models.SceneDialogue, false, castOf(3))

	medium := shots[1]
	require.Len(t, medium.Characters, 3)
	assert.Equal(t, models.PositionLeft, medium.Characters[0].Position)
	assert.Equal(t, models.PositionCenter, medium.Characters[1].Position)
	assert.Equal(t, models.PositionRight, medium.Characters[2].Position)
	assert.Equal(t, models.ProminenceForeground, medium.Characters[0].Prominence)
	assert.Equal(t, models.ProminenceMidground, medium.Characters[1].Prominence)

	ots := shots[2]
	require.Len(t, ots.Characters, 2)
	assert.Equal(t, models.PositionLeft, ots.Characters[0].Position)
	assert.Equal(t, models.PositionRight, ots.Characters[1].Position)
	assert.Equal(t, models.ProminenceForeground, ots.Characters[0].Prominence)
	assert.Equal(t, models.ProminenceMidground, ots.Characters[1].Prominence)

	closeUp := shots[3]
	require.Len(t, closeUp.Characters, 1)
	assert.Equal(t, models.PositionCenter, closeUp.Characters[0].Position)
	assert.Equal(t, models.ProminenceForeground, closeUp.Characters[0].Prominence)

	for _, c := range shots[0].Characters {
		assert.Equal(t, models.ProminenceMidground, c.Prominence)
	}
}

func TestPlanScene_Angles(t *testing.T) {
	action := planScene(t, FixedAngles{}, models.SceneAction, true, castOf(1))
	assert.Equal(t, models.AngleEyeLevel, action[0].Angle)
	for _, s := range action[1 : len(action)-1] {
		assert.Equal(t, models.AngleLow, s.Angle, s.ID)
	}
	assert.Equal(t, models.AngleEyeLevel, action[len(action)-1].Angle)

	emotional := planScene(t, FixedAngles{}, models.SceneEmotional, false, castOf(1))
	assert.Equal(t, models.AngleEyeLevel, emotional[1].Angle) // medium
	assert.Equal(t, models.AngleHigh, emotional[2].Angle)     // close-up
	assert.Equal(t, models.AngleHigh, emotional[3].Angle)     // extreme close-up

	for _, s := range planScene(t, FixedAngles{}, models.SceneDialogue, false, castOf(2)) {
		assert.Equal(t, models.AngleEyeLevel, s.Angle)
	}
}

func TestSeededAngles_Deterministic(t *testing.T) {
	a := planScene(t, NewSeededAngles(42), models.SceneAction, true, castOf(2))
	b := planScene(t, NewSeededAngles(42), models.SceneAction, true, castOf(2))
	allowed := []models.CameraAngle{models.AngleEyeLevel, models.AngleLow, models.AngleHigh, models.AngleDutch}
	for i := range a {
		assert.Equal(t, a[i].Angle, b[i].Angle)
		assert.Contains(t, allowed, a[i].Angle)
	}
}

func TestShotDuration(t *testing.T) {
	assert.Equal(t, 1.0, contentFactor(0))
	assert.Equal(t, 1.5, contentFactor(100))
	assert.Equal(t, 2.0, contentFactor(1000))

	assert.Equal(t, 3.0, shotDuration(models.ScaleMedium, 1))
	assert.Equal(t, 4.5, shotDuration(models.ScaleMedium, 1.5))
	assert.Equal(t, 2.3, shotDuration(models.ScaleCloseUp, 1))
	assert.Equal(t, 9.0, shotDuration(models.ScaleExtremeWide, 2))
}

func TestShotBeat_EmotionalSceneEscalates(t *testing.T) {
	assert.Equal(t, "grief", shotBeat("grief", models.ScaleCloseUp, models.SceneEmotional))
	assert.Equal(t, "sad", shotBeat("grief", models.ScaleMedium, models.SceneEmotional))
	assert.Equal(t, "wistful", shotBeat("sad", models.ScaleExtremeWide, models.SceneEmotional))
	assert.Equal(t, "calm", shotBeat("calm", models.ScaleWide, models.SceneEmotional))
	assert.Equal(t, "tense", shotBeat("tense", models.ScaleWide, models.SceneAction))
}

func TestBuildShotPrompt_LockedAttributesWin(t *testing.T) {
	cast := []models.CharacterProfile{{
		ID:         "anna",
		Name:       "Anna",
		Appearance: "blue dress",
		Locked:     &models.LockedAttributes{Appearance: "tall, freckled", Outfit: "red coat"},
	}}
	shots := planScene(t, FixedAngles{}, models.SceneEstablishing, false, cast)

	prompt := shots[0].Prompt
	assert.Contains(t, prompt.AIPrompt, "Anna (tall, freckled), wearing red coat")
	assert.NotContains(t, prompt.AIPrompt, "blue dress")
	assert.Contains(t, prompt.AIPrompt, "cinematic extreme wide shot")
	assert.Contains(t, prompt.Description, "Extreme wide shot")
	assert.Contains(t, prompt.StylePrompt, "bright natural daylight")
}
