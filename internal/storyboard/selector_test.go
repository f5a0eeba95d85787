package storyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

func TestSelectKind_Precedence(t *testing.T) {
	base := TransitionContext{
		ScaleChange:         ChangeNone,
		AngleChange:         ChangeNone,
		EmotionalShift:      ShiftNone,
		CharacterContinuity: 1,
		NarrativePace:       PaceMedium,
	}
	with := func(mut func(*TransitionContext)) TransitionContext {
		ctx := base
		mut(&ctx)
		return ctx
	}

	tests := []struct {
		name     string
		ctx      TransitionContext
		kind     models.TransitionKind
		duration float64
	}{
		{"location beats everything", with(func(c *TransitionContext) {
			c.LocationChange = true
			c.EmotionalShift = ShiftDramatic
			c.ScaleChange = ChangeMajor
		}), models.TransitionDissolve, 1.5},
		{"time change", with(func(c *TransitionContext) { c.TimeChange = true }), models.TransitionDissolve, 1.5},
		{"dramatic emotion beats scale", with(func(c *TransitionContext) {
			c.EmotionalShift = ShiftDramatic
			c.ScaleChange = ChangeMajor
		}), models.TransitionFade, 1.0},
		{"major scale beats fast pace", with(func(c *TransitionContext) {
			c.ScaleChange = ChangeMajor
			c.NarrativePace = PaceFast
		}), models.TransitionZoom, 1.2},
		{"fast pace beats pan", with(func(c *TransitionContext) {
			c.NarrativePace = PaceFast
			c.AngleChange = ChangeMajor
		}), models.TransitionCut, 0},
		{"major angle with continuity", with(func(c *TransitionContext) {
			c.AngleChange = ChangeMajor
			c.EmotionalShift = ShiftSubtle
		}), models.TransitionPan, 2.0},
		{"major angle without continuity", with(func(c *TransitionContext) {
			c.AngleChange = ChangeMajor
			c.CharacterContinuity = 0.5
		}), models.TransitionCut, 0},
		{"subtle emotion", with(func(c *TransitionContext) { c.EmotionalShift = ShiftSubtle }), models.TransitionWipe, 0.8},
		{"nothing", base, models.TransitionCut, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, d := SelectKind(tt.ctx)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.duration, d)
		})
	}
}

func TestBuildTransitions_FastShotsCut(t *testing.T) {
	a, b := pair(
		testShot{id: "s1", scale: models.ScaleMedium, duration: 1.5, chars: []string{"A", "B"}},
		testShot{id: "s2", scale: models.ScaleOverShoulder, duration: 1.8, chars: []string{"A", "B"}},
	)
	ts := BuildTransitions([]models.Shot{*a, *b})

	require.Len(t, ts, 1)
	assert.Equal(t, models.TransitionCut, ts[0].Kind)
	assert.Equal(t, 0.0, ts[0].Duration)
	assert.False(t, ts[0].SceneBoundary)
	assert.Equal(t, "transition_1", ts[0].ID)
}

func TestBuildTransitions_IdenticalShotsAcrossBoundarySkipped(t *testing.T) {
	a, b := pair(
		testShot{id: "s1", scene: 0, location: "Office"},
		testShot{id: "s2", scene: 1, location: "Harbour"},
	)
	assert.Empty(t, BuildTransitions([]models.Shot{*a, *b}))
}

func TestBuildTransitions_SceneBoundary(t *testing.T) {
	t.Run("location change dissolves", func(t *testing.T) {
		a, b := pair(
			testShot{id: "s1", scene: 0, scale: models.ScaleCloseUp, location: "Office"},
			testShot{id: "s2", scene: 1, scale: models.ScaleExtremeWide, location: "Harbour"},
		)
		ts := BuildTransitions([]models.Shot{*a, *b})
		require.Len(t, ts, 1)
		assert.True(t, ts[0].SceneBoundary)
		assert.Equal(t, models.TransitionDissolve, ts[0].Kind)
		assert.Equal(t, 1.0, ts[0].Duration)
		assert.Contains(t, ts[0].Description, "location moves from Office to Harbour")
	})

	t.Run("same place and time fades", func(t *testing.T) {
		a, b := pair(
			testShot{id: "s1", scene: 0, scale: models.ScaleCloseUp},
			testShot{id: "s2", scene: 1, scale: models.ScaleExtremeWide},
		)
		ts := BuildTransitions([]models.Shot{*a, *b})
		require.Len(t, ts, 1)
		assert.Equal(t, models.TransitionFade, ts[0].Kind)
		assert.Equal(t, 1.0, ts[0].Duration)
	})
}

func TestBuildTransitions_IDsFollowPosition(t *testing.T) {
	shots := []models.Shot{
		testShot{id: "s1", scale: models.ScaleWide}.build(),
		testShot{id: "s2", scale: models.ScaleWide}.build(), // 与上一个相同，跳过
		testShot{id: "s3", scale: models.ScaleMedium}.build(),
		testShot{id: "s4", scale: models.ScaleCloseUp}.build(),
	}
	ts := BuildTransitions(shots)

	require.Len(t, ts, 2)
	assert.Equal(t, "transition_1", ts[0].ID)
	assert.Equal(t, "s2", ts[0].FromShotID)
	assert.Equal(t, "s3", ts[0].ToShotID)
	assert.Equal(t, "transition_2", ts[1].ID)
}
