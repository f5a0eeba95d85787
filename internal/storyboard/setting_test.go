package storyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

func TestParseHeading(t *testing.T) {
	tests := []struct {
		heading  string
		interior bool
		exterior bool
		location string
		time     string
	}{
		{"INT. KITCHEN - NIGHT", true, false, "KITCHEN", "night"},
		{"EXT. HOUSE - GARDEN - DAY", false, true, "HOUSE - GARDEN", "day"},
		{"INT./EXT. CAR - CONTINUOUS", true, true, "CAR", "continuous"},
		{"ROOFTOP - DUSK", false, false, "ROOFTOP", "dusk"},
		{"int. office", true, false, "office", ""},
		{"", false, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			got := ParseHeading(tt.heading)
			assert.Equal(t, tt.interior, got.Interior)
			assert.Equal(t, tt.exterior, got.Exterior)
			assert.Equal(t, tt.location, got.Location)
			assert.Equal(t, tt.time, got.TimeOfDay)
		})
	}
}

func TestResolveSetting_Defaults(t *testing.T) {
	s := ResolveSetting(&models.ScreenplayScene{}, nil)

	assert.Equal(t, "Unknown", s.Location)
	assert.Equal(t, "morning", s.TimeOfDay)
	assert.Equal(t, "neutral", s.Atmosphere)
	assert.Equal(t, "soft morning light", s.Lighting)
}

func TestResolveSetting_LabelOverridesHeading(t *testing.T) {
	scene := &models.ScreenplayScene{
		Heading:    "INT. KITCHEN - NIGHT",
		Setting:    "Anna's kitchen",
		Atmosphere: "tense",
	}
	s := ResolveSetting(scene, nil)

	assert.Equal(t, "Anna's kitchen", s.Location)
	assert.Equal(t, "night", s.TimeOfDay)
	assert.Equal(t, "tense", s.Atmosphere)
	assert.Equal(t, "low-key moonlight with warm practical lamps", s.Lighting)
}

func TestResolveSetting_ContinuousInheritsTime(t *testing.T) {
	prev := models.Setting{Location: "STREET", TimeOfDay: "dusk"}
	s := ResolveSetting(&models.ScreenplayScene{Heading: "EXT. ALLEY - CONTINUOUS"}, &prev)
	assert.Equal(t, "dusk", s.TimeOfDay)

	s = ResolveSetting(&models.ScreenplayScene{Heading: "EXT. ALLEY - CONTINUOUS"}, nil)
	assert.Equal(t, "morning", s.TimeOfDay)
}

func TestResolveSetting_TimeAliases(t *testing.T) {
	s := ResolveSetting(&models.ScreenplayScene{Heading: "EXT. BEACH - EARLY SUNRISE"}, nil)
	assert.Equal(t, "dawn", s.TimeOfDay)
	assert.Equal(t, "pale dawn light", s.Lighting)

	s = ResolveSetting(&models.ScreenplayScene{Heading: "EXT. BEACH - WHENEVER"}, nil)
	assert.Equal(t, "morning", s.TimeOfDay)
}
