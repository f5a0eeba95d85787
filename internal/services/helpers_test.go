package services

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/models"
	"github.com/Corphon/StoryboardMCP/internal/platform"
	"github.com/Corphon/StoryboardMCP/internal/storage"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

type testEnv struct {
	store       *storage.FileStorage
	characters  *CharacterService
	storyboards *StoryboardService
	exports     *ExportService
	config      *ConfigService
	collector   *utils.MetricsCollector
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		Seed:                42,
		QualityThreshold:    70,
		MaxRepairIterations: 3,
		BatchConcurrency:    2,
		DefaultPlatform:     "runway",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	collector := utils.NewMetricsCollector()
	metrics := utils.NewStoryboardMetricsWith(collector, utils.NewLogger(io.Discard, utils.ERROR))
	locks := NewLockManager()
	cfg := NewStaticConfigService(testEngineConfig())
	characters := NewCharacterService(store, locks)
	storyboards := NewStoryboardService(store, characters, platform.NewRegistry(), NewProgressService(), cfg, metrics, locks)

	return &testEnv{
		store:       store,
		characters:  characters,
		storyboards: storyboards,
		exports:     NewExportService(storyboards, ""),
		config:      cfg,
		collector:   collector,
	}
}

func testScreenplay(episode string) *models.Screenplay {
	return &models.Screenplay{
		ID:        "sp-" + episode,
		EpisodeID: episode,
		Title:     "The Harbour",
		Scenes: []models.ScreenplayScene{
			{
				Heading:      "INT. KITCHEN - NIGHT",
				Content:      `"You're late," Anna says. Ben shrugs. "The tide was wrong," he replied.`,
				CharacterIDs: []string{"anna", "ben"},
			},
			{
				Heading:      "EXT. HARBOUR - NIGHT",
				Content:      "Ben runs along the pier and jumps onto the departing boat.",
				CharacterIDs: []string{"ben"},
			},
		},
	}
}
