package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/models"
	"github.com/Corphon/StoryboardMCP/internal/platform"
	"github.com/Corphon/StoryboardMCP/internal/services"
	"github.com/Corphon/StoryboardMCP/internal/storage"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

type testServer struct {
	router    *gin.Engine
	handler   *Handler
	collector *utils.MetricsCollector
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	collector := utils.NewMetricsCollector()
	metrics := utils.NewStoryboardMetricsWith(collector, utils.NewLogger(io.Discard, utils.ERROR))
	locks := services.NewLockManager()
	progress := services.NewProgressService()
	cfg := services.NewStaticConfigService(config.EngineConfig{
		Seed:                7,
		QualityThreshold:    70,
		MaxRepairIterations: 3,
		BatchConcurrency:    2,
		DefaultPlatform:     "runway",
	})
	characters := services.NewCharacterService(store, locks)
	storyboards := services.NewStoryboardService(store, characters, platform.NewRegistry(), progress, cfg, metrics, locks)
	exports := services.NewExportService(storyboards, "")

	handler := NewHandler(storyboards, characters, exports, progress, cfg, metrics, NewWebSocketManager())
	return &testServer{
		router:    NewRouter(handler, opts),
		handler:   handler,
		collector: collector,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// envelope 解析标准响应，data 保留原始 JSON
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (s *testServer) createStoryboard(t *testing.T, episode string) *models.StoryboardResult {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/storyboards", sampleScreenplay(episode))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result models.StoryboardResult
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	require.NotNil(t, result.Storyboard)
	return &result
}

func sampleScreenplay(episode string) *models.Screenplay {
	return &models.Screenplay{
		ID:        "sp-" + episode,
		EpisodeID: episode,
		Title:     "Night Shift",
		Scenes: []models.ScreenplayScene{
			{
				Heading:      "INT. DINER - NIGHT",
				Content:      `"Coffee?" Mara asks. Jonah nods and slides into the booth.`,
				CharacterIDs: []string{"mara", "jonah"},
			},
			{
				Heading:      "EXT. PARKING LOT - CONTINUOUS",
				Content:      "Jonah runs to the car and grabs the keys from the roof.",
				CharacterIDs: []string{"jonah"},
			},
		},
	}
}
