package app

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/di"
	"github.com/Corphon/StoryboardMCP/internal/services"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

// setupTest 重置全局实例并把数据目录指向临时目录
func setupTest(t *testing.T) string {
	t.Helper()
	instance = nil
	di.GetContainer().Clear()

	tempDir := t.TempDir()
	t.Setenv("DATA_DIR", filepath.Join(tempDir, "data"))
	t.Setenv("LOG_DIR", filepath.Join(tempDir, "logs"))
	t.Cleanup(func() {
		if a := instance; a != nil {
			a.cleanup()
		}
		instance = nil
		di.GetContainer().Clear()
	})
	return tempDir
}

type mockServer struct {
	ShutdownCalled bool
}

func (m *mockServer) ListenAndServe() error { return nil }

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.ShutdownCalled = true
	return nil
}

func TestGetApp(t *testing.T) {
	setupTest(t)

	app1 := GetApp()
	require.NotNil(t, app1)
	assert.Same(t, app1, GetApp())
	assert.NotNil(t, app1.stopChan)
}

func TestInitialize(t *testing.T) {
	tempDir := setupTest(t)

	require.NoError(t, Initialize(filepath.Join(tempDir, "data")))

	cfg := GetApp().GetConfig()
	require.NotNil(t, cfg)
	assert.FileExists(t, filepath.Join(tempDir, "data", "config.json"))

	files, err := os.ReadDir(filepath.Join(tempDir, "logs"))
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}

func TestInitServices_RegistersEverything(t *testing.T) {
	tempDir := setupTest(t)
	require.NoError(t, config.InitConfig(filepath.Join(tempDir, "data")))
	require.NoError(t, InitServices())

	container := GetDIContainer()
	for _, name := range []string{
		ServiceStorage, ServiceLocks, ServiceMetrics, ServicePlatforms, ServiceProgress,
		ServiceConfig, ServiceCharacter, ServiceStoryboard, ServiceExport,
	} {
		assert.True(t, container.Has(name), name)
	}

	storyboards, err := di.MustResolve[*services.StoryboardService](container, ServiceStoryboard)
	require.NoError(t, err)
	assert.Contains(t, storyboards.PlatformIDs(), "runway")

	_, ok := di.Resolve[*utils.StoryboardMetrics](container, ServiceMetrics)
	assert.True(t, ok)
}

func TestRun_GracefulShutdown(t *testing.T) {
	setupTest(t)

	testApp := GetApp()
	testApp.config = &config.AppConfig{Port: "8081"}
	mockSrv := &mockServer{}
	testApp.server = mockSrv

	go func() {
		time.Sleep(50 * time.Millisecond)
		testApp.stopChan <- syscall.SIGTERM
	}()

	require.NoError(t, Run())
	assert.True(t, mockSrv.ShutdownCalled)
}

func TestIsDebugMode(t *testing.T) {
	setupTest(t)

	assert.False(t, IsDebugMode())

	testApp := GetApp()
	assert.False(t, IsDebugMode())

	testApp.config = &config.AppConfig{DebugMode: true}
	assert.True(t, IsDebugMode())

	testApp.config.DebugMode = false
	assert.False(t, IsDebugMode())
}
