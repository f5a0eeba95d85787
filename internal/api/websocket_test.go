package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryboardMCP/internal/services"
)

type wsMessage struct {
	Type string                   `json:"type"`
	Data *services.ProgressUpdate `json:"data"`
}

func TestProgressWebSocket_PushesUpdates(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	tracker := s.handler.Progress.CreateTracker("task-ws")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/storyboards/task-ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "connected", msg.Type)

	// 订阅时推送的当前状态
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "progress", msg.Type)

	tracker.UpdateProgress(50, services.StagePlanning, "halfway")
	tracker.Complete("sb-ws", "done")

	for {
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, "progress", msg.Type)
		if msg.Data.Finished() {
			break
		}
	}
	assert.Equal(t, services.StatusCompleted, msg.Data.Status)
	assert.Equal(t, "sb-ws", msg.Data.ResultID)

	// 任务结束后服务端正常关闭连接
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
}

func TestProgressWebSocket_UnknownTask(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/storyboards/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketManager_Cleanup(t *testing.T) {
	manager := NewWebSocketManager()

	live := newWebSocketClient(nil, "task-a")
	stale := newWebSocketClient(nil, "task-a")
	closed := newWebSocketClient(nil, "task-b")
	manager.register(live)
	manager.register(stale)
	manager.register(closed)

	stale.lastPing.Store(time.Now().Add(-2 * manager.pingTimeout).UnixNano())
	closed.closed = 1

	assert.Equal(t, 2, manager.Cleanup())

	status := manager.GetStatus()
	assert.Equal(t, 1, status["total_connections"])

	manager.unregister(live)
	assert.Equal(t, 0, manager.GetStatus()["total_connections"])
}
