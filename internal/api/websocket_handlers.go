// internal/api/websocket_handlers.go
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Corphon/StoryboardMCP/internal/services"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

// WebSocketHandler 通过 WebSocket 推送分镜生成进度
type WebSocketHandler struct {
	progress *services.ProgressService
	manager  *WebSocketManager
	response *ResponseHelper
	logger   *utils.Logger
}

// NewWebSocketHandler 创建 WebSocket 处理器
func NewWebSocketHandler(progress *services.ProgressService, manager *WebSocketManager) *WebSocketHandler {
	if manager == nil {
		manager = NewWebSocketManager()
	}
	return &WebSocketHandler{
		progress: progress,
		manager:  manager,
		response: NewResponseHelper(),
		logger:   utils.GetLogger().WithFields(map[string]interface{}{"component": "websocket"}),
	}
}

// ProgressWebSocket 订阅任务进度，任务结束后服务端正常关闭连接
func (wh *WebSocketHandler) ProgressWebSocket(c *gin.Context) {
	taskID := c.Param("taskID")
	tracker, exists := wh.progress.GetTracker(taskID)
	if !exists {
		wh.response.NotFound(c, "task")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wh.logger.Warn("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	client := newWebSocketClient(conn, taskID)
	wh.manager.register(client)

	writerDone := make(chan struct{})
	go wh.handleWebSocketWrites(client, writerDone)
	go wh.handleWebSocketReads(client)

	updates := tracker.Subscribe()
	defer func() {
		tracker.Unsubscribe(updates)
		close(client.send)
		<-writerDone
		client.Close()
		wh.manager.unregister(client)
	}()

	client.SendMessage(map[string]interface{}{
		"type":      "connected",
		"task_id":   taskID,
		"timestamp": time.Now().Format(time.RFC3339),
	})

	for {
		select {
		case <-client.done:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			client.SendMessage(map[string]interface{}{
				"type":      "progress",
				"data":      update,
				"timestamp": time.Now().Format(time.RFC3339),
			})
			if update.Finished() {
				return
			}
		}
	}
}

// handleWebSocketReads 只处理控制帧和断开检测，客户端消息被忽略
func (wh *WebSocketHandler) handleWebSocketReads(client *WebSocketClient) {
	defer close(client.done)

	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !client.IsClosed() {
				wh.logger.Debug("WebSocket read error", map[string]interface{}{
					"task_id": client.taskID,
					"error":   err.Error(),
				})
			}
			return
		}
		client.UpdatePing()
	}
}

// handleWebSocketWrites 发送队列中的消息并定期 ping；队列关闭后发送关闭帧
func (wh *WebSocketHandler) handleWebSocketWrites(client *WebSocketClient, done chan<- struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task finished"))
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				client.Close()
				drain(client.send)
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.Close()
				drain(client.send)
				return
			}
		}
	}
}

// drain 丢弃剩余消息直到通道关闭
func drain(ch <-chan []byte) {
	for range ch {
	}
}
