// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Corphon/StoryboardMCP/internal/utils"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketClient 订阅一个生成任务进度的连接
type WebSocketClient struct {
	conn      *websocket.Conn
	taskID    string
	send      chan []byte
	done      chan struct{} // 读协程退出（客户端断开）时关闭
	closed    int32         // 原子标志，0=开启，1=关闭
	lastPing  atomic.Int64  // 最后活跃时间（UnixNano）
	createdAt time.Time
}

func newWebSocketClient(conn *websocket.Conn, taskID string) *WebSocketClient {
	client := &WebSocketClient{
		conn:      conn,
		taskID:    taskID,
		send:      make(chan []byte, 64),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
	client.UpdatePing()
	return client
}

// Close 安全关闭底层连接
func (client *WebSocketClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) && client.conn != nil {
		client.conn.Close()
	}
}

// IsClosed 检查连接是否已关闭
func (client *WebSocketClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

// UpdatePing 更新最后活跃时间
func (client *WebSocketClient) UpdatePing() {
	client.lastPing.Store(time.Now().UnixNano())
}

// IsExpired 检查连接是否超时
func (client *WebSocketClient) IsExpired(timeout time.Duration) bool {
	if timeout <= 0 {
		return true
	}
	return time.Since(time.Unix(0, client.lastPing.Load())) > timeout
}

// SendMessage 非阻塞发送，队列满时丢弃。只能由持有连接的处理协程调用
func (client *WebSocketClient) SendMessage(message map[string]interface{}) error {
	if client.IsClosed() {
		return nil
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case client.send <- msgBytes:
	default:
		utils.GetLogger().Warn("WebSocket send queue full, message dropped", map[string]interface{}{
			"task_id": client.taskID,
		})
	}
	return nil
}

// WebSocketManager 记录所有进度订阅连接
type WebSocketManager struct {
	connections map[string]map[*WebSocketClient]struct{} // taskID -> clients
	mutex       sync.RWMutex
	pingTimeout time.Duration
}

// NewWebSocketManager 创建连接管理器
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		connections: make(map[string]map[*WebSocketClient]struct{}),
		pingTimeout: 60 * time.Second,
	}
}

func (manager *WebSocketManager) register(client *WebSocketClient) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if manager.connections[client.taskID] == nil {
		manager.connections[client.taskID] = make(map[*WebSocketClient]struct{})
	}
	manager.connections[client.taskID][client] = struct{}{}
}

func (manager *WebSocketManager) unregister(client *WebSocketClient) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if clients, exists := manager.connections[client.taskID]; exists {
		delete(clients, client)
		if len(clients) == 0 {
			delete(manager.connections, client.taskID)
		}
	}
}

// Cleanup 关闭超时和已断开的连接，返回清理数量
func (manager *WebSocketManager) Cleanup() int {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	removed := 0
	for taskID, clients := range manager.connections {
		for client := range clients {
			if client.IsClosed() || client.IsExpired(manager.pingTimeout) {
				delete(clients, client)
				client.Close()
				removed++
			}
		}
		if len(clients) == 0 {
			delete(manager.connections, taskID)
		}
	}
	return removed
}

// GetStatus 获取管理器状态
func (manager *WebSocketManager) GetStatus() map[string]interface{} {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	tasks := make(map[string]interface{}, len(manager.connections))
	total := 0
	for taskID, clients := range manager.connections {
		active := 0
		for client := range clients {
			if !client.IsClosed() {
				active++
			}
		}
		tasks[taskID] = map[string]interface{}{"client_count": active}
		total += active
	}

	return map[string]interface{}{
		"total_tasks":       len(manager.connections),
		"total_connections": total,
		"tasks":             tasks,
	}
}
