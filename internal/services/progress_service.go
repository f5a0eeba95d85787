// internal/services/progress_service.go
package services

import (
	"fmt"
	"sync"
	"time"
)

// 任务状态
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProgressUpdate 表示进度更新
type ProgressUpdate struct {
	TaskID   string `json:"task_id"`
	Progress int    `json:"progress"`            // 进度百分比 (0-100)
	Stage    string `json:"stage,omitempty"`     // 当前流水线阶段
	Message  string `json:"message"`             // 描述性消息
	Status   string `json:"status"`              // running, completed, failed
	ResultID string `json:"result_id,omitempty"` // 完成后生成的分镜ID
}

// Finished 是否为终态
func (u ProgressUpdate) Finished() bool {
	return u.Status == StatusCompleted || u.Status == StatusFailed
}

// ProgressTracker 跟踪一次分镜生成任务的进度
type ProgressTracker struct {
	TaskID     string
	StartTime  time.Time
	UpdateTime time.Time
	Done       chan struct{} // 任务结束时关闭

	state       ProgressUpdate
	subscribers map[chan ProgressUpdate]struct{}
	mutex       sync.Mutex
}

// ProgressService 管理所有进度跟踪器
type ProgressService struct {
	trackers map[string]*ProgressTracker
	mutex    sync.RWMutex
}

// NewProgressService 创建进度服务实例
func NewProgressService() *ProgressService {
	return &ProgressService{
		trackers: make(map[string]*ProgressTracker),
	}
}

// CreateTracker 创建新的进度跟踪器，已存在时返回现有跟踪器
func (s *ProgressService) CreateTracker(taskID string) *ProgressTracker {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tracker, exists := s.trackers[taskID]; exists {
		return tracker
	}

	now := time.Now()
	tracker := &ProgressTracker{
		TaskID:     taskID,
		StartTime:  now,
		UpdateTime: now,
		Done:       make(chan struct{}),
		state: ProgressUpdate{
			TaskID:  taskID,
			Message: "task queued",
			Status:  StatusRunning,
		},
		subscribers: make(map[chan ProgressUpdate]struct{}),
	}
	s.trackers[taskID] = tracker
	return tracker
}

// GetTracker 获取进度跟踪器
func (s *ProgressService) GetTracker(taskID string) (*ProgressTracker, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

// Snapshot 返回当前状态
func (t *ProgressTracker) Snapshot() ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.state
}

// UpdateProgress 更新任务进度，进度只增不减
func (t *ProgressTracker) UpdateProgress(progress int, stage, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.state.Finished() {
		return
	}
	if progress > t.state.Progress {
		t.state.Progress = min(progress, 99)
	}
	if stage != "" {
		t.state.Stage = stage
	}
	if message != "" {
		t.state.Message = message
	}
	t.UpdateTime = time.Now()
	t.broadcastLocked()
}

// Complete 标记任务完成
func (t *ProgressTracker) Complete(resultID, message string) {
	t.finish(func() {
		t.state.Progress = 100
		t.state.Status = StatusCompleted
		t.state.ResultID = resultID
		t.state.Message = message
		if message == "" {
			t.state.Message = "task completed"
		}
	})
}

// Fail 标记任务失败
func (t *ProgressTracker) Fail(errorMsg string) {
	t.finish(func() {
		t.state.Status = StatusFailed
		t.state.Message = fmt.Sprintf("task failed: %s", errorMsg)
	})
}

func (t *ProgressTracker) finish(apply func()) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.state.Finished() {
		return
	}
	apply()
	t.UpdateTime = time.Now()
	t.broadcastLocked()
	close(t.Done)
}

// broadcastLocked 非阻塞通知所有订阅者，通道已满则跳过
func (t *ProgressTracker) broadcastLocked() {
	for subscriber := range t.subscribers {
		select {
		case subscriber <- t.state:
		default:
		}
	}
}

// Subscribe 订阅进度更新，立即收到当前状态
func (t *ProgressTracker) Subscribe() chan ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	subscriber := make(chan ProgressUpdate, 10)
	t.subscribers[subscriber] = struct{}{}
	subscriber <- t.state
	return subscriber
}

// Unsubscribe 取消订阅，可重复调用
func (t *ProgressTracker) Unsubscribe(subscriber chan ProgressUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.subscribers[subscriber]; ok {
		delete(t.subscribers, subscriber)
		close(subscriber)
	}
}

// CleanupCompletedTasks 清理结束时间超过 maxAge 的任务
func (s *ProgressService) CleanupCompletedTasks(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	removed := 0
	for id, tracker := range s.trackers {
		tracker.mutex.Lock()
		stale := tracker.state.Finished() && now.Sub(tracker.UpdateTime) > maxAge
		tracker.mutex.Unlock()

		if stale {
			delete(s.trackers, id)
			removed++
		}
	}
	return removed
}
