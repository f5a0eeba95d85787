// internal/services/lock_manager.go
package services

import (
	"sync"
	"time"
)

// LockManager 按文档键分配读写锁
type LockManager struct {
	locks      map[string]*lockInfo
	globalLock sync.Mutex
	lockTTL    time.Duration
}

type lockInfo struct {
	mutex    sync.RWMutex
	lastUsed time.Time
	refs     int // 正在使用该锁的调用数，大于0时不会被清理
}

// NewLockManager 创建锁管理器
func NewLockManager() *LockManager {
	return &LockManager{
		locks:   make(map[string]*lockInfo),
		lockTTL: 10 * time.Minute,
	}
}

func (lm *LockManager) acquire(key string) *lockInfo {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()

	info, exists := lm.locks[key]
	if !exists {
		info = &lockInfo{}
		lm.locks[key] = info
	}
	info.refs++
	info.lastUsed = time.Now()
	return info
}

func (lm *LockManager) release(info *lockInfo) {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()

	info.refs--
	info.lastUsed = time.Now()
}

// WithLock 在键的写锁保护下执行操作
func (lm *LockManager) WithLock(key string, fn func() error) error {
	info := lm.acquire(key)
	defer lm.release(info)

	info.mutex.Lock()
	defer info.mutex.Unlock()
	return fn()
}

// WithReadLock 在键的读锁保护下执行操作
func (lm *LockManager) WithReadLock(key string, fn func() error) error {
	info := lm.acquire(key)
	defer lm.release(info)

	info.mutex.RLock()
	defer info.mutex.RUnlock()
	return fn()
}

// CleanupUnused 清理超过TTL且无人使用的锁，返回清理数量
func (lm *LockManager) CleanupUnused() int {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()

	now := time.Now()
	removed := 0
	for key, info := range lm.locks {
		if info.refs == 0 && now.Sub(info.lastUsed) > lm.lockTTL {
			delete(lm.locks, key)
			removed++
		}
	}
	return removed
}

// Size 当前持有的锁数量
func (lm *LockManager) Size() int {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()
	return len(lm.locks)
}
