// internal/storage/file_storage.go
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/StoryboardMCP/internal/errors"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

// Store 不透明的键值文档存储
type Store interface {
	Put(ctx context.Context, collection, key string, v interface{}) error
	Get(ctx context.Context, collection, key string, v interface{}) error
	Delete(ctx context.Context, collection, key string) error
	List(ctx context.Context, collection string) ([]string, error)
}

// 集合名与键只允许安全的文件名字符
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

const documentExt = ".json"

// FileStorage 每个文档保存为 BaseDir/<collection>/<key>.json
type FileStorage struct {
	BaseDir string

	fileLocks sync.Map // path -> *sync.RWMutex
	cache     *documentCache
	logger    *utils.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// NewFileStorage 创建文件存储服务并启动缓存清理
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	fs := &FileStorage{
		BaseDir: baseDir,
		cache:   newDocumentCache(100, 5*time.Minute),
		logger:  utils.GetLogger().WithFields(map[string]interface{}{"component": "storage"}),
		stop:    make(chan struct{}),
	}
	go fs.cleanupLoop(2 * time.Minute)
	return fs, nil
}

// Close 停止后台清理
func (fs *FileStorage) Close() {
	fs.stopOnce.Do(func() { close(fs.stop) })
}

func (fs *FileStorage) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := fs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

func (fs *FileStorage) documentPath(collection, key string) (string, error) {
	if !keyPattern.MatchString(collection) {
		return "", errors.NewValidationError(fmt.Sprintf("invalid collection name %q", collection), nil)
	}
	if !keyPattern.MatchString(key) || strings.Contains(key, "..") {
		return "", errors.NewValidationError(fmt.Sprintf("invalid document key %q", key), nil)
	}
	return filepath.Join(fs.BaseDir, collection, key+documentExt), nil
}

// Put 原子写入文档
func (fs *FileStorage) Put(ctx context.Context, collection, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := fs.documentPath(collection, key)
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("保存临时文件失败: %w", err)
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			fs.logger.Warn("failed to clean up temporary file", map[string]interface{}{
				"path":  tempPath,
				"error": removeErr.Error(),
			})
		}
		return fmt.Errorf("保存文件失败: %w", err)
	}

	fs.cache.put(fullPath, content)
	return nil
}

// Get 读取文档，不存在时返回 not_found 错误
func (fs *FileStorage) Get(ctx context.Context, collection, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := fs.documentPath(collection, key)
	if err != nil {
		return err
	}

	content, ok := fs.cache.get(fullPath)
	if !ok {
		lock := fs.getFileLock(fullPath)
		lock.RLock()
		content, err = os.ReadFile(fullPath)
		lock.RUnlock()

		if os.IsNotExist(err) {
			return errors.NewNotFoundError(fmt.Sprintf("%s/%s not found", collection, key), err)
		}
		if err != nil {
			return fmt.Errorf("读取文件失败: %w", err)
		}
		fs.cache.put(fullPath, content)
	}

	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("解析JSON失败: %w", err)
	}
	return nil
}

// Delete 删除文档
func (fs *FileStorage) Delete(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := fs.documentPath(collection, key)
	if err != nil {
		return err
	}

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError(fmt.Sprintf("%s/%s not found", collection, key), err)
		}
		return fmt.Errorf("删除文件失败: %w", err)
	}
	fs.cache.invalidate(fullPath)
	return nil
}

// List 列出集合中的所有键（排序）
func (fs *FileStorage) List(ctx context.Context, collection string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !keyPattern.MatchString(collection) {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid collection name %q", collection), nil)
	}

	entries, err := os.ReadDir(filepath.Join(fs.BaseDir, collection))
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, documentExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, documentExt))
	}
	sort.Strings(keys)
	return keys, nil
}

func (fs *FileStorage) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-fs.stop:
			return
		case <-ticker.C:
			if n := fs.cache.sweep(); n > 0 {
				fs.logger.Debug("expired cache entries removed", map[string]interface{}{"count": n})
			}
		}
	}
}
