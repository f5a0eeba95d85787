// internal/models/export.go
package models

import (
	"time"
)

// ExportResult 导出结果
type ExportResult struct {
	StoryboardID string       `json:"storyboard_id"`
	Title        string       `json:"title"`
	Format       string       `json:"format"`
	Content      string       `json:"content"`
	GeneratedAt  time.Time    `json:"generated_at"`
	FilePath     string       `json:"file_path"` // 导出文件路径（相对存储根目录）
	FileSize     int64        `json:"file_size"`
	Stats        *ExportStats `json:"stats,omitempty"`
}

// ExportStats 导出统计
type ExportStats struct {
	ShotCount         int            `json:"shot_count"`
	TransitionCount   int            `json:"transition_count"`
	SceneCount        int            `json:"scene_count"`
	TotalDuration     float64        `json:"total_duration"`
	ScaleDistribution map[string]int `json:"scale_distribution"`
	KindDistribution  map[string]int `json:"kind_distribution"`
}
