// internal/services/export_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Corphon/StoryboardMCP/internal/errors"
	"github.com/Corphon/StoryboardMCP/internal/models"
	"github.com/Corphon/StoryboardMCP/internal/storyboard"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

// 支持的导出格式
const (
	ExportJSON     = "json"
	ExportYAML     = "yaml"
	ExportMarkdown = "markdown"
)

var exportExtensions = map[string]string{
	ExportJSON:     "json",
	ExportYAML:     "yaml",
	ExportMarkdown: "md",
}

// ExportService 把分镜导出为 JSON / YAML / Markdown 镜头表
type ExportService struct {
	Storyboards *StoryboardService

	// 导出文件目录，为空时不写文件
	ExportDir string

	logger *utils.Logger
	clock  func() time.Time
}

// NewExportService 创建导出服务
func NewExportService(storyboards *StoryboardService, exportDir string) *ExportService {
	return &ExportService{
		Storyboards: storyboards,
		ExportDir:   exportDir,
		logger:      utils.GetLogger().WithFields(map[string]interface{}{"component": "export_service"}),
		clock:       time.Now,
	}
}

// NormalizeExportFormat 统一格式名，md 视为 markdown，yml 视为 yaml
func NormalizeExportFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", ExportJSON:
		return ExportJSON, nil
	case ExportYAML, "yml":
		return ExportYAML, nil
	case ExportMarkdown, "md":
		return ExportMarkdown, nil
	}
	return "", errors.NewValidationError(
		fmt.Sprintf("不支持的导出格式: %s，支持的格式: json, yaml, markdown", format), nil)
}

// ExportStoryboard 导出保存的分镜
func (s *ExportService) ExportStoryboard(ctx context.Context, id, format string) (*models.ExportResult, error) {
	format, err := NormalizeExportFormat(format)
	if err != nil {
		return nil, err
	}

	result, err := s.Storyboards.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}

	export, err := s.Render(result, format)
	if err != nil {
		return nil, err
	}

	if s.ExportDir != "" {
		path, size, err := s.saveExport(export)
		if err != nil {
			return nil, errors.NewProcessingError("写入导出文件失败", err)
		}
		export.FilePath = path
		export.FileSize = size
	}

	s.logger.Info("Storyboard exported", map[string]interface{}{
		"storyboard_id": id,
		"format":        format,
		"bytes":         len(export.Content),
	})
	return export, nil
}

// Render 把生成结果渲染为指定格式，不写文件
func (s *ExportService) Render(result *models.StoryboardResult, format string) (*models.ExportResult, error) {
	format, err := NormalizeExportFormat(format)
	if err != nil {
		return nil, err
	}
	sb := result.Storyboard
	stats := ComputeExportStats(sb)

	var content string
	switch format {
	case ExportJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, errors.NewProcessingError("序列化JSON失败", err)
		}
		content = string(data)
	case ExportYAML:
		data, err := yaml.Marshal(sb)
		if err != nil {
			return nil, errors.NewProcessingError("序列化YAML失败", err)
		}
		content = string(data)
	case ExportMarkdown:
		content = formatShotList(result, stats)
	}

	title := sb.Title
	if title == "" {
		title = sb.EpisodeID
	}
	return &models.ExportResult{
		StoryboardID: sb.ID,
		Title:        fmt.Sprintf("%s - 分镜", title),
		Format:       format,
		Content:      content,
		GeneratedAt:  s.clock(),
		FileSize:     int64(len(content)),
		Stats:        stats,
	}, nil
}

// ComputeExportStats 统计镜头、转场和景别分布
func ComputeExportStats(sb *models.Storyboard) *models.ExportStats {
	stats := &models.ExportStats{
		ShotCount:         len(sb.Shots),
		TransitionCount:   len(sb.Transitions),
		TotalDuration:     sb.TotalDuration,
		ScaleDistribution: make(map[string]int),
		KindDistribution:  make(map[string]int),
	}

	scenes := make(map[int]bool)
	for _, shot := range sb.Shots {
		scenes[shot.SceneIndex] = true
		stats.ScaleDistribution[string(shot.Scale)]++
	}
	for _, t := range sb.Transitions {
		stats.KindDistribution[string(t.Kind)]++
	}
	stats.SceneCount = len(scenes)
	return stats
}

// formatShotList Markdown 镜头表
func formatShotList(result *models.StoryboardResult, stats *models.ExportStats) string {
	sb := result.Storyboard
	var content strings.Builder

	title := sb.Title
	if title == "" {
		title = sb.ID
	}
	content.WriteString(fmt.Sprintf("# %s - Storyboard\n\n", title))
	content.WriteString(fmt.Sprintf("- **Storyboard ID**: %s\n", sb.ID))
	if sb.EpisodeID != "" {
		content.WriteString(fmt.Sprintf("- **Episode**: %s\n", sb.EpisodeID))
	}
	content.WriteString(fmt.Sprintf("- **Scenes**: %d\n", stats.SceneCount))
	content.WriteString(fmt.Sprintf("- **Shots**: %d\n", stats.ShotCount))
	content.WriteString(fmt.Sprintf("- **Transitions**: %d\n", stats.TransitionCount))
	content.WriteString(fmt.Sprintf("- **Total duration**: %.1fs\n", stats.TotalDuration))
	if result.Quality != nil {
		content.WriteString(fmt.Sprintf("- **Average transition score**: %.1f\n", result.Quality.AverageScore))
	}
	content.WriteString("\n")

	if len(stats.ScaleDistribution) > 0 {
		content.WriteString("## Scale distribution\n\n")
		for _, scale := range sortedKeys(stats.ScaleDistribution) {
			content.WriteString(fmt.Sprintf("- %s: %d\n", scale, stats.ScaleDistribution[scale]))
		}
		content.WriteString("\n")
	}

	content.WriteString("## Shots\n\n")
	content.WriteString("| # | Shot | Scale | Angle | Duration | Characters | Beat | Location |\n")
	content.WriteString("|---|------|-------|-------|----------|------------|------|----------|\n")
	for i, shot := range sb.Shots {
		names := make([]string, 0, len(shot.Characters))
		for _, c := range shot.Characters {
			names = append(names, c.Name)
		}
		content.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %.1fs | %s | %s | %s |\n",
			i+1,
			shot.ID,
			storyboard.ScaleLabel(shot.Scale),
			storyboard.AngleLabel(shot.Angle),
			shot.Duration,
			escapeCell(strings.Join(names, ", ")),
			shot.EmotionalBeat,
			escapeCell(shot.Setting.Location),
		))
	}
	content.WriteString("\n")

	if len(sb.Transitions) > 0 {
		content.WriteString("## Transitions\n\n")
		for _, t := range sb.Transitions {
			boundary := ""
			if t.SceneBoundary {
				boundary = " (scene boundary)"
			}
			content.WriteString(fmt.Sprintf("- **%s** %s → %s: %s %.1fs%s\n",
				t.ID, t.FromShotID, t.ToShotID, t.Kind, t.Duration, boundary))
			if t.Description != "" {
				content.WriteString(fmt.Sprintf("  - %s\n", t.Description))
			}
		}
		content.WriteString("\n")
	}

	if result.Flow != nil && (len(result.Flow.FlowIssues) > 0 || len(result.Flow.PacingIssues) > 0) {
		content.WriteString("## Flow notes\n\n")
		for _, issue := range result.Flow.FlowIssues {
			content.WriteString(fmt.Sprintf("- %s\n", issue))
		}
		for _, issue := range result.Flow.PacingIssues {
			content.WriteString(fmt.Sprintf("- %s\n", issue))
		}
		content.WriteString("\n")
	}

	content.WriteString("## Prompts\n\n")
	for _, shot := range sb.Shots {
		content.WriteString(fmt.Sprintf("### %s\n\n", shot.ID))
		content.WriteString(fmt.Sprintf("%s\n\n", shot.Prompt.AIPrompt))
		if shot.Prompt.NegativePrompt != "" {
			content.WriteString(fmt.Sprintf("*Negative*: %s\n\n", shot.Prompt.NegativePrompt))
		}
	}
	return content.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// saveExport 写入 ExportDir/<storyboardID>_<时间戳>.<扩展名>
func (s *ExportService) saveExport(result *models.ExportResult) (string, int64, error) {
	if err := os.MkdirAll(s.ExportDir, 0755); err != nil {
		return "", 0, fmt.Errorf("创建导出目录失败: %w", err)
	}

	timestamp := result.GeneratedAt.Format("20060102_150405")
	fileName := fmt.Sprintf("%s_%s.%s", result.StoryboardID, timestamp, exportExtensions[result.Format])
	filePath := filepath.Join(s.ExportDir, fileName)

	if err := os.WriteFile(filePath, []byte(result.Content), 0644); err != nil {
		return "", 0, fmt.Errorf("写入导出文件失败: %w", err)
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("获取文件信息失败: %w", err)
	}
	return fileName, fileInfo.Size(), nil
}
