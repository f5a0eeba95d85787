// internal/platform/compatibility.go
package platform

import (
	"fmt"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

const (
	minShotDuration      = 0.5
	maxShotDuration      = 10.0
	maxShotCount         = 50
	maxTotalDuration     = 300.0
	minAverageShotTime   = 2.0
	issuePenalty         = 20
	warningPenalty       = 5
	compatibilityPerfect = 100
)

// ValidateCompatibility 检查中间表示是否能被视频生成平台接受。
// platform 非空时附带该平台的时长截断提示（只作为建议）。
func (r *Registry) ValidateCompatibility(sb *models.Storyboard, platform string) (models.CompatibilityReport, error) {
	ir := BuildIntermediate(sb)
	report := CheckIntermediate(ir)

	if platform == "" {
		return report, nil
	}
	p, err := r.Get(platform)
	if err != nil {
		return report, err
	}
	for _, shot := range ir.Shots {
		if _, note := clampFor(shot, p); note != "" {
			report.Recommendations = append(report.Recommendations, note)
		}
	}
	return report, nil
}

// CheckIntermediate 与平台无关的兼容性检查
func CheckIntermediate(ir *Intermediate) models.CompatibilityReport {
	report := models.CompatibilityReport{
		Issues:          []string{},
		Warnings:        []string{},
		Recommendations: []string{},
	}

	for i, shot := range ir.Shots {
		label := shot.ShotID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			report.Issues = append(report.Issues, fmt.Sprintf("shot %s is missing an id", label))
		}
		if shot.Prompt.Primary == "" {
			report.Issues = append(report.Issues, fmt.Sprintf("shot %s is missing a prompt", label))
		}
		if shot.Camera.Angle == "" || shot.Camera.Scale == "" || shot.Camera.Movement == "" {
			report.Issues = append(report.Issues, fmt.Sprintf("shot %s is missing camera settings", label))
		}
		if shot.Duration < minShotDuration {
			report.Warnings = append(report.Warnings, fmt.Sprintf("shot %s duration %.1fs is shorter than %.1fs", label, shot.Duration, minShotDuration))
		}
		if shot.Duration > maxShotDuration {
			report.Warnings = append(report.Warnings, fmt.Sprintf("shot %s duration %.1fs is longer than %.0fs", label, shot.Duration, maxShotDuration))
		}
	}

	if n := len(ir.Shots); n > maxShotCount {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%d shots: consider splitting the episode into batches of %d", n, maxShotCount))
	}
	if ir.TotalDuration > maxTotalDuration {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("total duration %.0fs exceeds %.0fs: render in segments", ir.TotalDuration, maxTotalDuration))
	}
	if n := len(ir.Shots); n > 0 && ir.TotalDuration/float64(n) < minAverageShotTime {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("average shot length %.1fs is below %.0fs: merge short shots", ir.TotalDuration/float64(n), minAverageShotTime))
	}

	score := compatibilityPerfect - issuePenalty*len(report.Issues) - warningPenalty*len(report.Warnings)
	if score < 0 {
		score = 0
	}
	report.Score = score
	report.Compatible = len(report.Issues) == 0
	return report
}
