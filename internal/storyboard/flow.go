// internal/storyboard/flow.go
package storyboard

import (
	"fmt"
	"math"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

const (
	maxDurationJump     = 1.5
	slowAverageDuration = 2.0
	fastAverageDuration = 0.5
	maxPerMinute        = 20.0
	minPerMinute        = 5.0
)

// 快节奏与慢节奏转场分类
var (
	fastKinds = map[models.TransitionKind]bool{models.TransitionCut: true, models.TransitionWipe: true}
	slowKinds = map[models.TransitionKind]bool{models.TransitionFade: true, models.TransitionDissolve: true}
)

// AnalyzeFlow 分析转场序列的整体流畅度与节奏，不修改分镜
func AnalyzeFlow(sb *models.Storyboard) models.FlowReport {
	_, avg := ValidateStoryboard(sb)
	report := models.FlowReport{
		OverallScore:    avg,
		FlowIssues:      []string{},
		PacingIssues:    []string{},
		Recommendations: []string{},
	}

	ts := sb.Transitions
	for i := 0; i+1 < len(ts); i++ {
		a, b := &ts[i], &ts[i+1]
		if a.Kind == b.Kind && a.Kind != models.TransitionCut {
			report.FlowIssues = append(report.FlowIssues,
				fmt.Sprintf("repeated %s transitions at %s and %s", a.Kind, a.ID, b.ID))
		}
		if math.Abs(a.Duration-b.Duration) > maxDurationJump {
			report.FlowIssues = append(report.FlowIssues,
				fmt.Sprintf("duration jump of %.1fs between %s and %s", math.Abs(a.Duration-b.Duration), a.ID, b.ID))
		}
		if (fastKinds[a.Kind] && slowKinds[b.Kind]) || (slowKinds[a.Kind] && fastKinds[b.Kind]) {
			report.FlowIssues = append(report.FlowIssues,
				fmt.Sprintf("rhythm switch from %s to %s between %s and %s", a.Kind, b.Kind, a.ID, b.ID))
		}
	}
	if len(report.FlowIssues) > 0 {
		report.Recommendations = append(report.Recommendations, "vary transition kinds and keep neighbouring durations close")
	}

	if len(ts) > 0 {
		total := 0.0
		for _, t := range ts {
			total += t.Duration
		}
		mean := total / float64(len(ts))
		report.AverageTransitionDuration = math.Round(mean*100) / 100
		switch {
		case mean > slowAverageDuration:
			report.PacingIssues = append(report.PacingIssues, "transitions too slow")
			report.Recommendations = append(report.Recommendations, "shorten transitions or use more cuts")
		case mean < fastAverageDuration:
			report.PacingIssues = append(report.PacingIssues, "transitions too fast")
			report.Recommendations = append(report.Recommendations, "add fades or dissolves at story beats")
		}
	}

	duration := sb.TotalDuration
	if duration <= 0 {
		for _, s := range sb.Shots {
			duration += s.Duration
		}
	}
	if duration > 0 {
		report.TransitionsPerMinute = float64(len(ts)) / (duration / 60)
		switch {
		case report.TransitionsPerMinute > maxPerMinute:
			report.PacingIssues = append(report.PacingIssues, "too many transitions")
			report.Recommendations = append(report.Recommendations, "merge short shots to reduce choppiness")
		case report.TransitionsPerMinute < minPerMinute:
			report.PacingIssues = append(report.PacingIssues, "too few transitions")
			report.Recommendations = append(report.Recommendations, "break long shots to avoid a static feel")
		}
	}
	return report
}
