// internal/storyboard/quality.go
package storyboard

import (
	"fmt"
	"math"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

const (
	// DefaultQualityThreshold 低于该分数的转场需要修复
	DefaultQualityThreshold = 70
	// DefaultMaxRepairIterations 修复循环的最大轮数
	DefaultMaxRepairIterations = 3

	maxScore = 100
)

// fallbackKind 兜底转场：不受任何扣分规则影响
const (
	fallbackKind     = models.TransitionDissolve
	fallbackDuration = 1.5
)

// ValidateTransition 对单个转场打分，返回问题列表和结构化建议
func ValidateTransition(t *models.Transition, from, to *models.Shot) models.QualityReport {
	ctx := AnalyzeContext(from, to)
	report := models.QualityReport{TransitionID: t.ID, Score: maxScore}

	penalize := func(penalty int, issue string, rec models.Recommendation) {
		report.Score -= penalty
		report.Issues = append(report.Issues, issue)
		rec.Penalty = penalty
		report.Recommendations = append(report.Recommendations, rec)
	}
	replace := func(kind models.TransitionKind, msg string) models.Recommendation {
		return models.Recommendation{
			Action:   models.ActionReplaceKind,
			Kind:     kind,
			Duration: DefaultDuration(kind),
			Message:  msg,
		}
	}

	// 类型检查
	switch t.Kind {
	case models.TransitionCut:
		if ctx.LocationChange {
			penalize(20, "cut across a location change", replace(models.TransitionDissolve, "use a dissolve for location changes"))
		}
		if ctx.TimeChange {
			penalize(15, "cut across a time change", replace(models.TransitionFade, "use a fade for time changes"))
		}
	case models.TransitionFade:
		if ctx.ScaleChange == ChangeMajor {
			penalize(10, "fade over a major scale change", replace(models.TransitionZoom, "use a zoom for major scale changes"))
		}
	case models.TransitionZoom:
		if ctx.LocationChange {
			penalize(25, "zoom across a location change", replace(models.TransitionDissolve, "use a dissolve for location changes"))
		}
	}

	// 时长检查
	band := BandFor(t.Kind)
	switch {
	case t.Duration < band.Min:
		penalize(15, fmt.Sprintf("duration %.2fs below minimum %.2fs for %s", t.Duration, band.Min, t.Kind),
			models.Recommendation{Action: models.ActionAdjustDuration, Kind: t.Kind, Duration: band.Optimal,
				Message: fmt.Sprintf("set duration to %.1fs", band.Optimal)})
	case t.Duration > band.Max:
		penalize(10, fmt.Sprintf("duration %.2fs above maximum %.2fs for %s", t.Duration, band.Max, t.Kind),
			models.Recommendation{Action: models.ActionAdjustDuration, Kind: t.Kind, Duration: band.Optimal,
				Message: fmt.Sprintf("set duration to %.1fs", band.Optimal)})
	}

	// 连续性检查
	if ctx.CharacterContinuity < 0.3 && t.Kind != models.TransitionDissolve {
		penalize(15, fmt.Sprintf("low character continuity (%.2f)", ctx.CharacterContinuity),
			replace(models.TransitionDissolve, "use a dissolve to bridge a change of characters"))
	}
	if ctx.LightingChange && t.Kind == models.TransitionCut {
		penalize(10, "cut across a lighting change", replace(models.TransitionFade, "use a fade to smooth the lighting change"))
	}
	if ctx.EmotionalShift == ShiftDramatic && t.Kind == models.TransitionCut {
		penalize(20, "cut across a dramatic emotional shift", replace(models.TransitionFade, "use a fade for dramatic emotional shifts"))
	}

	// 视觉连贯检查
	if ctx.AtmosphereChange && t.Kind == models.TransitionCut {
		penalize(10, "cut across an atmosphere change", replace(models.TransitionDissolve, "use a dissolve to blend atmospheres"))
	}
	if ctx.ScaleChange == ChangeMajor && ctx.AngleChange == ChangeMajor && t.Kind == models.TransitionCut {
		penalize(25, "cut with major scale and angle change", replace(models.TransitionZoom, "use a zoom to motivate the jump"))
	}

	if report.Score < 0 {
		report.Score = 0
	}
	return report
}

// ClampDuration 把时长限制在转场类型的允许范围内，切始终为0
func ClampDuration(kind models.TransitionKind, d float64) float64 {
	band := BandFor(kind)
	return math.Max(band.Min, math.Min(band.Max, d))
}

// Optimizer 对低分转场进行迭代修复
type Optimizer struct {
	Threshold     int
	MaxIterations int
}

// NewOptimizer 创建修复器，非正参数使用默认值
func NewOptimizer(threshold, maxIterations int) *Optimizer {
	if threshold <= 0 {
		threshold = DefaultQualityThreshold
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxRepairIterations
	}
	return &Optimizer{Threshold: threshold, MaxIterations: maxIterations}
}

// Optimize 修复分镜中所有低分转场，原地修改转场并返回修复后的质量汇总。
// 每个输出转场重新校验后的得分都不低于阈值。
func (o *Optimizer) Optimize(sb *models.Storyboard) models.StoryboardQuality {
	index := sb.ShotIndex()
	quality := models.StoryboardQuality{}

	for i := range sb.Transitions {
		t := &sb.Transitions[i]
		from, okFrom := index[t.FromShotID]
		to, okTo := index[t.ToShotID]
		if !okFrom || !okTo {
			continue
		}

		report := ValidateTransition(t, from, to)
		if report.Score >= o.Threshold {
			continue
		}
		// 记录修复前的低分数量
		quality.LowQualityCount++

		iterations := o.repair(t, from, to)
		quality.RepairedCount++
		if iterations > quality.RepairIterations {
			quality.RepairIterations = iterations
		}
	}

	// 所有转场的时长最终落在类型范围内，切为0
	for i := range sb.Transitions {
		t := &sb.Transitions[i]
		t.Duration = ClampDuration(t.Kind, t.Duration)
	}

	quality.Reports, quality.AverageScore = ValidateStoryboard(sb)
	return quality
}

// repair 对单个转场执行修复循环，返回使用的轮数
func (o *Optimizer) repair(t *models.Transition, from, to *models.Shot) int {
	for iter := 1; iter <= o.MaxIterations; iter++ {
		report := ValidateTransition(t, from, to)
		if report.Score >= o.Threshold {
			return iter - 1
		}
		if !o.applyRecommendations(t, from, to, report.Recommendations) {
			break
		}
		if ValidateTransition(t, from, to).Score >= o.Threshold {
			t.Description = DescribeTransition(t, from, to)
			return iter
		}
	}

	t.Kind = fallbackKind
	t.Duration = fallbackDuration
	t.Description = DescribeTransition(t, from, to)
	return o.MaxIterations
}

// applyRecommendations 对候选类型逐一打分并采用得分最高者；
// 无类型替换建议时调整时长。返回是否有任何改动。
func (o *Optimizer) applyRecommendations(t *models.Transition, from, to *models.Shot, recs []models.Recommendation) bool {
	bestScore := -1
	var best *models.Recommendation
	seen := make(map[models.TransitionKind]bool)
	for i := range recs {
		rec := &recs[i]
		if rec.Action != models.ActionReplaceKind || seen[rec.Kind] {
			continue
		}
		seen[rec.Kind] = true

		candidate := *t
		candidate.Kind = rec.Kind
		candidate.Duration = ClampDuration(rec.Kind, rec.Duration)
		if score := ValidateTransition(&candidate, from, to).Score; score > bestScore {
			bestScore, best = score, rec
		}
	}

	if best != nil {
		changed := t.Kind != best.Kind || t.Duration != ClampDuration(best.Kind, best.Duration)
		t.Kind = best.Kind
		t.Duration = ClampDuration(best.Kind, best.Duration)
		return changed
	}

	changed := false
	for _, rec := range recs {
		if rec.Action != models.ActionAdjustDuration {
			continue
		}
		d := ClampDuration(t.Kind, rec.Duration)
		if d != t.Duration {
			t.Duration = d
			changed = true
		}
	}
	return changed
}

// ValidateStoryboard 校验所有转场，返回报告与平均分（无转场时为100）
func ValidateStoryboard(sb *models.Storyboard) ([]models.QualityReport, float64) {
	index := sb.ShotIndex()
	reports := make([]models.QualityReport, 0, len(sb.Transitions))
	total := 0
	for i := range sb.Transitions {
		t := &sb.Transitions[i]
		from, okFrom := index[t.FromShotID]
		to, okTo := index[t.ToShotID]
		if !okFrom || !okTo {
			reports = append(reports, models.QualityReport{
				TransitionID: t.ID,
				Score:        0,
				Issues:       []string{fmt.Sprintf("transition references unknown shot %s -> %s", t.FromShotID, t.ToShotID)},
			})
			continue
		}
		r := ValidateTransition(t, from, to)
		total += r.Score
		reports = append(reports, r)
	}
	if len(reports) == 0 {
		return reports, maxScore
	}
	return reports, float64(total) / float64(len(reports))
}

func countBelow(reports []models.QualityReport, threshold int) int {
	n := 0
	for _, r := range reports {
		if r.Score < threshold {
			n++
		}
	}
	return n
}

// Revalidate 对已生成的分镜重新打分（不做修复）
func Revalidate(sb *models.Storyboard, threshold int) models.StoryboardQuality {
	if threshold <= 0 {
		threshold = DefaultQualityThreshold
	}
	reports, avg := ValidateStoryboard(sb)
	return models.StoryboardQuality{
		AverageScore:    avg,
		Reports:         reports,
		LowQualityCount: countBelow(reports, threshold),
	}
}
