// internal/storyboard/selector.go
package storyboard

import (
	"fmt"
	"strings"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

// NeedsTransition 只有景别、机位或情绪节拍不同的相邻镜头才需要转场
func NeedsTransition(from, to *models.Shot) bool {
	return from.Scale != to.Scale ||
		from.Angle != to.Angle ||
		from.EmotionalBeat != to.EmotionalBeat
}

// SelectKind 按优先级规则选择转场类型，返回类型与默认时长
func SelectKind(ctx TransitionContext) (models.TransitionKind, float64) {
	var kind models.TransitionKind
	switch {
	case ctx.LocationChange || ctx.TimeChange:
		kind = models.TransitionDissolve
	case ctx.EmotionalShift == ShiftDramatic:
		kind = models.TransitionFade
	case ctx.ScaleChange == ChangeMajor:
		kind = models.TransitionZoom
	case ctx.NarrativePace == PaceFast:
		kind = models.TransitionCut
	case ctx.AngleChange == ChangeMajor && ctx.CharacterContinuity > 0.5:
		kind = models.TransitionPan
	case ctx.EmotionalShift == ShiftSubtle:
		kind = models.TransitionWipe
	default:
		kind = models.TransitionCut
	}
	return kind, DefaultDuration(kind)
}

// SceneBoundaryKind 跨场景转场不做完整分析：地点或时间变化用溶解，否则淡入淡出
func SceneBoundaryKind(from, to *models.Shot) (models.TransitionKind, float64) {
	if !strings.EqualFold(from.Setting.Location, to.Setting.Location) ||
		!strings.EqualFold(from.Setting.TimeOfDay, to.Setting.TimeOfDay) {
		return models.TransitionDissolve, sceneBoundaryDuration
	}
	return models.TransitionFade, sceneBoundaryDuration
}

// TransitionID 转场ID由其在转场列表中的位置决定（从1开始）
func TransitionID(position int) string {
	return fmt.Sprintf("transition_%d", position+1)
}

// BuildTransitions 为镜头序列中所有符合条件的相邻镜头生成转场
func BuildTransitions(shots []models.Shot) []models.Transition {
	transitions := make([]models.Transition, 0, len(shots))
	for i := 0; i+1 < len(shots); i++ {
		from, to := &shots[i], &shots[i+1]
		if !NeedsTransition(from, to) {
			continue
		}

		t := models.Transition{
			FromShotID:    from.ID,
			ToShotID:      to.ID,
			SceneBoundary: from.SceneIndex != to.SceneIndex,
		}
		if t.SceneBoundary {
			t.Kind, t.Duration = SceneBoundaryKind(from, to)
		} else {
			t.Kind, t.Duration = SelectKind(AnalyzeContext(from, to))
		}
		t.ID = TransitionID(len(transitions))
		t.Description = DescribeTransition(&t, from, to)
		transitions = append(transitions, t)
	}
	return transitions
}

var kindVerbs = map[models.TransitionKind]string{
	models.TransitionCut:      "Cut",
	models.TransitionFade:     "Fade",
	models.TransitionDissolve: "Dissolve",
	models.TransitionWipe:     "Wipe",
	models.TransitionZoom:     "Zoom",
	models.TransitionPan:      "Pan",
}

// DescribeTransition 生成带连续性说明的转场描述
func DescribeTransition(t *models.Transition, from, to *models.Shot) string {
	verb, ok := kindVerbs[t.Kind]
	if !ok {
		verb = string(t.Kind)
	}

	var b strings.Builder
	if t.Kind == models.TransitionCut {
		fmt.Fprintf(&b, "%s from %s to %s.", verb, ScaleLabel(from.Scale), ScaleLabel(to.Scale))
	} else {
		fmt.Fprintf(&b, "%s (%.1fs) from %s to %s.", verb, t.Duration, ScaleLabel(from.Scale), ScaleLabel(to.Scale))
	}

	var notes []string
	if !strings.EqualFold(from.Setting.Location, to.Setting.Location) {
		notes = append(notes, fmt.Sprintf("location moves from %s to %s", from.Setting.Location, to.Setting.Location))
	}
	if !strings.EqualFold(from.Setting.TimeOfDay, to.Setting.TimeOfDay) {
		notes = append(notes, fmt.Sprintf("time shifts from %s to %s", from.Setting.TimeOfDay, to.Setting.TimeOfDay))
	}
	if from.EmotionalBeat != to.EmotionalBeat && to.EmotionalBeat != "" {
		notes = append(notes, fmt.Sprintf("mood turns %s", to.EmotionalBeat))
	}
	if kept := sharedNames(from, to); len(kept) > 0 {
		notes = append(notes, "keep "+strings.Join(kept, ", ")+" consistent")
	}
	if len(notes) > 0 {
		b.WriteString(" Continuity: " + strings.Join(notes, "; ") + ".")
	}
	return b.String()
}

func sharedNames(from, to *models.Shot) []string {
	ids := toSet(to.CharacterIDs())
	var names []string
	for _, c := range from.Characters {
		if ids[c.CharacterID] {
			names = append(names, c.Name)
		}
	}
	return names
}
