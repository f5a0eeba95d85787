// internal/platform/projections.go
package platform

import (
	"hash/fnv"
	"math"
	"strings"
)

func builtinProjections() []Projection {
	return []Projection{runway{}, pika{}, stability{}, luma{}}
}

// 所有平台的转场字段相同
func baseTransition(t TransitionIR) map[string]interface{} {
	return map[string]interface{}{
		"id":         t.ID,
		"from":       t.FromShotID,
		"to":         t.ToShotID,
		"type":       t.Type,
		"duration":   t.Duration,
		"parameters": t.Parameters,
	}
}

func fullPrompt(shot ShotIR) string {
	parts := []string{shot.Prompt.Primary}
	if shot.Prompt.Style != "" {
		parts = append(parts, shot.Prompt.Style)
	}
	return strings.Join(parts, ", ")
}

// runway Gen-3 文生视频
type runway struct{}

func (runway) ID() string           { return "runway" }
func (runway) MaxDuration() float64 { return 10 }

func (runway) ProjectShot(shot ShotIR, duration float64, _ int) map[string]interface{} {
	return map[string]interface{}{
		"promptText": fullPrompt(shot),
		"duration":   duration,
		"ratio":      shot.Technical.AspectRatio,
		"seed":       shotSeed(shot.ShotID),
		"model":      "gen3a_turbo",
	}
}

func (runway) ProjectTransition(t TransitionIR) map[string]interface{} { return baseTransition(t) }

// pika 短片段，摄影机运动用字符串描述
type pika struct{}

func (pika) ID() string           { return "pika" }
func (pika) MaxDuration() float64 { return 3 }

func (pika) ProjectShot(shot ShotIR, duration float64, _ int) map[string]interface{} {
	return map[string]interface{}{
		"text":            fullPrompt(shot),
		"camera":          shot.Camera.Movement,
		"negative_prompt": shot.Prompt.Negative,
		"duration":        duration,
		"fps":             shot.Technical.FPS,
	}
}

func (pika) ProjectTransition(t TransitionIR) map[string]interface{} { return baseTransition(t) }

// stability Stable Video Diffusion，以帧数计时
type stability struct{}

func (stability) ID() string           { return "stability" }
func (stability) MaxDuration() float64 { return 4 }

func (stability) ProjectShot(shot ShotIR, duration float64, _ int) map[string]interface{} {
	fps := shot.Technical.FPS
	return map[string]interface{}{
		"prompt":           fullPrompt(shot),
		"negative_prompt":  shot.Prompt.Negative,
		"duration":         duration,
		"duration_frames":  int(math.Round(duration * float64(fps))),
		"fps":              fps,
		"motion_bucket_id": motionBucket(shot.Camera.Movement),
		"cfg_scale":        cfgScale(shot.Technical.Quality),
	}
}

func (stability) ProjectTransition(t TransitionIR) map[string]interface{} { return baseTransition(t) }

// luma Dream Machine
type luma struct{}

func (luma) ID() string           { return "luma" }
func (luma) MaxDuration() float64 { return 5 }

func (luma) ProjectShot(shot ShotIR, duration float64, _ int) map[string]interface{} {
	return map[string]interface{}{
		"prompt":        fullPrompt(shot),
		"aspect_ratio":  shot.Technical.AspectRatio,
		"duration":      duration,
		"loop":          false,
		"camera_motion": shot.Camera.Movement,
	}
}

func (luma) ProjectTransition(t TransitionIR) map[string]interface{} { return baseTransition(t) }

// shotSeed 由镜头ID得到稳定的种子
func shotSeed(shotID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(shotID))
	return h.Sum32()
}

func motionBucket(movement string) int {
	switch movement {
	case "static":
		return 60
	case "handheld":
		return 180
	default:
		return 127
	}
}

func cfgScale(quality string) float64 {
	if quality == QualityHigh {
		return 9.0
	}
	return 7.0
}
