// internal/models/quality.go
package models

// RecommendationAction 修复建议的动作类型
type RecommendationAction string

const (
	ActionReplaceKind    RecommendationAction = "replace_kind"
	ActionAdjustDuration RecommendationAction = "adjust_duration"
)

// Recommendation 结构化的修复建议
type Recommendation struct {
	Action   RecommendationAction `json:"action"`
	Kind     TransitionKind       `json:"kind,omitempty"`
	Duration float64              `json:"duration,omitempty"`
	Penalty  int                  `json:"penalty"`
	Message  string               `json:"message"`
}

// QualityReport 单个转场的质量报告
type QualityReport struct {
	TransitionID    string           `json:"transition_id,omitempty"`
	Score           int              `json:"score"`
	Issues          []string         `json:"issues"`
	Recommendations []Recommendation `json:"recommendations"`
}

// StoryboardQuality 分镜整体质量
type StoryboardQuality struct {
	AverageScore     float64         `json:"average_score"`
	Reports          []QualityReport `json:"reports"`
	LowQualityCount  int             `json:"low_quality_count"`
	RepairedCount    int             `json:"repaired_count"`
	RepairIterations int             `json:"repair_iterations"`
}

// FlowReport 转场序列的全局流畅度分析（仅供参考，不修改分镜）
type FlowReport struct {
	OverallScore              float64  `json:"overall_score"`
	FlowIssues                []string `json:"flow_issues"`
	PacingIssues              []string `json:"pacing_issues"`
	AverageTransitionDuration float64  `json:"average_transition_duration"`
	TransitionsPerMinute      float64  `json:"transitions_per_minute"`
	Recommendations           []string `json:"recommendations"`
}

// CompatibilityReport 平台兼容性报告，供人工在发送前审核
type CompatibilityReport struct {
	Score           int      `json:"score"`
	Compatible      bool     `json:"compatible"`
	Issues          []string `json:"issues"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// StoryboardResult 一次生成调用的完整结果
type StoryboardResult struct {
	Storyboard *Storyboard           `json:"storyboard"`
	Quality    *StoryboardQuality    `json:"quality"`
	Flow       *FlowReport           `json:"flow"`
	Scenes     []SceneClassification `json:"scenes"`
}
