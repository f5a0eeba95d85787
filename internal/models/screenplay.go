// internal/models/screenplay.go
package models

// Screenplay 结构化剧本（由外部剧本源生成，这里只读）
type Screenplay struct {
	ID        string            `json:"id" yaml:"id"`
	EpisodeID string            `json:"episode_id" yaml:"episode_id"`
	Title     string            `json:"title,omitempty" yaml:"title,omitempty"`
	Scenes    []ScreenplayScene `json:"scenes" yaml:"scenes"`
}

// ScreenplayScene 剧本中的一个场景
type ScreenplayScene struct {
	Heading      string   `json:"heading" yaml:"heading"`                 // 例如 "INT. KITCHEN - NIGHT"
	Content      string   `json:"content" yaml:"content"`                 // 场景正文（动作描写与对白）
	Setting      string   `json:"setting,omitempty" yaml:"setting"`       // 场景地点标签
	CharacterIDs []string `json:"character_ids" yaml:"character_ids"`     // 出场角色
	Atmosphere   string   `json:"atmosphere,omitempty" yaml:"atmosphere"` // 可选的氛围标签
}

// WordCount 返回正文词数
func (s *ScreenplayScene) WordCount() int {
	count := 0
	inWord := false
	for _, r := range s.Content {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}
