// internal/models/character.go
package models

import "time"

// CharacterProfile 角色档案（外观属性来自角色注册表）
type CharacterProfile struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Personality string            `json:"personality,omitempty" yaml:"personality,omitempty"`
	Appearance  string            `json:"appearance,omitempty" yaml:"appearance,omitempty"`
	Locked      *LockedAttributes `json:"locked,omitempty" yaml:"locked,omitempty"`
	LastUpdated time.Time         `json:"last_updated" yaml:"last_updated"`
}

// LockedAttributes 锁定的视觉属性，生成提示词时覆盖自由描述
type LockedAttributes struct {
	Appearance string `json:"appearance,omitempty" yaml:"appearance,omitempty"`
	Outfit     string `json:"outfit,omitempty" yaml:"outfit,omitempty"`
	Hair       string `json:"hair,omitempty" yaml:"hair,omitempty"`
	Age        string `json:"age,omitempty" yaml:"age,omitempty"`
}

// VisualDescriptor 返回用于提示词的外观描述，锁定属性优先
func (p *CharacterProfile) VisualDescriptor() string {
	appearance := p.Appearance
	var extras []string
	if p.Locked != nil {
		if p.Locked.Appearance != "" {
			appearance = p.Locked.Appearance
		}
		if p.Locked.Age != "" {
			extras = append(extras, p.Locked.Age)
		}
		if p.Locked.Hair != "" {
			extras = append(extras, p.Locked.Hair)
		}
		if p.Locked.Outfit != "" {
			extras = append(extras, "wearing "+p.Locked.Outfit)
		}
	}

	desc := p.Name
	if appearance != "" {
		desc += " (" + appearance + ")"
	}
	for _, e := range extras {
		desc += ", " + e
	}
	return desc
}
