// cmd/storyboard/input.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Corphon/StoryboardMCP/internal/models"
	"github.com/Corphon/StoryboardMCP/internal/storyboard"
)

// decodeFile 按扩展名选择 JSON 或 YAML 解码
func decodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, v)
	} else {
		err = yaml.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadScreenplay(path string) (*models.Screenplay, error) {
	var sp models.Screenplay
	if err := decodeFile(path, &sp); err != nil {
		return nil, err
	}
	if len(sp.Scenes) == 0 {
		return nil, fmt.Errorf("%s: screenplay has no scenes", path)
	}
	return &sp, nil
}

// loadCharacters 读取角色档案列表，空路径返回空注册表
func loadCharacters(path string) (storyboard.StaticRegistry, error) {
	registry := storyboard.StaticRegistry{}
	if path == "" {
		return registry, nil
	}

	var profiles []models.CharacterProfile
	if err := decodeFile(path, &profiles); err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("%s: character without id", path)
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		registry[p.ID] = p
	}
	return registry, nil
}

// loadStoryboard 接受完整生成结果或单独的分镜
func loadStoryboard(path string) (*models.Storyboard, error) {
	var result models.StoryboardResult
	if err := decodeFile(path, &result); err == nil && result.Storyboard != nil {
		return result.Storyboard, nil
	}

	var sb models.Storyboard
	if err := decodeFile(path, &sb); err != nil {
		return nil, err
	}
	if sb.ID == "" && len(sb.Shots) == 0 {
		return nil, fmt.Errorf("%s: no storyboard found", path)
	}
	return &sb, nil
}
