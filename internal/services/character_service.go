// internal/services/character_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Corphon/StoryboardMCP/internal/errors"
	"github.com/Corphon/StoryboardMCP/internal/models"
	"github.com/Corphon/StoryboardMCP/internal/storage"
	"github.com/Corphon/StoryboardMCP/internal/storyboard"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

const characterCollection = "characters"

// CharacterService 角色档案注册表，分镜生成时只读使用
type CharacterService struct {
	store  storage.Store
	locks  *LockManager
	logger *utils.Logger
	clock  func() time.Time
}

// NewCharacterService 创建角色服务
func NewCharacterService(store storage.Store, locks *LockManager) *CharacterService {
	if locks == nil {
		locks = NewLockManager()
	}
	return &CharacterService{
		store:  store,
		locks:  locks,
		logger: utils.GetLogger().WithFields(map[string]interface{}{"component": "character_service"}),
		clock:  time.Now,
	}
}

func characterLockKey(id string) string {
	return characterCollection + "/" + id
}

// SaveCharacter 注册或更新角色档案
func (s *CharacterService) SaveCharacter(ctx context.Context, profile *models.CharacterProfile) error {
	if profile == nil {
		return errors.NewValidationError("character profile is required", nil)
	}
	profile.ID = strings.TrimSpace(profile.ID)
	if profile.ID == "" {
		return errors.NewValidationError("character id is required", nil)
	}
	if strings.TrimSpace(profile.Name) == "" {
		profile.Name = profile.ID
	}
	profile.LastUpdated = s.clock()

	err := s.locks.WithLock(characterLockKey(profile.ID), func() error {
		return s.store.Put(ctx, characterCollection, profile.ID, profile)
	})
	if err != nil {
		return errors.WrapError(err, fmt.Sprintf("保存角色失败: %s", profile.ID), errors.ErrorTypeError)
	}

	s.logger.Info("Character saved", map[string]interface{}{
		"character_id": profile.ID,
		"locked":       profile.Locked != nil,
	})
	return nil
}

// GetCharacter 读取角色档案
func (s *CharacterService) GetCharacter(ctx context.Context, id string) (*models.CharacterProfile, error) {
	var profile models.CharacterProfile
	err := s.locks.WithReadLock(characterLockKey(id), func() error {
		return s.store.Get(ctx, characterCollection, id, &profile)
	})
	if err != nil {
		return nil, errors.WrapError(err, fmt.Sprintf("读取角色失败: %s", id), errors.ErrorTypeError)
	}
	return &profile, nil
}

// ListCharacters 返回所有已注册的角色
func (s *CharacterService) ListCharacters(ctx context.Context) ([]models.CharacterProfile, error) {
	ids, err := s.store.List(ctx, characterCollection)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.CharacterProfile, 0, len(ids))
	for _, id := range ids {
		profile, err := s.GetCharacter(ctx, id)
		if err != nil {
			if errors.IsNotFoundError(err) {
				continue
			}
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}

// DeleteCharacter 删除角色档案
func (s *CharacterService) DeleteCharacter(ctx context.Context, id string) error {
	return s.locks.WithLock(characterLockKey(id), func() error {
		return s.store.Delete(ctx, characterCollection, id)
	})
}

// RegistryFor 预先加载剧本中出现的角色，未注册的角色交给引擎以ID兜底
func (s *CharacterService) RegistryFor(ctx context.Context, sp *models.Screenplay) (storyboard.StaticRegistry, error) {
	registry := storyboard.StaticRegistry{}
	for _, scene := range sp.Scenes {
		for _, id := range scene.CharacterIDs {
			if id == "" {
				continue
			}
			if _, loaded := registry[id]; loaded {
				continue
			}

			profile, err := s.GetCharacter(ctx, id)
			switch {
			case err == nil:
				registry[id] = *profile
			case errors.IsNotFoundError(err), errors.IsValidationError(err):
				s.logger.Debug("Character not registered", map[string]interface{}{"character_id": id})
			default:
				return nil, err
			}
		}
	}
	return registry, nil
}
