package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryboardMCP/internal/errors"
)

func TestConfigService_UpdateRecordsHistory(t *testing.T) {
	s := NewStaticConfigService(testEngineConfig())

	next := testEngineConfig()
	next.QualityThreshold = 80
	require.NoError(t, s.UpdateEngineConfig(next, "tester"))
	assert.Equal(t, 80, s.EngineConfig().QualityThreshold)

	history := s.GetChangeHistory(0)
	require.Len(t, history, 1)
	assert.Equal(t, 70, history[0].OldValue.QualityThreshold)
	assert.Equal(t, 80, history[0].NewValue.QualityThreshold)
	assert.Equal(t, "tester", history[0].ChangedBy)
}

func TestConfigService_RejectsInvalidConfig(t *testing.T) {
	s := NewStaticConfigService(testEngineConfig())

	bad := testEngineConfig()
	bad.QualityThreshold = 0
	err := s.UpdateEngineConfig(bad, "tester")
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, 70, s.EngineConfig().QualityThreshold)
	assert.Empty(t, s.GetChangeHistory(10))
}
