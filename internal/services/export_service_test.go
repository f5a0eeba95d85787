package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Corphon/StoryboardMCP/internal/errors"
	"github.com/Corphon/StoryboardMCP/internal/models"
)

func TestNormalizeExportFormat(t *testing.T) {
	cases := map[string]string{
		"":         ExportJSON,
		"JSON":     ExportJSON,
		"yml":      ExportYAML,
		"yaml":     ExportYAML,
		"md":       ExportMarkdown,
		"Markdown": ExportMarkdown,
	}
	for in, want := range cases {
		got, err := NormalizeExportFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeExportFormat("pdf")
	assert.True(t, errors.IsValidationError(err))
}

func TestExportService_Formats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.storyboards.Generate(ctx, testScreenplay("ep-1"), "")
	require.NoError(t, err)
	id := result.Storyboard.ID

	jsonExport, err := env.exports.ExportStoryboard(ctx, id, "json")
	require.NoError(t, err)
	assert.Contains(t, jsonExport.Content, `"storyboard"`)
	assert.Contains(t, jsonExport.Content, id)
	assert.Empty(t, jsonExport.FilePath)

	yamlExport, err := env.exports.ExportStoryboard(ctx, id, "yaml")
	require.NoError(t, err)
	var decoded models.Storyboard
	require.NoError(t, yaml.Unmarshal([]byte(yamlExport.Content), &decoded))
	assert.Equal(t, id, decoded.ID)
	assert.Len(t, decoded.Shots, len(result.Storyboard.Shots))

	md, err := env.exports.ExportStoryboard(ctx, id, "md")
	require.NoError(t, err)
	assert.Equal(t, ExportMarkdown, md.Format)
	assert.Contains(t, md.Content, "# The Harbour - Storyboard")
	assert.Contains(t, md.Content, "| 1 | scene1_shot1 |")
	assert.Contains(t, md.Content, "## Transitions")

	stats := md.Stats
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.SceneCount)
	assert.Equal(t, len(result.Storyboard.Shots), stats.ShotCount)
	total := 0
	for _, n := range stats.ScaleDistribution {
		total += n
	}
	assert.Equal(t, stats.ShotCount, total)
}

func TestExportService_WritesFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.exports.ExportDir = filepath.Join(t.TempDir(), "exports")

	result, err := env.storyboards.Generate(ctx, testScreenplay("ep-1"), "")
	require.NoError(t, err)

	export, err := env.exports.ExportStoryboard(ctx, result.Storyboard.ID, "markdown")
	require.NoError(t, err)
	require.NotEmpty(t, export.FilePath)
	assert.Equal(t, ".md", filepath.Ext(export.FilePath))

	data, err := os.ReadFile(filepath.Join(env.exports.ExportDir, export.FilePath))
	require.NoError(t, err)
	assert.Equal(t, export.Content, string(data))
	assert.Equal(t, int64(len(data)), export.FileSize)
}

func TestExportService_Missing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.exports.ExportStoryboard(context.Background(), "missing", "json")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = env.exports.ExportStoryboard(context.Background(), "missing", "docx")
	assert.True(t, errors.IsValidationError(err))
}
