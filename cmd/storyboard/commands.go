// cmd/storyboard/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/models"
	"github.com/Corphon/StoryboardMCP/internal/platform"
	"github.com/Corphon/StoryboardMCP/internal/services"
	"github.com/Corphon/StoryboardMCP/internal/storyboard"
)

// writeOutput 写到 -o 指定的文件或 stdout
func writeOutput(cmd *cobra.Command, opts *cliOptions, content []byte) error {
	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(append(content, '\n'))
		return err
	}
	if err := os.WriteFile(opts.output, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	opts.logger.Info("Output written", map[string]interface{}{"path": opts.output, "bytes": len(content)})
	return nil
}

func writeJSON(cmd *cobra.Command, opts *cliOptions, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts, data)
}

func newGenerateCmd(opts *cliOptions) *cobra.Command {
	var (
		charactersPath string
		seed           int64
		format         string
		maxIterations  int
	)

	cmd := &cobra.Command{
		Use:   "generate <screenplay>",
		Short: "Generate a storyboard from a screenplay file",
		Long: `Classifies each scene, plans shots, selects transitions, repairs
low-quality transitions and analyzes flow. The result is written as
json (full result), yaml (storyboard only) or markdown (shot list).

Example:
  storyboard generate episode1.yaml --characters cast.yaml --seed 42 -f md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sp, err := loadScreenplay(args[0])
			if err != nil {
				return err
			}
			registry, err := loadCharacters(charactersPath)
			if err != nil {
				return err
			}

			engine := config.DefaultEngineConfig()
			engine.QualityThreshold = opts.threshold
			engine.MaxRepairIterations = maxIterations
			engine.Seed = seed
			if err := engine.Validate(); err != nil {
				return err
			}
			if engine.Seed == 0 {
				engine.Seed = time.Now().UnixNano()
			}

			start := time.Now()
			result := storyboard.NewCreator(registry, storyboard.Options{
				Angles:              storyboard.NewSeededAngles(engine.Seed),
				QualityThreshold:    engine.QualityThreshold,
				MaxRepairIterations: engine.MaxRepairIterations,
			}).CreateStoryboard(sp)

			opts.logger.Info("Storyboard generated", map[string]interface{}{
				"episode_id":    sp.EpisodeID,
				"seed":          engine.Seed,
				"shots":         len(result.Storyboard.Shots),
				"transitions":   len(result.Storyboard.Transitions),
				"repaired":      result.Quality.RepairedCount,
				"average_score": result.Quality.AverageScore,
				"elapsed_ms":    time.Since(start).Milliseconds(),
			})

			export, err := services.NewExportService(nil, "").Render(result, format)
			if err != nil {
				return err
			}
			return writeOutput(cmd, opts, []byte(export.Content))
		},
	}

	engine := config.DefaultEngineConfig()
	cmd.Flags().StringVarP(&charactersPath, "characters", "c", "", "Character profiles file (list of profiles)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Angle selection seed (0 = time based)")
	cmd.Flags().StringVarP(&format, "format", "f", services.ExportJSON, "Output format: json, yaml, markdown")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", engine.MaxRepairIterations, "Maximum transition repair passes")
	return cmd
}

func newFormatCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "format <storyboard>",
		Short: "Convert a storyboard into a platform request payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sb, err := loadStoryboard(args[0])
			if err != nil {
				return err
			}
			payload, err := platform.NewRegistry().Format(sb, opts.platform)
			if err != nil {
				return err
			}
			for _, note := range payload.Notes {
				opts.logger.Warn("Platform adjustment", map[string]interface{}{"platform": payload.Platform, "note": note})
			}
			return writeJSON(cmd, opts, payload)
		},
	}
}

// validationReport validate 子命令的输出
type validationReport struct {
	StoryboardID  string                      `json:"storyboard_id"`
	Quality       models.StoryboardQuality    `json:"quality"`
	Flow          models.FlowReport           `json:"flow"`
	Compatibility *models.CompatibilityReport `json:"compatibility,omitempty"`
}

func newValidateCmd(opts *cliOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <storyboard>",
		Short: "Re-score transitions, analyze flow and check platform compatibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sb, err := loadStoryboard(args[0])
			if err != nil {
				return err
			}

			report := validationReport{
				StoryboardID: sb.ID,
				Quality:      storyboard.Revalidate(sb, opts.threshold),
				Flow:         storyboard.AnalyzeFlow(sb),
			}
			if opts.platform != "" {
				compat, err := platform.NewRegistry().ValidateCompatibility(sb, opts.platform)
				if err != nil {
					return err
				}
				report.Compatibility = &compat
			}
			if err := writeJSON(cmd, opts, report); err != nil {
				return err
			}

			if strict {
				if report.Quality.LowQualityCount > 0 {
					return fmt.Errorf("%d transitions below quality threshold %d", report.Quality.LowQualityCount, opts.threshold)
				}
				if report.Compatibility != nil && !report.Compatibility.Compatible {
					return fmt.Errorf("storyboard is not compatible with %s", opts.platform)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero on low-quality transitions or incompatibility")
	return cmd
}

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported video generation platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPlatforms(cmd.OutOrStdout(), platform.NewRegistry())
		},
	}
}

func printPlatforms(w io.Writer, registry *platform.Registry) error {
	for _, id := range registry.Platforms() {
		p, err := registry.Get(id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%-10s max shot %.0fs\n", id, p.MaxDuration()); err != nil {
			return err
		}
	}
	return nil
}
