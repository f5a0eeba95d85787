// cmd/storyboard/root.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/Corphon/StoryboardMCP/internal/config"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

// cliOptions 所有子命令共享的参数
type cliOptions struct {
	logLevel  string
	output    string
	threshold int
	platform  string

	logger *utils.Logger
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "storyboard",
		Short: "Storyboard synthesis from structured screenplays",
		Long: `storyboard turns a structured screenplay into a shot-by-shot storyboard
with camera, framing, transitions and image prompts, then formats it for
video generation platforms.

Input files may be YAML or JSON (chosen by file extension).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 日志写到 stderr，stdout 只留给结果
			opts.logger = utils.NewLogger(cmd.ErrOrStderr(), utils.ParseLogLevel(opts.logLevel))
			return nil
		},
	}

	engine := config.DefaultEngineConfig()
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warning", "Log level (debug, info, warning, error)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "Write result to file instead of stdout")
	root.PersistentFlags().IntVar(&opts.threshold, "threshold", engine.QualityThreshold, "Transition quality threshold (1-100)")
	root.PersistentFlags().StringVarP(&opts.platform, "platform", "p", engine.DefaultPlatform, "Video generation platform")

	root.AddCommand(
		newGenerateCmd(opts),
		newFormatCmd(opts),
		newValidateCmd(opts),
		newPlatformsCmd(),
	)
	return root
}
