package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"framesight/internal/config"
	"framesight/internal/pipeline"
	"framesight/internal/planner"
	"framesight/pkg/util"
)

var planProvider string

var planCmd = &cobra.Command{
	Use:   "plan [video file]",
	Short: "Preview the frame extraction options without running anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		report, err := pipe.Preview(cmd.Context(), args[0], planProvider)
		if err != nil {
			return err
		}

		headerStyle := color.New(color.Bold, color.FgCyan)
		valueStyle := color.New(color.Bold)
		dimStyle := color.New(color.Faint)

		headerStyle.Printf("\n%s\n", report.Info.Path)
		fmt.Printf("  duration: ")
		valueStyle.Printf("%s\n", util.HumanDuration(report.Info.Duration))
		fmt.Printf("  resolution: ")
		valueStyle.Printf("%dx%d @ %.2f fps\n", report.Info.Width, report.Info.Height, report.Info.FPS)
		fmt.Printf("  size: ")
		valueStyle.Printf("%.1f MB (%s)\n", report.Info.SizeMB(), report.Info.Codec)

		headerStyle.Printf("\nFrame presets (%s):\n", report.Limits.Description)

		// Auto first, then the fixed presets.
		ordered := make([]planner.Preset, 0, len(report.Presets))
		for _, p := range report.Presets {
			if p.Label == planner.PresetAuto {
				ordered = append(ordered, p)
			}
		}
		for _, p := range report.Presets {
			if p.Label != planner.PresetAuto {
				ordered = append(ordered, p)
			}
		}

		for _, p := range ordered {
			frames := p.Strategy.EstimatedFrames()
			tokens := planner.EstimateTokens(frames, report.Limits)
			fmt.Printf("  %-24s", p.Label)
			valueStyle.Printf("%5d frames", frames)
			dimStyle.Printf("  ~%d tokens", tokens)
			if ok, msg := planner.Validate(p.Strategy, report.Limits); !ok {
				color.New(color.FgYellow).Printf("  (%s)", msg)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planProvider, "provider", "", "AI provider to plan for (default from config)")
}
