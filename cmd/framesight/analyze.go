package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"framesight/internal/config"
	"framesight/internal/pipeline"
)

var (
	analyzeInterval   time.Duration
	analyzePreset     string
	analyzeProvider   string
	analyzeModel      string
	analyzeLanguage   string
	analyzePrompt     string
	analyzeCountKeys  bool
	analyzeForce      bool
	analyzeNoSidecar  bool
	analyzeNoHistory  bool
	analyzeKeepFrames bool
	analyzeEmbed      bool
	analyzeJSON       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [video file or YouTube URL]",
	Short: "Extract frames and generate an AI summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		onProgress, finish := downloadProgressBar()
		opts := pipeline.AnalyzeOptions{
			Interval:         analyzeInterval,
			Preset:           analyzePreset,
			CountKeyframes:   analyzeCountKeys,
			Provider:         analyzeProvider,
			Model:            analyzeModel,
			Language:         analyzeLanguage,
			CustomPrompt:     analyzePrompt,
			Force:            analyzeForce,
			SaveSidecar:      !analyzeNoSidecar,
			SaveHistory:      !analyzeNoHistory,
			EmbedTags:        analyzeEmbed,
			KeepFrames:       analyzeKeepFrames,
			DownloadProgress: onProgress,
		}

		analysis, err := pipe.Analyze(cmd.Context(), args[0], opts)
		finish()
		if err != nil {
			return err
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(analysis.Record)
		}

		headerStyle := color.New(color.Bold, color.FgCyan)
		dimStyle := color.New(color.Faint)

		headerStyle.Printf("\n%s\n", analysis.Record.VideoName)
		dimStyle.Printf("%s, %d frames, ~%d tokens\n",
			analysis.Record.IntervalDescription(),
			analysis.Record.FrameCount,
			analysis.TokensUsed)
		if analysis.Warning != "" {
			color.New(color.FgYellow).Printf("warning: %s\n", analysis.Warning)
		}
		fmt.Printf("\n%s\n", analysis.Record.Result)
		if analysis.SidecarPath != "" {
			dimStyle.Printf("\nsaved: %s\n", analysis.SidecarPath)
		}
		return nil
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.DurationVar(&analyzeInterval, "interval", 0, "explicit frame interval (e.g. 5s), skips planning")
	f.StringVar(&analyzePreset, "preset", "", "frame preset (detailed, standard, brief, all keyframes, auto)")
	f.BoolVar(&analyzeCountKeys, "count-keyframes", false, "measure the keyframe count instead of estimating it")
	f.StringVar(&analyzeProvider, "provider", "", "AI provider (default from config)")
	f.StringVar(&analyzeModel, "model", "", "AI model (default from config)")
	f.StringVar(&analyzeLanguage, "language", "", "summary language (default from config)")
	f.StringVar(&analyzePrompt, "prompt", "", "extra instructions appended to the prompt")
	f.BoolVar(&analyzeForce, "force", false, "proceed even when the plan exceeds the provider's hard limit")
	f.BoolVar(&analyzeNoSidecar, "no-sidecar", false, "skip writing the .analysis.json sidecar")
	f.BoolVar(&analyzeNoHistory, "no-history", false, "skip the central history store")
	f.BoolVar(&analyzeKeepFrames, "keep-frames", false, "keep extracted frames in the cache")
	f.BoolVar(&analyzeEmbed, "embed", false, "embed the summary into the video's container metadata")
	f.BoolVar(&analyzeJSON, "json", false, "print the full record as JSON")
}
