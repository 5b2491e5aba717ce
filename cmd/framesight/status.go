package main

import (
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"framesight/internal/config"
	"framesight/internal/youtube"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check which external tools are installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		okStyle := color.New(color.FgGreen)
		missingStyle := color.New(color.FgRed)

		checks := []struct {
			name     string
			required bool
			found    bool
		}{
			{"ffmpeg", true, binaryFound(cfg.FFmpeg.FFmpegPath, "ffmpeg")},
			{"ffprobe", true, binaryFound(cfg.FFmpeg.FFprobePath, "ffprobe")},
			{"gemini", true, binaryFound("", "gemini")},
			{"yt-dlp", false, ytDlpFound()},
		}

		color.New(color.Bold, color.FgCyan).Println("External tools:")
		for _, c := range checks {
			req := "(optional)"
			if c.required {
				req = "(required)"
			}
			if c.found {
				okStyle.Printf("  %-8s installed  %s\n", c.name, req)
			} else {
				missingStyle.Printf("  %-8s missing    %s\n", c.name, req)
			}
		}
		return nil
	},
}

// binaryFound checks the configured path when set, the default name
// otherwise.
func binaryFound(configured, fallback string) bool {
	name := configured
	if name == "" {
		name = fallback
	}
	_, err := exec.LookPath(name)
	return err == nil
}

func ytDlpFound() bool {
	_, err := youtube.Command()
	return err == nil
}
