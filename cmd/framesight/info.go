package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"framesight/internal/config"
	"framesight/internal/history"
	"framesight/internal/pipeline"
	"framesight/pkg/util"
)

var infoCmd = &cobra.Command{
	Use:   "info [video file]",
	Short: "Show video details and any saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		info, err := pipe.FFmpeg().ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		headerStyle := color.New(color.Bold, color.FgCyan)
		valueStyle := color.New(color.Bold)

		headerStyle.Printf("\n%s\n", info.Path)
		fmt.Printf("  duration: ")
		valueStyle.Printf("%s\n", util.HumanDuration(info.Duration))
		fmt.Printf("  resolution: ")
		valueStyle.Printf("%dx%d @ %.2f fps\n", info.Width, info.Height, info.FPS)
		fmt.Printf("  codec: ")
		valueStyle.Printf("%s\n", info.Codec)
		fmt.Printf("  size: ")
		valueStyle.Printf("%.1f MB\n", info.SizeMB())
		fmt.Printf("  audio: ")
		valueStyle.Printf("%v\n", info.HasAudio)

		rec, err := pipe.History().LoadSidecar(args[0])
		switch {
		case errors.Is(err, history.ErrNotFound):
			color.New(color.Faint).Println("\nno saved analysis")
		case err != nil:
			return err
		default:
			headerStyle.Printf("\nSaved analysis (%s, %s):\n", rec.Provider, rec.CreatedAt.Format("2006-01-02"))
			fmt.Printf("%s\n", rec.Result)
		}
		return nil
	},
}
