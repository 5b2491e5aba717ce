package main

import (
	"fmt"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"framesight/internal/config"
	"framesight/internal/pipeline"
	"framesight/internal/youtube"
)

var downloadCmd = &cobra.Command{
	Use:   "download [YouTube URL]",
	Short: "Download a YouTube video into the download directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !youtube.IsYouTubeURL(args[0]) {
			return fmt.Errorf("not a YouTube URL: %s", args[0])
		}
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		onProgress, finish := downloadProgressBar()
		res, err := pipe.Download(cmd.Context(), args[0], onProgress)
		finish()
		if err != nil {
			return err
		}

		color.New(color.FgGreen).Printf("downloaded: %s\n", res.Path)
		return nil
	},
}

// downloadProgressBar returns a progress callback rendering an mpb bar
// and a finish func that completes it. The bar is created lazily so
// local-file runs never show one.
func downloadProgressBar() (youtube.ProgressFunc, func()) {
	const total = 1000 // tenths of a percent

	var (
		mu      sync.Mutex
		barOnce sync.Once
		p       *mpb.Progress
		bar     *mpb.Bar

		statMu sync.Mutex
		last   youtube.Progress
	)

	onProgress := func(pr youtube.Progress) {
		statMu.Lock()
		last = pr
		statMu.Unlock()

		barOnce.Do(func() {
			p = mpb.New(mpb.WithWidth(50))
			bar = p.New(total, mpb.BarStyle(),
				mpb.PrependDecorators(
					decor.Name("downloading "),
					decor.Percentage(),
				),
				mpb.AppendDecorators(
					decor.Any(func(decor.Statistics) string {
						statMu.Lock()
						defer statMu.Unlock()
						if last.Speed == "" {
							return ""
						}
						return fmt.Sprintf("%s ETA %s", last.Speed, last.ETA)
					}),
				),
			)
		})

		mu.Lock()
		bar.SetCurrent(int64(pr.Percent * 10))
		mu.Unlock()
	}

	finish := func() {
		mu.Lock()
		defer mu.Unlock()
		if p == nil {
			return
		}
		bar.SetCurrent(total)
		p.Wait()
	}

	return onProgress, finish
}
