package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"framesight/pkg/util"
)

// AnalysisTags is the analysis summary embedded into a video container.
type AnalysisTags struct {
	ID       string
	Date     string // YYYY-MM-DD
	Provider string
	Summary  string
}

const maxEmbeddedSummaryLen = 250

// WriteAnalysisTags remuxes a video with the analysis embedded in its
// container metadata. MKV takes custom tags; MP4 and friends only carry
// the standard comment/description fields reliably. With an empty
// outputPath the original is replaced via a temp file.
func (e *Executor) WriteAnalysisTags(ctx context.Context, videoPath, outputPath string, tags AnalysisTags) error {
	if !util.FileExists(videoPath) {
		return fmt.Errorf("video not found: %s", videoPath)
	}

	replaceOriginal := outputPath == ""
	target := outputPath
	if replaceOriginal {
		ext := filepath.Ext(videoPath)
		target = strings.TrimSuffix(videoPath, ext) + ".tagged" + ext
	}

	summary := tags.Summary
	if len([]rune(summary)) > maxEmbeddedSummaryLen {
		summary = string([]rune(summary)[:maxEmbeddedSummaryLen]) + "..."
	}
	summary = strings.ReplaceAll(summary, `"`, "'")
	summary = strings.ReplaceAll(summary, "\n", " ")

	var metadataArgs []string
	if strings.EqualFold(filepath.Ext(videoPath), ".mkv") {
		metadataArgs = []string{
			"-metadata", "ANALYSIS_ID=" + tags.ID,
			"-metadata", "ANALYSIS_DATE=" + tags.Date,
			"-metadata", "ANALYSIS_PROVIDER=" + tags.Provider,
			"-metadata", "ANALYSIS_SUMMARY=" + summary,
		}
	} else {
		metadataArgs = []string{
			"-metadata", "comment=AI Analysis: " + tags.ID,
			"-metadata", "description=" + summary,
		}
	}

	args := []string{"-i", videoPath, "-c", "copy", "-map", "0"}
	args = append(args, metadataArgs...)
	args = append(args, target)

	err := e.Run(ctx, RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("metadata remux")
		},
	})
	if err != nil {
		util.CleanupFiles(target)
		return fmt.Errorf("metadata remux failed: %w", err)
	}

	if replaceOriginal {
		if err := os.Rename(target, videoPath); err != nil {
			util.CleanupFiles(target)
			return fmt.Errorf("failed to replace original: %w", err)
		}
	}

	e.logger.Info().Str("video", videoPath).Msg("analysis metadata embedded")
	return nil
}
