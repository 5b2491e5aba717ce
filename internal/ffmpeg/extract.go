package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"framesight/pkg/util"
)

const framePattern = "frame_%04d.jpg"

// ExtractFrames pulls frames from a video into opts.OutputDir as
// numbered JPEGs. With a positive Interval one frame is sampled per
// interval; otherwise every keyframe is extracted. Returns the frame
// paths in playback order.
func (e *Executor) ExtractFrames(ctx context.Context, input string, opts ExtractOptions) ([]string, error) {
	if input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if !util.FileExists(input) {
		return nil, fmt.Errorf("video not found: %s", input)
	}

	if err := util.EnsureDir(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	quality := opts.Quality
	if quality == 0 {
		quality = DefaultJPEGQuality
	}

	e.logger.Info().
		Str("input", input).
		Str("output_dir", opts.OutputDir).
		Dur("interval", opts.Interval).
		Msg("extracting frames")

	args := []string{
		"-i", input,
		"-vf", buildExtractFilter(opts.Interval, opts.MaxDimension),
		"-vsync", "vfr",
		"-q:v", fmt.Sprintf("%d", quality),
		filepath.Join(opts.OutputDir, framePattern),
	}

	runErr := e.Run(ctx, RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("frame extraction")
		},
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	frames, globErr := listFrames(opts.OutputDir)
	if globErr != nil {
		return nil, globErr
	}

	// ffmpeg sometimes exits nonzero after writing usable frames
	// (trailing corrupt packets and the like), so a nonzero exit is
	// only fatal when nothing was produced.
	if len(frames) == 0 {
		if runErr != nil {
			return nil, fmt.Errorf("frame extraction failed: %w", runErr)
		}
		return nil, fmt.Errorf("frame extraction produced no frames")
	}
	if runErr != nil {
		e.logger.Warn().Err(runErr).Int("frames", len(frames)).
			Msg("ffmpeg exited nonzero but frames were written")
	}

	e.logger.Info().Int("frames", len(frames)).Msg("frame extraction complete")
	return frames, nil
}

// ExtractFramesWithTimestamps extracts frames and pairs each with its
// position in the video. Interval-mode timestamps are exact multiples;
// keyframe-mode timestamps are evenly spread estimates, since actual
// keyframe positions are not recoverable from the output filenames.
func (e *Executor) ExtractFramesWithTimestamps(ctx context.Context, input string, opts ExtractOptions) ([]Frame, error) {
	paths, err := e.ExtractFrames(ctx, input, opts)
	if err != nil {
		return nil, err
	}

	step := opts.Interval
	if step <= 0 {
		info, err := e.ProbeVideo(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to probe for timestamps: %w", err)
		}
		step = info.Duration / time.Duration(len(paths))
	}

	frames := make([]Frame, len(paths))
	for i, p := range paths {
		frames[i] = Frame{Path: p, Timestamp: time.Duration(i) * step}
	}
	return frames, nil
}

// buildExtractFilter assembles the -vf expression: the sampling policy
// followed by a scale cap that keeps the aspect ratio and an even height.
func buildExtractFilter(interval time.Duration, maxDimension int) string {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	scale := fmt.Sprintf("scale='min(%d,iw):-2'", maxDimension)

	if interval > 0 {
		return fmt.Sprintf("fps=1/%g,%s", interval.Seconds(), scale)
	}
	return fmt.Sprintf("select='eq(pict_type,I)',%s", scale)
}

func listFrames(dir string) ([]string, error) {
	frames, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	sort.Strings(frames)
	return frames, nil
}
