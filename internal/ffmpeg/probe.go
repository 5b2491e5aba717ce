package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"framesight/pkg/util"
)

// ProbeVideo extracts metadata from a video file
func (e *Executor) ProbeVideo(ctx context.Context, path string) (*VideoInfo, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info, err := probe.toVideoInfo(path)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// CountKeyframes counts the keyframes in a video. This scans the whole
// stream and can take a while on long files. When ffprobe fails or the
// output cannot be parsed, it falls back to the one-keyframe-per-3s
// estimate so callers always get a usable number.
func (e *Executor) CountKeyframes(ctx context.Context, path string) (int, error) {
	args := []string{
		"-v", "quiet",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		"-skip_frame", "nokey",
		path,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err == nil {
		if count, perr := strconv.Atoi(strings.TrimSpace(string(output))); perr == nil {
			return count, nil
		}
	}

	e.logger.Warn().Str("path", path).Msg("keyframe count failed, estimating from duration")

	info, err := e.ProbeVideo(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("keyframe count fallback probe failed: %w", err)
	}
	return int(info.Duration.Seconds() / 3), nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

func (p probeResult) toVideoInfo(path string) (*VideoInfo, error) {
	info := &VideoInfo{Path: path}

	if dur, err := strconv.ParseFloat(p.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(dur * float64(time.Second))
	}
	if size, err := strconv.ParseInt(p.Format.Size, 10, 64); err == nil {
		info.SizeBytes = size
	}

	found := false
	for _, stream := range p.Streams {
		switch stream.CodecType {
		case "video":
			if found {
				continue
			}
			found = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.Codec = stream.CodecName
			if stream.RFrameRate != "" {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}
		case "audio":
			info.HasAudio = true
		}
	}

	if !found {
		return nil, fmt.Errorf("no video stream found")
	}
	return info, nil
}
