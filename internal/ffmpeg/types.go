package ffmpeg

import "time"

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	Path      string
	Duration  time.Duration
	Width     int
	Height    int
	FPS       float64
	Codec     string
	SizeBytes int64
	HasAudio  bool
}

// SizeMB returns the file size in megabytes.
func (v VideoInfo) SizeMB() float64 {
	return float64(v.SizeBytes) / (1024 * 1024)
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
}

// ProgressFunc is a callback invoked periodically with progress
// information while an ffmpeg operation executes.
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// ExtractOptions configures frame extraction.
type ExtractOptions struct {
	OutputDir    string
	Interval     time.Duration // 0 extracts every keyframe
	MaxDimension int           // cap on frame width, 0 uses DefaultMaxDimension
	Quality      int           // JPEG quality 1-31 (lower is better), 0 uses DefaultJPEGQuality
	ProgressFunc ProgressFunc
}

// Frame is one extracted frame with its (possibly estimated) position
// in the source video.
type Frame struct {
	Path      string
	Timestamp time.Duration
}

// Frame extraction defaults, matching what the AI providers handle well.
const (
	DefaultMaxDimension = 1280
	DefaultJPEGQuality  = 2
)
