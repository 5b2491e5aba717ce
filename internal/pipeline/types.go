package pipeline

import (
	"time"

	"framesight/internal/ffmpeg"
	"framesight/internal/history"
	"framesight/internal/planner"
	"framesight/internal/youtube"
)

// AnalyzeOptions configures one analysis run.
type AnalyzeOptions struct {
	// Strategy selection, strongest first: an explicit Interval wins,
	// then a Preset label, then the automatic plan.
	Interval time.Duration
	Preset   string

	// CountKeyframes measures the keyframe count with ffprobe instead
	// of estimating it from duration. Slower but exact.
	CountKeyframes bool

	Provider     string // empty uses the configured default
	Model        string
	Language     string
	CustomPrompt string

	// Force proceeds even when the plan exceeds the provider's hard
	// image limit.
	Force bool

	SaveSidecar bool
	SaveHistory bool
	EmbedTags   bool // remux the analysis into the video's metadata
	KeepFrames  bool // skip the post-analysis cache cleanup

	DownloadProgress youtube.ProgressFunc
}

// Analysis is a completed run.
type Analysis struct {
	Record      history.Record
	Strategy    planner.Strategy
	Info        *ffmpeg.VideoInfo
	TokensUsed  int    // estimated, not measured
	Warning     string // set when the plan exceeded the soft limit
	SidecarPath string
}

// PlanReport previews the extraction options for a video without
// running anything.
type PlanReport struct {
	Info    *ffmpeg.VideoInfo
	Limits  planner.ProviderLimits
	Presets []planner.Preset
	Auto    planner.Strategy
}
