// Package history persists analysis results as JSON, both as sidecar
// files next to the video and in a central history store.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"framesight/internal/planner"
)

// Record is one completed analysis.
type Record struct {
	ID string `json:"id"`

	// Video info
	VideoPath     string  `json:"video_path"`
	VideoName     string  `json:"video_name"`
	VideoDuration float64 `json:"video_duration"` // seconds
	VideoWidth    int     `json:"video_width"`
	VideoHeight   int     `json:"video_height"`
	VideoSizeMB   float64 `json:"video_size_mb"`

	// Extraction settings
	ExtractionMode     string  `json:"extraction_mode"` // "all-keyframes" | "interval"
	ExtractionInterval float64 `json:"extraction_interval,omitempty"`
	FrameCount         int     `json:"frame_count"`

	// AI analysis
	Provider string `json:"ai_provider"`
	Model    string `json:"ai_model,omitempty"`
	Prompt   string `json:"prompt_used"`
	Result   string `json:"analysis_result"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRecord creates a record with a fresh ID and timestamp.
func NewRecord() Record {
	return Record{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

// SetStrategy copies the extraction settings from a plan.
func (r *Record) SetStrategy(s planner.Strategy) {
	r.ExtractionMode = s.Mode().String()
	r.ExtractionInterval = s.Interval().Seconds()
}

// IntervalDescription renders the extraction settings for display.
func (r Record) IntervalDescription() string {
	switch {
	case r.ExtractionMode == planner.ModeAllKeyframes.String():
		return "all keyframes"
	case r.ExtractionInterval > 0:
		return fmt.Sprintf("every %ds", int(r.ExtractionInterval))
	default:
		return "unknown"
	}
}
