// Package planner decides how densely to sample frames from a video so
// the resulting image count fits an AI provider's context budget.
package planner

import (
	"fmt"
	"time"
)

// Mode selects between the two sampling policies.
type Mode int

const (
	// ModeAllKeyframes extracts every keyframe in the video.
	ModeAllKeyframes Mode = iota
	// ModeInterval extracts one frame per fixed time interval.
	ModeInterval
)

func (m Mode) String() string {
	switch m {
	case ModeAllKeyframes:
		return "all-keyframes"
	case ModeInterval:
		return "interval"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ProviderLimits describes one AI provider's image budget.
type ProviderLimits struct {
	MaxImages         int     // hard ceiling the provider's API accepts
	RecommendedImages int     // soft ceiling used for planning
	MaxImageSizeMB    float64 // advisory only, not enforced here
	TokensPerImage    int     // approximate fixed per-image token cost
	Description       string
}

// mustBeValid panics when the limits violate the caller contract.
// Invalid limits indicate a bug in the calling layer, not a runtime
// condition to recover from.
func (l ProviderLimits) mustBeValid() {
	if l.MaxImages <= 0 {
		panic(fmt.Sprintf("planner: max images must be positive, got %d", l.MaxImages))
	}
	if l.RecommendedImages <= 0 {
		panic(fmt.Sprintf("planner: recommended images must be positive, got %d", l.RecommendedImages))
	}
	if l.RecommendedImages > l.MaxImages {
		panic(fmt.Sprintf("planner: recommended images %d exceeds max images %d",
			l.RecommendedImages, l.MaxImages))
	}
	if l.TokensPerImage <= 0 {
		panic(fmt.Sprintf("planner: tokens per image must be positive, got %d", l.TokensPerImage))
	}
}

// Strategy is an extraction plan. It is constructed only through
// AllKeyframes and EveryInterval, which keeps the mode/interval pairing
// consistent: the interval is zero exactly when the mode is
// ModeAllKeyframes.
type Strategy struct {
	mode            Mode
	interval        time.Duration
	estimatedFrames int
	description     string
}

// AllKeyframes builds a strategy that extracts every keyframe.
func AllKeyframes(estimatedFrames int) Strategy {
	if estimatedFrames < 0 {
		panic(fmt.Sprintf("planner: estimated frame count must be non-negative, got %d", estimatedFrames))
	}
	return Strategy{
		mode:            ModeAllKeyframes,
		estimatedFrames: estimatedFrames,
		description:     fmt.Sprintf("All keyframes (about %d frames)", estimatedFrames),
	}
}

// EveryInterval builds a strategy that extracts one frame every interval.
func EveryInterval(interval time.Duration, estimatedFrames int) Strategy {
	if interval <= 0 {
		panic(fmt.Sprintf("planner: interval must be positive, got %v", interval))
	}
	if estimatedFrames < 0 {
		panic(fmt.Sprintf("planner: estimated frame count must be non-negative, got %d", estimatedFrames))
	}
	return Strategy{
		mode:            ModeInterval,
		interval:        interval,
		estimatedFrames: estimatedFrames,
		description: fmt.Sprintf("Every %ds (about %d frames)",
			int(interval.Seconds()), estimatedFrames),
	}
}

// Mode returns the sampling policy.
func (s Strategy) Mode() Mode { return s.mode }

// Interval returns the sampling interval. Zero iff Mode is ModeAllKeyframes.
func (s Strategy) Interval() time.Duration { return s.interval }

// EstimatedFrames returns the forecast frame count. The exact count is
// only known after extraction runs.
func (s Strategy) EstimatedFrames() int { return s.estimatedFrames }

// Description returns a human-readable summary of the plan.
func (s Strategy) Description() string { return s.description }

// IsAllKeyframes reports whether the strategy extracts every keyframe.
func (s Strategy) IsAllKeyframes() bool { return s.mode == ModeAllKeyframes }

// DefaultKeyframeRate is the assumed keyframe density for encoded video:
// about one keyframe every 3 seconds. Real density is content-dependent
// and unknowable without a full scan, so this is a calibrated guess used
// only to decide whether extracting all keyframes fits the budget.
const DefaultKeyframeRate = 1.0 / 3.0

const (
	minSampleInterval = time.Second
	maxSampleInterval = time.Minute
)

// niceIntervals are the allowed sampling intervals, ascending. Snapping
// to these keeps the plan legible ("every 15s", not "every 17.3s").
var niceIntervals = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	3 * time.Second,
	5 * time.Second,
	10 * time.Second,
	15 * time.Second,
	20 * time.Second,
	30 * time.Second,
	60 * time.Second,
}

// Planner computes extraction strategies. It is stateless apart from the
// keyframe-rate heuristic and safe for concurrent use.
type Planner struct {
	keyframesPerSecond float64
}

// New creates a planner with the default keyframe-density heuristic.
func New() *Planner {
	return NewWithKeyframeRate(DefaultKeyframeRate)
}

// NewWithKeyframeRate creates a planner with a calibrated keyframe
// density in keyframes per second.
func NewWithKeyframeRate(rate float64) *Planner {
	if rate <= 0 {
		panic(fmt.Sprintf("planner: keyframe rate must be positive, got %f", rate))
	}
	return &Planner{keyframesPerSecond: rate}
}

// EstimateKeyframes forecasts how many keyframes a video of the given
// duration contains.
func (p *Planner) EstimateKeyframes(duration time.Duration) int {
	mustBeNonNegative(duration)
	return int(duration.Seconds() * p.keyframesPerSecond)
}

// Plan picks an extraction strategy for the given duration and provider
// limits, estimating the keyframe count from duration.
func (p *Planner) Plan(duration time.Duration, limits ProviderLimits) Strategy {
	return p.PlanWithKeyframeCount(duration, limits, p.EstimateKeyframes(duration))
}

// PlanWithKeyframeCount is Plan with a keyframe count the caller already
// measured (e.g. via ffprobe), bypassing the density heuristic.
func (p *Planner) PlanWithKeyframeCount(duration time.Duration, limits ProviderLimits, keyframes int) Strategy {
	mustBeNonNegative(duration)
	limits.mustBeValid()

	// Preferred path: every keyframe already fits the soft budget.
	if keyframes <= limits.RecommendedImages {
		return AllKeyframes(keyframes)
	}

	// Spread exactly RecommendedImages frames over the video, then make
	// the interval legible. Never denser than 1s (diminishing AI value)
	// nor sparser than 60s (loses narrative continuity).
	ideal := time.Duration(float64(duration) / float64(limits.RecommendedImages))
	if ideal < minSampleInterval {
		ideal = minSampleInterval
	}
	if ideal > maxSampleInterval {
		ideal = maxSampleInterval
	}
	interval := snapInterval(ideal)

	return EveryInterval(interval, int(duration/interval))
}

// snapInterval picks the nearest nice interval by absolute difference.
// Exact ties resolve to the smaller candidate (first minimum in
// ascending order).
func snapInterval(ideal time.Duration) time.Duration {
	best := niceIntervals[0]
	bestDiff := absDuration(ideal - best)
	for _, candidate := range niceIntervals[1:] {
		diff := absDuration(ideal - candidate)
		if diff < bestDiff {
			best = candidate
			bestDiff = diff
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func mustBeNonNegative(d time.Duration) {
	if d < 0 {
		panic(fmt.Sprintf("planner: duration must be non-negative, got %v", d))
	}
}

// Validate checks a strategy against provider limits. It is advisory:
// an over-budget strategy is reported, never rejected, and the caller
// decides whether to proceed, re-plan, or ask the user.
func Validate(s Strategy, limits ProviderLimits) (bool, string) {
	limits.mustBeValid()

	if s.estimatedFrames > limits.MaxImages {
		return false, fmt.Sprintf("frame count %d exceeds the provider maximum of %d images",
			s.estimatedFrames, limits.MaxImages)
	}
	if s.estimatedFrames > limits.RecommendedImages {
		return true, fmt.Sprintf("frame count %d exceeds the recommended %d images; token usage will be higher",
			s.estimatedFrames, limits.RecommendedImages)
	}
	return true, fmt.Sprintf("frame count %d is within the normal range", s.estimatedFrames)
}

// EstimateTokens forecasts the token cost of sending frameCount images
// to the provider.
func EstimateTokens(frameCount int, limits ProviderLimits) int {
	limits.mustBeValid()
	if frameCount < 0 {
		panic(fmt.Sprintf("planner: frame count must be non-negative, got %d", frameCount))
	}
	return frameCount * limits.TokensPerImage
}

// Preset is a labeled strategy offered as a menu entry.
type Preset struct {
	Label    string
	Strategy Strategy
}

// Preset labels. PresetAuto is always present; the rest are gated on a
// minimum duration so near-empty plans are not offered.
const (
	PresetDetailed     = "detailed (2s interval)"
	PresetStandard     = "standard (5s interval)"
	PresetBrief        = "brief (10s interval)"
	PresetAllKeyframes = "all keyframes"
	PresetAuto         = "auto (recommended)"
)

// Presets enumerates the human-selectable strategies for the given
// duration. The auto entry is last in the slice; callers conventionally
// surface it first.
func (p *Planner) Presets(duration time.Duration, limits ProviderLimits) []Preset {
	mustBeNonNegative(duration)
	limits.mustBeValid()

	var presets []Preset

	fixed := []struct {
		label       string
		interval    time.Duration
		minDuration time.Duration
	}{
		{PresetDetailed, 2 * time.Second, 4 * time.Second},   // at least 2 frames
		{PresetStandard, 5 * time.Second, 10 * time.Second},
		{PresetBrief, 10 * time.Second, 20 * time.Second},
	}
	for _, f := range fixed {
		if duration >= f.minDuration {
			presets = append(presets, Preset{
				Label:    f.label,
				Strategy: EveryInterval(f.interval, int(duration/f.interval)),
			})
		}
	}

	// All-keyframes preset is gated on the hard ceiling, unlike Plan
	// which compares against the recommendation.
	if keyframes := p.EstimateKeyframes(duration); keyframes <= limits.MaxImages {
		presets = append(presets, Preset{
			Label:    PresetAllKeyframes,
			Strategy: AllKeyframes(keyframes),
		})
	}

	presets = append(presets, Preset{
		Label:    PresetAuto,
		Strategy: p.Plan(duration, limits),
	})

	return presets
}
