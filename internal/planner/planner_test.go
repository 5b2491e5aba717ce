package planner

import (
	"strings"
	"testing"
	"time"
)

// geminiLimits matches the built-in Gemini entry; kept local so tests
// inject their own limits instead of depending on the registry.
var geminiLimits = ProviderLimits{
	MaxImages:         3600,
	RecommendedImages: 200,
	MaxImageSizeMB:    100.0,
	TokensPerImage:    258,
	Description:       "test gemini",
}

var claudeLimits = ProviderLimits{
	MaxImages:         100,
	RecommendedImages: 80,
	MaxImageSizeMB:    5.0,
	TokensPerImage:    1500,
	Description:       "test claude",
}

func TestEstimateKeyframes(t *testing.T) {
	p := New()

	cases := []struct {
		duration time.Duration
		want     int
	}{
		{0, 0},
		{1 * time.Second, 0},
		{3 * time.Second, 1},
		{300 * time.Second, 100},
		{3600 * time.Second, 1200},
	}

	for _, c := range cases {
		if got := p.EstimateKeyframes(c.duration); got != c.want {
			t.Errorf("EstimateKeyframes(%v) = %d, want %d", c.duration, got, c.want)
		}
	}
}

func TestEstimateKeyframesCalibratedRate(t *testing.T) {
	// One keyframe every 10 seconds.
	p := NewWithKeyframeRate(0.1)
	if got := p.EstimateKeyframes(300 * time.Second); got != 30 {
		t.Errorf("EstimateKeyframes(300s) = %d, want 30", got)
	}
}

func TestPlanShortVideoKeepsAllKeyframes(t *testing.T) {
	p := New()

	// 5 minutes -> ~100 keyframes, within Gemini's recommended 200.
	s := p.Plan(300*time.Second, geminiLimits)

	if !s.IsAllKeyframes() {
		t.Fatalf("expected all-keyframes mode, got %v", s.Mode())
	}
	if s.Interval() != 0 {
		t.Errorf("all-keyframes strategy must have zero interval, got %v", s.Interval())
	}
	if s.EstimatedFrames() != 100 {
		t.Errorf("expected 100 estimated frames, got %d", s.EstimatedFrames())
	}
}

func TestPlanLongVideoSamplesAtInterval(t *testing.T) {
	p := New()

	// 1 hour -> ~1200 keyframes, over budget. Ideal interval is
	// 3600/200 = 18s, which snaps to 20s (|18-20| < |18-15|).
	s := p.Plan(time.Hour, geminiLimits)

	if s.Mode() != ModeInterval {
		t.Fatalf("expected interval mode, got %v", s.Mode())
	}
	if s.Interval() != 20*time.Second {
		t.Errorf("expected 20s interval, got %v", s.Interval())
	}
	if s.EstimatedFrames() != 180 {
		t.Errorf("expected 180 estimated frames, got %d", s.EstimatedFrames())
	}
}

func TestPlanClaudeShortClip(t *testing.T) {
	p := New()

	// 10 seconds -> ~3 keyframes, well within Claude's 80.
	s := p.Plan(10*time.Second, claudeLimits)

	if !s.IsAllKeyframes() {
		t.Fatalf("expected all-keyframes mode, got %v", s.Mode())
	}
	if s.EstimatedFrames() != 3 {
		t.Errorf("expected 3 estimated frames, got %d", s.EstimatedFrames())
	}
}

func TestPlanZeroDuration(t *testing.T) {
	p := New()

	s := p.Plan(0, geminiLimits)

	if !s.IsAllKeyframes() {
		t.Fatalf("expected all-keyframes mode for empty video, got %v", s.Mode())
	}
	if s.EstimatedFrames() != 0 {
		t.Errorf("expected 0 estimated frames, got %d", s.EstimatedFrames())
	}
}

func TestPlanWithMeasuredKeyframeCount(t *testing.T) {
	p := New()

	// A 10-minute screen recording can carry far fewer keyframes than
	// the heuristic assumes; a measured count bypasses the guess.
	s := p.PlanWithKeyframeCount(600*time.Second, geminiLimits, 42)

	if !s.IsAllKeyframes() {
		t.Fatalf("expected all-keyframes mode, got %v", s.Mode())
	}
	if s.EstimatedFrames() != 42 {
		t.Errorf("expected 42 estimated frames, got %d", s.EstimatedFrames())
	}

	// And a measured count over budget forces interval sampling even
	// when the heuristic would not.
	s = p.PlanWithKeyframeCount(600*time.Second, geminiLimits, 500)
	if s.Mode() != ModeInterval {
		t.Errorf("expected interval mode for over-budget measured count, got %v", s.Mode())
	}
}

func TestPlanIntervalClamped(t *testing.T) {
	p := New()

	// 10 hours with a tiny budget: ideal interval 36000/10 = 3600s,
	// clamped to 60s.
	tiny := ProviderLimits{MaxImages: 100, RecommendedImages: 10, TokensPerImage: 100}
	s := p.Plan(10*time.Hour, tiny)

	if s.Interval() != 60*time.Second {
		t.Errorf("expected interval clamped to 60s, got %v", s.Interval())
	}

	// Huge budget with an over-budget keyframe count: ideal interval
	// under 1s clamps up to 1s.
	s = p.PlanWithKeyframeCount(30*time.Second, ProviderLimits{
		MaxImages: 10000, RecommendedImages: 5000, TokensPerImage: 1,
	}, 6000)
	if s.Interval() != time.Second {
		t.Errorf("expected interval clamped to 1s, got %v", s.Interval())
	}
}

func TestSnapInterval(t *testing.T) {
	cases := []struct {
		ideal time.Duration
		want  time.Duration
	}{
		{1 * time.Second, 1 * time.Second},
		{1400 * time.Millisecond, 1 * time.Second},
		{4 * time.Second, 3 * time.Second},   // tie between 3 and 5, smaller wins
		{7 * time.Second, 5 * time.Second},
		{12 * time.Second, 10 * time.Second},
		{18 * time.Second, 20 * time.Second},
		{17500 * time.Millisecond, 15 * time.Second}, // exact tie favors smaller
		{25 * time.Second, 20 * time.Second},         // tie between 20 and 30, smaller wins
		{59 * time.Second, 60 * time.Second},
		{60 * time.Second, 60 * time.Second},
	}

	for _, c := range cases {
		if got := snapInterval(c.ideal); got != c.want {
			t.Errorf("snapInterval(%v) = %v, want %v", c.ideal, got, c.want)
		}
	}
}

func TestPlanIntervalAlwaysFromNiceSet(t *testing.T) {
	p := New()

	allowed := map[time.Duration]bool{}
	for _, iv := range niceIntervals {
		allowed[iv] = true
	}

	for d := time.Duration(0); d <= 6*time.Hour; d += 97 * time.Second {
		s := p.Plan(d, geminiLimits)
		if s.Mode() != ModeInterval {
			continue
		}
		if !allowed[s.Interval()] {
			t.Fatalf("Plan(%v) produced interval %v outside the nice set", d, s.Interval())
		}
	}
}

func TestPlanNeverFailsOwnValidation(t *testing.T) {
	p := New()

	// Snapping can land on an interval up to 1.5x denser than ideal,
	// so auto plans stay under the hard ceiling whenever the ceiling
	// leaves at least that much slack over the recommendation (Gemini:
	// 18x) and the 60s clamp still covers the duration.
	maxCovered := time.Duration(geminiLimits.MaxImages) * time.Minute
	for d := time.Duration(0); d <= maxCovered; d += 41 * time.Second {
		s := p.Plan(d, geminiLimits)
		ok, msg := Validate(s, geminiLimits)
		if !ok {
			t.Fatalf("Plan(%v) failed its own validation: %s", d, msg)
		}
	}
}

func TestPlanNarrowCeilingCanOvershoot(t *testing.T) {
	p := New()

	// Claude's ceiling is only 1.25x its recommendation. An ideal
	// interval of 574/80 = 7.2s snaps down to 5s, landing at 114
	// frames, past the 100-image hard limit. The planner still
	// returns the plan; Validate is the layer that reports it.
	s := p.Plan(574*time.Second, claudeLimits)

	if s.Interval() != 5*time.Second {
		t.Fatalf("expected 5s interval, got %v", s.Interval())
	}
	if s.EstimatedFrames() != 114 {
		t.Fatalf("expected 114 frames, got %d", s.EstimatedFrames())
	}
	if ok, _ := Validate(s, claudeLimits); ok {
		t.Error("expected hard-limit failure after snap-down overshoot")
	}
}

func TestPlanBeyondClampRangeStillReported(t *testing.T) {
	p := New()

	// 12 hours against Claude's 100-image ceiling cannot fit even at
	// one frame per minute. The plan is still produced (clamped to
	// 60s) and Validate flags the overage instead of the planner
	// erroring out.
	s := p.Plan(12*time.Hour, claudeLimits)

	if s.Interval() != 60*time.Second {
		t.Fatalf("expected 60s clamped interval, got %v", s.Interval())
	}
	ok, msg := Validate(s, claudeLimits)
	if ok {
		t.Fatal("expected hard-limit failure for a 12h video on Claude limits")
	}
	if !strings.Contains(msg, "100") {
		t.Errorf("message should cite the 100-image ceiling, got %q", msg)
	}
}

func TestModeIntervalPairing(t *testing.T) {
	p := New()

	for d := time.Duration(0); d <= 4*time.Hour; d += 113 * time.Second {
		s := p.Plan(d, claudeLimits)
		switch s.Mode() {
		case ModeAllKeyframes:
			if s.Interval() != 0 {
				t.Fatalf("all-keyframes plan for %v has interval %v", d, s.Interval())
			}
		case ModeInterval:
			if s.Interval() <= 0 {
				t.Fatalf("interval plan for %v has non-positive interval %v", d, s.Interval())
			}
		}
	}
}

func TestValidateHardLimit(t *testing.T) {
	s := EveryInterval(time.Second, 5000)

	ok, msg := Validate(s, geminiLimits)
	if ok {
		t.Fatal("expected validation failure above the hard limit")
	}
	if !strings.Contains(msg, "3600") {
		t.Errorf("message should cite the 3600 ceiling, got %q", msg)
	}
}

func TestValidateSoftLimitWarns(t *testing.T) {
	s := EveryInterval(time.Second, 250)

	ok, msg := Validate(s, geminiLimits)
	if !ok {
		t.Fatal("soft-limit overage must still validate")
	}
	if !strings.Contains(msg, "recommended") {
		t.Errorf("message should mention the recommendation, got %q", msg)
	}
}

func TestValidateWithinRange(t *testing.T) {
	s := AllKeyframes(50)

	ok, msg := Validate(s, geminiLimits)
	if !ok {
		t.Fatalf("in-range strategy must validate, got %q", msg)
	}
	if !strings.Contains(msg, "normal range") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(100, geminiLimits); got != 25800 {
		t.Errorf("EstimateTokens(100) = %d, want 25800", got)
	}
	if got := EstimateTokens(0, geminiLimits); got != 0 {
		t.Errorf("EstimateTokens(0) = %d, want 0", got)
	}

	// Linearity.
	for _, n := range []int{1, 7, 33, 200} {
		if EstimateTokens(2*n, claudeLimits) != 2*EstimateTokens(n, claudeLimits) {
			t.Errorf("EstimateTokens is not linear at n=%d", n)
		}
	}
}

func TestPresetsFullMenu(t *testing.T) {
	p := New()

	presets := p.Presets(time.Hour, geminiLimits)

	labels := make([]string, len(presets))
	for i, pr := range presets {
		labels[i] = pr.Label
	}

	// One hour estimates 1200 keyframes, within Gemini's 3600 hard
	// ceiling, so all five entries appear.
	want := []string{PresetDetailed, PresetStandard, PresetBrief, PresetAllKeyframes, PresetAuto}
	if len(labels) != len(want) {
		t.Fatalf("expected %d presets, got %v", len(want), labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("preset %d = %q, want %q", i, labels[i], want[i])
		}
	}

	// Fixed presets ignore the provider recommendation.
	if presets[0].Strategy.EstimatedFrames() != 1800 {
		t.Errorf("detailed preset: expected 1800 frames, got %d", presets[0].Strategy.EstimatedFrames())
	}
	if presets[1].Strategy.EstimatedFrames() != 720 {
		t.Errorf("standard preset: expected 720 frames, got %d", presets[1].Strategy.EstimatedFrames())
	}
	if presets[2].Strategy.EstimatedFrames() != 360 {
		t.Errorf("brief preset: expected 360 frames, got %d", presets[2].Strategy.EstimatedFrames())
	}
}

func TestPresetsGatedOnDuration(t *testing.T) {
	p := New()

	// 3 seconds is below every fixed-interval gate.
	presets := p.Presets(3*time.Second, geminiLimits)

	for _, pr := range presets {
		switch pr.Label {
		case PresetDetailed, PresetStandard, PresetBrief:
			t.Errorf("preset %q must not be offered for a 3s video", pr.Label)
		}
	}

	if presets[len(presets)-1].Label != PresetAuto {
		t.Errorf("auto preset must always be present, got %v", presets)
	}
}

func TestPresetsOmitAllKeyframesOverHardLimit(t *testing.T) {
	p := New()

	// 4 hours estimates 4800 keyframes, beyond Claude's 100 max.
	presets := p.Presets(4*time.Hour, claudeLimits)

	for _, pr := range presets {
		if pr.Label == PresetAllKeyframes {
			t.Fatal("all-keyframes preset must be omitted above the hard ceiling")
		}
	}
}

func TestContractViolationsPanic(t *testing.T) {
	p := New()

	cases := []struct {
		name string
		fn   func()
	}{
		{"negative duration", func() { p.Plan(-time.Second, geminiLimits) }},
		{"zero recommended", func() {
			p.Plan(time.Minute, ProviderLimits{MaxImages: 10, TokensPerImage: 1})
		}},
		{"recommended above max", func() {
			p.Plan(time.Minute, ProviderLimits{MaxImages: 10, RecommendedImages: 20, TokensPerImage: 1})
		}},
		{"zero token cost", func() {
			p.Plan(time.Minute, ProviderLimits{MaxImages: 10, RecommendedImages: 5})
		}},
		{"non-positive interval strategy", func() { EveryInterval(0, 10) }},
		{"zero keyframe rate", func() { NewWithKeyframeRate(0) }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", c.name)
				}
			}()
			c.fn()
		})
	}
}

func TestDefaultProviders(t *testing.T) {
	providers := DefaultProviders()

	for _, id := range Providers() {
		limits, ok := providers[id]
		if !ok {
			t.Fatalf("provider %s missing from defaults", id)
		}
		if limits.RecommendedImages > limits.MaxImages {
			t.Errorf("%s: recommended %d exceeds max %d", id, limits.RecommendedImages, limits.MaxImages)
		}
		if limits.TokensPerImage <= 0 {
			t.Errorf("%s: non-positive token cost", id)
		}
	}

	// Mutating the returned map must not leak into later calls.
	providers[ProviderGemini] = ProviderLimits{MaxImages: 1, RecommendedImages: 1, TokensPerImage: 1}
	if DefaultProviders()[ProviderGemini].MaxImages != 3600 {
		t.Error("DefaultProviders must return a fresh map per call")
	}
}
