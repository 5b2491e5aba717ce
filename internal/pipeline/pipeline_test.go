package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"framesight/internal/planner"
)

func testPipeline() *Pipeline {
	return &Pipeline{planner: planner.New()}
}

func geminiLimits(t *testing.T) planner.ProviderLimits {
	t.Helper()
	limits, ok := planner.DefaultProviders()[planner.ProviderGemini]
	if !ok {
		t.Fatal("gemini limits missing")
	}
	return limits
}

func TestResolveStrategyExplicitInterval(t *testing.T) {
	p := testPipeline()
	s, err := p.resolveStrategy(context.Background(), "", 100*time.Second, geminiLimits(t), AnalyzeOptions{
		Interval: 7 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Interval() != 7*time.Second {
		t.Errorf("interval = %v, want 7s (explicit intervals must not be snapped)", s.Interval())
	}
	if s.EstimatedFrames() != 14 {
		t.Errorf("frames = %d, want 14", s.EstimatedFrames())
	}
}

func TestResolveStrategyAutoPlan(t *testing.T) {
	p := testPipeline()
	s, err := p.resolveStrategy(context.Background(), "", 300*time.Second, geminiLimits(t), AnalyzeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsAllKeyframes() {
		t.Errorf("expected all-keyframes for a short video, got %s", s.Description())
	}
}

func TestValidatePlanSoftLimitWarns(t *testing.T) {
	limits := geminiLimits(t)

	// 250 frames from a 1s interval on a 250s video: over the 200
	// recommendation, under the 3600 maximum.
	s := planner.EveryInterval(time.Second, 250)
	warning, err := validatePlan(s, limits, false)
	if err != nil {
		t.Fatalf("soft-limit plan must not be rejected: %v", err)
	}
	if !strings.Contains(warning, "recommended") {
		t.Errorf("warning = %q, want the recommendation overage surfaced", warning)
	}
}

func TestValidatePlanWithinLimitsNoWarning(t *testing.T) {
	s := planner.EveryInterval(20*time.Second, 180)
	warning, err := validatePlan(s, geminiLimits(t), false)
	if err != nil {
		t.Fatal(err)
	}
	if warning != "" {
		t.Errorf("unexpected warning for a normal plan: %q", warning)
	}
}

func TestValidatePlanHardLimit(t *testing.T) {
	limits := geminiLimits(t)
	s := planner.EveryInterval(time.Second, limits.MaxImages+1)

	if _, err := validatePlan(s, limits, false); err == nil {
		t.Fatal("expected rejection over the hard limit")
	}

	warning, err := validatePlan(s, limits, true)
	if err != nil {
		t.Fatalf("forced plan must proceed: %v", err)
	}
	if !strings.Contains(warning, "maximum") {
		t.Errorf("forced plan warning = %q, want the hard overage surfaced", warning)
	}
}

func TestPresetStrategyByPrefix(t *testing.T) {
	p := testPipeline()
	duration := time.Hour
	limits := geminiLimits(t)

	s, err := p.presetStrategy(duration, limits, "brief")
	if err != nil {
		t.Fatal(err)
	}
	if s.Interval() != 10*time.Second {
		t.Errorf("brief interval = %v, want 10s", s.Interval())
	}

	s, err = p.presetStrategy(duration, limits, "Auto (recommended)")
	if err != nil {
		t.Fatal(err)
	}
	if s.Interval() != 20*time.Second {
		t.Errorf("auto interval at 1h = %v, want 20s", s.Interval())
	}
}

func TestPresetStrategyAmbiguous(t *testing.T) {
	p := testPipeline()
	// "a" prefixes both "all keyframes" and "auto (recommended)" on a
	// short video.
	_, err := p.presetStrategy(60*time.Second, geminiLimits(t), "a")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguity error, got %v", err)
	}
}

func TestPresetStrategyUnknownListsOptions(t *testing.T) {
	p := testPipeline()
	_, err := p.presetStrategy(time.Hour, geminiLimits(t), "cinematic")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), planner.PresetStandard) {
		t.Errorf("error should list available presets, got: %v", err)
	}
}
