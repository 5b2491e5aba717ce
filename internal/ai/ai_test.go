package ai

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBuildPromptIntervalMode(t *testing.T) {
	prompt := BuildPrompt(Request{
		FrameCount: 180,
		Interval:   20 * time.Second,
		Duration:   time.Hour,
		Language:   "english",
	})

	for _, want := range []string{
		"180 consecutive frames",
		"20s intervals",
		"1h 0m 0s",
		"## Video Summary",
		"Please answer in English.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptKeyframeMode(t *testing.T) {
	prompt := BuildPrompt(Request{
		FrameCount: 42,
		Duration:   5 * time.Minute,
		Language:   "auto",
	})

	if !strings.Contains(prompt, "keyframe positions") {
		t.Error("keyframe-mode prompt should describe keyframe sampling")
	}
	if strings.Contains(prompt, "intervals") {
		t.Error("keyframe-mode prompt should not mention intervals")
	}
	// "auto" adds no language instruction.
	if strings.Contains(prompt, "Please answer") {
		t.Error("auto language must not add an instruction")
	}
}

func TestBuildPromptCustomPrompt(t *testing.T) {
	prompt := BuildPrompt(Request{
		FrameCount:   10,
		Interval:     5 * time.Second,
		Duration:     time.Minute,
		Language:     "korean",
		CustomPrompt: "Focus on the cooking steps.",
	})

	if !strings.Contains(prompt, "**Additional request**: Focus on the cooking steps.") {
		t.Error("custom prompt not appended")
	}
	if !strings.HasSuffix(prompt, "Focus on the cooking steps.") {
		t.Error("custom prompt should come last")
	}
}

func TestGeminiBuildCommand(t *testing.T) {
	g := NewGemini(zerolog.New(os.Stderr), "gemini-2.5-pro")

	args, stdinPrompt := g.buildCommand("PROMPT", Request{
		FramesDir:  "/tmp/cache/abc123/frames",
		FrameCount: 30,
	})

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"--output-format text",
		"--allowed-mcp-server-names=",
		"--model gemini-2.5-pro",
		"-y",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}

	// The prompt is not on the command line; it travels over stdin
	// with a directory reference the CLI expands itself.
	if strings.Contains(joined, "PROMPT") {
		t.Error("prompt must not appear in the argument list")
	}
	if !strings.Contains(stdinPrompt, "@frames") {
		t.Errorf("stdin payload missing @frames directory reference: %q", stdinPrompt)
	}
	if !strings.Contains(stdinPrompt, "30 frames total") {
		t.Errorf("stdin payload missing frame count: %q", stdinPrompt)
	}
}

func TestGeminiAutoModelOmitsFlag(t *testing.T) {
	g := NewGemini(zerolog.New(os.Stderr), "auto")

	args, _ := g.buildCommand("p", Request{FramesDir: "frames"})
	if strings.Contains(strings.Join(args, " "), "--model") {
		t.Error("auto model must not emit --model")
	}
}

func TestSessionCountParsing(t *testing.T) {
	out := "Available sessions for this project (27):\n 1. something"
	m := sessionCountRe.FindStringSubmatch(out)
	if m == nil || m[1] != "27" {
		t.Fatalf("expected to parse 27 sessions, got %v", m)
	}
}

func TestNewConnector(t *testing.T) {
	logger := zerolog.New(os.Stderr)

	c, err := New(logger, "gemini", "auto")
	if err != nil {
		t.Fatalf("gemini connector: %v", err)
	}
	if c.Name() != "Gemini" {
		t.Errorf("name = %q", c.Name())
	}

	if _, err := New(logger, "claude", "auto"); err == nil {
		t.Error("claude has no CLI connector and must be rejected")
	}
}
