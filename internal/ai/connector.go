// Package ai pipes extracted frames through an external generative-AI
// CLI tool and returns the text summary.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Request describes one analysis run over an extracted frame set.
type Request struct {
	FramesDir    string        // directory holding the frames, referenced by the CLI
	FrameCount   int
	Interval     time.Duration // 0 means the frames are keyframes
	Duration     time.Duration // length of the source video
	CustomPrompt string
	Language     string // output language key, see Languages
	WorkDir      string // working directory for the CLI process (session isolation)
}

// Result is a completed analysis.
type Result struct {
	Provider   string
	Output     string
	Prompt     string
	FrameCount int
	Model      string
}

// Connector is an AI CLI backend.
type Connector interface {
	// Name returns the human-readable provider name.
	Name() string
	// Available reports whether the CLI binary is installed.
	Available() bool
	// Analyze runs the CLI over the frames and returns its output.
	Analyze(ctx context.Context, req Request) (*Result, error)
}

// New creates the connector for a provider identifier. Only the Gemini
// CLI is wired up today; Claude limits exist for planning but there is
// no Claude CLI integration yet.
func New(logger zerolog.Logger, provider, model string) (Connector, error) {
	switch strings.ToLower(provider) {
	case "gemini":
		return NewGemini(logger, model), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q (only gemini has a CLI connector)", provider)
	}
}
