package ai

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
)

// GeminiModels lists the models the Gemini CLI accepts, keyed by the
// value passed to --model. "auto" omits the flag entirely.
var GeminiModels = map[string]string{
	"auto":                   "automatic (default)",
	"gemini-3-pro-preview":   "Gemini 3 Pro (latest, preview)",
	"gemini-3-flash-preview": "Gemini 3 Flash (latest, fast, preview)",
	"gemini-2.5-pro":         "Gemini 2.5 Pro (stable, recommended)",
	"gemini-2.5-flash":       "Gemini 2.5 Flash (fast)",
	"gemini-2.0-flash":       "Gemini 2.0 Flash (lightweight)",
}

// Gemini drives the gemini CLI. The prompt travels over stdin and the
// frames are referenced as an @directory, which the CLI scans itself;
// listing frames individually on the command line fails silently past
// a dozen or so files.
type Gemini struct {
	logger        zerolog.Logger
	model         string
	autoApprove   bool
	clearSessions bool
}

// NewGemini creates a Gemini connector. An empty or "auto" model lets
// the CLI choose.
func NewGemini(logger zerolog.Logger, model string) *Gemini {
	if model == "" {
		model = "auto"
	}
	return &Gemini{
		logger:        logger.With().Str("component", "gemini").Logger(),
		model:         model,
		autoApprove:   true,
		clearSessions: true,
	}
}

func (g *Gemini) Name() string { return "Gemini" }

func (g *Gemini) Available() bool {
	_, err := exec.LookPath("gemini")
	return err == nil
}

// Analyze runs the Gemini CLI over the extracted frames. Transient CLI
// failures and empty responses are retried a couple of times before
// giving up.
func (g *Gemini) Analyze(ctx context.Context, req Request) (*Result, error) {
	binary, err := exec.LookPath("gemini")
	if err != nil {
		return nil, fmt.Errorf("gemini CLI not found in PATH: %w", err)
	}

	// Stale sessions make the CLI answer from cache instead of looking
	// at the new frames.
	if g.clearSessions {
		g.clearStaleSessions(ctx, req.WorkDir)
	}

	prompt := BuildPrompt(req)
	args, stdinPrompt := g.buildCommand(prompt, req)

	g.logger.Info().
		Str("model", g.model).
		Int("frames", req.FrameCount).
		Str("work_dir", req.WorkDir).
		Int("prompt_len", len(stdinPrompt)).
		Msg("invoking gemini CLI")

	var output string
	err = retry.Do(func() error {
		out, runErr := g.run(ctx, binary, args, stdinPrompt, req.WorkDir)
		if runErr != nil {
			return runErr
		}
		output = out
		return nil
	}, retry.Attempts(3), retry.Delay(500*time.Millisecond), retry.LastErrorOnly(true))
	if err != nil {
		return nil, err
	}

	return &Result{
		Provider:   g.Name(),
		Output:     output,
		Prompt:     prompt,
		FrameCount: req.FrameCount,
		Model:      g.model,
	}, nil
}

func (g *Gemini) run(ctx context.Context, binary string, args []string, stdinPrompt, workDir string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = strings.NewReader(stdinPrompt)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		g.logger.Warn().
			Err(err).
			Str("stderr", preview(stderr.String(), 500)).
			Msg("gemini CLI failed")
		return "", fmt.Errorf("gemini CLI failed: %s", preview(stderr.String(), 200))
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		// The CLI occasionally exits zero with nothing on stdout.
		return "", fmt.Errorf("gemini returned an empty response (stderr: %s)", preview(stderr.String(), 200))
	}
	return output, nil
}

// buildCommand assembles the CLI arguments and the stdin payload.
// --output-format text keeps the output plain markdown and
// --allowed-mcp-server-names= disables MCP server connections, which
// otherwise interfere with stdout when run as a subprocess.
func (g *Gemini) buildCommand(prompt string, req Request) ([]string, string) {
	args := []string{"--output-format", "text", "--allowed-mcp-server-names="}

	if g.model != "" && g.model != "auto" {
		args = append(args, "--model", g.model)
	}
	if g.autoApprove {
		args = append(args, "-y")
	}

	framesRef := filepath.Base(req.FramesDir)
	stdinPrompt := fmt.Sprintf("%s\n\nFrame directory: @%s (%d frames total)",
		prompt, framesRef, req.FrameCount)

	return args, stdinPrompt
}

var sessionCountRe = regexp.MustCompile(`Available sessions.*\((\d+)\)`)

// clearStaleSessions deletes existing Gemini sessions for the working
// directory. Session numbering shifts after each delete, so session 1
// is deleted repeatedly.
func (g *Gemini) clearStaleSessions(ctx context.Context, workDir string) {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(listCtx, "gemini", "--list-sessions")
	cmd.Dir = workDir
	out, err := cmd.Output()
	if err != nil || !strings.Contains(string(out), "Available sessions") {
		return
	}

	count := 50 // upper bound when the count cannot be parsed
	if m := sessionCountRe.FindStringSubmatch(string(out)); m != nil {
		if n, perr := strconv.Atoi(m[1]); perr == nil {
			count = n
		}
	}

	g.logger.Debug().Int("sessions", count).Msg("clearing stale gemini sessions")

	deleted := 0
	for i := 0; i < count; i++ {
		delCtx, delCancel := context.WithTimeout(ctx, 10*time.Second)
		cmd := exec.CommandContext(delCtx, "gemini", "--delete-session", "1")
		cmd.Dir = workDir
		err := cmd.Run()
		delCancel()
		if err != nil {
			break
		}
		deleted++
	}

	g.logger.Debug().Int("deleted", deleted).Msg("stale sessions cleared")
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "none"
	}
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return s
}
