// Package youtube downloads videos via the yt-dlp binary.
package youtube

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"framesight/pkg/util"
)

// Progress is one parsed yt-dlp progress line.
type Progress struct {
	Percent float64
	Size    string
	Speed   string
	ETA     string
}

// ProgressFunc receives download progress updates.
type ProgressFunc func(Progress)

// Result is a finished download.
type Result struct {
	Path  string
	Title string
}

// Meta is the subset of yt-dlp's --dump-json output we use.
type Meta struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Uploader string  `json:"uploader"`
}

var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtube\.com/shorts/[\w-]+`),
	regexp.MustCompile(`^(?:https?://)?youtu\.be/[\w-]+`),
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtube\.com/embed/[\w-]+`),
}

// IsYouTubeURL reports whether s looks like a YouTube video URL.
func IsYouTubeURL(s string) bool {
	s = strings.TrimSpace(s)
	for _, p := range urlPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// Command resolves the yt-dlp binary, accepting both spellings.
func Command() (string, error) {
	for _, name := range []string{"yt-dlp", "yt_dlp"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("yt-dlp not installed")
}

// Downloader wraps yt-dlp invocations.
type Downloader struct {
	logger    zerolog.Logger
	outputDir string
	format    string
}

// DefaultFormat prefers a single mp4 so no merge step (and no separate
// ffmpeg invocation inside yt-dlp) is needed.
const DefaultFormat = "best[ext=mp4]/best"

// New creates a downloader writing into outputDir.
func New(logger zerolog.Logger, outputDir, format string) *Downloader {
	if format == "" {
		format = DefaultFormat
	}
	return &Downloader{
		logger:    logger.With().Str("component", "youtube").Logger(),
		outputDir: outputDir,
		format:    format,
	}
}

// Available reports whether yt-dlp is installed.
func (d *Downloader) Available() bool {
	_, err := Command()
	return err == nil
}

// Info fetches video metadata without downloading.
func (d *Downloader) Info(ctx context.Context, url string) (*Meta, error) {
	binary, err := Command()
	if err != nil {
		return nil, err
	}

	infoCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(infoCtx, binary, "--dump-json", "--no-download", url)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video info: %w", err)
	}

	var meta Meta
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse video info: %w", err)
	}
	return &meta, nil
}

// Download fetches the video, streaming progress to onProgress. The
// output filename is derived from the sanitized title and video ID.
func (d *Downloader) Download(ctx context.Context, url string, onProgress ProgressFunc) (*Result, error) {
	binary, err := Command()
	if err != nil {
		return nil, err
	}

	if err := util.EnsureDir(d.outputDir); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	meta, err := d.Info(ctx, url)
	if err != nil {
		return nil, err
	}

	safeTitle := util.SafeFilename(meta.Title, 50)
	template := filepath.Join(d.outputDir, fmt.Sprintf("%s_%s.%%(ext)s", safeTitle, meta.ID))

	d.logger.Info().
		Str("title", meta.Title).
		Str("id", meta.ID).
		Msg("starting download")

	// --newline makes yt-dlp emit one progress line per update instead
	// of rewriting the same terminal line.
	cmd := exec.CommandContext(ctx, binary,
		"-f", d.format,
		"-o", template,
		"--newline",
		url,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	var finalPath string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if p, ok := parseProgressLine(line); ok && onProgress != nil {
			onProgress(p)
		}
		if path, ok := parseDestination(line); ok {
			finalPath = path
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("download failed: %w", err)
	}

	// When neither destination line appeared (quiet mode, odd output),
	// look for the file the template would have produced.
	if finalPath == "" {
		for _, ext := range []string{"mp4", "webm", "mkv"} {
			candidate := filepath.Join(d.outputDir, fmt.Sprintf("%s_%s.%s", safeTitle, meta.ID, ext))
			if util.FileExists(candidate) {
				finalPath = candidate
				break
			}
		}
	}
	if finalPath == "" {
		return nil, fmt.Errorf("download finished but output file not found")
	}

	d.logger.Info().Str("path", finalPath).Msg("download complete")
	return &Result{Path: finalPath, Title: meta.Title}, nil
}

// [download]  50.0% of 100.00MiB at  5.00MiB/s ETA 00:10
var progressRe = regexp.MustCompile(`(\d+\.?\d*)%\s+of\s+~?\s*(\d+\.?\d*\w+)\s+at\s+([\d.]+\w+/s)\s+ETA\s+([\d:]+)`)

func parseProgressLine(line string) (Progress, bool) {
	if !strings.Contains(line, "[download]") || !strings.Contains(line, "%") {
		return Progress{}, false
	}
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Progress{}, false
	}
	return Progress{
		Percent: percent,
		Size:    m[2],
		Speed:   m[3],
		ETA:     m[4],
	}, true
}

var alreadyDownloadedRe = regexp.MustCompile(`\[download\]\s+(.+?)\s+has already been downloaded`)

func parseDestination(line string) (string, bool) {
	if strings.Contains(line, "[download] Destination:") {
		return strings.TrimSpace(strings.SplitN(line, "Destination:", 2)[1]), true
	}
	if m := alreadyDownloadedRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}
