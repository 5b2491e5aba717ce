// Package pipeline wires probing, planning, extraction, AI analysis
// and persistence into one run.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"framesight/internal/ai"
	"framesight/internal/cache"
	"framesight/internal/config"
	"framesight/internal/ffmpeg"
	"framesight/internal/history"
	"framesight/internal/planner"
	"framesight/internal/youtube"
)

// Pipeline holds the shared components for analysis runs.
type Pipeline struct {
	logger  zerolog.Logger
	cfg     *config.Config
	ffmpeg  *ffmpeg.Executor
	planner *planner.Planner
	store   *history.Store
	cache   *cache.Manager
}

// New builds a pipeline from configuration.
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	exec, err := ffmpeg.New(logger, cfg.FFmpeg.FFmpegPath, cfg.FFmpeg.FFprobePath)
	if err != nil {
		return nil, err
	}
	store, err := history.NewStore(logger, cfg.AppDir)
	if err != nil {
		return nil, err
	}
	mgr, err := cache.NewManager(logger, cfg.CacheDir(), cache.Options{
		AutoCleanup: cfg.Cache.AutoCleanup,
		MaxSizeMB:   cfg.Cache.MaxSizeMB,
		MaxAge:      time.Duration(cfg.Cache.MaxAgeDays) * 24 * time.Hour,
	})
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		logger:  logger.With().Str("component", "pipeline").Logger(),
		cfg:     cfg,
		ffmpeg:  exec,
		planner: planner.New(),
		store:   store,
		cache:   mgr,
	}, nil
}

// FFmpeg exposes the shared executor for callers that probe directly.
func (p *Pipeline) FFmpeg() *ffmpeg.Executor { return p.ffmpeg }

// History exposes the record store.
func (p *Pipeline) History() *history.Store { return p.store }

// Cache exposes the frame cache manager.
func (p *Pipeline) Cache() *cache.Manager { return p.cache }

// Analyze runs the full pipeline on a local file or YouTube URL.
func (p *Pipeline) Analyze(ctx context.Context, input string, opts AnalyzeOptions) (*Analysis, error) {
	path, err := p.resolveInput(ctx, input, opts.DownloadProgress)
	if err != nil {
		return nil, err
	}

	info, err := p.ffmpeg.ProbeVideo(ctx, path)
	if err != nil {
		return nil, err
	}
	p.logger.Info().
		Str("video", filepath.Base(path)).
		Str("duration", info.Duration.Round(time.Second).String()).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("probed video")

	provider := opts.Provider
	if provider == "" {
		provider = p.cfg.AI.Provider
	}
	limits, err := p.cfg.LimitsFor(provider)
	if err != nil {
		return nil, err
	}

	strategy, err := p.resolveStrategy(ctx, path, info.Duration, limits, opts)
	if err != nil {
		return nil, err
	}

	warning, err := validatePlan(strategy, limits, opts.Force)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		p.logger.Warn().Str("plan", strategy.Description()).Msg(warning)
	}
	p.logger.Info().
		Str("plan", strategy.Description()).
		Int("estimated_tokens", planner.EstimateTokens(strategy.EstimatedFrames(), limits)).
		Msg("extraction plan")

	// The key is captured up front: embedding metadata rewrites the
	// video's mtime, after which Key would fingerprint differently.
	cacheKey, err := p.cache.Key(path)
	if err != nil {
		return nil, err
	}
	framesDir, err := p.cache.FramesDir(path)
	if err != nil {
		return nil, err
	}
	frames, err := p.ffmpeg.ExtractFrames(ctx, path, ffmpeg.ExtractOptions{
		OutputDir:    framesDir,
		Interval:     strategy.Interval(),
		MaxDimension: p.cfg.Extraction.MaxDimension,
		Quality:      p.cfg.Extraction.Quality,
	})
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", path)
	}
	p.logger.Info().Int("frames", len(frames)).Str("dir", framesDir).Msg("frames extracted")

	result, err := p.runAI(ctx, provider, framesDir, len(frames), strategy, info.Duration, opts)
	if err != nil {
		return nil, err
	}

	rec := history.NewRecord()
	rec.VideoPath = path
	rec.VideoName = filepath.Base(path)
	rec.VideoDuration = info.Duration.Seconds()
	rec.VideoWidth = info.Width
	rec.VideoHeight = info.Height
	rec.VideoSizeMB = info.SizeMB()
	rec.SetStrategy(strategy)
	rec.FrameCount = len(frames)
	rec.Provider = result.Provider
	rec.Model = result.Model
	rec.Prompt = result.Prompt
	rec.Result = result.Output

	analysis := &Analysis{
		Record:     rec,
		Strategy:   strategy,
		Info:       info,
		TokensUsed: planner.EstimateTokens(len(frames), limits),
		Warning:    warning,
	}

	if opts.SaveSidecar {
		sidecar, err := p.store.SaveSidecar(rec)
		if err != nil {
			p.logger.Error().Err(err).Msg("failed to write sidecar")
		} else {
			analysis.SidecarPath = sidecar
		}
	}
	if opts.SaveHistory {
		if err := p.store.Append(rec); err != nil {
			p.logger.Error().Err(err).Msg("failed to append history")
		}
	}
	if opts.EmbedTags {
		tags := ffmpeg.AnalysisTags{
			ID:       rec.ID,
			Date:     rec.CreatedAt.Format("2006-01-02"),
			Provider: rec.Provider,
			Summary:  rec.Result,
		}
		if err := p.ffmpeg.WriteAnalysisTags(ctx, path, "", tags); err != nil {
			p.logger.Error().Err(err).Msg("failed to embed metadata")
		}
	}

	if p.cache.AutoCleanup() && !opts.KeepFrames {
		if err := p.cache.RemoveKey(cacheKey); err != nil {
			p.logger.Warn().Err(err).Msg("cache cleanup failed")
		}
	}

	return analysis, nil
}

// Preview probes a video and reports the strategy menu without running
// extraction or analysis.
func (p *Pipeline) Preview(ctx context.Context, input, provider string) (*PlanReport, error) {
	if youtube.IsYouTubeURL(input) {
		return nil, fmt.Errorf("plan preview needs a local file, download first")
	}
	info, err := p.ffmpeg.ProbeVideo(ctx, input)
	if err != nil {
		return nil, err
	}
	if provider == "" {
		provider = p.cfg.AI.Provider
	}
	limits, err := p.cfg.LimitsFor(provider)
	if err != nil {
		return nil, err
	}
	return &PlanReport{
		Info:    info,
		Limits:  limits,
		Presets: p.planner.Presets(info.Duration, limits),
		Auto:    p.planner.Plan(info.Duration, limits),
	}, nil
}

// Download fetches a YouTube video into the configured download dir.
func (p *Pipeline) Download(ctx context.Context, url string, onProgress youtube.ProgressFunc) (*youtube.Result, error) {
	dl := youtube.New(p.logger, p.cfg.DownloadDir(), p.cfg.Download.Format)
	if !dl.Available() {
		return nil, fmt.Errorf("yt-dlp not installed")
	}
	return dl.Download(ctx, url, onProgress)
}

func (p *Pipeline) resolveInput(ctx context.Context, input string, onProgress youtube.ProgressFunc) (string, error) {
	if !youtube.IsYouTubeURL(input) {
		return input, nil
	}
	p.logger.Info().Str("url", input).Msg("downloading video")
	res, err := p.Download(ctx, input, onProgress)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	p.logger.Info().Str("path", res.Path).Msg("download complete")
	return res.Path, nil
}

// validatePlan applies the provider limits to a plan. Exceeding the
// hard maximum is an error unless forced; anything above the
// recommendation comes back as a warning for the caller to surface.
func validatePlan(s planner.Strategy, limits planner.ProviderLimits, force bool) (string, error) {
	ok, msg := planner.Validate(s, limits)
	if !ok && !force {
		return "", fmt.Errorf("plan rejected: %s (use a longer interval or --force)", msg)
	}
	if !ok || s.EstimatedFrames() > limits.RecommendedImages {
		return msg, nil
	}
	return "", nil
}

// resolveStrategy picks the extraction plan: an explicit interval wins,
// then a preset label, then the automatic plan.
func (p *Pipeline) resolveStrategy(ctx context.Context, path string, duration time.Duration, limits planner.ProviderLimits, opts AnalyzeOptions) (planner.Strategy, error) {
	if opts.Interval > 0 {
		return planner.EveryInterval(opts.Interval, int(duration/opts.Interval)), nil
	}
	if opts.Preset != "" {
		return p.presetStrategy(duration, limits, opts.Preset)
	}
	if opts.CountKeyframes {
		keyframes, err := p.ffmpeg.CountKeyframes(ctx, path)
		if err != nil {
			return planner.Strategy{}, err
		}
		p.logger.Debug().Int("keyframes", keyframes).Msg("measured keyframe count")
		return p.planner.PlanWithKeyframeCount(duration, limits, keyframes), nil
	}
	return p.planner.Plan(duration, limits), nil
}

// presetStrategy matches a preset by label. A unique case-insensitive
// prefix is enough, so "brief" selects "brief (10s interval)".
func (p *Pipeline) presetStrategy(duration time.Duration, limits planner.ProviderLimits, label string) (planner.Strategy, error) {
	want := strings.ToLower(strings.TrimSpace(label))
	presets := p.planner.Presets(duration, limits)

	var matches []planner.Preset
	for _, preset := range presets {
		name := strings.ToLower(preset.Label)
		if name == want {
			return preset.Strategy, nil
		}
		if strings.HasPrefix(name, want) {
			matches = append(matches, preset)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0].Strategy, nil
	case 0:
		names := make([]string, len(presets))
		for i, preset := range presets {
			names[i] = preset.Label
		}
		return planner.Strategy{}, fmt.Errorf("unknown preset %q, available: %s", label, strings.Join(names, ", "))
	default:
		return planner.Strategy{}, fmt.Errorf("preset %q is ambiguous", label)
	}
}

func (p *Pipeline) runAI(ctx context.Context, provider, framesDir string, frameCount int, strategy planner.Strategy, duration time.Duration, opts AnalyzeOptions) (*ai.Result, error) {
	model := opts.Model
	if model == "" {
		model = p.cfg.AI.Model
	}
	language := opts.Language
	if language == "" {
		language = p.cfg.AI.Language
	}

	conn, err := ai.New(p.logger, provider, model)
	if err != nil {
		return nil, err
	}
	if !conn.Available() {
		return nil, fmt.Errorf("%s CLI not installed", conn.Name())
	}

	if p.cfg.AI.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.cfg.AI.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	p.logger.Info().Str("provider", conn.Name()).Int("frames", frameCount).Msg("starting AI analysis")
	return conn.Analyze(ctx, ai.Request{
		FramesDir:    framesDir,
		FrameCount:   frameCount,
		Interval:     strategy.Interval(),
		Duration:     duration,
		CustomPrompt: opts.CustomPrompt,
		Language:     language,
		WorkDir:      filepath.Dir(framesDir),
	})
}
