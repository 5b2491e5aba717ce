package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"framesight/internal/planner"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// AppDir is the root for history, cache and downloads.
	AppDir string `yaml:"app_dir"`

	AI         AIConfig         `yaml:"ai"`
	Extraction ExtractionConfig `yaml:"extraction"`
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Download   DownloadConfig   `yaml:"download"`
	Cache      CacheConfig      `yaml:"cache"`

	// Providers overrides entries of the built-in limits table.
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type AIConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	Language       string `yaml:"language"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ExtractionConfig struct {
	MaxDimension int `yaml:"max_dimension"`
	Quality      int `yaml:"quality"`
}

type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

type DownloadConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

type CacheConfig struct {
	Dir         string  `yaml:"dir"`
	AutoCleanup bool    `yaml:"auto_cleanup"`
	MaxSizeMB   float64 `yaml:"max_size_mb"`
	MaxAgeDays  int     `yaml:"max_age_days"`
}

// ProviderConfig mirrors planner.ProviderLimits for yaml overrides.
type ProviderConfig struct {
	MaxImages         int     `yaml:"max_images"`
	RecommendedImages int     `yaml:"recommended_images"`
	MaxImageSizeMB    float64 `yaml:"max_image_size_mb"`
	TokensPerImage    int     `yaml:"tokens_per_image"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// CacheDir returns the frame-cache directory.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.AppDir, "cache")
}

// DownloadDir returns the YouTube download directory.
func (c *Config) DownloadDir() string {
	if c.Download.Dir != "" {
		return c.Download.Dir
	}
	return filepath.Join(c.AppDir, "downloads")
}

// ProviderLimits returns the limits table with config overrides applied.
func (c *Config) ProviderLimits() map[planner.Provider]planner.ProviderLimits {
	limits := planner.DefaultProviders()
	for name, override := range c.Providers {
		id := planner.Provider(name)
		entry, ok := limits[id]
		if !ok {
			continue
		}
		if override.MaxImages > 0 {
			entry.MaxImages = override.MaxImages
		}
		if override.RecommendedImages > 0 {
			entry.RecommendedImages = override.RecommendedImages
		}
		if override.MaxImageSizeMB > 0 {
			entry.MaxImageSizeMB = override.MaxImageSizeMB
		}
		if override.TokensPerImage > 0 {
			entry.TokensPerImage = override.TokensPerImage
		}
		limits[id] = entry
	}
	return limits
}

// LimitsFor resolves one provider's limits, with overrides applied.
func (c *Config) LimitsFor(provider string) (planner.ProviderLimits, error) {
	limits, ok := c.ProviderLimits()[planner.Provider(provider)]
	if !ok {
		return planner.ProviderLimits{}, fmt.Errorf("unknown AI provider %q", provider)
	}
	return limits, nil
}

func defaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		AppDir: filepath.Join(home, ".framesight"),
		AI: AIConfig{
			Provider:       "gemini",
			Model:          "auto",
			Language:       "auto",
			TimeoutSeconds: 600,
		},
		Extraction: ExtractionConfig{
			MaxDimension: 1280,
			Quality:      2,
		},
		Download: DownloadConfig{
			Format: "best[ext=mp4]/best",
		},
		Cache: CacheConfig{
			AutoCleanup: true,
			MaxSizeMB:   1024.0,
			MaxAgeDays:  7,
		},
	}
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	candidates := []string{
		"./framesight.yaml",
		"./framesight.yml",
		filepath.Join(home, ".framesight", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
