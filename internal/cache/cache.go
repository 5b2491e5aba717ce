// Package cache manages the on-disk cache of extracted frames.
package cache

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"framesight/pkg/util"
)

// Defaults for cache retention.
const (
	DefaultMaxSizeMB  = 1024.0 // 1 GB
	DefaultMaxAgeDays = 7
)

// Options configures cache retention.
type Options struct {
	AutoCleanup bool
	MaxSizeMB   float64
	MaxAge      time.Duration
}

// Manager owns the frame cache directory. Each video gets its own entry
// keyed by a cheap content fingerprint.
type Manager struct {
	logger zerolog.Logger
	dir    string
	opts   Options
}

// NewManager creates a manager rooted at dir.
func NewManager(logger zerolog.Logger, dir string, opts Options) (*Manager, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = DefaultMaxSizeMB
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAgeDays * 24 * time.Hour
	}
	return &Manager{
		logger: logger.With().Str("component", "cache").Logger(),
		dir:    dir,
		opts:   opts,
	}, nil
}

// AutoCleanup reports whether entries should be dropped after analysis.
func (m *Manager) AutoCleanup() bool { return m.opts.AutoCleanup }

// Key fingerprints a video from its name, size and mtime. Hashing file
// contents would be exact but takes minutes on large videos.
func (m *Manager) Key(videoPath string) (string, error) {
	stat, err := os.Stat(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat video: %w", err)
	}
	raw := fmt.Sprintf("%s_%d_%d", filepath.Base(videoPath), stat.Size(), stat.ModTime().UnixNano())
	return fmt.Sprintf("%x", md5.Sum([]byte(raw)))[:12], nil
}

// FramesDir returns (and creates) the frames directory for a video.
func (m *Manager) FramesDir(videoPath string) (string, error) {
	key, err := m.Key(videoPath)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(m.dir, key, "frames")
	if err := util.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create frames dir: %w", err)
	}
	return dir, nil
}

// Remove drops the cache entry for a video.
func (m *Manager) Remove(videoPath string) error {
	key, err := m.Key(videoPath)
	if err != nil {
		return err
	}
	return m.RemoveKey(key)
}

// RemoveKey drops a cache entry by key. Needed when the video file has
// changed since the entry was created and Key would no longer match.
func (m *Manager) RemoveKey(key string) error {
	entry := filepath.Join(m.dir, key)
	if err := os.RemoveAll(entry); err != nil {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	m.logger.Debug().Str("entry", key).Msg("cache entry removed")
	return nil
}

// Entry describes one cached video's frames.
type Entry struct {
	Key       string
	Path      string
	SizeBytes int64
	ModTime   time.Time
}

// Entries lists the cache contents, oldest first.
func (m *Manager) Entries() ([]Entry, error) {
	dirs, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache dir: %w", err)
	}

	var entries []Entry
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(m.dir, d.Name())
		size, err := util.DirSize(path)
		if err != nil {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Key:       d.Name(),
			Path:      path,
			SizeBytes: size,
			ModTime:   info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModTime.Before(entries[j].ModTime)
	})
	return entries, nil
}

// Usage returns the entry count and total size of the cache.
func (m *Manager) Usage() (int, int64, error) {
	entries, err := m.Entries()
	if err != nil {
		return 0, 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.SizeBytes
	}
	return len(entries), total, nil
}

// Prune drops entries past the age limit, then the oldest entries until
// the cache fits the size limit. Returns how many entries were removed.
func (m *Manager) Prune() (int, error) {
	entries, err := m.Entries()
	if err != nil {
		return 0, err
	}

	removed := 0
	cutoff := time.Now().Add(-m.opts.MaxAge)
	var kept []Entry
	for _, e := range entries {
		if e.ModTime.Before(cutoff) {
			if err := os.RemoveAll(e.Path); err == nil {
				removed++
				continue
			}
		}
		kept = append(kept, e)
	}

	var total int64
	for _, e := range kept {
		total += e.SizeBytes
	}
	maxBytes := int64(m.opts.MaxSizeMB * 1024 * 1024)
	for _, e := range kept {
		if total <= maxBytes {
			break
		}
		if err := os.RemoveAll(e.Path); err == nil {
			total -= e.SizeBytes
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info().Int("removed", removed).Msg("cache pruned")
	}
	return removed, nil
}

// Clear removes every entry. Returns how many entries were removed.
func (m *Manager) Clear() (int, error) {
	entries, err := m.Entries()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := os.RemoveAll(e.Path); err == nil {
			removed++
		}
	}
	return removed, nil
}
