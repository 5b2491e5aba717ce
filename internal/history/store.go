package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"framesight/pkg/util"
)

const (
	// SidecarSuffix is appended to the full video path, extension
	// included, so sidecars sort next to their videos.
	SidecarSuffix = ".analysis.json"

	storeFile     = "analysis_history.json"
	formatVersion = "1.0"
)

// ErrNotFound is returned when a record or sidecar does not exist.
var ErrNotFound = errors.New("history: record not found")

// Store manages sidecar files and the central history.
type Store struct {
	logger    zerolog.Logger
	baseDir   string
	storePath string
}

// NewStore creates a store rooted at baseDir (the app directory).
func NewStore(logger zerolog.Logger, baseDir string) (*Store, error) {
	if err := util.EnsureDir(baseDir); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	return &Store{
		logger:    logger.With().Str("component", "history").Logger(),
		baseDir:   baseDir,
		storePath: filepath.Join(baseDir, storeFile),
	}, nil
}

// SidecarPath returns the sidecar location for a video file.
func (s *Store) SidecarPath(videoPath string) string {
	return videoPath + SidecarSuffix
}

type sidecarFile struct {
	Record
	Meta sidecarMeta `json:"_metadata"`
}

type sidecarMeta struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveSidecar writes the record next to its video file.
func (s *Store) SaveSidecar(r Record) (string, error) {
	path := s.SidecarPath(r.VideoPath)

	data, err := json.MarshalIndent(sidecarFile{
		Record: r,
		Meta: sidecarMeta{
			Version:   formatVersion,
			CreatedAt: r.CreatedAt,
			UpdatedAt: time.Now(),
		},
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode sidecar: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write sidecar: %w", err)
	}

	s.logger.Debug().Str("path", path).Msg("sidecar saved")
	return path, nil
}

// LoadSidecar reads the sidecar for a video. Returns ErrNotFound when
// the video has no sidecar.
func (s *Store) LoadSidecar(videoPath string) (*Record, error) {
	data, err := os.ReadFile(s.SidecarPath(videoPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}

	var sc sidecarFile
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar: %w", err)
	}
	return &sc.Record, nil
}

// DeleteSidecar removes the sidecar for a video, if present.
func (s *Store) DeleteSidecar(videoPath string) error {
	err := os.Remove(s.SidecarPath(videoPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete sidecar: %w", err)
	}
	return nil
}

type centralStore struct {
	Records map[string]Record `json:"records"`
}

func (s *Store) loadCentral() centralStore {
	store := centralStore{Records: map[string]Record{}}

	data, err := os.ReadFile(s.storePath)
	if err != nil {
		return store
	}
	// A corrupt store starts over rather than blocking every analysis.
	if err := json.Unmarshal(data, &store); err != nil || store.Records == nil {
		s.logger.Warn().Str("path", s.storePath).Msg("history store unreadable, starting fresh")
		store.Records = map[string]Record{}
	}
	return store
}

func (s *Store) saveCentral(store centralStore) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(s.storePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// Append adds a record to the central history.
func (s *Store) Append(r Record) error {
	store := s.loadCentral()
	store.Records[r.ID] = r
	if err := s.saveCentral(store); err != nil {
		return err
	}
	s.logger.Debug().Str("id", r.ID).Msg("record appended to history")
	return nil
}

// Get retrieves a record by ID.
func (s *Store) Get(id string) (*Record, error) {
	store := s.loadCentral()
	r, ok := store.Records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns everything.
func (s *Store) List(limit int) []Record {
	store := s.loadCentral()

	records := lo.Values(store.Records)
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

// Delete removes a record by ID.
func (s *Store) Delete(id string) error {
	store := s.loadCentral()
	if _, ok := store.Records[id]; !ok {
		return ErrNotFound
	}
	delete(store.Records, id)
	return s.saveCentral(store)
}

// Clear removes all records and returns how many were deleted.
func (s *Store) Clear() (int, error) {
	store := s.loadCentral()
	count := len(store.Records)
	store.Records = map[string]Record{}
	if err := s.saveCentral(store); err != nil {
		return 0, err
	}
	return count, nil
}
