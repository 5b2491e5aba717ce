package history

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"framesight/internal/planner"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(zerolog.New(os.Stderr), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func testRecord(t *testing.T, videoPath string) Record {
	t.Helper()
	r := NewRecord()
	r.VideoPath = videoPath
	r.VideoName = filepath.Base(videoPath)
	r.VideoDuration = 300
	r.FrameCount = 100
	r.Provider = "Gemini"
	r.Result = "## Video Summary\nA test video."
	r.SetStrategy(planner.AllKeyframes(100))
	return r
}

func TestSidecarRoundTrip(t *testing.T) {
	s := newTestStore(t)

	video := filepath.Join(t.TempDir(), "clip.mp4")
	r := testRecord(t, video)

	path, err := s.SaveSidecar(r)
	if err != nil {
		t.Fatalf("SaveSidecar: %v", err)
	}
	if path != video+".analysis.json" {
		t.Errorf("sidecar path = %q", path)
	}

	loaded, err := s.LoadSidecar(video)
	if err != nil {
		t.Fatalf("LoadSidecar: %v", err)
	}
	if loaded.ID != r.ID {
		t.Errorf("loaded ID = %q, want %q", loaded.ID, r.ID)
	}
	if loaded.Result != r.Result {
		t.Errorf("loaded result = %q", loaded.Result)
	}
	if loaded.ExtractionMode != "all-keyframes" {
		t.Errorf("extraction mode = %q", loaded.ExtractionMode)
	}

	// Sidecars carry a versioned metadata block.
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), `"_metadata"`) || !strings.Contains(string(raw), `"version": "1.0"`) {
		t.Error("sidecar missing versioned metadata block")
	}
}

func TestLoadSidecarMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadSidecar("/nonexistent/video.mp4")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSidecar(t *testing.T) {
	s := newTestStore(t)

	video := filepath.Join(t.TempDir(), "clip.mp4")
	if _, err := s.SaveSidecar(testRecord(t, video)); err != nil {
		t.Fatalf("SaveSidecar: %v", err)
	}

	if err := s.DeleteSidecar(video); err != nil {
		t.Fatalf("DeleteSidecar: %v", err)
	}
	if _, err := s.LoadSidecar(video); !errors.Is(err, ErrNotFound) {
		t.Error("sidecar should be gone")
	}

	// Deleting a missing sidecar is not an error.
	if err := s.DeleteSidecar(video); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestHistoryAppendGetDelete(t *testing.T) {
	s := newTestStore(t)

	r := testRecord(t, "/videos/a.mp4")
	if err := s.Append(r); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.Get(r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.VideoPath != "/videos/a.mp4" {
		t.Errorf("video path = %q", got.VideoPath)
	}

	if err := s.Delete(r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(r.ID); !errors.Is(err, ErrNotFound) {
		t.Error("record should be gone")
	}
	if err := s.Delete(r.ID); !errors.Is(err, ErrNotFound) {
		t.Error("deleting a missing record should report ErrNotFound")
	}
}

func TestHistoryListNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for i, name := range []string{"old.mp4", "mid.mp4", "new.mp4"} {
		r := testRecord(t, "/videos/"+name)
		r.CreatedAt = time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if err := s.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	records := s.List(0)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].VideoName != "new.mp4" || records[2].VideoName != "old.mp4" {
		t.Errorf("wrong order: %s, %s, %s",
			records[0].VideoName, records[1].VideoName, records[2].VideoName)
	}

	if got := s.List(2); len(got) != 2 || got[0].VideoName != "new.mp4" {
		t.Errorf("List(2) = %d records, first %q", len(got), got[0].VideoName)
	}
}

func TestHistoryClear(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"a.mp4", "b.mp4"} {
		if err := s.Append(testRecord(t, "/videos/"+name)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	count, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if count != 2 {
		t.Errorf("cleared %d records, want 2", count)
	}
	if got := s.List(0); len(got) != 0 {
		t.Errorf("history should be empty, got %d", len(got))
	}
}

func TestHistoryCorruptStoreStartsFresh(t *testing.T) {
	s := newTestStore(t)

	if err := os.WriteFile(s.storePath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := s.List(0); len(got) != 0 {
		t.Errorf("corrupt store should read as empty, got %d records", len(got))
	}
	if err := s.Append(testRecord(t, "/videos/a.mp4")); err != nil {
		t.Fatalf("Append after corruption: %v", err)
	}
	if got := s.List(0); len(got) != 1 {
		t.Errorf("expected 1 record after recovery, got %d", len(got))
	}
}

func TestIntervalDescription(t *testing.T) {
	r := NewRecord()
	r.SetStrategy(planner.EveryInterval(20*time.Second, 180))

	if r.ExtractionMode != "interval" || r.ExtractionInterval != 20 {
		t.Errorf("strategy not copied: %q %f", r.ExtractionMode, r.ExtractionInterval)
	}
	if r.IntervalDescription() != "every 20s" {
		t.Errorf("description = %q", r.IntervalDescription())
	}

	r.SetStrategy(planner.AllKeyframes(10))
	if r.ExtractionInterval != 0 {
		t.Errorf("all-keyframes strategy must zero the interval, got %f", r.ExtractionInterval)
	}
	if r.IntervalDescription() != "all keyframes" {
		t.Errorf("description = %q", r.IntervalDescription())
	}
}
