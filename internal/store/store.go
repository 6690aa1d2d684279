package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tubewatch/features/monitor"
)

const (
	processedFile  = "processed_videos.json"
	runSummaryFile = "last_run_summary.json"
	checkFile      = "test_results.json"
	transcriptsDir = "transcripts"
)

// ProcessedRecord is the durable membership record preventing duplicate
// notifications across runs.
type ProcessedRecord struct {
	VideoID     string    `json:"video_id"`
	ChannelID   string    `json:"channel_id"`
	Title       string    `json:"title"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Store keeps the dedup state of the previous run in memory and flushes
// mutations atomically at run end, so a mid-run crash never leaves a
// partially written state file.
type Store struct {
	dataDir string

	mu        sync.Mutex
	processed map[string]ProcessedRecord
}

// Open loads the persisted dedup state, starting empty when no state file
// exists yet (first run).
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	s := &Store{dataDir: dataDir, processed: map[string]ProcessedRecord{}}

	raw, err := os.ReadFile(filepath.Join(dataDir, processedFile))
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading processed state: %w", err)
	}
	if err := json.Unmarshal(raw, &s.processed); err != nil {
		return nil, fmt.Errorf("decoding processed state: %w", err)
	}

	slog.Info("dedup store loaded", "dir", dataDir, "videos", len(s.processed))
	return s, nil
}

func (s *Store) Contains(videoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[videoID]
	return ok
}

func (s *Store) Record(video monitor.Video, processedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[video.ID] = ProcessedRecord{
		VideoID:     video.ID,
		ChannelID:   video.ChannelID,
		Title:       video.Title,
		ProcessedAt: processedAt,
	}
}

// SaveTranscript writes the fetched transcript under
// transcripts/<channel>/<video>.json. Transcripts are informational and
// written immediately rather than buffered with the dedup state.
func (s *Store) SaveTranscript(tr monitor.Transcript, channelID string) error {
	dir := filepath.Join(s.dataDir, transcriptsDir, channelID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating transcript dir: %w", err)
	}
	return writeJSONAtomic(filepath.Join(dir, tr.VideoID+".json"), tr)
}

// Flush persists the dedup state and the run summary. Both writes go
// through a temp file and rename, keeping the previous state intact if the
// process dies mid-write.
func (s *Store) Flush(rs monitor.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSONAtomic(filepath.Join(s.dataDir, processedFile), s.processed); err != nil {
		return fmt.Errorf("writing processed state: %w", err)
	}
	if err := writeJSONAtomic(filepath.Join(s.dataDir, runSummaryFile), rs); err != nil {
		return fmt.Errorf("writing run summary: %w", err)
	}

	slog.Info("dedup store flushed", "videos", len(s.processed), "new", len(rs.NewVideos))
	return nil
}

// WriteCheckReport persists test-mode results next to the run state.
func (s *Store) WriteCheckReport(report monitor.CheckReport) error {
	return writeJSONAtomic(filepath.Join(s.dataDir, checkFile), report)
}

type Stats struct {
	VideosProcessed  int `json:"videos_processed"`
	TranscriptsSaved int `json:"transcripts_saved"`
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{VideosProcessed: len(s.processed)}
	_ = filepath.WalkDir(filepath.Join(s.dataDir, transcriptsDir), func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && filepath.Ext(path) == ".json" {
			st.TranscriptsSaved++
		}
		return nil
	})
	return st
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
