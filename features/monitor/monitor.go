package monitor

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy for one pipeline run. Transcript and summarization
// failures degrade the notification content; delivery failure blocks the
// dedup record; persistence failure is the only fatal outcome.
var (
	ErrChannelNotFound       = errors.New("channel not found")
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrQuotaExceeded         = errors.New("quota exceeded")
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	ErrSummarizationFailed   = errors.New("summarization failed")
	ErrDeliveryFailed        = errors.New("delivery failed")
	ErrPersistenceFailed     = errors.New("persistence failed")
)

type Channel struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	UploadsPlaylistID string `json:"uploads_playlist_id"`
}

type Video struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Duration     string    `json:"duration"`
	ViewCount    uint64    `json:"view_count"`
	PublishedAt  time.Time `json:"published_at"`
}

type TranscriptSource string

const (
	SourcePrimary  TranscriptSource = "primary"
	SourceFallback TranscriptSource = "fallback"
)

type Transcript struct {
	VideoID  string           `json:"video_id"`
	Language string           `json:"language"`
	Text     string           `json:"text"`
	Source   TranscriptSource `json:"source"`
}

type Summary struct {
	VideoID     string    `json:"video_id"`
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Per-item outcome in the run summary.
const (
	OutcomeNotified = "notified" // full summary delivered
	OutcomeDegraded = "degraded" // delivered without transcript or summary
	OutcomeFailed   = "failed"   // delivery failed, will be retried next run
)

type VideoOutcome struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Summary string `json:"summary,omitempty"`
}

// RunSummary is written once per run, replacing the previous run's file.
type RunSummary struct {
	RunAt           time.Time      `json:"run_at"`
	ChannelsChecked int            `json:"channels_checked"`
	NewVideos       []string       `json:"new_videos"`
	Outcomes        []VideoOutcome `json:"outcomes"`
	Errors          []string       `json:"errors"`
}

// Narrow capability interfaces over the hosted services; each is the single
// point where that service's nondeterminism enters the pipeline.

type ChannelResolver interface {
	Resolve(ctx context.Context, handleOrID string) (Channel, error)
}

type VideoPoller interface {
	LatestVideos(ctx context.Context, channel Channel, pageSize int64) ([]Video, error)
}

type TranscriptFetcher interface {
	Fetch(ctx context.Context, video Video) (Transcript, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, video Video, transcript Transcript) (Summary, error)
}

type Notifier interface {
	SendVideoNotification(ctx context.Context, video Video, summary string) error
	SendRunSummary(ctx context.Context, rs RunSummary) error
}

type DedupStore interface {
	Contains(videoID string) bool
	Record(video Video, processedAt time.Time)
	SaveTranscript(tr Transcript, channelID string) error
	Flush(rs RunSummary) error
}
