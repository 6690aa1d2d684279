package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	placeholderNoCaptions = "This video has no captions available, so no summary could be generated."
	placeholderNoSummary  = "Summary generation is currently unavailable for this video."
)

// RunConfig is the per-run slice of the configuration surface the
// coordinator needs; credentials and endpoints live in the adapters.
type RunConfig struct {
	Channels []string
	PageSize int64

	// AlwaysLatest selects the newest upload regardless of dedup state.
	// RecordOnOverride controls whether that video is recorded anyway.
	AlwaysLatest     bool
	RecordOnOverride bool
}

type Runner struct {
	resolver    ChannelResolver
	poller      VideoPoller
	transcripts TranscriptFetcher
	summarizer  Summarizer
	notifier    Notifier
	store       DedupStore
	cfg         RunConfig
	now         func() time.Time
}

func NewRunner(resolver ChannelResolver, poller VideoPoller, transcripts TranscriptFetcher,
	summarizer Summarizer, notifier Notifier, store DedupStore, cfg RunConfig) *Runner {
	return &Runner{
		resolver:    resolver,
		poller:      poller,
		transcripts: transcripts,
		summarizer:  summarizer,
		notifier:    notifier,
		store:       store,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Run executes one monitoring pass over all configured channels. Per-video
// and per-channel failures are collected in the returned RunSummary; only a
// failed state flush makes the run itself fail.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	rs := RunSummary{
		RunAt:     r.now().UTC(),
		NewVideos: []string{},
		Outcomes:  []VideoOutcome{},
		Errors:    []string{},
	}

	for _, target := range r.cfg.Channels {
		channel, err := r.resolver.Resolve(ctx, target)
		if err != nil {
			slog.ErrorContext(ctx, "channel resolution failed", "channel", target, "error", err)
			rs.Errors = append(rs.Errors, fmt.Sprintf("resolve %s: %v", target, err))
			continue
		}
		rs.ChannelsChecked++

		videos, err := r.poller.LatestVideos(ctx, channel, r.cfg.PageSize)
		if err != nil {
			slog.ErrorContext(ctx, "poll failed", "channel", channel.ID, "error", err)
			rs.Errors = append(rs.Errors, fmt.Sprintf("poll %s: %v", channel.ID, err))
			continue
		}

		for _, video := range r.selectVideos(videos) {
			r.processVideo(ctx, video, &rs)
		}
	}

	if err := r.store.Flush(rs); err != nil {
		return rs, fmt.Errorf("%w: flushing run state: %v", ErrPersistenceFailed, err)
	}

	// The summary mail is best-effort; state is already durable.
	if err := r.notifier.SendRunSummary(ctx, rs); err != nil {
		slog.ErrorContext(ctx, "run summary delivery failed", "error", err)
	}

	return rs, nil
}

// selectVideos picks which of the polled videos (newest first) to process.
// Normal mode: every unseen video, oldest first, so notifications arrive in
// publish order. Override mode: just the newest, seen or not.
func (r *Runner) selectVideos(videos []Video) []Video {
	if r.cfg.AlwaysLatest {
		if len(videos) == 0 {
			return nil
		}
		return videos[:1]
	}

	var selected []Video
	for i := len(videos) - 1; i >= 0; i-- {
		if r.store.Contains(videos[i].ID) {
			continue
		}
		selected = append(selected, videos[i])
	}
	return selected
}

func (r *Runner) processVideo(ctx context.Context, video Video, rs *RunSummary) {
	slog.InfoContext(ctx, "processing new video", "video_id", video.ID, "title", video.Title)
	rs.NewVideos = append(rs.NewVideos, video.ID)

	outcome := VideoOutcome{VideoID: video.ID, Title: video.Title, Status: OutcomeNotified}

	body := ""
	transcript, err := r.transcripts.Fetch(ctx, video)
	if err != nil {
		slog.WarnContext(ctx, "transcript unavailable", "video_id", video.ID, "error", err)
		rs.Errors = append(rs.Errors, fmt.Sprintf("transcript %s: %v", video.ID, err))
		body = placeholderNoCaptions
		outcome.Status = OutcomeDegraded
	} else {
		if err := r.store.SaveTranscript(transcript, video.ChannelID); err != nil {
			slog.WarnContext(ctx, "saving transcript failed", "video_id", video.ID, "error", err)
		}

		summary, err := r.summarizer.Summarize(ctx, video, transcript)
		if err != nil {
			slog.WarnContext(ctx, "summarization failed", "video_id", video.ID, "error", err)
			rs.Errors = append(rs.Errors, fmt.Sprintf("summarize %s: %v", video.ID, err))
			body = placeholderNoSummary
			outcome.Status = OutcomeDegraded
		} else {
			body = summary.Text
		}
	}
	outcome.Summary = body

	if err := r.notifier.SendVideoNotification(ctx, video, body); err != nil {
		slog.ErrorContext(ctx, "notification delivery failed", "video_id", video.ID, "error", err)
		rs.Errors = append(rs.Errors, fmt.Sprintf("notify %s: %v", video.ID, err))
		outcome.Status = OutcomeFailed
		rs.Outcomes = append(rs.Outcomes, outcome)
		// Not recorded: the next run rediscovers this video and retries.
		return
	}

	if !r.cfg.AlwaysLatest || r.cfg.RecordOnOverride {
		r.store.Record(video, r.now().UTC())
	}
	rs.Outcomes = append(rs.Outcomes, outcome)
}
