package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tubewatch/features/monitor"
)

// Caption availability is usually permanent for a video, so providers get
// one retry for transient failures and none for a definitive "no captions".
var errNoCaptions = errors.New("no caption tracks")

var preferredLanguages = []string{"en", "en-US", "en-GB"}

// checkVideoID is a long-lived public video with captions, used by Check.
const checkVideoID = "dQw4w9WgXcQ"

// Provider is one transcript source keyed by video ID.
type Provider interface {
	Source() monitor.TranscriptSource
	Fetch(ctx context.Context, videoID string) (text, language string, err error)
}

// Fetcher tries each provider in order, primary first.
type Fetcher struct {
	providers []Provider
	backoff   time.Duration
}

// NewFetcher builds the provider chain: the YouTube timedtext scraper,
// plus a DownSub-style fallback when fallbackURL is set.
func NewFetcher(client *http.Client, fallbackURL string) *Fetcher {
	providers := []Provider{NewTimedText(client)}
	if fallbackURL != "" {
		providers = append(providers, NewDownSub(client, fallbackURL))
	}
	return &Fetcher{providers: providers, backoff: 2 * time.Second}
}

// NewFetcherWithProviders is the injection point for tests.
func NewFetcherWithProviders(backoff time.Duration, providers ...Provider) *Fetcher {
	return &Fetcher{providers: providers, backoff: backoff}
}

func (f *Fetcher) Fetch(ctx context.Context, video monitor.Video) (monitor.Transcript, error) {
	for _, p := range f.providers {
		text, lang, err := f.fetchWithRetry(ctx, p, video.ID)
		if err == nil && text != "" {
			slog.InfoContext(ctx, "transcript fetched",
				"video_id", video.ID, "source", p.Source(), "language", lang, "chars", len(text))
			return monitor.Transcript{
				VideoID:  video.ID,
				Language: lang,
				Text:     text,
				Source:   p.Source(),
			}, nil
		}
		slog.WarnContext(ctx, "transcript provider failed",
			"video_id", video.ID, "source", p.Source(), "error", err)
	}
	return monitor.Transcript{}, fmt.Errorf("%w: video %s", monitor.ErrTranscriptUnavailable, video.ID)
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, p Provider, videoID string) (string, string, error) {
	text, lang, err := p.Fetch(ctx, videoID)
	if err == nil || errors.Is(err, errNoCaptions) {
		return text, lang, err
	}

	select {
	case <-time.After(f.backoff):
	case <-ctx.Done():
		return "", "", ctx.Err()
	}
	return p.Fetch(ctx, videoID)
}

// Check fetches captions for a known video, proving the provider chain is
// reachable from this network.
func (f *Fetcher) Check(ctx context.Context) error {
	_, err := f.Fetch(ctx, monitor.Video{ID: checkVideoID})
	return err
}

// pickLanguage selects the best track from available language codes:
// preferred languages in order, then whatever is first.
func pickLanguage(available []string) (string, bool) {
	if len(available) == 0 {
		return "", false
	}
	for _, want := range preferredLanguages {
		for _, have := range available {
			if have == want {
				return have, true
			}
		}
	}
	return available[0], true
}
