package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"tubewatch/features/monitor"
	"tubewatch/internal/adapter/gemini"
	"tubewatch/internal/adapter/mailer"
	"tubewatch/internal/adapter/transcript"
	"tubewatch/internal/adapter/youtube"
	"tubewatch/internal/config"
	"tubewatch/internal/logger"
	"tubewatch/internal/runid"
	"tubewatch/internal/store"
)

func main() {
	slog.SetDefault(slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := runid.WithRunID(context.Background(), runid.New())

	if err := run(ctx, cfg); err != nil {
		slog.ErrorContext(ctx, "run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}

	ytClient, err := youtube.NewClient(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		return err
	}

	summarizer, err := gemini.NewSummarizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return err
	}
	defer summarizer.Close()

	transcripts := transcript.NewFetcher(httpClient, cfg.TranscriptFallbackURL)

	notifier, err := mailer.New(mailer.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		User:      cfg.SMTPUser,
		Password:  cfg.SMTPPassword,
		Recipient: cfg.Recipient,
	})
	if err != nil {
		return err
	}

	dedup, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}

	if cfg.TestMode {
		return selfCheck(ctx, ytClient, transcripts, summarizer, notifier, dedup)
	}

	runner := monitor.NewRunner(ytClient, ytClient, transcripts, summarizer, notifier, dedup,
		monitor.RunConfig{
			Channels:         cfg.ChannelList(),
			PageSize:         cfg.PageSize,
			AlwaysLatest:     cfg.AlwaysLatest,
			RecordOnOverride: cfg.RecordOnOverride,
		})

	rs, err := runner.Run(ctx)
	if err != nil {
		// Persistence failure: fail loudly so the scheduler shows red.
		return err
	}

	slog.InfoContext(ctx, "run complete",
		"channels_checked", rs.ChannelsChecked,
		"new_videos", len(rs.NewVideos),
		"errors", len(rs.Errors))
	return nil
}

func selfCheck(ctx context.Context, yt *youtube.Client, transcripts *transcript.Fetcher,
	summarizer *gemini.Summarizer, notifier *mailer.Mailer, dedup *store.Store) error {
	slog.InfoContext(ctx, "running in test mode")

	report := monitor.SelfCheck(ctx, []monitor.ComponentCheck{
		{Name: "youtube_api", Check: yt.Check},
		{Name: "transcript_api", Check: transcripts.Check},
		{Name: "gemini_api", Check: summarizer.Check},
		{Name: "smtp", Check: notifier.Check},
	})

	if err := dedup.WriteCheckReport(report); err != nil {
		return err
	}
	if !report.AllPassed {
		return errors.New("component checks failed")
	}
	slog.InfoContext(ctx, "all component checks passed", "stats", dedup.Stats())
	return nil
}
