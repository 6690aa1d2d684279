package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"

	"tubewatch/features/monitor"
)

// sender is the slice of *mail.Client the mailer uses; injectable in tests.
type sender interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
	DialWithContext(ctx context.Context) error
	Close() error
}

type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	Recipient string
}

// Mailer sends one plain-text message per notified video, plus a run
// summary mail at the end of each run.
type Mailer struct {
	client sender
	cfg    Config
}

func New(cfg Config) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}
	return &Mailer{client: client, cfg: cfg}, nil
}

func (m *Mailer) SendVideoNotification(ctx context.Context, video monitor.Video, summary string) error {
	msg, err := m.newMessage(
		fmt.Sprintf("New video from %s: %s", video.ChannelTitle, video.Title),
		FormatVideoBody(video, summary),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", monitor.ErrDeliveryFailed, err)
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", monitor.ErrDeliveryFailed, err)
	}
	slog.InfoContext(ctx, "notification sent", "video_id", video.ID, "recipient", m.cfg.Recipient)
	return nil
}

func (m *Mailer) SendRunSummary(ctx context.Context, rs monitor.RunSummary) error {
	msg, err := m.newMessage(
		fmt.Sprintf("YouTube monitor: %d new videos", len(rs.NewVideos)),
		FormatRunSummaryBody(rs),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", monitor.ErrDeliveryFailed, err)
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", monitor.ErrDeliveryFailed, err)
	}
	return nil
}

// Check dials the SMTP relay and authenticates without sending anything.
func (m *Mailer) Check(ctx context.Context) error {
	if err := m.client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp check: %w", err)
	}
	return m.client.Close()
}

func (m *Mailer) newMessage(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.User); err != nil {
		return nil, err
	}
	if err := msg.To(m.cfg.Recipient); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func FormatVideoBody(video monitor.Video, summary string) string {
	var b strings.Builder
	b.WriteString("New video notification\n\n")
	fmt.Fprintf(&b, "Title: %s\n", video.Title)
	fmt.Fprintf(&b, "Channel: %s\n", video.ChannelTitle)
	if video.Duration != "" {
		fmt.Fprintf(&b, "Duration: %s\n", video.Duration)
	}
	fmt.Fprintf(&b, "Views: %d\n", video.ViewCount)
	fmt.Fprintf(&b, "Published: %s\n", video.PublishedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Link: %s\n\n", video.URL)
	b.WriteString("Summary:\n")
	b.WriteString(summary)
	b.WriteString("\n")
	return b.String()
}

func FormatRunSummaryBody(rs monitor.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run at: %s\n", rs.RunAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Channels checked: %d\n", rs.ChannelsChecked)
	fmt.Fprintf(&b, "New videos: %d\n\n", len(rs.NewVideos))

	for _, o := range rs.Outcomes {
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", o.Status, o.Title, o.VideoID)
	}
	if len(rs.Outcomes) == 0 {
		b.WriteString("No new videos this run.\n")
	}

	if len(rs.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range rs.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	return b.String()
}
