package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"tubewatch/features/monitor"
)

type fakeSender struct {
	sent    []*mail.Msg
	sendErr error
	dialErr error
}

func (f *fakeSender) DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func (f *fakeSender) DialWithContext(ctx context.Context) error { return f.dialErr }
func (f *fakeSender) Close() error                              { return nil }

func testMailer(s sender) *Mailer {
	return &Mailer{client: s, cfg: Config{
		Host: "smtp.example.com", Port: 587,
		User: "bot@example.com", Recipient: "me@example.com",
	}}
}

func sampleVideo() monitor.Video {
	return monitor.Video{
		ID:           "v1",
		Title:        "Go Generics Deep Dive",
		ChannelTitle: "Some Creator",
		Duration:     "14:02",
		ViewCount:    1234,
		URL:          "https://www.youtube.com/watch?v=v1",
		PublishedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSendVideoNotification(t *testing.T) {
	fake := &fakeSender{}
	m := testMailer(fake)

	err := m.SendVideoNotification(context.Background(), sampleVideo(), "a summary")
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)

	msg := fake.sent[0]
	subject := msg.GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	assert.Equal(t, "New video from Some Creator: Go Generics Deep Dive", subject[0])
}

func TestSendVideoNotification_DeliveryFailed(t *testing.T) {
	fake := &fakeSender{sendErr: errors.New("535 auth failed")}
	m := testMailer(fake)

	err := m.SendVideoNotification(context.Background(), sampleVideo(), "a summary")
	assert.ErrorIs(t, err, monitor.ErrDeliveryFailed)
}

func TestSendRunSummary(t *testing.T) {
	fake := &fakeSender{}
	m := testMailer(fake)

	rs := monitor.RunSummary{NewVideos: []string{"v1", "v2"}}
	require.NoError(t, m.SendRunSummary(context.Background(), rs))
	require.Len(t, fake.sent, 1)

	subject := fake.sent[0].GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	assert.Equal(t, "YouTube monitor: 2 new videos", subject[0])
}

func TestFormatVideoBody(t *testing.T) {
	body := FormatVideoBody(sampleVideo(), "the summary text")
	assert.Contains(t, body, "Title: Go Generics Deep Dive")
	assert.Contains(t, body, "Channel: Some Creator")
	assert.Contains(t, body, "Duration: 14:02")
	assert.Contains(t, body, "Views: 1234")
	assert.Contains(t, body, "Link: https://www.youtube.com/watch?v=v1")
	assert.Contains(t, body, "the summary text")
}

func TestFormatRunSummaryBody(t *testing.T) {
	rs := monitor.RunSummary{
		RunAt:           time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
		ChannelsChecked: 2,
		NewVideos:       []string{"v1"},
		Outcomes: []monitor.VideoOutcome{
			{VideoID: "v1", Title: "Go Generics Deep Dive", Status: monitor.OutcomeNotified},
		},
		Errors: []string{"poll UCx: quota exceeded"},
	}

	body := FormatRunSummaryBody(rs)
	assert.Contains(t, body, "Channels checked: 2")
	assert.Contains(t, body, "[notified] Go Generics Deep Dive (v1)")
	assert.Contains(t, body, "quota exceeded")
}

func TestFormatRunSummaryBody_Empty(t *testing.T) {
	body := FormatRunSummaryBody(monitor.RunSummary{NewVideos: []string{}})
	assert.Contains(t, body, "No new videos this run.")
}
