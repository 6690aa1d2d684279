package youtube_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"tubewatch/features/monitor"
	yt "tubewatch/internal/adapter/youtube"
)

const (
	channelJSON = `{"items":[{"id":"UCtest12345678901234567890","snippet":{"title":"Some Creator"},"contentDetails":{"relatedPlaylists":{"uploads":"UUtest"}}}]}`

	playlistJSON = `{"items":[
		{"snippet":{"title":"older video"},"contentDetails":{"videoId":"vidold000001","videoPublishedAt":"2026-02-01T10:00:00Z"}},
		{"snippet":{"title":"newer video"},"contentDetails":{"videoId":"vidnew000001","videoPublishedAt":"2026-03-01T10:00:00Z"}}
	]}`

	videosJSON = `{"items":[
		{"id":"vidold000001","contentDetails":{"duration":"PT4M13S"},"statistics":{"viewCount":"1234"}},
		{"id":"vidnew000001","contentDetails":{"duration":"PT1H2M3S"},"statistics":{"viewCount":"99"}}
	]}`
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *yt.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := yt.NewClient(context.Background(), "test-key",
		option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	return client
}

func TestResolve_RawID(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(channelJSON))
	})

	ch, err := client.Resolve(context.Background(), "UCtest12345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "UCtest12345678901234567890", ch.ID)
	assert.Equal(t, "Some Creator", ch.Title)
	assert.Equal(t, "UUtest", ch.UploadsPlaylistID)
	assert.Contains(t, gotQuery, "id=UCtest12345678901234567890")
}

func TestResolve_Handle(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(channelJSON))
	})

	ch, err := client.Resolve(context.Background(), "@somecreator")
	require.NoError(t, err)
	assert.Equal(t, "Some Creator", ch.Title)
	assert.Contains(t, gotQuery, "forHandle=somecreator")
}

func TestResolve_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	})

	_, err := client.Resolve(context.Background(), "@nobody")
	assert.ErrorIs(t, err, monitor.ErrChannelNotFound)
}

func TestResolve_QuotaExceeded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"errors":[{"reason":"quotaExceeded","message":"quota"}]}}`))
	})

	_, err := client.Resolve(context.Background(), "@somecreator")
	assert.ErrorIs(t, err, monitor.ErrQuotaExceeded)
}

func TestLatestVideos(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "playlistItems"):
			w.Write([]byte(playlistJSON))
		case strings.Contains(r.URL.Path, "videos"):
			w.Write([]byte(videosJSON))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	channel := monitor.Channel{ID: "UCx", Title: "Some Creator", UploadsPlaylistID: "UUtest"}
	videos, err := client.LatestVideos(context.Background(), channel, 10)
	require.NoError(t, err)
	require.Len(t, videos, 2)

	// Newest first, regardless of playlist order.
	assert.Equal(t, "vidnew000001", videos[0].ID)
	assert.Equal(t, "1:02:03", videos[0].Duration)
	assert.Equal(t, uint64(99), videos[0].ViewCount)
	assert.Equal(t, "vidold000001", videos[1].ID)
	assert.Equal(t, "4:13", videos[1].Duration)
	assert.Equal(t, "https://www.youtube.com/watch?v=vidold000001", videos[1].URL)
	assert.Equal(t, "Some Creator", videos[1].ChannelTitle)
}

func TestLatestVideos_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	})

	channel := monitor.Channel{UploadsPlaylistID: "UUtest"}
	videos, err := client.LatestVideos(context.Background(), channel, 10)
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestFormatDuration(t *testing.T) {
	cases := map[string]string{
		"PT4M13S":   "4:13",
		"PT1H2M3S":  "1:02:03",
		"PT45S":     "0:45",
		"PT2H":      "2:00:00",
		"not-a-dur": "not-a-dur",
	}
	for in, want := range cases {
		assert.Equal(t, want, yt.FormatDuration(in), in)
	}
}
