package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timedTextXML = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.1">so today we&#39;re going</text>
  <text start="2.1" dur="1.8">[Music]</text>
  <text start="3.9" dur="2.5">to talk about Go</text>
</transcript>`

func newTimedTextServer(t *testing.T, tracksJSON string) (*httptest.Server, *TimedText) {
	t.Helper()
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		// The track JSON embeds the server's own timedtext URL.
		page := fmt.Sprintf(`<html>...."captionTracks":%s,"other":1....</html>`,
			strings.ReplaceAll(tracksJSON, "{{base}}", ts.URL))
		w.Write([]byte(page))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(timedTextXML))
	})

	tt := NewTimedText(ts.Client())
	tt.watchBase = ts.URL
	return ts, tt
}

func TestTimedText_Fetch(t *testing.T) {
	_, tt := newTimedTextServer(t,
		`[{"baseUrl":"{{base}}/api/timedtext?lang=en","languageCode":"en"}]`)

	text, lang, err := tt.Fetch(context.Background(), "vid123")
	require.NoError(t, err)
	assert.Equal(t, "en", lang)
	assert.Equal(t, "so today we're going to talk about Go", text)
}

func TestTimedText_AutoGeneratedMarked(t *testing.T) {
	_, tt := newTimedTextServer(t,
		`[{"baseUrl":"{{base}}/api/timedtext?lang=en","languageCode":"en","kind":"asr"}]`)

	_, lang, err := tt.Fetch(context.Background(), "vid123")
	require.NoError(t, err)
	assert.Equal(t, "en-auto", lang)
}

func TestTimedText_NoCaptions(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>no player config here</html>`))
	})

	tt := NewTimedText(ts.Client())
	tt.watchBase = ts.URL

	_, _, err := tt.Fetch(context.Background(), "vid123")
	assert.ErrorIs(t, err, errNoCaptions)
}

func TestSelectTrack_PrefersManualOverAuto(t *testing.T) {
	page := []byte(`"captionTracks":[` +
		`{"baseUrl":"u1","languageCode":"en","kind":"asr"},` +
		`{"baseUrl":"u2","languageCode":"de"},` +
		`{"baseUrl":"u3","languageCode":"en"}]`)

	track, ok := selectTrack(page)
	require.True(t, ok)
	assert.Equal(t, "u3", track.BaseURL)
}

func TestSelectTrack_AutoWhenNoManualPreferred(t *testing.T) {
	page := []byte(`"captionTracks":[` +
		`{"baseUrl":"u1","languageCode":"en","kind":"asr"}]`)

	track, ok := selectTrack(page)
	require.True(t, ok)
	assert.Equal(t, "u1", track.BaseURL)
	assert.Equal(t, "asr", track.Kind)
}
