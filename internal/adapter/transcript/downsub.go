package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"tubewatch/features/monitor"
	"tubewatch/internal/text"
)

// DownSub is the fallback transcript provider, a hosted subtitle service
// that extracts caption files given a video URL. It survives the cases
// where the watch-page scrape is blocked for datacenter IPs.
type DownSub struct {
	client  *http.Client
	baseURL string
}

func NewDownSub(client *http.Client, baseURL string) *DownSub {
	return &DownSub{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (d *DownSub) Source() monitor.TranscriptSource { return monitor.SourceFallback }

type subtitleInfo struct {
	Language string `json:"language"`
	URL      string `json:"url"`
}

type subtitleListResponse struct {
	Subtitles []subtitleInfo `json:"subtitles"`
}

func (d *DownSub) Fetch(ctx context.Context, videoID string) (string, string, error) {
	videoURL := "https://www.youtube.com/watch?v=" + videoID
	listURL := d.baseURL + "/api/subtitles?url=" + url.QueryEscape(videoURL)

	var list subtitleListResponse
	if err := d.getJSON(ctx, listURL, &list); err != nil {
		return "", "", fmt.Errorf("listing subtitles: %w", err)
	}
	if len(list.Subtitles) == 0 {
		return "", "", errNoCaptions
	}

	byLang := map[string]subtitleInfo{}
	langs := make([]string, 0, len(list.Subtitles))
	for _, sub := range list.Subtitles {
		byLang[sub.Language] = sub
		langs = append(langs, sub.Language)
	}
	lang, _ := pickLanguage(langs)
	sub := byLang[lang]

	raw, err := d.get(ctx, sub.URL)
	if err != nil {
		return "", "", fmt.Errorf("downloading subtitle: %w", err)
	}

	body := cleanSubtitle(string(raw))
	if body == "" {
		return "", "", errNoCaptions
	}
	return body, sub.Language, nil
}

func (d *DownSub) getJSON(ctx context.Context, u string, v any) error {
	raw, err := d.get(ctx, u)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (d *DownSub) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", res.StatusCode, u)
	}
	return io.ReadAll(res.Body)
}

var (
	timestampRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}`)
	cueNumberRe = regexp.MustCompile(`^\d+$`)
	vttHeaderRe = regexp.MustCompile(`^(WEBVTT|Kind:|Language:)`)
)

// cleanSubtitle reduces SRT/VTT content to plain text: cue numbers,
// timestamp lines, and headers are dropped, segments deduplicated.
func cleanSubtitle(content string) string {
	var segments []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || cueNumberRe.MatchString(line) ||
			timestampRe.MatchString(line) || vttHeaderRe.MatchString(line) {
			continue
		}
		segments = append(segments, line)
	}
	return text.JoinSegments(segments)
}
