package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"

	"tubewatch/features/monitor"
	"tubewatch/internal/text"
)

// captionTracksRe pulls the caption track list out of the player config
// embedded in the watch page.
var captionTracksRe = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

const watchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" marks auto-generated tracks
}

// TimedText is the primary transcript provider. It scrapes the watch page
// for caption track URLs and downloads the timedtext XML directly, the
// same data path the player itself uses.
type TimedText struct {
	client    *http.Client
	watchBase string
}

func NewTimedText(client *http.Client) *TimedText {
	return &TimedText{client: client, watchBase: "https://www.youtube.com"}
}

func (t *TimedText) Source() monitor.TranscriptSource { return monitor.SourcePrimary }

func (t *TimedText) Fetch(ctx context.Context, videoID string) (string, string, error) {
	page, err := t.get(ctx, t.watchBase+"/watch?v="+videoID)
	if err != nil {
		return "", "", fmt.Errorf("fetching watch page: %w", err)
	}

	track, ok := selectTrack(page)
	if !ok {
		return "", "", errNoCaptions
	}

	raw, err := t.get(ctx, track.BaseURL)
	if err != nil {
		return "", "", fmt.Errorf("fetching timedtext: %w", err)
	}

	body, err := parseTimedText(raw)
	if err != nil {
		return "", "", err
	}
	if body == "" {
		return "", "", errNoCaptions
	}

	language := track.LanguageCode
	if track.Kind == "asr" {
		language += "-auto"
	}
	return body, language, nil
}

func (t *TimedText) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", watchUserAgent)

	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", res.StatusCode, url)
	}
	return io.ReadAll(res.Body)
}

// selectTrack parses the caption track list and picks the best one:
// manually written tracks in a preferred language beat auto-generated
// ones, which beat any remaining track.
func selectTrack(page []byte) (captionTrack, bool) {
	m := captionTracksRe.FindSubmatch(page)
	if m == nil {
		return captionTrack{}, false
	}

	var tracks []captionTrack
	if err := json.Unmarshal(m[1], &tracks); err != nil || len(tracks) == 0 {
		return captionTrack{}, false
	}

	var manual, auto []string
	byLang := map[string]captionTrack{}
	for _, tr := range tracks {
		key := tr.LanguageCode + "/" + tr.Kind
		byLang[key] = tr
		if tr.Kind == "asr" {
			auto = append(auto, tr.LanguageCode)
		} else {
			manual = append(manual, tr.LanguageCode)
		}
	}

	if lang, ok := pickLanguage(manual); ok {
		return byLang[lang+"/"], true
	}
	if lang, ok := pickLanguage(auto); ok {
		return byLang[lang+"/asr"], true
	}
	return tracks[0], true
}

type timedTextDoc struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func parseTimedText(raw []byte) (string, error) {
	var doc timedTextDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("parsing timedtext xml: %w", err)
	}

	segments := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		segments = append(segments, html.UnescapeString(t.Value))
	}
	return text.JoinSegments(segments), nil
}
