package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"tubewatch/features/monitor"
)

// Raw channel identifiers are "UC" plus 22 URL-safe base64 chars; anything
// else is treated as a handle.
var channelIDRe = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)

// checkVideoID is a long-lived public video used for the quota probe.
const checkVideoID = "dQw4w9WgXcQ"

type Client struct {
	svc *youtube.Service
}

func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Resolve maps a handle or raw channel ID to channel metadata, including
// the uploads playlist the poller reads from. Handles try the newer
// forHandle lookup first, then the legacy forUsername parameter.
func (c *Client) Resolve(ctx context.Context, handleOrID string) (monitor.Channel, error) {
	call := c.svc.Channels.List([]string{"snippet", "contentDetails"}).Context(ctx)

	if channelIDRe.MatchString(handleOrID) {
		res, err := call.Id(handleOrID).Do()
		if err != nil {
			return monitor.Channel{}, mapAPIError(err)
		}
		return channelFromItems(res.Items, handleOrID)
	}

	handle := strings.TrimPrefix(handleOrID, "@")
	res, err := call.ForHandle(handle).Do()
	if err != nil {
		return monitor.Channel{}, mapAPIError(err)
	}
	if len(res.Items) == 0 {
		res, err = c.svc.Channels.List([]string{"snippet", "contentDetails"}).
			Context(ctx).ForUsername(handle).Do()
		if err != nil {
			return monitor.Channel{}, mapAPIError(err)
		}
	}
	return channelFromItems(res.Items, handleOrID)
}

func channelFromItems(items []*youtube.Channel, target string) (monitor.Channel, error) {
	if len(items) == 0 {
		return monitor.Channel{}, fmt.Errorf("%w: %s", monitor.ErrChannelNotFound, target)
	}
	ch := items[0]
	return monitor.Channel{
		ID:                ch.Id,
		Title:             ch.Snippet.Title,
		UploadsPlaylistID: ch.ContentDetails.RelatedPlaylists.Uploads,
	}, nil
}

// LatestVideos lists one page of the channel's uploads playlist, newest
// first, enriched with duration and view counts from a single videos.list
// batch call. pageSize bounds the daily quota spend per channel.
func (c *Client) LatestVideos(ctx context.Context, channel monitor.Channel, pageSize int64) ([]monitor.Video, error) {
	res, err := c.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		Context(ctx).
		PlaylistId(channel.UploadsPlaylistID).
		MaxResults(pageSize).
		Do()
	if err != nil {
		return nil, mapAPIError(err)
	}
	if len(res.Items) == 0 {
		return nil, nil
	}

	videos := make([]monitor.Video, 0, len(res.Items))
	ids := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		publishedAt, err := time.Parse(time.RFC3339, item.ContentDetails.VideoPublishedAt)
		if err != nil {
			// Private/scheduled items have no publish time; skip them.
			slog.DebugContext(ctx, "skipping playlist item without publish time",
				"video_id", item.ContentDetails.VideoId)
			continue
		}
		id := item.ContentDetails.VideoId
		ids = append(ids, id)
		videos = append(videos, monitor.Video{
			ID:           id,
			ChannelID:    channel.ID,
			ChannelTitle: channel.Title,
			Title:        item.Snippet.Title,
			URL:          "https://www.youtube.com/watch?v=" + id,
			PublishedAt:  publishedAt,
		})
	}

	if len(ids) == 0 {
		return nil, nil
	}

	details, err := c.svc.Videos.List([]string{"contentDetails", "statistics"}).
		Context(ctx).Id(ids...).Do()
	if err != nil {
		return nil, mapAPIError(err)
	}
	byID := make(map[string]*youtube.Video, len(details.Items))
	for _, v := range details.Items {
		byID[v.Id] = v
	}
	for i := range videos {
		d, ok := byID[videos[i].ID]
		if !ok {
			continue
		}
		videos[i].Duration = FormatDuration(d.ContentDetails.Duration)
		if d.Statistics != nil {
			videos[i].ViewCount = d.Statistics.ViewCount
		}
	}

	sort.Slice(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})
	return videos, nil
}

// Check probes the API with a minimal videos.list call, surfacing quota
// exhaustion or a bad key before a real run.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.svc.Videos.List([]string{"id"}).Context(ctx).Id(checkVideoID).Do()
	if err != nil {
		return mapAPIError(err)
	}
	return nil
}

// mapAPIError folds googleapi errors into the pipeline taxonomy. A 403 is
// treated as quota exhaustion unless the API names a different reason.
func mapAPIError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 403 {
			for _, e := range gerr.Errors {
				if e.Reason != "" && e.Reason != "quotaExceeded" && e.Reason != "rateLimitExceeded" {
					return fmt.Errorf("%w: %v", monitor.ErrUpstreamUnavailable, err)
				}
			}
			return fmt.Errorf("%w: %v", monitor.ErrQuotaExceeded, err)
		}
		if gerr.Code == 404 {
			return fmt.Errorf("%w: %v", monitor.ErrChannelNotFound, err)
		}
	}
	return fmt.Errorf("%w: %v", monitor.ErrUpstreamUnavailable, err)
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// FormatDuration renders an ISO-8601 video duration (PT4M13S) in the
// familiar clock style (4:13, 1:02:03). Unparseable input comes back as-is.
func FormatDuration(iso string) string {
	m := isoDurationRe.FindStringSubmatch(iso)
	if m == nil {
		return iso
	}
	h := atoiDefault(m[1])
	min := atoiDefault(m[2])
	sec := atoiDefault(m[3])
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, min, sec)
	}
	return fmt.Sprintf("%d:%02d", min, sec)
}

func atoiDefault(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
