package youtube

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/MyTube/internal/logging"
	"github.com/TobiSchelling/MyTube/internal/metrics"
)

const DefaultFeedBaseURL = "https://www.youtube.com/feeds/videos.xml"

// FeedClient reads the public upload feed of a channel. It needs no API key.
type FeedClient struct {
	baseURL string
	timeout time.Duration
	parser  *gofeed.Parser
}

// NewFeedClient creates a channel feed reader.
func NewFeedClient(baseURL string, timeout time.Duration) *FeedClient {
	if baseURL == "" {
		baseURL = DefaultFeedBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FeedClient{baseURL: baseURL, timeout: timeout, parser: gofeed.NewParser()}
}

// ChannelVideoIDs returns the video ids of a channel's feed, newest first.
func (f *FeedClient) ChannelVideoIDs(ctx context.Context, channelID string) ([]string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, &ProviderError{Kind: KindUnknown, Op: "feed", Err: err}
	}
	q := u.Query()
	q.Set("channel_id", channelID)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	feed, err := f.parser.ParseURLWithContext(u.String(), ctx)
	if err != nil {
		perr := feedError(err)
		metrics.RecordAPIRequest("feed", string(perr.Kind), time.Since(start))
		return nil, perr
	}
	metrics.RecordAPIRequest("feed", "ok", time.Since(start))

	var ids []string
	for _, item := range feed.Items {
		if id := itemVideoID(item); id != "" {
			ids = append(ids, id)
		}
	}
	logging.Debug().Str("channel", channelID).Int("ids", len(ids)).Msg("parsed channel feed")
	return ids, nil
}

func feedError(err error) *ProviderError {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		kind := KindUnknown
		if httpErr.StatusCode >= 500 {
			kind = KindNetwork
		}
		return &ProviderError{Kind: kind, Op: "feed", Status: httpErr.StatusCode, Err: err}
	}
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return &ProviderError{Kind: KindUnknown, Op: "feed", Err: err}
	}
	return &ProviderError{Kind: KindNetwork, Op: "feed", Err: err}
}

// itemVideoID reads the yt:videoId extension, falling back to the watch
// link and the "yt:video:" guid.
func itemVideoID(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		if vals := yt["videoId"]; len(vals) > 0 && vals[0].Value != "" {
			return vals[0].Value
		}
	}
	if item.Link != "" {
		if u, err := url.Parse(item.Link); err == nil {
			if v := u.Query().Get("v"); v != "" {
				return v
			}
		}
	}
	if id, ok := strings.CutPrefix(item.GUID, "yt:video:"); ok {
		return id
	}
	return ""
}
