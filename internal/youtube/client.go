// Package youtube talks to the YouTube Data API v3 and the public channel
// feeds.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/TobiSchelling/MyTube/internal/logging"
	"github.com/TobiSchelling/MyTube/internal/metrics"
	"github.com/TobiSchelling/MyTube/internal/models"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// maxPageSize is the API's per-request cap for search results and ids.
	maxPageSize = 50
	breakerName = "youtube-api"
)

// Options configures a Client.
type Options struct {
	APIKey            string
	BaseURL           string
	PublishedAfter    time.Time
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client is a rate limited, circuit broken Data API client.
type Client struct {
	apiKey         string
	baseURL        string
	publishedAfter time.Time
	http           *http.Client
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a Data API client. An empty APIKey is allowed; every
// call then fails with ErrMissingAPIKey.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &Client{
		apiKey:         opts.APIKey,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		publishedAfter: opts.PublishedAfter,
		http:           opts.HTTPClient,
		limiter:        rate.NewLimiter(limit, opts.Burst),
		breaker:        newBreaker(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Caller cancellation says nothing about the API's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Search returns up to limit video ids for query, most viewed first,
// restricted to videos published after the configured cutoff.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	params := url.Values{
		"q":          {query},
		"part":       {"id"},
		"type":       {"video"},
		"order":      {"viewCount"},
		"maxResults": {strconv.Itoa(limit)},
	}
	if !c.publishedAfter.IsZero() {
		params.Set("publishedAfter", c.publishedAfter.UTC().Format(time.RFC3339))
	}

	body, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ProviderError{Kind: KindUnknown, Op: "search", Err: fmt.Errorf("decoding response: %w", err)}
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	logging.Debug().Str("query", query).Int("ids", len(ids)).Msg("search complete")
	return ids, nil
}

// Details fetches full records for ids. Unknown ids are omitted from the
// result. Requests are batched at the API's page size.
func (c *Client) Details(ctx context.Context, ids []string) ([]models.Video, error) {
	var videos []models.Video
	for start := 0; start < len(ids); start += maxPageSize {
		end := min(start+maxPageSize, len(ids))

		params := url.Values{
			"id":   {strings.Join(ids[start:end], ",")},
			"part": {"snippet,statistics,contentDetails"},
		}
		body, err := c.get(ctx, "videos", params)
		if err != nil {
			return nil, err
		}

		var resp videoListResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &ProviderError{Kind: KindUnknown, Op: "videos", Err: fmt.Errorf("decoding response: %w", err)}
		}
		for _, item := range resp.Items {
			videos = append(videos, item.toVideo())
		}
	}
	return videos, nil
}

// get performs one API request through the limiter and the breaker.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{Kind: KindNetwork, Op: endpoint, Err: err}
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &ProviderError{Kind: KindUnavailable, Op: endpoint, Err: err}
	}

	result := "ok"
	if err != nil {
		result = string(KindOf(err))
	}
	metrics.RecordAPIRequest(endpoint, result, time.Since(start))
	return body, err
}

func (c *Client) do(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &ProviderError{Kind: KindUnknown, Op: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{Kind: KindNetwork, Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Kind: KindNetwork, Op: endpoint, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &ProviderError{
			Kind:   classify(resp.StatusCode, apiErr),
			Op:     endpoint,
			Status: resp.StatusCode,
			Err:    errors.New(msg),
		}
	}
	return body, nil
}

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		ChannelTitle string   `json:"channelTitle"`
		PublishedAt  string   `json:"publishedAt"`
		CategoryID   string   `json:"categoryId"`
		Tags         []string `json:"tags"`
		Thumbnails   map[string]struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"snippet"`
	// The API encodes counters as strings.
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

func (item videoItem) toVideo() models.Video {
	v := models.Video{
		ID:           item.ID,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ChannelName:  item.Snippet.ChannelTitle,
		ViewCount:    parseCount(item.Statistics.ViewCount),
		LikeCount:    parseCount(item.Statistics.LikeCount),
		CommentCount: parseCount(item.Statistics.CommentCount),
		Tags:         item.Snippet.Tags,
		Category:     item.Snippet.CategoryID,
		URL:          models.WatchURL(item.ID),
	}

	if d, err := ParseDuration(item.ContentDetails.Duration); err == nil {
		v.Duration = d
	} else {
		logging.Debug().Str("video_id", item.ID).Str("duration", item.ContentDetails.Duration).Msg("unparseable duration")
	}
	if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		v.PublishedAt = t
	}
	for _, size := range []string{"high", "medium", "default"} {
		if thumb, ok := item.Snippet.Thumbnails[size]; ok && thumb.URL != "" {
			v.ThumbnailURL = thumb.URL
			break
		}
	}
	return v
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
