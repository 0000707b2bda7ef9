// Package collect acquires candidate videos from the search provider and
// channel feeds, filters and deduplicates them, and persists them with
// their features.
package collect

import (
	"context"
	"errors"
	"time"

	"github.com/TobiSchelling/MyTube/internal/logging"
	"github.com/TobiSchelling/MyTube/internal/metrics"
	"github.com/TobiSchelling/MyTube/internal/models"
	"github.com/TobiSchelling/MyTube/internal/youtube"
)

// Relevance floor applied to every acquired video.
const (
	MinViewCount = 10_000
	MinDuration  = 60 * time.Second
)

// SearchProvider finds video ids by keyword and fetches their details.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	Details(ctx context.Context, ids []string) ([]models.Video, error)
}

// FeedProvider lists the recent uploads of a channel.
type FeedProvider interface {
	ChannelVideoIDs(ctx context.Context, channelID string) ([]string, error)
}

// Failure records one skipped search, details or feed call.
type Failure struct {
	Source string // query or channel id
	Op     string // "search", "details" or "feed"
	Err    error
}

// Result holds the outcome of an acquisition pass.
type Result struct {
	Videos   []models.Video
	Filtered int
	Failed   []Failure
}

// Collector runs acquisition passes.
type Collector struct {
	search   SearchProvider
	feeds    FeedProvider
	channels []string
}

// NewCollector creates a collector. feeds may be nil when no channels are
// configured.
func NewCollector(search SearchProvider, feeds FeedProvider, channels []string) *Collector {
	return &Collector{search: search, feeds: feeds, channels: channels}
}

// Acquire searches every query in order, then every configured channel
// feed. A failed call is logged and recorded; the pass continues with the
// next source. A missing API key ends the pass since every later call
// would fail the same way.
func (c *Collector) Acquire(ctx context.Context, queries []string, perQueryLimit int) *Result {
	r := &Result{}
	var all []models.Video

	for _, query := range queries {
		if ctx.Err() != nil {
			break
		}
		ids, err := c.search.Search(ctx, query, perQueryLimit)
		if err != nil {
			if r.fail(query, "search", err) {
				return r
			}
			continue
		}
		videos, stop := c.details(ctx, r, query, ids)
		if stop {
			return r
		}
		all = append(all, videos...)
	}

	if c.feeds != nil {
		for _, channel := range c.channels {
			if ctx.Err() != nil {
				break
			}
			videos, stop := c.collectChannel(ctx, r, channel)
			if stop {
				return r
			}
			all = append(all, videos...)
		}
	}

	r.Videos = Dedup(all)
	logging.Info().
		Int("queries", len(queries)).
		Int("videos", len(r.Videos)).
		Int("filtered", r.Filtered).
		Int("failed", len(r.Failed)).
		Msg("acquisition complete")
	return r
}

// details fetches and filters the records for one source's ids. The bool
// reports whether the pass must stop.
func (c *Collector) details(ctx context.Context, r *Result, source string, ids []string) ([]models.Video, bool) {
	if len(ids) == 0 {
		return nil, false
	}
	videos, err := c.search.Details(ctx, ids)
	if err != nil {
		return nil, r.fail(source, "details", err)
	}

	kept := videos[:0]
	for _, v := range videos {
		if Relevant(v) {
			kept = append(kept, v)
		} else {
			r.Filtered++
		}
	}
	metrics.VideosFiltered.Add(float64(len(videos) - len(kept)))
	return kept, false
}

// fail records a failure and reports whether the pass must stop.
func (r *Result) fail(source, op string, err error) bool {
	r.Failed = append(r.Failed, Failure{Source: source, Op: op, Err: err})
	metrics.AcquisitionFailures.WithLabelValues(op).Inc()
	logging.Warn().Err(err).Str("source", source).Str("op", op).Msg("acquisition call failed, skipping")
	return errors.Is(err, youtube.ErrMissingAPIKey)
}

// Relevant reports whether a video passes the quality floor.
func Relevant(v models.Video) bool {
	return v.ViewCount >= MinViewCount && v.Duration >= MinDuration
}

// Dedup removes repeated ids, keeping the first occurrence and the input
// order. Dedup(Dedup(x)) == Dedup(x).
func Dedup(videos []models.Video) []models.Video {
	seen := make(map[string]struct{}, len(videos))
	out := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if _, ok := seen[v.ID]; ok {
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}
	return out
}
