package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/TobiSchelling/MyTube/internal/features"
	"github.com/TobiSchelling/MyTube/internal/logging"
	"github.com/TobiSchelling/MyTube/internal/metrics"
	"github.com/TobiSchelling/MyTube/internal/models"
	"github.com/TobiSchelling/MyTube/internal/youtube"
)

// Store persists acquired videos and their features.
type Store interface {
	SaveVideos(ctx context.Context, videos []models.Video) (int, error)
	SaveFeatures(ctx context.Context, videoID string, f models.FeatureVector, lexiconVersion int) error
}

// ReplenishResult summarises one replenishment.
type ReplenishResult struct {
	Queries   []string
	Found     int
	NewVideos int
	Failed    []Failure
}

// runTimeout bounds a shared replenishment run, which no longer follows
// any single caller's context.
const runTimeout = 2 * time.Minute

// Replenisher refills the candidate pool on demand.
type Replenisher struct {
	collector     *Collector
	store         Store
	rotator       *QueryRotator
	perQueryLimit int
	timeout       time.Duration
	group         singleflight.Group
}

// NewReplenisher creates a replenisher.
func NewReplenisher(collector *Collector, store Store, rotator *QueryRotator, perQueryLimit int) *Replenisher {
	return &Replenisher{
		collector:     collector,
		store:         store,
		rotator:       rotator,
		perQueryLimit: perQueryLimit,
		timeout:       runTimeout,
	}
}

// Replenish acquires videos for the next rotated queries and persists them.
// Concurrent callers share one in-flight run. The run is detached from the
// caller that started it: a caller whose context ends gets ctx.Err() while
// the run finishes for everyone else.
func (r *Replenisher) Replenish(ctx context.Context) (*ReplenishResult, error) {
	if !r.collector.Configured() {
		return nil, youtube.ErrMissingAPIKey
	}

	ch := r.group.DoChan("replenish", func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.run(runCtx)
	})

	select {
	case <-ctx.Done():
		logging.Debug().Err(ctx.Err()).Msg("caller left in-flight replenishment")
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			logging.Debug().Msg("joined in-flight replenishment")
		}
		if res.Err != nil {
			metrics.Replenishments.WithLabelValues("error").Inc()
			return nil, res.Err
		}
		metrics.Replenishments.WithLabelValues("ok").Inc()
		return res.Val.(*ReplenishResult), nil
	}
}

func (r *Replenisher) run(ctx context.Context) (*ReplenishResult, error) {
	queries := r.rotator.Next(ctx)
	logging.Info().Strs("queries", queries).Msg("replenishing candidate pool")

	acquired := r.collector.Acquire(ctx, queries, r.perQueryLimit)
	result := &ReplenishResult{Queries: queries, Found: len(acquired.Videos), Failed: acquired.Failed}

	for _, f := range acquired.Failed {
		if errors.Is(f.Err, youtube.ErrMissingAPIKey) {
			return nil, f.Err
		}
	}

	n, err := Save(ctx, r.store, acquired.Videos)
	if err != nil {
		return nil, err
	}
	result.NewVideos = n
	logging.Info().Int("found", result.Found).Int("new", n).Msg("replenishment complete")
	return result, nil
}

// Configured reports whether the search provider has credentials. Providers
// that do not expose the check are assumed configured.
func (c *Collector) Configured() bool {
	if p, ok := c.search.(interface{ Configured() bool }); ok {
		return p.Configured()
	}
	return true
}

// Save writes videos, then a feature row for each. Videos already stored
// are left untouched; their feature rows are written if missing. Returns
// the number of new videos.
func Save(ctx context.Context, store Store, videos []models.Video) (int, error) {
	if len(videos) == 0 {
		return 0, nil
	}
	n, err := store.SaveVideos(ctx, videos)
	if err != nil {
		return 0, fmt.Errorf("saving videos: %w", err)
	}
	for _, v := range videos {
		if err := store.SaveFeatures(ctx, v.ID, features.Extract(v), features.LexiconVersion); err != nil {
			return n, fmt.Errorf("saving features for %s: %w", v.ID, err)
		}
	}
	metrics.VideosAcquired.Add(float64(n))
	return n, nil
}
