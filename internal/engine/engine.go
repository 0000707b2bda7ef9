// Package engine orchestrates recommendation: it keeps the candidate pool
// stocked, ranks unrated videos with the current classifier snapshot and
// retrains on every rating once enough ratings exist.
package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/TobiSchelling/MyTube/internal/classifier"
	"github.com/TobiSchelling/MyTube/internal/collect"
	"github.com/TobiSchelling/MyTube/internal/logging"
	"github.com/TobiSchelling/MyTube/internal/metrics"
	"github.com/TobiSchelling/MyTube/internal/models"
)

// State is the engine's training state.
type State string

const (
	StateCold    State = "COLD"
	StateTrained State = "TRAINED"
)

// Store is the persistence the engine reads and writes.
type Store interface {
	UnratedVideos(ctx context.Context, limit int) ([]models.Video, error)
	UnratedVideosWithFeatures(ctx context.Context, limit int) ([]models.VideoFeatures, error)
	SaveRating(ctx context.Context, videoID string, liked bool) error
	RatedCount(ctx context.Context) (int, error)
	TrainingDataset(ctx context.Context) ([]models.Sample, error)
	LikedVideos(ctx context.Context) ([]models.VideoFeatures, error)
}

// Replenisher refills the candidate pool.
type Replenisher interface {
	Replenish(ctx context.Context) (*collect.ReplenishResult, error)
}

// Config holds engine policy.
type Config struct {
	TrainThreshold         int
	PoolCheckLimit         int
	PoolMinimum            int
	MaxResults             int
	NeutralProbability     float64
	LikedDefaultConfidence float64
	Classifier             classifier.Config
}

// DefaultConfig returns the default policy.
func DefaultConfig() Config {
	return Config{
		TrainThreshold:         3,
		PoolCheckLimit:         20,
		PoolMinimum:            5,
		MaxResults:             12,
		NeutralProbability:     0.5,
		LikedDefaultConfidence: 0.8,
		Classifier:             classifier.DefaultConfig(),
	}
}

// Recommendation is a video with its like-probability.
type Recommendation struct {
	Video       models.Video
	Probability float64
}

// RateResult reports the outcome of a rating. TotalRatings counts only
// ratings of videos with features, so it equals the training set size.
type RateResult struct {
	Retrained    bool
	TotalRatings int
}

// Status describes the engine for the presentation layer.
type Status struct {
	State          State
	ModelVersion   int64
	TrainedAt      time.Time
	TrainedSamples int
	TotalRatings   int
}

// snapshot is an immutable trained model and its version.
type snapshot struct {
	model   *classifier.Model
	version int64
}

// Engine is safe for concurrent use. Readers load the current snapshot
// without locking; retrains are serialised so the newest dataset wins.
type Engine struct {
	store       Store
	replenisher Replenisher
	cfg         Config
	logger      zerolog.Logger

	current atomic.Pointer[snapshot]
	trainMu sync.Mutex
	version int64 // guarded by trainMu
}

// New creates an engine in the COLD state. replenisher may be nil.
func New(store Store, replenisher Replenisher, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.TrainThreshold <= 0 {
		cfg.TrainThreshold = def.TrainThreshold
	}
	if cfg.PoolCheckLimit <= 0 {
		cfg.PoolCheckLimit = def.PoolCheckLimit
	}
	if cfg.PoolMinimum <= 0 {
		cfg.PoolMinimum = def.PoolMinimum
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.NeutralProbability == 0 {
		cfg.NeutralProbability = def.NeutralProbability
	}
	if cfg.LikedDefaultConfidence == 0 {
		cfg.LikedDefaultConfidence = def.LikedDefaultConfidence
	}

	return &Engine{
		store:       store,
		replenisher: replenisher,
		cfg:         cfg,
		logger:      logging.WithComponent("engine"),
	}
}

// Init trains from stored ratings when enough exist, so a restarted process
// resumes in the TRAINED state.
func (e *Engine) Init(ctx context.Context) error {
	count, err := e.store.RatedCount(ctx)
	if err != nil {
		return persistence("rated count", err)
	}
	if count < e.cfg.TrainThreshold {
		e.logger.Info().Int("ratings", count).Msg("starting cold")
		return nil
	}
	_, err = e.retrain(ctx)
	return err
}

// State returns COLD until a model has been trained.
func (e *Engine) State() State {
	if e.current.Load() == nil {
		return StateCold
	}
	return StateTrained
}

// Status returns the state, model details and rating count.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	count, err := e.store.RatedCount(ctx)
	if err != nil {
		return nil, persistence("rated count", err)
	}
	s := &Status{State: StateCold, TotalRatings: count}
	if snap := e.current.Load(); snap != nil {
		s.State = StateTrained
		s.ModelVersion = snap.version
		s.TrainedAt = snap.model.TrainedAt
		s.TrainedSamples = snap.model.Samples
	}
	return s, nil
}

// Recommendations returns up to MaxResults unrated videos. A trained engine
// ranks the whole unrated pool by like-probability; a cold one returns
// unranked videos at the neutral probability.
func (e *Engine) Recommendations(ctx context.Context) ([]Recommendation, error) {
	if err := e.ensurePool(ctx); err != nil {
		return nil, err
	}

	snap := e.current.Load()
	if snap == nil {
		videos, err := e.store.UnratedVideos(ctx, e.cfg.MaxResults)
		if err != nil {
			return nil, persistence("unrated videos", err)
		}
		recs := make([]Recommendation, len(videos))
		for i, v := range videos {
			recs[i] = Recommendation{Video: v, Probability: e.cfg.NeutralProbability}
		}
		metrics.Recommendations.WithLabelValues("cold").Inc()
		return recs, nil
	}

	pool, err := e.store.UnratedVideosWithFeatures(ctx, 0)
	if err != nil {
		return nil, persistence("unrated features", err)
	}
	recs := rank(snap.model, pool)
	if len(recs) > e.cfg.MaxResults {
		recs = recs[:e.cfg.MaxResults]
	}
	metrics.Recommendations.WithLabelValues("trained").Inc()
	return recs, nil
}

// ensurePool replenishes when fewer than PoolMinimum unrated videos remain.
// Replenishment failures are logged and swallowed.
func (e *Engine) ensurePool(ctx context.Context) error {
	pool, err := e.store.UnratedVideos(ctx, e.cfg.PoolCheckLimit)
	if err != nil {
		return persistence("pool check", err)
	}
	if len(pool) >= e.cfg.PoolMinimum || e.replenisher == nil {
		return nil
	}

	e.logger.Info().Int("unrated", len(pool)).Msg("candidate pool low, replenishing")
	result, err := e.replenisher.Replenish(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("replenishment failed, continuing with existing pool")
		return nil
	}
	e.logger.Info().Int("new_videos", result.NewVideos).Msg("pool replenished")
	return nil
}

// RateVideo records a rating and retrains once the threshold is met.
func (e *Engine) RateVideo(ctx context.Context, videoID string, liked bool) (*RateResult, error) {
	if err := e.store.SaveRating(ctx, videoID, liked); err != nil {
		return nil, persistence("save rating", err)
	}
	metrics.RecordRating(liked)

	count, err := e.store.RatedCount(ctx)
	if err != nil {
		return nil, persistence("rated count", err)
	}

	result := &RateResult{TotalRatings: count}
	if count >= e.cfg.TrainThreshold {
		result.Retrained, err = e.retrain(ctx)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// LikedVideos returns liked videos. A trained engine sorts those with
// features by probability; videos without features follow in store order at
// the default confidence. A cold engine keeps store order throughout.
func (e *Engine) LikedVideos(ctx context.Context) ([]Recommendation, error) {
	liked, err := e.store.LikedVideos(ctx)
	if err != nil {
		return nil, persistence("liked videos", err)
	}

	snap := e.current.Load()
	if snap == nil {
		recs := make([]Recommendation, len(liked))
		for i, l := range liked {
			recs[i] = Recommendation{Video: l.Video, Probability: e.cfg.LikedDefaultConfidence}
		}
		return recs, nil
	}

	var featured []models.VideoFeatures
	var rest []Recommendation
	for _, l := range liked {
		if l.Features == nil {
			rest = append(rest, Recommendation{Video: l.Video, Probability: e.cfg.LikedDefaultConfidence})
			continue
		}
		featured = append(featured, l)
	}
	return append(rank(snap.model, featured), rest...), nil
}

// retrain fits a model on the full dataset and swaps it in. A degenerate
// dataset leaves the current snapshot in place and reports false.
func (e *Engine) retrain(ctx context.Context) (bool, error) {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	samples, err := e.store.TrainingDataset(ctx)
	if err != nil {
		return false, persistence("training dataset", err)
	}

	start := time.Now()
	model, err := classifier.Train(samples, e.cfg.Classifier)
	if err != nil {
		if errors.Is(err, classifier.ErrDegenerateDataset) {
			metrics.RecordTraining("degenerate", time.Since(start))
			e.logger.Info().Err(err).Int("samples", len(samples)).Str("state", string(e.State())).Msg("training skipped")
			return false, nil
		}
		metrics.RecordTraining("error", time.Since(start))
		return false, err
	}

	e.version++
	e.current.Store(&snapshot{model: model, version: e.version})
	metrics.RecordTraining("ok", time.Since(start))
	metrics.ModelVersion.Set(float64(e.version))
	e.logger.Info().
		Int64("version", e.version).
		Int("samples", model.Samples).
		Int("positives", model.Positives).
		Dur("took", time.Since(start)).
		Msg("model trained")
	return true, nil
}

// rank predicts every candidate and sorts by probability, highest first.
// Equal probabilities keep the input order.
func rank(model *classifier.Model, pool []models.VideoFeatures) []Recommendation {
	vectors := make([]models.FeatureVector, len(pool))
	for i, p := range pool {
		vectors[i] = *p.Features
	}
	probs := model.Predict(vectors)

	recs := make([]Recommendation, len(pool))
	for i, p := range pool {
		recs[i] = Recommendation{Video: p.Video, Probability: probs[i]}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Probability > recs[j].Probability
	})
	return recs
}
