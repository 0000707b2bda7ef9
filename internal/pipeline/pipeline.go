// Package pipeline runs the initial load: acquire candidates for the
// bootstrap queries, persist them with features, and train if enough
// ratings already exist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TobiSchelling/MyTube/internal/collect"
	"github.com/TobiSchelling/MyTube/internal/engine"
	"github.com/TobiSchelling/MyTube/internal/logging"
	"github.com/TobiSchelling/MyTube/internal/youtube"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Queries []string
	Steps   []StepResult
}

// Failed returns the first step error, if any.
func (r *Result) Failed() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", strings.ToLower(s.Name), s.Err)
		}
	}
	return nil
}

// Pipeline orchestrates the 3-step bootstrap.
type Pipeline struct {
	collector     *collect.Collector
	store         collect.Store
	engine        *engine.Engine
	queries       []string
	perQueryLimit int
}

// New creates a bootstrap pipeline over the given queries.
func New(collector *collect.Collector, store collect.Store, eng *engine.Engine, queries []string, perQueryLimit int) *Pipeline {
	return &Pipeline{
		collector:     collector,
		store:         store,
		engine:        eng,
		queries:       queries,
		perQueryLimit: perQueryLimit,
	}
}

// Run executes acquire, persist and train. A missing API key stops the run
// before any request is made.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{Queries: p.queries}

	if !p.collector.Configured() {
		r.Steps = append(r.Steps, StepResult{Name: "Acquire", Err: youtube.ErrMissingAPIKey})
		return r
	}

	// Step 1: Acquire
	logging.Info().Strs("queries", p.queries).Msg("step 1/3: acquiring candidates")
	acquired := p.collector.Acquire(ctx, p.queries, p.perQueryLimit)
	step := StepResult{
		Name: "Acquire",
		Summary: fmt.Sprintf("Found %d relevant videos (%d filtered, %d failed calls)",
			len(acquired.Videos), acquired.Filtered, len(acquired.Failed)),
	}
	for _, f := range acquired.Failed {
		if errors.Is(f.Err, youtube.ErrMissingAPIKey) {
			step.Err = f.Err
		}
	}
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 2: Persist
	logging.Info().Msg("step 2/3: saving videos and features")
	n, err := collect.Save(ctx, p.store, acquired.Videos)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Persist", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Persist",
		Summary: fmt.Sprintf("Saved %d new videos (%d already stored)", n, len(acquired.Videos)-n),
	})

	// Step 3: Train
	logging.Info().Msg("step 3/3: training from stored ratings")
	r.Steps = append(r.Steps, p.runTrain(ctx))
	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun() *Result {
	r := &Result{Queries: p.queries}
	r.Steps = append(r.Steps,
		StepResult{
			Name:    "Acquire",
			Summary: fmt.Sprintf("[dry-run] %d queries, up to %d ids each: %s", len(p.queries), p.perQueryLimit, strings.Join(p.queries, ", ")),
		},
		StepResult{Name: "Persist", Summary: "[dry-run] Would save new videos and their features"},
		StepResult{Name: "Train", Summary: "[dry-run] Would train if enough ratings exist"},
	)
	return r
}

func (p *Pipeline) runTrain(ctx context.Context) StepResult {
	if err := p.engine.Init(ctx); err != nil {
		return StepResult{Name: "Train", Err: err}
	}
	status, err := p.engine.Status(ctx)
	if err != nil {
		return StepResult{Name: "Train", Err: err}
	}
	if status.State == engine.StateCold {
		return StepResult{
			Name:    "Train",
			Summary: fmt.Sprintf("Model cold: %d ratings so far", status.TotalRatings),
		}
	}
	return StepResult{
		Name:    "Train",
		Summary: fmt.Sprintf("Model trained on %d samples (version %d)", status.TrainedSamples, status.ModelVersion),
	}
}
