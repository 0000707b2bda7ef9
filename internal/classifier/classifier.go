// Package classifier fits a binary like/dislike model over feature vectors.
//
// The model is logistic regression on z-score standardised features:
//
//	z = Bias + sum(Weight_i * (x_i - Mean_i) / Scale_i)
//	P(liked) = 1 / (1 + exp(-z))
//
// Training is full-batch gradient descent with L2 regularisation and a fixed
// number of iterations, so the same dataset always yields the same model.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/TobiSchelling/MyTube/internal/models"
)

// MinSamples is the smallest dataset Train accepts.
const MinSamples = 3

// ErrDegenerateDataset is returned when the labelled data cannot produce a model.
var ErrDegenerateDataset = errors.New("degenerate training dataset")

// Config controls gradient descent.
type Config struct {
	// LearningRate is the step size. Default: 0.1.
	LearningRate float64
	// Regularization is the L2 penalty on weights (not the bias). Default: 0.01.
	Regularization float64
	// Iterations is the number of full passes. Default: 500.
	Iterations int
}

// DefaultConfig returns the training defaults.
func DefaultConfig() Config {
	return Config{LearningRate: 0.1, Regularization: 0.01, Iterations: 500}
}

// Model is an immutable fitted classifier.
type Model struct {
	Bias          float64
	Weights       []float64
	Means         []float64
	Scales        []float64
	SchemaVersion int
	Samples       int
	Positives     int
	TrainedAt     time.Time
}

// Train fits a new model on the full dataset.
func Train(samples []models.Sample, cfg Config) (*Model, error) {
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.Regularization < 0 {
		cfg.Regularization = 0.01
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 500
	}

	x, y, positives, err := buildMatrix(samples)
	if err != nil {
		return nil, err
	}

	n := len(x)
	dim := len(models.FeatureNames)
	means, scales := standardize(x, dim)

	weights := make([]float64, dim)
	bias := 0.0
	grad := make([]float64, dim)

	for iter := 0; iter < cfg.Iterations; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0

		for i, row := range x {
			diff := sigmoid(bias+dot(weights, row)) - y[i]
			for j, v := range row {
				grad[j] += diff * v
			}
			gradBias += diff
		}

		for j := range weights {
			weights[j] -= cfg.LearningRate * (grad[j]/float64(n) + cfg.Regularization*weights[j])
		}
		bias -= cfg.LearningRate * gradBias / float64(n)
	}

	return &Model{
		Bias:          bias,
		Weights:       weights,
		Means:         means,
		Scales:        scales,
		SchemaVersion: models.FeatureSchemaVersion,
		Samples:       n,
		Positives:     positives,
		TrainedAt:     time.Now().UTC(),
	}, nil
}

// Predict returns P(liked) for each vector, in input order.
func (m *Model) Predict(vectors []models.FeatureVector) []float64 {
	out := make([]float64, len(vectors))
	for i, f := range vectors {
		out[i] = m.predictOne(f.Values())
	}
	return out
}

func (m *Model) predictOne(raw []float64) float64 {
	z := m.Bias
	for j, v := range raw {
		z += m.Weights[j] * (v - m.Means[j]) / m.Scales[j]
	}
	p := sigmoid(z)
	if math.IsNaN(p) {
		return 0.5
	}
	return math.Min(1, math.Max(0, p))
}

func buildMatrix(samples []models.Sample) (x [][]float64, y []float64, positives int, err error) {
	if len(samples) < MinSamples {
		return nil, nil, 0, fmt.Errorf("%w: %d samples, need at least %d", ErrDegenerateDataset, len(samples), MinSamples)
	}

	x = make([][]float64, len(samples))
	y = make([]float64, len(samples))
	for i, s := range samples {
		row := s.Features.Values()
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, 0, fmt.Errorf("%w: sample %d has invalid %s", ErrDegenerateDataset, i, models.FeatureNames[j])
			}
		}
		x[i] = row
		if s.Liked {
			y[i] = 1
			positives++
		}
	}

	if positives == 0 || positives == len(samples) {
		return nil, nil, 0, fmt.Errorf("%w: all %d labels identical", ErrDegenerateDataset, len(samples))
	}
	return x, y, positives, nil
}

// standardize centres and scales x in place and returns the parameters used.
// Constant columns keep scale 1.
func standardize(x [][]float64, dim int) (means, scales []float64) {
	means = make([]float64, dim)
	scales = make([]float64, dim)
	n := float64(len(x))

	for _, row := range x {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	for _, row := range x {
		for j, v := range row {
			d := v - means[j]
			scales[j] += d * d
		}
	}
	for j := range scales {
		scales[j] = math.Sqrt(scales[j] / n)
		if scales[j] < 1e-12 {
			scales[j] = 1
		}
	}

	for _, row := range x {
		for j := range row {
			row[j] = (row[j] - means[j]) / scales[j]
		}
	}
	return means, scales
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
