package classifier

import (
	"errors"
	"math"
	"testing"

	"github.com/TobiSchelling/MyTube/internal/models"
)

func tutorialSample(liked bool) models.Sample {
	return models.Sample{
		Features: models.FeatureVector{
			TitleLength:       40,
			DescriptionLength: 500,
			ViewLikeRatio:     0.04,
			EngagementScore:   0.05,
			Tutorial:          liked,
			Tech:              liked,
		},
		Liked: liked,
	}
}

func TestTrainRejectsTooFewSamples(t *testing.T) {
	_, err := Train([]models.Sample{tutorialSample(true), tutorialSample(false)}, DefaultConfig())
	if !errors.Is(err, ErrDegenerateDataset) {
		t.Fatalf("expected ErrDegenerateDataset, got %v", err)
	}
}

func TestTrainRejectsSingleClass(t *testing.T) {
	samples := []models.Sample{tutorialSample(true), tutorialSample(true), tutorialSample(true)}
	_, err := Train(samples, DefaultConfig())
	if !errors.Is(err, ErrDegenerateDataset) {
		t.Fatalf("expected ErrDegenerateDataset, got %v", err)
	}
}

func TestTrainRejectsNaN(t *testing.T) {
	bad := tutorialSample(true)
	bad.Features.ViewLikeRatio = math.NaN()
	samples := []models.Sample{bad, tutorialSample(false), tutorialSample(true)}
	if _, err := Train(samples, DefaultConfig()); !errors.Is(err, ErrDegenerateDataset) {
		t.Fatalf("expected ErrDegenerateDataset, got %v", err)
	}
}

func TestTrainAndPredict(t *testing.T) {
	samples := []models.Sample{
		tutorialSample(true),
		tutorialSample(false),
		tutorialSample(true),
		tutorialSample(false),
	}
	m, err := Train(samples, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Samples != 4 || m.Positives != 2 {
		t.Errorf("unexpected sample counts %d/%d", m.Samples, m.Positives)
	}
	if m.SchemaVersion != models.FeatureSchemaVersion {
		t.Errorf("expected schema version %d, got %d", models.FeatureSchemaVersion, m.SchemaVersion)
	}

	probs := m.Predict([]models.FeatureVector{
		tutorialSample(true).Features,
		tutorialSample(false).Features,
	})
	if len(probs) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(probs))
	}
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("probability out of range: %v", p)
		}
	}
	if probs[0] <= probs[1] {
		t.Errorf("expected liked pattern to score higher: %v <= %v", probs[0], probs[1])
	}
	if probs[0] < 0.5 || probs[1] > 0.5 {
		t.Errorf("expected separation around 0.5, got %v", probs)
	}
}

func TestTrainIsDeterministic(t *testing.T) {
	samples := []models.Sample{tutorialSample(true), tutorialSample(false), tutorialSample(false)}
	a, err := Train(samples, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Train(samples, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if a.Bias != b.Bias {
		t.Errorf("bias differs: %v vs %v", a.Bias, b.Bias)
	}
	for i := range a.Weights {
		if a.Weights[i] != b.Weights[i] {
			t.Errorf("weight %d differs: %v vs %v", i, a.Weights[i], b.Weights[i])
		}
	}
}

func TestTrainDoesNotMutateInput(t *testing.T) {
	samples := []models.Sample{tutorialSample(true), tutorialSample(false), tutorialSample(true)}
	before := samples[0].Features
	if _, err := Train(samples, DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	if samples[0].Features != before {
		t.Error("training must not modify the samples")
	}
}

func TestPredictEmpty(t *testing.T) {
	m, err := Train([]models.Sample{tutorialSample(true), tutorialSample(false), tutorialSample(true)}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Predict(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestPredictExtremeValuesStayInRange(t *testing.T) {
	m, err := Train([]models.Sample{tutorialSample(true), tutorialSample(false), tutorialSample(true)}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	extreme := models.FeatureVector{TitleLength: 1 << 30, DescriptionLength: 1 << 30, Tutorial: true, Tech: true}
	p := m.Predict([]models.FeatureVector{extreme})[0]
	if p < 0 || p > 1 || math.IsNaN(p) {
		t.Errorf("probability out of range: %v", p)
	}
}
