package features

import (
	"reflect"
	"testing"
	"time"

	"github.com/TobiSchelling/MyTube/internal/models"
)

func sampleVideo() models.Video {
	return models.Video{
		ID:           "abc",
		Title:        "Amazing Python Tutorial for Beginners - Build a Project in 1 Hour",
		Description:  "Learn coding step by step.",
		ViewCount:    200_000,
		LikeCount:    10_000,
		CommentCount: 2_000,
		Duration:     time.Hour,
	}
}

func TestExtractDeterministic(t *testing.T) {
	v := sampleVideo()
	a := Extract(v)
	b := Extract(v)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected identical vectors, got %+v and %+v", a, b)
	}
}

func TestExtractBasicMetrics(t *testing.T) {
	f := Extract(sampleVideo())

	if f.TitleLength != 65 {
		t.Errorf("expected title length 65, got %d", f.TitleLength)
	}
	if f.DescriptionLength != 26 {
		t.Errorf("expected description length 26, got %d", f.DescriptionLength)
	}
	if f.ViewLikeRatio != 0.05 {
		t.Errorf("expected view/like ratio 0.05, got %v", f.ViewLikeRatio)
	}
	if f.EngagementScore != 0.06 {
		t.Errorf("expected engagement 0.06, got %v", f.EngagementScore)
	}
}

func TestExtractCountsRunes(t *testing.T) {
	f := Extract(models.Video{Title: "Café 日本"})
	if f.TitleLength != 7 {
		t.Errorf("expected 7 characters, got %d", f.TitleLength)
	}
}

func TestExtractZeroViews(t *testing.T) {
	f := Extract(models.Video{LikeCount: 5, CommentCount: 3})
	if f.ViewLikeRatio != 5 {
		t.Errorf("expected denominator 1, got ratio %v", f.ViewLikeRatio)
	}
	if f.EngagementScore != 8 {
		t.Errorf("expected denominator 1, got engagement %v", f.EngagementScore)
	}
}

func TestExtractFlags(t *testing.T) {
	f := Extract(sampleVideo())
	if !f.Tutorial {
		t.Error("expected tutorial flag")
	}
	if !f.TimeConstraint {
		t.Error("expected time constraint flag ('1 hour')")
	}
	if !f.Beginner {
		t.Error("expected beginner flag")
	}
	if !f.Tech {
		t.Error("expected tech flag ('coding' in description)")
	}
	if !f.Project {
		t.Error("expected project flag")
	}
}

func TestTitleOnlyFlags(t *testing.T) {
	v := models.Video{
		Title:       "Relaxing piano music",
		Description: "quick recipe, build a diy challenge",
	}
	f := Extract(v)
	if f.TimeConstraint {
		t.Error("time constraint must only scan the title")
	}
	if f.Project {
		t.Error("project must only scan the title")
	}
}

func TestDescriptionScannedFlags(t *testing.T) {
	v := models.Video{
		Title:       "Relaxing piano music",
		Description: "A walkthrough for the first time player",
	}
	f := Extract(v)
	if !f.Tutorial {
		t.Error("tutorial should scan the description")
	}
	if !f.Beginner {
		t.Error("beginner should scan the description")
	}
}

func TestSentiment(t *testing.T) {
	cases := map[string]int{
		"the best and most amazing video":  2,
		"this is hard and i failed":        -2,
		"great but difficult":              0,
		"nothing to see":                   0,
		"best best best":                   1,
	}
	for title, want := range cases {
		if got := Sentiment(title); got != want {
			t.Errorf("Sentiment(%q) = %d, want %d", title, got, want)
		}
	}
}

func TestSentimentCaseInsensitive(t *testing.T) {
	f := Extract(models.Video{Title: "AWESOME Setup"})
	if f.TitleSentiment != 1 {
		t.Errorf("expected folded match, got %d", f.TitleSentiment)
	}
}

// Substring matching is kept on purpose; this pins it.
func TestSubstringMatching(t *testing.T) {
	f := Extract(models.Video{Title: "He said hello"})
	if !f.Tech {
		t.Error("expected 'ai' to match inside 'said'")
	}
	if Sentiment("shard") != -1 {
		t.Error("expected 'hard' to match inside 'shard'")
	}
}

func TestLexiconMembership(t *testing.T) {
	if LexiconVersion != 1 {
		t.Fatalf("lexicon version changed to %d; update this test with the new lists", LexiconVersion)
	}
	checks := []struct {
		name  string
		terms []string
		want  int
	}{
		{"tutorial", tutorialTerms, 7},
		{"time", timeConstraintTerms, 8},
		{"beginner", beginnerTerms, 7},
		{"tech", techTerms, 7},
		{"project", projectTerms, 9},
		{"positive", positiveTerms, 7},
		{"negative", negativeTerms, 6},
	}
	for _, c := range checks {
		if len(c.terms) != c.want {
			t.Errorf("%s lexicon has %d terms, want %d", c.name, len(c.terms), c.want)
		}
		for _, term := range c.terms {
			if term != fold(term) {
				t.Errorf("%s term %q must be lowercase", c.name, term)
			}
		}
	}
}
