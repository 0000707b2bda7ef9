package models

// FeatureSchemaVersion changes whenever FeatureNames or the meaning of a
// column changes. Stored rows and trained models carry it.
const FeatureSchemaVersion = 1

// FeatureNames is the fixed column order used for storage and training.
var FeatureNames = []string{
	"title_length",
	"description_length",
	"view_like_ratio",
	"engagement_score",
	"title_sentiment",
	"has_tutorial_keywords",
	"has_time_constraint",
	"has_beginner_keywords",
	"has_tech_keywords",
	"has_project_keywords",
}

// FeatureVector is derived once per video at acquisition time.
type FeatureVector struct {
	TitleLength       int
	DescriptionLength int
	ViewLikeRatio     float64
	EngagementScore   float64
	TitleSentiment    int
	Tutorial          bool
	TimeConstraint    bool
	Beginner          bool
	Tech              bool
	Project           bool
}

// Values returns the vector in FeatureNames order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		float64(f.TitleLength),
		float64(f.DescriptionLength),
		f.ViewLikeRatio,
		f.EngagementScore,
		float64(f.TitleSentiment),
		boolFloat(f.Tutorial),
		boolFloat(f.TimeConstraint),
		boolFloat(f.Beginner),
		boolFloat(f.Tech),
		boolFloat(f.Project),
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
