package database

import (
	"context"
	"database/sql"

	"github.com/TobiSchelling/MyTube/internal/models"
)

const featureColumns = `f.title_length, f.description_length, f.view_like_ratio, f.engagement_score,
	f.title_sentiment, f.has_tutorial_keywords, f.has_time_constraint, f.has_beginner_keywords,
	f.has_tech_keywords, f.has_project_keywords`

// SaveFeatures stores the feature row for a video. Rows are written once;
// a second call for the same video is a no-op.
func (db *DB) SaveFeatures(ctx context.Context, videoID string, f models.FeatureVector, lexiconVersion int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO video_features
		(video_id, title_length, description_length, view_like_ratio, engagement_score,
		title_sentiment, has_tutorial_keywords, has_time_constraint, has_beginner_keywords,
		has_tech_keywords, has_project_keywords, schema_version, lexicon_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		videoID, f.TitleLength, f.DescriptionLength, f.ViewLikeRatio, f.EngagementScore,
		f.TitleSentiment, f.Tutorial, f.TimeConstraint, f.Beginner, f.Tech, f.Project,
		models.FeatureSchemaVersion, lexiconVersion,
	)
	return err
}

// featureRow scans featureColumns. Every column is nullable so the same
// helper works for LEFT JOINs.
type featureRow struct {
	titleLength, descriptionLength sql.NullInt64
	viewLikeRatio, engagement      sql.NullFloat64
	sentiment                      sql.NullInt64
	tutorial, timeConstraint       sql.NullBool
	beginner, tech, project        sql.NullBool
}

func (r *featureRow) dest() []any {
	return []any{
		&r.titleLength, &r.descriptionLength, &r.viewLikeRatio, &r.engagement, &r.sentiment,
		&r.tutorial, &r.timeConstraint, &r.beginner, &r.tech, &r.project,
	}
}

// vector returns nil when the row came from an unmatched LEFT JOIN.
func (r *featureRow) vector() *models.FeatureVector {
	if !r.titleLength.Valid {
		return nil
	}
	return &models.FeatureVector{
		TitleLength:       int(r.titleLength.Int64),
		DescriptionLength: int(r.descriptionLength.Int64),
		ViewLikeRatio:     r.viewLikeRatio.Float64,
		EngagementScore:   r.engagement.Float64,
		TitleSentiment:    int(r.sentiment.Int64),
		Tutorial:          r.tutorial.Bool,
		TimeConstraint:    r.timeConstraint.Bool,
		Beginner:          r.beginner.Bool,
		Tech:              r.tech.Bool,
		Project:           r.project.Bool,
	}
}
