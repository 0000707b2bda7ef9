package database

import (
	"context"
	"fmt"
	"time"

	"github.com/TobiSchelling/MyTube/internal/models"
)

// timestampLayout is fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// SaveRating records the user's rating for a video. Re-rating a video
// replaces the previous label; there is at most one row per video.
func (db *DB) SaveRating(ctx context.Context, videoID string, liked bool) error {
	v, err := db.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}

	now := time.Now().UTC().Format(timestampLayout)
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO ratings (video_id, liked, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET liked = excluded.liked, updated_at = excluded.updated_at`,
		videoID, liked, now, now,
	)
	return err
}

// RatedCount returns the number of rated videos that have a feature row,
// which is the size of TrainingDataset. GetStats reports all ratings.
func (db *DB) RatedCount(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ratings r JOIN video_features f ON f.video_id = r.video_id`).Scan(&n)
	return n, err
}

// TrainingDataset returns every rating joined with its video's features,
// oldest rating first. Ratings for videos without features are skipped.
func (db *DB) TrainingDataset(ctx context.Context) ([]models.Sample, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+featureColumns+`, r.liked
		FROM ratings r
		JOIN video_features f ON f.video_id = r.video_id
		ORDER BY r.created_at, r.rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.Sample
	for rows.Next() {
		var fr featureRow
		var liked bool
		if err := rows.Scan(append(fr.dest(), &liked)...); err != nil {
			return nil, err
		}
		samples = append(samples, models.Sample{Features: *fr.vector(), Liked: liked})
	}
	return samples, rows.Err()
}
