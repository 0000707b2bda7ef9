package database

import "context"

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	var s Stats
	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM videos", &s.TotalVideos},
		{"SELECT COUNT(*) FROM video_features", &s.FeaturedVideos},
		{`SELECT COUNT(*) FROM videos v
			JOIN video_features f ON f.video_id = v.id
			LEFT JOIN ratings r ON r.video_id = v.id
			WHERE r.video_id IS NULL`, &s.UnratedVideos},
		{"SELECT COUNT(*) FROM ratings", &s.TotalRatings},
		{"SELECT COUNT(*) FROM ratings WHERE liked = 1", &s.LikedVideos},
		{"SELECT COUNT(*) FROM ratings WHERE liked = 0", &s.DislikedVideos},
	}
	for _, q := range queries {
		if err := db.conn.QueryRowContext(ctx, q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// Reset deletes every rating, feature row and video.
func (db *DB) Reset(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"ratings", "video_features", "videos"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ResetRatings deletes every rating and keeps the candidate pool.
func (db *DB) ResetRatings(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM ratings")
	return err
}
