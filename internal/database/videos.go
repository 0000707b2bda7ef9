package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TobiSchelling/MyTube/internal/models"
)

const videoColumns = `v.id, v.title, v.description, v.channel_name, v.view_count, v.like_count,
	v.comment_count, v.duration_seconds, v.published_at, v.thumbnail_url, v.tags, v.category, v.url`

// SaveVideos inserts videos that are not stored yet. Existing rows are never
// updated. Returns the number of new rows.
func (db *DB) SaveVideos(ctx context.Context, videos []models.Video) (int, error) {
	if len(videos) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO videos
		(id, title, description, channel_name, view_count, like_count, comment_count,
		duration_seconds, published_at, thumbnail_url, tags, category, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, v := range videos {
		tags, err := json.Marshal(nonNil(v.Tags))
		if err != nil {
			return 0, err
		}
		var published *string
		if !v.PublishedAt.IsZero() {
			s := v.PublishedAt.UTC().Format(time.RFC3339)
			published = &s
		}

		result, err := stmt.ExecContext(ctx,
			v.ID, v.Title, v.Description, v.ChannelName, v.ViewCount, v.LikeCount, v.CommentCount,
			int64(v.Duration/time.Second), published, v.ThumbnailURL, string(tags), v.Category, v.URL,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting video %s: %w", v.ID, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	return inserted, tx.Commit()
}

// GetVideo returns a single video by id, or nil if it does not exist.
func (db *DB) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos v WHERE v.id = ?`, id)
	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// UnratedVideos returns up to limit unrated videos that have features,
// most viewed first.
func (db *DB) UnratedVideos(ctx context.Context, limit int) ([]models.Video, error) {
	pairs, err := db.UnratedVideosWithFeatures(ctx, limit)
	if err != nil {
		return nil, err
	}
	videos := make([]models.Video, len(pairs))
	for i, p := range pairs {
		videos[i] = p.Video
	}
	return videos, nil
}

// UnratedVideosWithFeatures returns unrated videos joined with their
// features. A limit <= 0 returns the whole pool. Videos whose feature row is
// missing are excluded.
func (db *DB) UnratedVideosWithFeatures(ctx context.Context, limit int) ([]models.VideoFeatures, error) {
	query := `SELECT ` + videoColumns + `, ` + featureColumns + `
		FROM videos v
		JOIN video_features f ON f.video_id = v.id
		LEFT JOIN ratings r ON r.video_id = v.id
		WHERE r.video_id IS NULL
		ORDER BY v.view_count DESC, v.id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVideoFeatures(rows)
}

// LikedVideos returns liked videos, most recently rated first, with their
// features when present.
func (db *DB) LikedVideos(ctx context.Context) ([]models.VideoFeatures, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+videoColumns+`, `+featureColumns+`
		FROM ratings r
		JOIN videos v ON v.id = r.video_id
		LEFT JOIN video_features f ON f.video_id = v.id
		WHERE r.liked = 1
		ORDER BY r.updated_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVideoFeatures(rows)
}

// videoRow holds Scan destinations for videoColumns.
type videoRow struct {
	v         models.Video
	duration  int64
	published sql.NullString
	tags      sql.NullString
}

func (r *videoRow) dest() []any {
	return []any{
		&r.v.ID, &r.v.Title, &r.v.Description, &r.v.ChannelName, &r.v.ViewCount, &r.v.LikeCount,
		&r.v.CommentCount, &r.duration, &r.published, &r.v.ThumbnailURL, &r.tags, &r.v.Category, &r.v.URL,
	}
}

func (r *videoRow) video() models.Video {
	v := r.v
	v.Duration = time.Duration(r.duration) * time.Second
	if r.published.Valid {
		if t, err := time.Parse(time.RFC3339, r.published.String); err == nil {
			v.PublishedAt = t
		}
	}
	if r.tags.Valid && r.tags.String != "" {
		if err := json.Unmarshal([]byte(r.tags.String), &v.Tags); err != nil {
			v.Tags = nil
		}
	}
	return v
}

func scanVideo(row *sql.Row) (*models.Video, error) {
	var r videoRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	v := r.video()
	return &v, nil
}

func scanVideoFeatures(rows *sql.Rows) ([]models.VideoFeatures, error) {
	var out []models.VideoFeatures
	for rows.Next() {
		var vr videoRow
		var fr featureRow
		if err := rows.Scan(append(vr.dest(), fr.dest()...)...); err != nil {
			return nil, err
		}
		out = append(out, models.VideoFeatures{Video: vr.video(), Features: fr.vector()})
	}
	return out, rows.Err()
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
