package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(initialSchema); err != nil {
				return err
			}
			for _, t := range schemaTables {
				if err := checkColumns(tx, t.name, t.columns); err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "record lexicon version on feature rows",
		Up: func(tx *sql.Tx) error {
			exists, err := hasColumn(tx, "video_features", "lexicon_version")
			if err != nil || exists {
				return err
			}
			_, err = tx.Exec(`ALTER TABLE video_features ADD COLUMN lexicon_version INTEGER NOT NULL DEFAULT 1`)
			return err
		},
	},
	{
		Version:     3,
		Description: "settings table for the query rotation cursor",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`)
			return err
		},
	},
}

// schemaTables lists the columns the store reads or writes per table.
var schemaTables = []struct {
	name    string
	columns []string
}{
	{"videos", []string{
		"id", "title", "description", "channel_name", "view_count", "like_count", "comment_count",
		"duration_seconds", "published_at", "thumbnail_url", "tags", "category", "url",
	}},
	{"video_features", []string{
		"video_id", "title_length", "description_length", "view_like_ratio", "engagement_score",
		"title_sentiment", "has_tutorial_keywords", "has_time_constraint", "has_beginner_keywords",
		"has_tech_keywords", "has_project_keywords", "schema_version",
	}},
	{"ratings", []string{"video_id", "liked", "created_at", "updated_at"}},
}

const initialSchema = `
CREATE TABLE IF NOT EXISTS videos (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    channel_name TEXT NOT NULL DEFAULT '',
    view_count INTEGER NOT NULL DEFAULT 0,
    like_count INTEGER NOT NULL DEFAULT 0,
    comment_count INTEGER NOT NULL DEFAULT 0,
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    published_at TEXT,
    thumbnail_url TEXT NOT NULL DEFAULT '',
    tags TEXT,
    category TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    collected_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS video_features (
    video_id TEXT PRIMARY KEY REFERENCES videos(id),
    title_length INTEGER NOT NULL,
    description_length INTEGER NOT NULL,
    view_like_ratio REAL NOT NULL,
    engagement_score REAL NOT NULL,
    title_sentiment INTEGER NOT NULL,
    has_tutorial_keywords INTEGER NOT NULL,
    has_time_constraint INTEGER NOT NULL,
    has_beginner_keywords INTEGER NOT NULL,
    has_tech_keywords INTEGER NOT NULL,
    has_project_keywords INTEGER NOT NULL,
    schema_version INTEGER NOT NULL DEFAULT 1,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS ratings (
    video_id TEXT PRIMARY KEY REFERENCES videos(id),
    liked INTEGER NOT NULL CHECK(liked IN (0, 1)),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ratings_liked ON ratings(liked);
CREATE INDEX IF NOT EXISTS idx_ratings_updated ON ratings(updated_at);
CREATE INDEX IF NOT EXISTS idx_videos_views ON videos(view_count);
`

func hasColumn(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// checkColumns fails when a table that already existed before migration 1
// lacks columns the store reads. CREATE TABLE IF NOT EXISTS leaves such a
// table untouched.
func checkColumns(tx *sql.Tx, table string, columns []string) error {
	var missing []string
	for _, c := range columns {
		ok, err := hasColumn(tx, table, c)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("existing %s table is not a mytube schema: missing columns %s", table, strings.Join(missing, ", "))
	}
	return nil
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
