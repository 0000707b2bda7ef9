// Package models holds the record types shared by acquisition, feature
// extraction, persistence and the classifier.
package models

import "time"

// Video is a candidate video as returned by the search provider.
// Rows are immutable once stored.
type Video struct {
	ID           string
	Title        string
	Description  string
	ChannelName  string
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	Duration     time.Duration
	PublishedAt  time.Time
	ThumbnailURL string
	Tags         []string
	Category     string
	URL          string
}

// WatchURL returns the canonical watch page URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// Rating is the user's like/dislike for a video. One row per video.
type Rating struct {
	VideoID   string
	Liked     bool
	CreatedAt time.Time
}

// VideoFeatures pairs a video with its stored feature vector.
// Features is nil when the row has not been written yet.
type VideoFeatures struct {
	Video    Video
	Features *FeatureVector
}

// Sample is one labelled training row.
type Sample struct {
	Features FeatureVector
	Liked    bool
}
