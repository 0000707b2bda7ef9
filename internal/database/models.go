package database

// Stats contains aggregate database statistics.
type Stats struct {
	TotalVideos    int
	FeaturedVideos int
	UnratedVideos  int
	TotalRatings   int
	LikedVideos    int
	DislikedVideos int
}
