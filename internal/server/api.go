package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/TobiSchelling/MyTube/internal/database"
	"github.com/TobiSchelling/MyTube/internal/engine"
	"github.com/TobiSchelling/MyTube/internal/logging"
	"github.com/TobiSchelling/MyTube/internal/youtube"
)

// videoJSON is the API representation of a recommendation.
type videoJSON struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	ChannelName    string `json:"channel_name"`
	ViewCount      int64  `json:"view_count"`
	URL            string `json:"url"`
	Thumbnail      string `json:"thumbnail"`
	Confidence     int    `json:"confidence"`
	ViewsFormatted string `json:"views_formatted"`
	Description    string `json:"-"`
}

func formatVideo(r engine.Recommendation) videoJSON {
	v := r.Video
	return videoJSON{
		ID:             v.ID,
		Title:          v.Title,
		ChannelName:    v.ChannelName,
		ViewCount:      v.ViewCount,
		URL:            v.URL,
		Thumbnail:      "https://img.youtube.com/vi/" + v.ID + "/hqdefault.jpg",
		Confidence:     int(math.Round(r.Probability * 100)),
		ViewsFormatted: FormatViewCount(v.ViewCount),
		Description:    v.Description,
	}
}

func formatVideos(recs []engine.Recommendation) []videoJSON {
	out := make([]videoJSON, len(recs))
	for i, r := range recs {
		out[i] = formatVideo(r)
	}
	return out
}

// FormatViewCount renders a view count for display. Counts from 100,000 up
// are shown in millions so that 500,000 reads "0.5M views". Counts that
// would round to "100.0K" are shown in millions too.
func FormatViewCount(n int64) string {
	switch {
	case n >= 99_950:
		return fmt.Sprintf("%.1fM views", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK views", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d views", n)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, err error, extra map[string]any) {
	body := map[string]any{
		"success":    false,
		"error":      userMessage(err),
		"error_type": errorType(err),
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// errorType maps an error to the envelope's error_type.
func errorType(err error) string {
	var pe *youtube.ProviderError
	var persistErr *engine.PersistenceError
	switch {
	case errors.Is(err, youtube.ErrMissingAPIKey):
		return "missing_api_key"
	case errors.Is(err, database.ErrVideoNotFound):
		return "not_found"
	case errors.As(err, &pe):
		if pe.Kind == youtube.KindNetwork {
			return "network_error"
		}
		return string(pe.Kind)
	case errors.As(err, &persistErr):
		return "persistence"
	}
	return "unknown"
}

func userMessage(err error) string {
	switch errorType(err) {
	case "missing_api_key":
		return "No YouTube API key configured. Set the environment variable named by youtube.api_key_env."
	case string(youtube.KindQuotaExceeded):
		return "YouTube API quota exceeded. Quotas reset daily - try again tomorrow!"
	case string(youtube.KindInvalidAPIKey):
		return "Invalid YouTube API key. Please check your configuration."
	case "network_error":
		return "Network error. Please check your internet connection."
	case string(youtube.KindUnavailable):
		return "YouTube API temporarily unavailable after repeated failures. Try again in a few minutes."
	}
	return err.Error()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "MyTube Video Recommendation API",
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.engine.Recommendations(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("recommendations failed")
		writeError(w, http.StatusInternalServerError, err, map[string]any{"videos": []videoJSON{}})
		return
	}

	status, err := s.engine.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err, map[string]any{"videos": []videoJSON{}})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"videos":        formatVideos(recs),
		"model_trained": status.State == engine.StateTrained,
		"total_ratings": status.TotalRatings,
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"video_id"`
		Liked   *bool  `json:"liked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" || req.Liked == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Missing video_id or liked parameter",
		})
		return
	}

	result, err := s.engine.RateVideo(r.Context(), req.VideoID, *req.Liked)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, database.ErrVideoNotFound) {
			status = http.StatusNotFound
		} else {
			logging.Error().Err(err).Str("video_id", req.VideoID).Msg("rating failed")
		}
		writeError(w, status, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Rating saved successfully",
		"model_retrained": result.Retrained,
		"total_ratings":   result.TotalRatings,
	})
}

func (s *Server) handleLiked(w http.ResponseWriter, r *http.Request) {
	liked, err := s.engine.LikedVideos(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("liked videos failed")
		writeError(w, http.StatusInternalServerError, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"videos":      formatVideos(liked),
		"total_liked": len(liked),
	})
}

// handleSearch runs an explicit replenishment. Unlike the opportunistic one
// inside recommendations, its failures are reported to the caller.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.replenisher == nil {
		writeError(w, http.StatusServiceUnavailable, youtube.ErrMissingAPIKey, nil)
		return
	}

	result, err := s.replenisher.Replenish(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, youtube.ErrMissingAPIKey) {
			status = http.StatusServiceUnavailable
		}
		logging.Warn().Err(err).Msg("explicit search failed")
		writeError(w, status, err, nil)
		return
	}

	failures := make([]map[string]string, len(result.Failed))
	for i, f := range result.Failed {
		failures[i] = map[string]string{
			"source":     f.Source,
			"op":         f.Op,
			"error":      f.Err.Error(),
			"error_type": errorType(f.Err),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"queries":    result.Queries,
		"found":      result.Found,
		"new_videos": result.NewVideos,
		"failed":     failures,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err, nil)
		return
	}

	body := map[string]any{
		"success":         true,
		"state":           status.State,
		"model_version":   status.ModelVersion,
		"trained_samples": status.TrainedSamples,
		"total_ratings":   status.TotalRatings,
	}
	if !status.TrainedAt.IsZero() {
		body["trained_at"] = status.TrainedAt.Format(time.RFC3339)
	}
	if s.stats != nil {
		stats, err := s.stats.GetStats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err, nil)
			return
		}
		body["videos"] = stats.TotalVideos
		body["unrated"] = stats.UnratedVideos
		body["liked"] = stats.LikedVideos
		body["disliked"] = stats.DislikedVideos
	}
	writeJSON(w, http.StatusOK, body)
}
