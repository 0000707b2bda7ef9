package youtube

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAPIKey is returned before any request when no API key is configured.
var ErrMissingAPIKey = errors.New("YouTube API key not configured")

// Kind classifies a provider failure for callers that surface it to the user.
type Kind string

const (
	KindQuotaExceeded Kind = "quota_exceeded"
	KindInvalidAPIKey Kind = "invalid_api_key"
	KindNetwork       Kind = "network"
	KindUnavailable   Kind = "unavailable"
	KindUnknown       Kind = "unknown"
)

// ProviderError is a failed search, details or feed call.
type ProviderError struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("youtube %s: %s (HTTP %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("youtube %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf returns the provider error kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// apiError mirrors the error object of a Data API response body.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// classify maps an HTTP status and API error reasons to a Kind.
func classify(status int, body apiError) Kind {
	for _, e := range body.Error.Errors {
		switch e.Reason {
		case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return KindQuotaExceeded
		case "keyInvalid", "keyExpired", "accessNotConfigured", "forbidden":
			return KindInvalidAPIKey
		}
	}

	msg := strings.ToLower(body.Error.Message)
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "exceeded"):
		return KindQuotaExceeded
	case strings.Contains(msg, "api key"):
		return KindInvalidAPIKey
	}

	switch status {
	case 400, 401:
		return KindInvalidAPIKey
	case 403, 429:
		return KindQuotaExceeded
	case 502, 503, 504:
		return KindNetwork
	}
	return KindUnknown
}
