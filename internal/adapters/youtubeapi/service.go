// Package youtubeapi implements channel enumeration and video fetching on
// the YouTube Data API v3.
package youtubeapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"mailscout/internal/core/domain"
)

// NewService creates an API client authenticated with apiKey. Extra options
// are appended (tests point the client at a local server with them).
func NewService(ctx context.Context, apiKey string, opts ...option.ClientOption) (*youtube.Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: youtube api key is required", domain.ErrInvalidConfig)
	}

	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("unable to create youtube service: %w", err)
	}
	return svc, nil
}

// rate limit reasons reported by the API on 403 responses
var throttleReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
}

// classify maps an API call error to a fetch error kind.
func classify(ctx context.Context, err error) domain.FetchErrorKind {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return domain.FetchCanceled
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests:
			return domain.FetchRateLimited
		case gerr.Code == http.StatusForbidden && hasThrottleReason(gerr):
			return domain.FetchRateLimited
		case gerr.Code == http.StatusNotFound:
			return domain.FetchNotFound
		case gerr.Code >= 500:
			return domain.FetchNetwork
		default:
			return domain.FetchUnknown
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return domain.FetchNetwork
	}
	return domain.FetchUnknown
}

func hasThrottleReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		if throttleReasons[item.Reason] {
			return true
		}
	}
	return false
}
