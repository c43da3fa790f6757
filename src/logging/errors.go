package logging

import "strings"

// Venue transports surface failures as opaque errors; classification is by
// message content, the same way across every transport.

var rateLimitMarkers = []string{"rate_limit", "rate limit", "429", "flood", "slow down", "too many requests"}

var conflictMarkers = []string{
	"already answered",
	"not modified",
	"button_data_invalid",
	"message is too old",
	"query id invalid",
	"stale",
}

var authMarkers = []string{"401", "unauthorized", "authentication failed", "token invalid"}

// IsRateLimit reports whether the error is a venue rate limit. Rate-limited
// identities are paced, not abandoned.
func IsRateLimit(err error) bool {
	return containsAny(err, rateLimitMarkers)
}

// IsIdempotentConflict reports whether the error means the action already
// happened through another path (answer already recorded, choice target
// gone stale). Callers treat these as success.
func IsIdempotentConflict(err error) bool {
	return containsAny(err, conflictMarkers)
}

// IsAuthExpired reports whether the error means the session's credentials
// no longer authorize.
func IsAuthExpired(err error) bool {
	return containsAny(err, authMarkers)
}

func containsAny(err error, markers []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
