package logging

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		fn   func(error) bool
		want bool
	}{
		{"nil is nothing", nil, IsRateLimit, false},
		{"429", errors.New("HTTP 429 Too Many Requests"), IsRateLimit, true},
		{"flood wait", errors.New("FLOOD_WAIT_30"), IsRateLimit, true},
		{"wrapped rate limit", fmt.Errorf("submit choice: %w", errors.New("rate limit exceeded")), IsRateLimit, true},
		{"plain failure is not rate limit", errors.New("connection reset"), IsRateLimit, false},

		{"already answered", errors.New("you have already answered this quiz"), IsIdempotentConflict, true},
		{"stale button", errors.New("BUTTON_DATA_INVALID"), IsIdempotentConflict, true},
		{"message too old", fmt.Errorf("click: %w", errors.New("message is too old")), IsIdempotentConflict, true},
		{"plain failure is not conflict", errors.New("connection reset"), IsIdempotentConflict, false},

		{"401", errors.New("401 Unauthorized"), IsAuthExpired, true},
		{"token invalid", fmt.Errorf("open: %w", errors.New("token invalid")), IsAuthExpired, true},
		{"plain failure is not auth", errors.New("connection reset"), IsAuthExpired, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.fn(tc.err); got != tc.want {
				t.Fatalf("classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
