// Package answercache persists resolved quiz answers keyed by normalized
// question text so a repeated question never needs another oracle round trip.
package answercache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quizsentry/quizsentry/src/types"
)

// Entry is one cached answer with provenance and usage metadata.
type Entry struct {
	Letter     types.Letter `json:"answer_letter"`
	OptionText string       `json:"answer_text"`
	SavedAt    time.Time    `json:"saved_at"`
	UsageCount int          `json:"usage_count"`
}

// Store is a keyed answer store. Get increments the entry's usage counter as
// an observable side effect; the counter only reaches durable storage on the
// next Put for that key or at Close.
type Store interface {
	Get(ctx context.Context, question string) (Entry, bool, error)
	Put(ctx context.Context, question string, letter types.Letter, optionText string) error
	Close() error
}

// Normalize folds a question into its cache key form.
func Normalize(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// Options selects and configures a cache backend.
type Options struct {
	Backend  string // "file", "redis" or "mysql"
	FilePath string
	RedisURL string
	MySQLDSN string
}

// Open builds the configured Store implementation.
func Open(opts Options, log *zap.SugaredLogger) (Store, error) {
	switch opts.Backend {
	case "", "file":
		return OpenFileStore(opts.FilePath)
	case "redis":
		return OpenRedisStore(opts.RedisURL)
	case "mysql":
		return OpenMySQLStore(opts.MySQLDSN, log)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
