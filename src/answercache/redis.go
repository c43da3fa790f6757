package answercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quizsentry/quizsentry/src/types"
)

const redisKeyPrefix = "quiz:answer:"

// RedisStore keeps entries as JSON values under quiz:answer:<question>.
// Usage counters accumulate in memory and reach Redis on the next Put for
// the key or at Close, so Get never writes.
type RedisStore struct {
	client *redis.Client

	mu      sync.Mutex
	pending map[string]int // usage increments not yet persisted
}

func OpenRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts)), nil
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, pending: make(map[string]int)}
}

func (s *RedisStore) Get(ctx context.Context, question string) (Entry, bool, error) {
	key := Normalize(question)

	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	if !entry.Letter.Valid() {
		return Entry{}, false, nil
	}

	s.mu.Lock()
	s.pending[key]++
	entry.UsageCount += s.pending[key]
	s.mu.Unlock()
	return entry, true, nil
}

func (s *RedisStore) Put(ctx context.Context, question string, letter types.Letter, optionText string) error {
	if !letter.Valid() {
		return fmt.Errorf("refusing to cache invalid letter %q", letter)
	}
	key := Normalize(question)

	entry := Entry{
		Letter:     letter,
		OptionText: optionText,
		SavedAt:    time.Now(),
		UsageCount: 1,
	}

	// Fold any stored count plus unflushed increments into the write.
	if raw, err := s.client.Get(ctx, redisKeyPrefix+key).Result(); err == nil {
		var existing Entry
		if json.Unmarshal([]byte(raw), &existing) == nil {
			entry.UsageCount = existing.UsageCount
		}
	}
	s.mu.Lock()
	entry.UsageCount += s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Close flushes pending usage increments.
func (s *RedisStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]int)
	s.mu.Unlock()

	for key, n := range pending {
		raw, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
		if err != nil {
			continue
		}
		var entry Entry
		if json.Unmarshal([]byte(raw), &entry) != nil {
			continue
		}
		entry.UsageCount += n
		if out, err := json.Marshal(entry); err == nil {
			_ = s.client.Set(ctx, redisKeyPrefix+key, out, 0).Err()
		}
	}
	return s.client.Close()
}
