package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parishyparijal/MenonMobility-sub001/internal/repository"
)

const suggestKeyPrefix = "search:suggest:"

// SuggestionCache implements repository.SuggestionCache using Redis.
type SuggestionCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ repository.SuggestionCache = (*SuggestionCache)(nil)

// NewSuggestionCache creates a Redis-backed suggestion cache.
func NewSuggestionCache(client *redis.Client, ttl time.Duration) *SuggestionCache {
	return &SuggestionCache{
		client: client,
		ttl:    ttl,
	}
}

// suggestKey is case-insensitive in text so "Volvo" and "volvo" share an entry.
func suggestKey(text string, limit int) string {
	return suggestKeyPrefix + strconv.Itoa(limit) + ":" + strings.ToLower(strings.TrimSpace(text))
}

// Get returns the cached suggestions. The bool is false on a miss.
func (c *SuggestionCache) Get(ctx context.Context, text string, limit int) ([]string, bool, error) {
	data, err := c.client.Get(ctx, suggestKey(text, limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get suggestions: %w", err)
	}

	var suggestions []string
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, false, fmt.Errorf("unmarshal suggestions: %w", err)
	}
	return suggestions, true, nil
}

// Set stores suggestions with the configured TTL.
func (c *SuggestionCache) Set(ctx context.Context, text string, limit int, suggestions []string) error {
	if suggestions == nil {
		suggestions = []string{}
	}
	data, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}

	if err := c.client.Set(ctx, suggestKey(text, limit), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set suggestions: %w", err)
	}
	return nil
}
