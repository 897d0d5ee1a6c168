// Package leaderboard computes ranked boards from progression state,
// with an optional Redis cache in front of the computation.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/promptcraft/promptcraft/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no cached board exists for a key
var ErrCacheMiss = errors.New("leaderboard cache miss")

const (
	keyBoard    = "leaderboard:board:"
	keyGlobalXP = "leaderboard:xp:global"

	// DefaultTTL bounds board staleness between recomputes
	DefaultTTL = 60 * time.Second
)

// Cache stores ranked boards in Redis. Boards are cached as a JSON
// snapshot so the deterministic tie-break order survives the round
// trip; a sorted set mirrors global XP for O(log N) rank lookups.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a leaderboard cache around a Redis client
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// GetBoard returns a cached board, or ErrCacheMiss
func (c *Cache) GetBoard(ctx context.Context, key string) ([]domain.LeaderboardEntry, error) {
	data, err := c.client.Get(ctx, keyBoard+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get board %s: %w", key, err)
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal board %s: %w", key, err)
	}
	return entries, nil
}

// SetBoard caches a ranked board under the key
func (c *Cache) SetBoard(ctx context.Context, key string, entries []domain.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal board %s: %w", key, err)
	}
	if err := c.client.Set(ctx, keyBoard+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set board %s: %w", key, err)
	}
	return nil
}

// UpdateGlobalXP keeps the global XP sorted set in step with a ledger
// write. Called after every ledger save so rank lookups stay warm.
func (c *Cache) UpdateGlobalXP(ctx context.Context, userID string, totalXP int) error {
	err := c.client.ZAdd(ctx, keyGlobalXP, redis.Z{
		Score:  float64(totalXP),
		Member: userID,
	}).Err()
	if err != nil {
		return fmt.Errorf("update global xp: %w", err)
	}
	return nil
}

// GlobalRank returns the 1-based global rank of a user by total XP,
// or ErrCacheMiss when the user is not in the sorted set. Ties are
// approximate here; the authoritative order comes from the board.
func (c *Cache) GlobalRank(ctx context.Context, userID string) (int, error) {
	rank, err := c.client.ZRevRank(ctx, keyGlobalXP, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, fmt.Errorf("global rank: %w", err)
	}
	return int(rank) + 1, nil
}

// Invalidate drops cached boards for the given keys
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyBoard + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("invalidate boards: %w", err)
	}
	return nil
}
