package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wettergames/cityguess/internal/game"
)

const leaderboardTTL = 30 * time.Second

// LeaderboardCache keeps the first page of each leaderboard partition in
// redis. Only cursor-less requests are cached; paged requests always hit
// sqlite. Submissions invalidate the partitions they touch.
type LeaderboardCache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewLeaderboardCache(rdb *redis.Client, logger *slog.Logger) *LeaderboardCache {
	return &LeaderboardCache{rdb: rdb, logger: logger}
}

func leaderboardCacheKey(partition string) string {
	return "leaderboard:first:" + partition
}

// Get returns the cached first page for a partition, or ok=false on miss.
// A nil cache always misses, so redis-less setups degrade to sqlite reads.
func (c *LeaderboardCache) Get(ctx context.Context, partition string) (game.EntryPage, bool) {
	if c == nil {
		return game.EntryPage{}, false
	}
	data, err := c.rdb.Get(ctx, leaderboardCacheKey(partition)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Error("leaderboard cache read failed", "partition", partition, "error", err)
		}
		return game.EntryPage{}, false
	}

	var page game.EntryPage
	if err := json.Unmarshal(data, &page); err != nil {
		return game.EntryPage{}, false
	}
	return page, true
}

// Put stores the first page for a partition with a short TTL.
func (c *LeaderboardCache) Put(ctx context.Context, partition string, page game.EntryPage) {
	if c == nil {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, leaderboardCacheKey(partition), data, leaderboardTTL).Err(); err != nil {
		c.logger.Error("leaderboard cache write failed", "partition", partition, "error", err)
	}
}

// Invalidate drops the cached first page for each partition. Called after a
// submission lands so new scores surface without waiting for the TTL.
func (c *LeaderboardCache) Invalidate(ctx context.Context, partitions []string) {
	if c == nil {
		return
	}
	keys := make([]string, len(partitions))
	for i, p := range partitions {
		keys[i] = leaderboardCacheKey(p)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("leaderboard cache invalidation failed", "error", err)
	}
}

// roundCacheKey caches the published round document for the day so repeated
// round starts do not re-read sqlite.
func roundCacheKey(day string) string {
	return fmt.Sprintf("round:%s", day)
}

// RoundCache fronts RoundByDay with redis. Rounds are immutable once
// published, so entries live until end of day.
type RoundCache struct {
	rdb    *redis.Client
	store  Store
	logger *slog.Logger
}

func NewRoundCache(rdb *redis.Client, store Store, logger *slog.Logger) *RoundCache {
	return &RoundCache{rdb: rdb, store: store, logger: logger}
}

// Invalidate drops the cached round for a day, e.g. after a re-publish.
func (c *RoundCache) Invalidate(ctx context.Context, day string) {
	if err := c.rdb.Del(ctx, roundCacheKey(day)).Err(); err != nil {
		c.logger.Error("round cache invalidation failed", "day", day, "error", err)
	}
}

func (c *RoundCache) RoundByDay(ctx context.Context, day string) (*game.Round, error) {
	if data, err := c.rdb.Get(ctx, roundCacheKey(day)).Bytes(); err == nil {
		var doc roundDoc
		if err := json.Unmarshal(data, &doc); err == nil {
			return game.NewRound(doc.Day, doc.Candidates, doc.Target)
		}
	}

	round, err := c.store.RoundByDay(ctx, day)
	if err != nil {
		return nil, err
	}

	doc := roundDoc{Day: day, Candidates: round.Candidates, Target: round.Target().Stats}
	if data, err := json.Marshal(doc); err == nil {
		if err := c.rdb.Set(ctx, roundCacheKey(day), data, 24*time.Hour).Err(); err != nil {
			c.logger.Error("round cache write failed", "day", day, "error", err)
		}
	}
	return round, nil
}
