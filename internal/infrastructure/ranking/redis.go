// Package ranking implements the leaderboard store on Redis: a ZSET
// ordered by total XP plus one stats hash per player.
package ranking

import (
	"context"
	"fmt"
	"strconv"

	"github.com/astraforge/engine/internal/domain"
	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "leaderboard:xp"

func statsKey(playerID string) string {
	return "player:stats:" + playerID
}

// RedisStore implements domain.RankingStore on go-redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and verifies connectivity with a ping.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// Publish upserts the player's score and stats snapshot.
func (s *RedisStore) Publish(ctx context.Context, entry domain.RankingEntry) error {
	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(entry.TotalXP),
		Member: entry.PlayerID,
	})
	pipe.HSet(ctx, statsKey(entry.PlayerID), map[string]interface{}{
		"stellar_shards": strconv.FormatUint(entry.StellarShards, 10),
		"lumina":         strconv.FormatUint(entry.Lumina, 10),
		"total_xp":       strconv.FormatUint(entry.TotalXP, 10),
		"win_streak":     strconv.FormatUint(uint64(entry.WinStreak), 10),
		"total_trades":   strconv.FormatUint(entry.TotalTrades, 10),
		"win_rate":       strconv.FormatFloat(entry.WinRate, 'f', -1, 64),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: publish ranking for %s: %w", entry.PlayerID, err)
	}
	return nil
}

// Top returns the n highest-XP players with their stats.
func (s *RedisStore) Top(ctx context.Context, n int) ([]domain.RankingEntry, error) {
	members, err := s.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: leaderboard range: %w", err)
	}

	entries := make([]domain.RankingEntry, 0, len(members))
	for _, m := range members {
		playerID, ok := m.Member.(string)
		if !ok {
			continue
		}
		entry := domain.RankingEntry{PlayerID: playerID, TotalXP: uint64(m.Score)}

		stats, err := s.rdb.HGetAll(ctx, statsKey(playerID)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: stats for %s: %w", playerID, err)
		}
		if v, ok := stats["stellar_shards"]; ok {
			entry.StellarShards, _ = strconv.ParseUint(v, 10, 64)
		}
		if v, ok := stats["lumina"]; ok {
			entry.Lumina, _ = strconv.ParseUint(v, 10, 64)
		}
		if v, ok := stats["win_streak"]; ok {
			streak, _ := strconv.ParseUint(v, 10, 32)
			entry.WinStreak = uint32(streak)
		}
		if v, ok := stats["total_trades"]; ok {
			entry.TotalTrades, _ = strconv.ParseUint(v, 10, 64)
		}
		if v, ok := stats["win_rate"]; ok {
			entry.WinRate, _ = strconv.ParseFloat(v, 64)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

var _ domain.RankingStore = (*RedisStore)(nil)
