package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"whatstrumps/engine"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const standingsTTL = 2 * time.Hour

// StandingsCache holds computed standings per game. Misses and failures
// are never fatal; callers fall back to the database.
//
// Set is only called with standings read in the transaction that produced
// revision, and never replaces an entry with a higher revision.
type StandingsCache interface {
	Get(ctx context.Context, gameID uint) ([]engine.Standing, bool)
	Set(ctx context.Context, gameID uint, revision int64, standings []engine.Standing)
	Invalidate(ctx context.Context, gameID uint)
}

type RedisStandingsCache struct {
	redis  *redis.Client
	logger *zap.Logger
}

func NewRedisStandingsCache(client *redis.Client, logger *zap.Logger) *RedisStandingsCache {
	return &RedisStandingsCache{redis: client, logger: logger}
}

// NewStandingsCache returns a Redis backed cache, or one that caches
// nothing when client is nil.
func NewStandingsCache(client *redis.Client, logger *zap.Logger) StandingsCache {
	if client == nil {
		return NopStandingsCache{}
	}
	return NewRedisStandingsCache(client, logger)
}

func standingsKey(gameID uint) string {
	return fmt.Sprintf("game:%d:standings", gameID)
}

// setIfNewer stores standings in a hash alongside their revision unless the
// hash already holds a later revision.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'revision')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'revision', ARGV[1], 'standings', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

func (c *RedisStandingsCache) Get(ctx context.Context, gameID uint) ([]engine.Standing, bool) {
	data, err := c.redis.HGet(ctx, standingsKey(gameID), "standings").Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis get failed", zap.Uint("game_id", gameID), zap.Error(err))
		}
		return nil, false
	}

	var standings []engine.Standing
	if err := json.Unmarshal(data, &standings); err != nil {
		c.logger.Warn("cached standings unreadable", zap.Uint("game_id", gameID), zap.Error(err))
		return nil, false
	}
	return standings, true
}

func (c *RedisStandingsCache) Set(ctx context.Context, gameID uint, revision int64, standings []engine.Standing) {
	data, err := json.Marshal(standings)
	if err != nil {
		c.logger.Warn("failed to marshal standings", zap.Uint("game_id", gameID), zap.Error(err))
		return
	}
	keys := []string{standingsKey(gameID)}
	err = setIfNewer.Run(ctx, c.redis, keys, revision, data, standingsTTL.Milliseconds()).Err()
	if err != nil {
		c.logger.Warn("redis set failed", zap.Uint("game_id", gameID), zap.Int64("revision", revision), zap.Error(err))
	}
}

func (c *RedisStandingsCache) Invalidate(ctx context.Context, gameID uint) {
	if err := c.redis.Del(ctx, standingsKey(gameID)).Err(); err != nil {
		c.logger.Warn("redis del failed", zap.Uint("game_id", gameID), zap.Error(err))
	}
}

type NopStandingsCache struct{}

func (NopStandingsCache) Get(context.Context, uint) ([]engine.Standing, bool) { return nil, false }
func (NopStandingsCache) Set(context.Context, uint, int64, []engine.Standing) {}
func (NopStandingsCache) Invalidate(context.Context, uint)                    {}
