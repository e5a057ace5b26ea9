// Package cache keeps a short-lived Redis copy of the referral leaderboard
// so the hot read path does not hit Postgres on every request.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rewards_academy/internal/model"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	leaderboardKey = "leaderboard:referrers"
	leaderboardTTL = 60 * time.Second
)

var ErrCacheMiss = errors.New("leaderboard not cached")

type Config struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type LeaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(cfg Config) (*LeaderboardCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &LeaderboardCache{client: client}, nil
}

func (c *LeaderboardCache) Close() error {
	return c.client.Close()
}

// GetTopReferrers returns up to limit cached entries, highest rank first.
func (c *LeaderboardCache) GetTopReferrers(ctx context.Context, limit int) ([]*model.TopReferrer, error) {
	raw, err := c.client.ZRevRange(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrCacheMiss
	}

	referrers := make([]*model.TopReferrer, 0, len(raw))
	for _, member := range raw {
		var entry model.TopReferrer
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode leaderboard entry: %w", err)
		}
		referrers = append(referrers, &entry)
	}

	return referrers, nil
}

// SetTopReferrers replaces the cached leaderboard with a fresh snapshot.
func (c *LeaderboardCache) SetTopReferrers(ctx context.Context, referrers []*model.TopReferrer) error {
	members := make([]redis.Z, 0, len(referrers))
	for _, r := range referrers {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode leaderboard entry: %w", err)
		}
		members = append(members, redis.Z{
			Score:  float64(r.ReferralCount),
			Member: string(payload),
		})
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, leaderboardKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, leaderboardKey, members...)
	}
	pipe.Expire(ctx, leaderboardKey, leaderboardTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write leaderboard cache: %w", err)
	}

	return nil
}
