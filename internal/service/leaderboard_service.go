package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/events"
	"github.com/chancov/WebAppMiningGameTG/internal/logger"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"

	redis "github.com/redis/go-redis/v9"
)

const leaderboardCacheKey = "leaderboard:top"

// LeaderboardCache keeps the rendered top list in Redis for a short TTL.
// A nil cache or client disables caching.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func (c *LeaderboardCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get returns the cached list, or nil when nothing is cached.
func (c *LeaderboardCache) Get(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	if !c.enabled() {
		return nil, nil
	}

	data, err := c.client.Get(ctx, leaderboardCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached leaderboard: %w", err)
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cached leaderboard: %w", err)
	}
	return entries, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, entries []domain.LeaderboardEntry) error {
	if !c.enabled() {
		return nil
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode leaderboard for cache: %w", err)
	}
	if err := c.client.Set(ctx, leaderboardCacheKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached leaderboard: %w", err)
	}
	return nil
}

// Publish drops the cached list after any committed change that can move a
// balance, so it is used as one of the service event publishers.
func (c *LeaderboardCache) Publish(ctx context.Context, e events.Event) {
	switch e.Type {
	case events.TypeMiningStarted, events.TypeMiningClaimable:
		return
	}
	if err := c.Invalidate(ctx); err != nil {
		logger.WithContext(ctx).Warn("leaderboard cache invalidation failed", "error", err, "event", e.Type)
	}
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	if err := c.client.Del(ctx, leaderboardCacheKey).Err(); err != nil {
		return fmt.Errorf("delete cached leaderboard: %w", err)
	}
	return nil
}

// LeaderboardService ranks accounts by balance.
type LeaderboardService struct {
	store repository.Store
	cache *LeaderboardCache
}

func NewLeaderboardService(store repository.Store, cache *LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{store: store, cache: cache}
}

// Top returns up to LeaderboardSize accounts, richest first. Cache failures
// fall through to the store.
func (s *LeaderboardService) Top(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	cached, err := s.cache.Get(ctx)
	if err != nil {
		logger.WithContext(ctx).Warn("leaderboard cache read failed", "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	var accounts []domain.Account
	err = s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		accounts, err = q.TopAccounts(ctx, domain.LeaderboardSize)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := domain.RankAccounts(accounts)
	if err := s.cache.Set(ctx, entries); err != nil {
		logger.WithContext(ctx).Warn("leaderboard cache write failed", "error", err)
	}
	return entries, nil
}
