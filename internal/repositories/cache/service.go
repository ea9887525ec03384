// Package cache provides the Redis-backed wallet read cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"edupay/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Service caches wallet reads keyed by user id. Mutating paths invalidate
// the key; stale entries age out on the TTL.
type Service struct {
	client *redis.Client
	ttl    time.Duration
}

func NewService(client *redis.Client, ttl time.Duration) *Service {
	return &Service{client: client, ttl: ttl}
}

func (s *Service) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	val, err := s.client.Get(ctx, walletKey(userID)).Bytes()
	if err != nil {
		return nil, err
	}

	var wallet models.Wallet
	if err := json.Unmarshal(val, &wallet); err != nil {
		return nil, fmt.Errorf("failed to decode cached wallet: %w", err)
	}
	return &wallet, nil
}

func (s *Service) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}
	return s.client.Set(ctx, walletKey(wallet.UserID), data, s.ttl).Err()
}

func (s *Service) InvalidateWallet(ctx context.Context, userID string) error {
	return s.client.Del(ctx, walletKey(userID)).Err()
}

func (s *Service) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (s *Service) Close() error {
	return s.client.Close()
}

func walletKey(userID string) string {
	return fmt.Sprintf("wallet:%s", userID)
}
