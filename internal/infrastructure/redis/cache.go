// Package redis provides the Redis-backed session key cache.
package redis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vaultkeep/audit-service/internal/domain/shared"
	"github.com/vaultkeep/audit-service/internal/infrastructure/config"
)

// Client wraps the Redis client.
type Client struct {
	*redis.Client
}

// NewClient creates a new Redis client.
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().
		Str("address", cfg.Address()).
		Int("db", cfg.DB).
		Msg("Redis connection established")

	return &Client{client}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if err := c.Client.Close(); err != nil {
		return fmt.Errorf("failed to close redis: %w", err)
	}
	log.Info().Msg("Redis connection closed")
	return nil
}

const sessionKeyPrefix = "vault:audit:sessionkey:"

// SessionKeyCache stores the per-session transport keys the purge envelope is
// sealed with. Keys are provisioned at login by the auth service; this
// service only reads them, except in tests.
type SessionKeyCache struct {
	client *Client
	ttl    time.Duration
}

// NewSessionKeyCache creates a new SessionKeyCache.
func NewSessionKeyCache(client *Client, cfg *config.RedisConfig) *SessionKeyCache {
	return &SessionKeyCache{
		client: client,
		ttl:    cfg.SessionKeyTTL,
	}
}

// Store saves a session transport key under the session ID.
func (c *SessionKeyCache) Store(ctx context.Context, sessionID uuid.UUID, key []byte) error {
	name := sessionKeyPrefix + sessionID.String()
	encoded := base64.StdEncoding.EncodeToString(key)
	return c.client.Set(ctx, name, encoded, c.ttl).Err()
}

// Get retrieves a session transport key. A missing key surfaces as
// shared.ErrSessionKeyNotFound so the caller can reject the request rather
// than treat it as a store failure.
func (c *SessionKeyCache) Get(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	name := sessionKeyPrefix + sessionID.String()
	val, err := c.client.Get(ctx, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrSessionKeyNotFound
		}
		return nil, fmt.Errorf("failed to get session key: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session key: %w", err)
	}
	return key, nil
}

// Delete removes a session transport key.
func (c *SessionKeyCache) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return c.client.Del(ctx, sessionKeyPrefix+sessionID.String()).Err()
}
