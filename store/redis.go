// Package store provides persistence adapters for the response engine:
// profile repositories and cooldown snapshots backed by Redis or SQLite.
// The engine itself never talks to storage; it goes through these.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	respondsdk "github.com/alphasnob/respond-sdk-go"
)

// RedisProfileRepository implements respondsdk.ProfileRepository on a Redis
// client. Profiles are stored as JSON under "{prefix}:profile:{user_id}",
// cooldown snapshots under "{prefix}:cooldown:{chat_id}".
type RedisProfileRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	ctx    context.Context
}

// RedisConfig configures the Redis repository.
type RedisConfig struct {
	Prefix string        // key prefix, default "respond"
	TTL    time.Duration // expiry for stored entries, 0 = keep forever
}

// NewRedisProfileRepository creates a repository over an existing client.
func NewRedisProfileRepository(client redis.UniversalClient, config ...RedisConfig) *RedisProfileRepository {
	cfg := RedisConfig{Prefix: "respond"}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "respond"
	}
	return &RedisProfileRepository{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		ctx:    context.Background(),
	}
}

func (r *RedisProfileRepository) profileKey(userID string) string {
	return fmt.Sprintf("%s:profile:%s", r.prefix, userID)
}

func (r *RedisProfileRepository) cooldownKey(chatID string) string {
	return fmt.Sprintf("%s:cooldown:%s", r.prefix, chatID)
}

// Get loads a profile. Unknown users return (nil, nil).
func (r *RedisProfileRepository) Get(userID string) (*respondsdk.UserProfile, error) {
	raw, err := r.client.Get(r.ctx, r.profileKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get profile: %w", err)
	}
	var p respondsdk.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	return &p, nil
}

// Save persists a profile.
func (r *RedisProfileRepository) Save(profile *respondsdk.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", profile.UserID, err)
	}
	if err := r.client.Set(r.ctx, r.profileKey(profile.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis save profile: %w", err)
	}
	return nil
}

// SaveCooldown persists one chat's cooldown snapshot.
func (r *RedisProfileRepository) SaveCooldown(chatID string, state respondsdk.CooldownState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode cooldown %s: %w", chatID, err)
	}
	if err := r.client.Set(r.ctx, r.cooldownKey(chatID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis save cooldown: %w", err)
	}
	return nil
}

// LoadCooldown restores one chat's cooldown snapshot. Unknown chats return
// a zero state.
func (r *RedisProfileRepository) LoadCooldown(chatID string) (respondsdk.CooldownState, error) {
	var state respondsdk.CooldownState
	raw, err := r.client.Get(r.ctx, r.cooldownKey(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("redis load cooldown: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return state, fmt.Errorf("decode cooldown %s: %w", chatID, err)
	}
	return state, nil
}
