package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

func (r *Redis) Blocked(ctx context.Context, rule Rule, key string) (time.Duration, bool) {
	if key == "" {
		return 0, false
	}
	if rule.Ban > 0 {
		ttl, err := r.Client.TTL(ctx, banKey(rule, key)).Result()
		if err == nil && ttl > 0 {
			return ttl, true
		}
		return 0, false
	}
	attempts, err := r.Client.Get(ctx, attemptKey(rule, key)).Int64()
	if err != nil || attempts < rule.Max {
		return 0, false
	}
	ttl, _ := r.Client.TTL(ctx, attemptKey(rule, key)).Result()
	return ttl, true
}

func (r *Redis) Hit(ctx context.Context, rule Rule, key string) (bool, time.Duration, error) {
	if key == "" {
		return false, 0, nil
	}
	k := attemptKey(rule, key)

	attempts, err := r.Client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if attempts == 1 {
		r.Client.Expire(ctx, k, rule.Window)
	}
	if attempts < rule.Max {
		return false, 0, nil
	}
	if rule.Ban > 0 {
		r.Client.Set(ctx, banKey(rule, key), "1", rule.Ban)
		r.Client.Expire(ctx, k, rule.Ban)
		return true, rule.Ban, nil
	}
	ttl, _ := r.Client.TTL(ctx, k).Result()
	return true, ttl, nil
}

func (r *Redis) Reset(ctx context.Context, rule Rule, key string) {
	r.Client.Del(ctx, attemptKey(rule, key), banKey(rule, key))
}

func (r *Redis) Cooldown(ctx context.Context, name, key string) time.Duration {
	ttl, err := r.Client.TTL(ctx, cooldownKey(name, key)).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

func (r *Redis) SetCooldown(ctx context.Context, name, key string, ttl time.Duration) {
	r.Client.Set(ctx, cooldownKey(name, key), "1", ttl)
}
