// Package ratelimit counts attempts per key in fixed windows and locks a key
// out once it reaches its rule's maximum.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

type Rule struct {
	Name   string
	Max    int64
	Window time.Duration
	// Ban, when set, is how long a key stays locked after reaching Max.
	Ban time.Duration
}

var (
	Login       = Rule{Name: "login", Max: 5, Window: 10 * time.Minute, Ban: time.Hour}
	Verify      = Rule{Name: "verify", Max: 5, Window: 10 * time.Minute}
	ResetEmail  = Rule{Name: "reset_email", Max: 5, Window: 15 * time.Minute}
	ResetIP     = Rule{Name: "reset_ip", Max: 20, Window: 15 * time.Minute}
	SignupIP    = Rule{Name: "signup_ip", Max: 10, Window: 30 * time.Minute}
	SignupEmail = Rule{Name: "signup_email", Max: 3, Window: 30 * time.Minute}
)

const EmailCooldown = 60 * time.Second

type Limiter interface {
	// Blocked reports whether key is locked for rule and for how long.
	Blocked(ctx context.Context, rule Rule, key string) (time.Duration, bool)
	// Hit records an attempt. locked is true once the attempt count reaches
	// rule.Max.
	Hit(ctx context.Context, rule Rule, key string) (locked bool, retryAfter time.Duration, err error)
	Reset(ctx context.Context, rule Rule, key string)
	// Cooldown returns the time left before name may fire again for key.
	Cooldown(ctx context.Context, name, key string) time.Duration
	SetCooldown(ctx context.Context, name, key string, ttl time.Duration)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func attemptKey(rule Rule, key string) string {
	return rule.Name + "_attempts:" + normalizeKey(key)
}

func banKey(rule Rule, key string) string {
	return rule.Name + "_ban:" + normalizeKey(key)
}

func cooldownKey(name, key string) string {
	return name + "_cooldown:" + normalizeKey(key)
}

// Noop never limits.
type Noop struct{}

func (Noop) Blocked(context.Context, Rule, string) (time.Duration, bool) { return 0, false }

func (Noop) Hit(context.Context, Rule, string) (bool, time.Duration, error) { return false, 0, nil }

func (Noop) Reset(context.Context, Rule, string) {}

func (Noop) Cooldown(context.Context, string, string) time.Duration { return 0 }

func (Noop) SetCooldown(context.Context, string, string, time.Duration) {}
