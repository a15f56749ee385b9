package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often writes scan for expired entries.
const sweepInterval = time.Minute

// Memory is an in-process Limiter for single-instance deployments without
// redis.
type Memory struct {
	mu        sync.Mutex
	now       func() time.Time
	entries   map[string]*entry
	lastSweep time.Time
}

type entry struct {
	count     int64
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now, entries: make(map[string]*entry)}
}

func (m *Memory) get(k string) *entry {
	e, ok := m.entries[k]
	if !ok {
		return nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, k)
		return nil
	}
	return e
}

// sweep drops expired entries so keys that are never read again do not
// accumulate. Callers hold the lock.
func (m *Memory) sweep() {
	now := m.now()
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

func (m *Memory) Blocked(_ context.Context, rule Rule, key string) (time.Duration, bool) {
	if key == "" {
		return 0, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if rule.Ban > 0 {
		if e := m.get(banKey(rule, key)); e != nil {
			return e.expiresAt.Sub(m.now()), true
		}
		return 0, false
	}
	if e := m.get(attemptKey(rule, key)); e != nil && e.count >= rule.Max {
		return e.expiresAt.Sub(m.now()), true
	}
	return 0, false
}

func (m *Memory) Hit(_ context.Context, rule Rule, key string) (bool, time.Duration, error) {
	if key == "" {
		return false, 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	k := attemptKey(rule, key)
	e := m.get(k)
	if e == nil {
		e = &entry{expiresAt: m.now().Add(rule.Window)}
		m.entries[k] = e
	}
	e.count++
	if e.count < rule.Max {
		return false, 0, nil
	}
	if rule.Ban > 0 {
		until := m.now().Add(rule.Ban)
		m.entries[banKey(rule, key)] = &entry{count: 1, expiresAt: until}
		e.expiresAt = until
		return true, rule.Ban, nil
	}
	return true, e.expiresAt.Sub(m.now()), nil
}

func (m *Memory) Reset(_ context.Context, rule Rule, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, attemptKey(rule, key))
	delete(m.entries, banKey(rule, key))
}

func (m *Memory) Cooldown(_ context.Context, name, key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.get(cooldownKey(name, key)); e != nil {
		return e.expiresAt.Sub(m.now())
	}
	return 0
}

func (m *Memory) SetCooldown(_ context.Context, name, key string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.entries[cooldownKey(name, key)] = &entry{count: 1, expiresAt: m.now().Add(ttl)}
}
