package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryLocksAfterMaxAndBans(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := int64(1); i < Login.Max; i++ {
		locked, _, err := m.Hit(ctx, Login, "10.0.0.1")
		if err != nil || locked {
			t.Fatalf("attempt %d locked early", i)
		}
	}
	locked, retry, _ := m.Hit(ctx, Login, "10.0.0.1")
	if !locked || retry != Login.Ban {
		t.Fatalf("expected ban of %v, got locked=%v retry=%v", Login.Ban, locked, retry)
	}
	if _, blocked := m.Blocked(ctx, Login, "10.0.0.1"); !blocked {
		t.Fatalf("expected key to be blocked")
	}
	if _, blocked := m.Blocked(ctx, Login, "10.0.0.2"); blocked {
		t.Fatalf("other key blocked")
	}

	now = now.Add(Login.Ban + time.Second)
	if _, blocked := m.Blocked(ctx, Login, "10.0.0.1"); blocked {
		t.Fatalf("ban did not expire")
	}
}

func TestMemoryResetClearsCounters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := int64(0); i < Verify.Max; i++ {
		_, _, _ = m.Hit(ctx, Verify, "A@X.com")
	}
	if _, blocked := m.Blocked(ctx, Verify, "a@x.com"); !blocked {
		t.Fatalf("keys must be case-insensitive")
	}
	m.Reset(ctx, Verify, "a@x.com")
	if _, blocked := m.Blocked(ctx, Verify, "a@x.com"); blocked {
		t.Fatalf("reset did not clear")
	}
}

func TestMemoryCooldown(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if m.Cooldown(ctx, "reset", "a@x.com") != 0 {
		t.Fatalf("unexpected cooldown")
	}
	m.SetCooldown(ctx, "reset", "a@x.com", EmailCooldown)
	if got := m.Cooldown(ctx, "reset", "a@x.com"); got <= 0 || got > EmailCooldown {
		t.Fatalf("unexpected cooldown %v", got)
	}
}

func TestMemorySweepsExpiredKeys(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		if _, _, err := m.Hit(ctx, SignupIP, fmt.Sprintf("10.0.%d.%d", i/256, i%256)); err != nil {
			t.Fatalf("hit: %v", err)
		}
		m.SetCooldown(ctx, "verify_email", fmt.Sprintf("user%d@x.com", i), EmailCooldown)
	}
	if len(m.entries) != 1000 {
		t.Fatalf("expected 1000 entries, got %d", len(m.entries))
	}

	now = now.Add(SignupIP.Window + sweepInterval)
	if _, _, err := m.Hit(ctx, SignupIP, "192.168.1.1"); err != nil {
		t.Fatalf("hit: %v", err)
	}
	if len(m.entries) != 1 {
		t.Fatalf("expired entries kept: %d", len(m.entries))
	}

	m.SetCooldown(ctx, "verify_email", "late@x.com", EmailCooldown)
	if left := m.Cooldown(ctx, "verify_email", "late@x.com"); left != EmailCooldown {
		t.Fatalf("cooldown after sweep: %v", left)
	}
}
