package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestAllow_WithinBurst(t *testing.T) {
	l := NewLimiter(1.0, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Errorf("request %d should be allowed (within burst)", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request after burst exhaustion should be rejected")
	}
}

func TestAllow_RefillAfterWait(t *testing.T) {
	now := time.Now()
	l := NewLimiter(10.0, 2) // 10 tokens/sec
	l.nowFunc = func() time.Time { return now }

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.1")
	if l.Allow("10.0.0.1") {
		t.Error("expected rejection after burst")
	}

	// 200ms at 10 tokens/sec refills 2 tokens
	now = now.Add(200 * time.Millisecond)
	if !l.Allow("10.0.0.1") {
		t.Error("expected allow after token refill")
	}
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	l := NewLimiter(1.0, 1)

	l.Allow("10.0.0.1")
	if l.Allow("10.0.0.1") {
		t.Error("first client should be exhausted")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second client should have its own bucket")
	}
}

func TestAllow_RefillCappedAtBurst(t *testing.T) {
	now := time.Now()
	l := NewLimiter(100.0, 3)
	l.nowFunc = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		l.Allow("10.0.0.1")
	}

	// A long idle period must not accumulate more than the burst.
	now = now.Add(10 * time.Second)
	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Errorf("request %d should be allowed after refill", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("refill should be capped at burst")
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	l := NewLimiter(1000.0, 100)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("10.0.0.1")
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for a := range allowed {
		if a {
			count++
		}
	}
	// Burst is 100; allow slack for refill during the test.
	if count < 90 || count > 110 {
		t.Errorf("allowed %d requests, expected ~100 (burst limit)", count)
	}
}

func TestNewRouteLimiters(t *testing.T) {
	limiters := NewRouteLimiters()

	for _, route := range []string{"/api/status", "/api/evolution", "/api/system_health"} {
		if _, ok := limiters[route]; !ok {
			t.Errorf("missing rate limiter for route %s", route)
		}
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := RouteLimiters{
		"/api/evolution": NewLimiter(10.0/60.0, 1),
	}

	if err := CheckLimit(limiters, "/api/evolution", "10.0.0.1"); err != nil {
		t.Errorf("unexpected error on first request: %v", err)
	}
	if err := CheckLimit(limiters, "/api/evolution", "10.0.0.1"); err == nil {
		t.Error("expected rate limit error after burst exhaustion")
	}

	// A different client is unaffected.
	if err := CheckLimit(limiters, "/api/evolution", "10.0.0.2"); err != nil {
		t.Errorf("unexpected error for second client: %v", err)
	}

	// Unconfigured route passes.
	if err := CheckLimit(limiters, "/api/phase_history", "10.0.0.1"); err != nil {
		t.Errorf("unexpected error for unlimited route: %v", err)
	}
}
