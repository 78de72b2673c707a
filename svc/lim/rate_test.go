package lim

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"cinder/cfg"
	"cinder/svc/store"
)

func testLimiterCfg(create, read int, window time.Duration) cfg.RateLimitCfg {
	return cfg.RateLimitCfg{
		Create:    create,
		Read:      read,
		Window:    window,
		CacheSize: 100,
	}
}

func TestAllowWithinCeiling(t *testing.T) {
	backend := store.NewMemory(time.Minute)
	defer backend.Close()
	l := New(testLimiterCfg(2, 5, time.Minute), backend)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res := l.Allow(ctx, "10.0.0.1", ActionCreate)
		if !res.Allowed {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	res := l.Allow(ctx, "10.0.0.1", ActionCreate)
	if res.Allowed {
		t.Fatal("3rd create in the same window must be denied")
	}
	if res.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", res.Remaining)
	}
}

func TestWindowRollover(t *testing.T) {
	backend := store.NewMemory(time.Minute)
	defer backend.Close()
	l := New(testLimiterCfg(2, 5, 100*time.Millisecond), backend)
	ctx := context.Background()

	l.Allow(ctx, "10.0.0.2", ActionCreate)
	l.Allow(ctx, "10.0.0.2", ActionCreate)
	if res := l.Allow(ctx, "10.0.0.2", ActionCreate); res.Allowed {
		t.Fatal("over-budget call allowed")
	}
	time.Sleep(150 * time.Millisecond)
	if res := l.Allow(ctx, "10.0.0.2", ActionCreate); !res.Allowed {
		t.Fatal("call after window rollover must be allowed")
	}
}

func TestActionsHaveIndependentBudgets(t *testing.T) {
	backend := store.NewMemory(time.Minute)
	defer backend.Close()
	l := New(testLimiterCfg(1, 5, time.Minute), backend)
	ctx := context.Background()

	if res := l.Allow(ctx, "10.0.0.3", ActionCreate); !res.Allowed {
		t.Fatal("first create denied")
	}
	if res := l.Allow(ctx, "10.0.0.3", ActionCreate); res.Allowed {
		t.Fatal("second create should be denied")
	}
	// Read budget is untouched by create traffic.
	for i := 0; i < 5; i++ {
		if res := l.Allow(ctx, "10.0.0.3", ActionRead); !res.Allowed {
			t.Fatalf("read %d denied", i+1)
		}
	}
}

func TestClientsAreIsolated(t *testing.T) {
	backend := store.NewMemory(time.Minute)
	defer backend.Close()
	l := New(testLimiterCfg(1, 5, time.Minute), backend)
	ctx := context.Background()

	l.Allow(ctx, "10.0.0.4", ActionCreate)
	if res := l.Allow(ctx, "10.0.0.4", ActionCreate); res.Allowed {
		t.Fatal("client over budget should be denied")
	}
	if res := l.Allow(ctx, "10.0.0.5", ActionCreate); !res.Allowed {
		t.Fatal("other client must not be affected")
	}
}

type brokenCounters struct {
	store.Backend
}

func (b brokenCounters) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, errors.New("counter store down")
}

func TestFailClosedFallback(t *testing.T) {
	mem := store.NewMemory(time.Minute)
	defer mem.Close()
	l := New(testLimiterCfg(8, 8, time.Minute), brokenCounters{Backend: mem})
	ctx := context.Background()

	// Conservative budget is a quarter of the configured ceiling.
	allowed := 0
	for i := 0; i < 8; i++ {
		if res := l.Allow(ctx, "10.0.0.6", ActionCreate); res.Allowed {
			allowed++
		}
	}
	if allowed == 0 {
		t.Fatal("fallback must not reject everything")
	}
	if allowed > 2 {
		t.Fatalf("fallback allowed %d of 8, want at most the conservative burst of 2", allowed)
	}
}
