package lim

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"cinder/cfg"
	"cinder/metrics"
	"cinder/svc/store"
	"cinder/svc/util"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
)

const fallbackTTL = 30 * time.Minute

// Limiter is fixed-window admission control per (client, action). The
// authoritative counters live in the backend under their own short TTL so
// stale entries self-clean and multiple instances share one budget. When
// the backend is unreachable the limiter fails closed to a conservative
// in-process token bucket rather than waving traffic through.
type Limiter struct {
	counters store.Backend
	window   time.Duration
	limits   map[Action]int

	mu       sync.Mutex
	fallback *expirable.LRU[string, *rate.Limiter]
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

func New(c cfg.RateLimitCfg, counters store.Backend) *Limiter {
	return &Limiter{
		counters: counters,
		window:   c.Window,
		limits: map[Action]int{
			ActionCreate: c.Create,
			ActionRead:   c.Read,
		},
		fallback: expirable.NewLRU[string, *rate.Limiter](c.CacheSize, nil, fallbackTTL),
	}
}

// Allow spends one slot of the client's budget for the action. Denial is
// reported, never silently dropped; the caller decides what a denial means.
func (l *Limiter) Allow(ctx context.Context, clientID string, action Action) Result {
	limit := l.limits[action]
	now := time.Now()
	n, err := l.counters.Incr(ctx, counterKey(clientID, action), l.window)
	if err != nil {
		util.Warn().Err(err).Str("action", string(action)).Msg("limiter counter unavailable, using local fallback")
		return l.failClosedLocal(clientID, action, limit)
	}
	remaining := limit - int(n)
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:   n <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		Reset:     now.Add(l.window),
	}
	if !res.Allowed {
		metrics.RateLimitHits.WithLabelValues(string(action)).Inc()
	}
	return res
}

func (l *Limiter) failClosedLocal(clientID string, action Action, limit int) Result {
	conservative := limit / 4
	if conservative < 1 {
		conservative = 1
	}
	key := clientID + ":" + string(action)
	l.mu.Lock()
	rl, ok := l.fallback.Get(key)
	if !ok {
		rl = rate.NewLimiter(rate.Limit(float64(conservative)/l.window.Seconds()), conservative)
		l.fallback.Add(key, rl)
	}
	l.mu.Unlock()
	allowed := rl.Allow()
	if !allowed {
		metrics.RateLimitHits.WithLabelValues(string(action)).Inc()
	}
	return Result{
		Allowed:   allowed,
		Limit:     conservative,
		Remaining: 0,
		Reset:     time.Now().Add(l.window),
	}
}

func counterKey(clientID string, action Action) string {
	return "rl:" + string(action) + ":" + clientID
}
