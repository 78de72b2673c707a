package store

import (
	"context"
	"sync"
	"time"
)

var _ Backend = (*Memory)(nil)

// Memory is the in-process reference implementation of Backend. A single
// mutex makes every operation trivially linearizable per key; expiry is
// checked lazily on access and a janitor sweeps leftovers so memory does
// not grow with dead notes.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]memEntry
	counters map[string]memCounter
	stop     chan struct{}
	stopOnce sync.Once
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

type memCounter struct {
	count     int64
	windowEnd time.Time
}

func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{
		entries:  make(map[string]memEntry),
		counters: make(map[string]memCounter),
		stop:     make(chan struct{}),
	}
	go m.sweepLoop(sweepInterval)
	return m
}

func (m *Memory) Write(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.entries[key] = memEntry{value: v, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		return nil, false, nil
	}
	v := make([]byte, len(e.value))
	copy(v, e.value)
	return v, true, nil
}

func (m *Memory) AtomicReadModify(ctx context.Context, key string, fn Mutator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	var cur []byte
	if ok {
		cur = make([]byte, len(e.value))
		copy(cur, e.value)
	}
	mut, err := fn(cur, ok)
	if err != nil {
		return err
	}
	switch mut.Op {
	case OpPut:
		// Preserve the original deadline: decrementing views must never
		// extend a note's life.
		v := make([]byte, len(mut.Value))
		copy(v, mut.Value)
		m.entries[key] = memEntry{value: v, expiresAt: e.expiresAt}
	case OpDelete:
		delete(m.entries, key)
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	c, ok := m.counters[key]
	if !ok || now.After(c.windowEnd) {
		c = memCounter{count: 0, windowEnd: now.Add(window)}
	}
	c.count++
	m.counters[key] = c
	return c.count, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

// live returns the entry for key if it exists and has not expired. Expired
// entries are removed on the spot so they are indistinguishable from
// never-written keys.
func (m *Memory) live(key string) (memEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memEntry{}, false
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return memEntry{}, false
	}
	return e, true
}

func (m *Memory) sweepLoop(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
	for key, c := range m.counters {
		if now.After(c.windowEnd) {
			delete(m.counters, key)
		}
	}
}
