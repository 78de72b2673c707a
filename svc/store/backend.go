package store

import (
	"context"
	"time"
)

// MutOp is the fate a Mutator decides for a key.
type MutOp int

const (
	// OpNone leaves the key untouched.
	OpNone MutOp = iota
	// OpPut replaces the value, preserving the key's remaining TTL.
	OpPut
	// OpDelete removes the key.
	OpDelete
)

type Mutation struct {
	Op    MutOp
	Value []byte
}

// Mutator inspects the current value of a key and decides its fate. It must
// be pure: the backend may call it more than once when a compare-and-swap
// round is lost. Returning an error aborts without writing.
type Mutator func(current []byte, exists bool) (Mutation, error)

// Backend is the narrow contract the note store requires of a keyed store.
// AtomicReadModify is linearizable per key: no other AtomicReadModify, Write
// or Delete on the same key interleaves between the read and the write.
// Expired keys are indistinguishable from never-written keys.
type Backend interface {
	Write(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	AtomicReadModify(ctx context.Context, key string, fn Mutator) error
	Delete(ctx context.Context, key string) error

	// Incr bumps a windowed counter, starting the window (and its TTL) on
	// the first increment. Limiter state rides on this.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
