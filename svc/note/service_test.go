package note

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"cinder/cfg"
	"cinder/pkg/domain"
	"cinder/svc/lim"
	"cinder/svc/store"
)

func testService(t *testing.T, rl cfg.RateLimitCfg) *Service {
	t.Helper()
	backend := store.NewMemory(time.Minute)
	t.Cleanup(func() { backend.Close() })
	s := NewStore(backend, Policy{
		SizeLimitBytes: 1024,
		MetaLimitBytes: 64,
		MaxViews:       100,
		MaxExpiration:  time.Hour,
	}, 32)
	return NewService(s, lim.New(rl, backend))
}

func ampleLimits() cfg.RateLimitCfg {
	return cfg.RateLimitCfg{Create: 1000, Read: 1000, Window: time.Minute, CacheSize: 100}
}

func TestEndToEndSingleView(t *testing.T) {
	svc := testService(t, ampleLimits())
	ctx := context.Background()
	payload := []byte("AB==")

	n, err := svc.CreateNote(ctx, "c1", domain.CreateParams{
		Ciphertext: payload,
		Views:      intPtr(1),
		TTL:        time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.ReadNote(ctx, "c1", n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Ciphertext, payload) {
		t.Fatalf("read returned %q", got.Ciphertext)
	}
	if _, err := svc.ReadNote(ctx, "c1", n.ID); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Fatalf("second read must be not found, got %v", err)
	}
}

func TestCreateRateLimited(t *testing.T) {
	svc := testService(t, cfg.RateLimitCfg{Create: 2, Read: 100, Window: time.Minute, CacheSize: 100})
	ctx := context.Background()
	params := domain.CreateParams{Ciphertext: []byte("blob"), TTL: time.Minute}

	for i := 0; i < 2; i++ {
		if _, err := svc.CreateNote(ctx, "c2", params); err != nil {
			t.Fatalf("create %d failed: %v", i+1, err)
		}
	}
	_, err := svc.CreateNote(ctx, "c2", params)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("3rd create must be rate limited, got %v", err)
	}
	// A different client is unaffected.
	if _, err := svc.CreateNote(ctx, "c3", params); err != nil {
		t.Fatalf("other client blocked: %v", err)
	}
}

func TestReadRateLimitedWithoutConsuming(t *testing.T) {
	svc := testService(t, cfg.RateLimitCfg{Create: 10, Read: 1, Window: time.Minute, CacheSize: 100})
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, "c4", domain.CreateParams{
		Ciphertext: []byte("blob"),
		Views:      intPtr(1),
		TTL:        time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReadNote(ctx, "c4", n.ID); err != nil {
		t.Fatal(err)
	}
	// Admission is checked before the store is touched, so a denied read
	// cannot burn a view on some other note.
	if _, err := svc.ReadNote(ctx, "c4", "whatever"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestDeleteNoteIdempotentAtServiceLevel(t *testing.T) {
	svc := testService(t, ampleLimits())
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, "c5", domain.CreateParams{Ciphertext: []byte("blob"), TTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteNote(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteNote(ctx, n.ID); err != nil {
		t.Fatalf("repeat delete errored: %v", err)
	}
	if _, err := svc.ReadNote(ctx, "c5", n.ID); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Fatalf("deleted note must be not found, got %v", err)
	}
}
