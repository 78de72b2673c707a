package note

import (
	"context"

	"cinder/metrics"
	"cinder/pkg/domain"
	"cinder/svc/lim"
	"cinder/svc/util"
)

// Service is the entry point the transport layer talks to: admission
// control first, then the note store. All four error classes (validation,
// not found, rate limited, storage unavailable) surface to the caller
// unchanged.
type Service struct {
	store   *Store
	limiter *lim.Limiter
}

func NewService(store *Store, limiter *lim.Limiter) *Service {
	if store == nil || limiter == nil {
		panic("note service: nil dependency (store or limiter)")
	}
	return &Service{store: store, limiter: limiter}
}

func (s *Service) CreateNote(ctx context.Context, clientID string, params domain.CreateParams) (*domain.Note, error) {
	if res := s.limiter.Allow(ctx, clientID, lim.ActionCreate); !res.Allowed {
		util.Warn().Str("ip", util.RedactIP(clientID)).Str("action", "create").Msg("rate limit exceeded")
		return nil, domain.ErrRateLimited
	}
	n, err := s.store.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	metrics.NoteCreated.Inc()
	util.Info().
		Str("note_id", util.RedactID(n.ID)).
		Str("ip", util.RedactIP(clientID)).
		Bool("view_bound", n.RemainingViews != nil).
		Time("expires_at", n.ExpiresAt).
		Msg("note created")
	return n, nil
}

func (s *Service) ReadNote(ctx context.Context, clientID, id string) (*domain.Note, error) {
	if res := s.limiter.Allow(ctx, clientID, lim.ActionRead); !res.Allowed {
		util.Warn().Str("ip", util.RedactIP(clientID)).Str("action", "read").Msg("rate limit exceeded")
		return nil, domain.ErrRateLimited
	}
	n, err := s.store.ConsumeView(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.NoteConsumed.Inc()
	if n.RemainingViews != nil && *n.RemainingViews == 0 {
		metrics.NoteBurned.Inc()
	}
	util.Info().
		Str("note_id", util.RedactID(id)).
		Str("ip", util.RedactIP(clientID)).
		Msg("note consumed")
	return n, nil
}

func (s *Service) PeekNote(ctx context.Context, clientID, id string) (string, error) {
	if res := s.limiter.Allow(ctx, clientID, lim.ActionRead); !res.Allowed {
		util.Warn().Str("ip", util.RedactIP(clientID)).Str("action", "read").Msg("rate limit exceeded")
		return "", domain.ErrRateLimited
	}
	meta, err := s.store.Peek(ctx, id)
	if err != nil {
		return "", err
	}
	metrics.NotePeeked.Inc()
	return meta, nil
}

// DeleteNote is the administrative removal path. It is not rate limited
// and never errors on an already-gone note.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
