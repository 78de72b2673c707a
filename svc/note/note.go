package note

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"cinder/metrics"
	"cinder/pkg/domain"
	"cinder/svc/store"
	"cinder/svc/util"
)

const keyPrefix = "note:"

// Store orchestrates creation, atomic consumption and deletion of notes on
// top of a store.Backend. It never holds locks of its own: per-note
// serialization is delegated entirely to the backend's per-key atomicity.
type Store struct {
	backend store.Backend
	policy  Policy
	idLen   int
}

func NewStore(b store.Backend, p Policy, idLen int) *Store {
	if b == nil {
		panic("note store: nil backend")
	}
	return &Store{backend: b, policy: p, idLen: idLen}
}

// Create validates the request, generates a fresh id and writes the note in
// a single backend write carrying the TTL. No partial write happens on a
// policy violation, and the id is returned only after the write is visible
// to subsequent reads.
func (s *Store) Create(ctx context.Context, params domain.CreateParams) (*domain.Note, error) {
	if err := s.policy.Check(int64(len(params.Ciphertext)), int64(len(params.Meta)), params.Views, params.TTL); err != nil {
		return nil, err
	}
	id, err := util.GenID(s.idLen)
	if err != nil {
		return nil, errors.Wrap(domain.ErrIDGenerationFailed, err.Error())
	}
	now := time.Now()
	n := &domain.Note{
		ID:         id,
		Ciphertext: params.Ciphertext,
		Meta:       params.Meta,
		CreatedAt:  now,
		ExpiresAt:  now.Add(params.TTL),
	}
	if params.Views != nil {
		v := *params.Views
		n.RemainingViews = &v
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, errors.Wrap(err, "marshal note")
	}
	if err := s.backend.Write(ctx, keyPrefix+id, data, params.TTL); err != nil {
		return nil, mapStorageErr(err)
	}
	return n, nil
}

// ConsumeView reads a note and spends one view, as a single atomic
// operation against the backend:
//
//	absent or past its time bound       -> not found
//	unlimited views                     -> return ciphertext, no mutation
//	views > 1                           -> decrement, rewrite preserving TTL
//	views == 1                          -> return ciphertext, delete
//	views == 0 (defensive, see above)   -> not found
//
// With one view left and concurrent readers, the backend's per-key
// linearizability guarantees exactly one of them gets the ciphertext.
func (s *Store) ConsumeView(ctx context.Context, id string) (*domain.Note, error) {
	var out *domain.Note
	err := s.backend.AtomicReadModify(ctx, keyPrefix+id, func(cur []byte, exists bool) (store.Mutation, error) {
		out = nil
		if !exists {
			return store.Mutation{}, domain.ErrNoteNotFound
		}
		var n domain.Note
		if err := json.Unmarshal(cur, &n); err != nil {
			return store.Mutation{}, errors.Wrap(domain.ErrNoteNotFound, "undecodable record")
		}
		if n.Expired(time.Now()) {
			return store.Mutation{}, domain.ErrNoteNotFound
		}
		if n.RemainingViews == nil {
			out = &n
			return store.Mutation{Op: store.OpNone}, nil
		}
		rv := *n.RemainingViews
		switch {
		case rv <= 0:
			// Logically impossible: the terminal decrement deletes the
			// record. Kept so a bad write can never grant a free read.
			return store.Mutation{}, domain.ErrNoteNotFound
		case rv == 1:
			zero := 0
			n.RemainingViews = &zero
			out = &n
			return store.Mutation{Op: store.OpDelete}, nil
		default:
			rv--
			n.RemainingViews = &rv
			data, err := json.Marshal(&n)
			if err != nil {
				return store.Mutation{}, errors.Wrap(err, "marshal note")
			}
			out = &n
			return store.Mutation{Op: store.OpPut, Value: data}, nil
		}
	})
	if err != nil {
		return nil, mapStorageErr(err)
	}
	out.ID = id
	return out, nil
}

// Peek returns a note's meta without spending a view. Visibility rules are
// the same as for ConsumeView.
func (s *Store) Peek(ctx context.Context, id string) (string, error) {
	data, found, err := s.backend.Get(ctx, keyPrefix+id)
	if err != nil {
		return "", mapStorageErr(err)
	}
	if !found {
		return "", domain.ErrNoteNotFound
	}
	var n domain.Note
	if err := json.Unmarshal(data, &n); err != nil {
		return "", errors.Wrap(domain.ErrNoteNotFound, "undecodable record")
	}
	if n.Expired(time.Now()) {
		return "", domain.ErrNoteNotFound
	}
	return n.Meta, nil
}

// Delete removes a note. Deleting an unknown, expired or already consumed
// id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.backend.Delete(ctx, keyPrefix+id); err != nil {
		return mapStorageErr(err)
	}
	return nil
}

// mapStorageErr surfaces domain errors untouched and folds everything else
// (timeouts, connection failures, CAS exhaustion) into StorageUnavailable.
// Nothing is retried here; retry policy belongs to the caller.
func mapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.Cause(err).(*domain.Err); ok {
		return err
	}
	metrics.StorageErrors.Inc()
	util.Error().Err(err).Msg("backend failure")
	return errors.Wrap(domain.ErrStorageUnavailable, err.Error())
}
