package domain

import (
	"time"
)

// Note is the unit of storage. Ciphertext is opaque: it is encrypted in the
// browser before it ever reaches the server and is never inspected here.
// RemainingViews == nil means the note is bound by time only.
type Note struct {
	ID             string    `json:"-"`
	Ciphertext     []byte    `json:"ciphertext"`
	Meta           string    `json:"meta,omitempty"`
	RemainingViews *int      `json:"remaining_views,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Expired reports whether the note's time bound has passed. The backing
// store purges expired records on its own; this is the defensive check for
// records observed in the gap before the purge.
func (n *Note) Expired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && now.After(n.ExpiresAt)
}

type CreateParams struct {
	Ciphertext []byte
	Meta       string
	Views      *int
	TTL        time.Duration
}
