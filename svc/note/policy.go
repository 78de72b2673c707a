package note

import (
	"time"

	"github.com/pkg/errors"

	"cinder/cfg"
	"cinder/pkg/domain"
)

// Policy holds the configured creation bounds. Check is pure so it can be
// exercised without a backend.
type Policy struct {
	SizeLimitBytes int64
	MetaLimitBytes int64
	MaxViews       int
	MaxExpiration  time.Duration
}

func PolicyFromCfg(c *cfg.Cfg) Policy {
	return Policy{
		SizeLimitBytes: c.SizeLimitBytes,
		MetaLimitBytes: c.MetaLimitBytes,
		MaxViews:       c.MaxViews,
		MaxExpiration:  c.MaxExpiration,
	}
}

// Check validates a creation request against the configured maxima and
// returns the first violated bound. A requested view count of 0 is
// rejected: a note unreadable from birth is a caller mistake, not a
// storage instruction.
func (p Policy) Check(payloadSize, metaSize int64, views *int, ttl time.Duration) error {
	if payloadSize <= 0 {
		return domain.ErrContentRequired
	}
	if payloadSize > p.SizeLimitBytes {
		return errors.Wrapf(domain.ErrNoteTooLarge, "payload %d bytes, limit %d", payloadSize, p.SizeLimitBytes)
	}
	if metaSize > p.MetaLimitBytes {
		return errors.Wrapf(domain.ErrMetaTooLarge, "meta %d bytes, limit %d", metaSize, p.MetaLimitBytes)
	}
	if views != nil && (*views < 1 || *views > p.MaxViews) {
		return errors.Wrapf(domain.ErrViewsOutOfRange, "views %d, allowed 1..%d", *views, p.MaxViews)
	}
	if ttl <= 0 || ttl > p.MaxExpiration {
		return errors.Wrapf(domain.ErrTTLOutOfRange, "ttl %s, allowed up to %s", ttl, p.MaxExpiration)
	}
	return nil
}
