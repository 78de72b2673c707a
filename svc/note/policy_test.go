package note

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"cinder/pkg/domain"
)

func testPolicy() Policy {
	return Policy{
		SizeLimitBytes: 1024,
		MetaLimitBytes: 64,
		MaxViews:       5,
		MaxExpiration:  time.Hour,
	}
}

func intPtr(v int) *int { return &v }

func TestPolicyCheck(t *testing.T) {
	p := testPolicy()

	cases := []struct {
		name    string
		payload int64
		meta    int64
		views   *int
		ttl     time.Duration
		want    error
	}{
		{"ok minimal", 1, 0, nil, time.Minute, nil},
		{"ok full", 1024, 64, intPtr(5), time.Hour, nil},
		{"empty payload", 0, 0, nil, time.Minute, domain.ErrContentRequired},
		{"payload over limit", 1025, 0, nil, time.Minute, domain.ErrNoteTooLarge},
		{"meta over limit", 1, 65, nil, time.Minute, domain.ErrMetaTooLarge},
		{"zero views", 1, 0, intPtr(0), time.Minute, domain.ErrViewsOutOfRange},
		{"negative views", 1, 0, intPtr(-1), time.Minute, domain.ErrViewsOutOfRange},
		{"views over max", 1, 0, intPtr(6), time.Minute, domain.ErrViewsOutOfRange},
		{"zero ttl", 1, 0, nil, 0, domain.ErrTTLOutOfRange},
		{"ttl over max", 1, 0, nil, time.Hour + time.Second, domain.ErrTTLOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Check(tc.payload, tc.meta, tc.views, tc.ttl)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPolicyCheckFirstViolationWins(t *testing.T) {
	p := testPolicy()
	// Everything is wrong at once; the size bound is reported first.
	err := p.Check(9999, 9999, intPtr(0), 0)
	if !errors.Is(err, domain.ErrNoteTooLarge) {
		t.Fatalf("expected ErrNoteTooLarge, got %v", err)
	}
}

func TestPolicyViolationsAreValidation(t *testing.T) {
	p := testPolicy()
	err := p.Check(1, 0, intPtr(0), time.Minute)
	if !domain.IsValidation(err) {
		t.Fatalf("views violation should be a validation error, got %v", err)
	}
	if domain.Status(err) < 400 || domain.Status(err) >= 500 {
		t.Fatalf("validation errors must map to 4xx, got %d", domain.Status(err))
	}
}
