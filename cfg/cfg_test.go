package cfg

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.SizeLimitBytes != 80*1024*1024 {
		t.Fatalf("SizeLimitBytes = %d", c.SizeLimitBytes)
	}
	if c.MetaLimitBytes != 4*1024 {
		t.Fatalf("MetaLimitBytes = %d", c.MetaLimitBytes)
	}
	if c.MaxViews != 100 {
		t.Fatalf("MaxViews = %d", c.MaxViews)
	}
	if c.MaxExpiration != 360*time.Minute {
		t.Fatalf("MaxExpiration = %s", c.MaxExpiration)
	}
	if c.IDLength != 32 {
		t.Fatalf("IDLength = %d", c.IDLength)
	}
	if c.RateLimit.Create != 20 || c.RateLimit.Read != 60 {
		t.Fatalf("rate limits = %d/%d", c.RateLimit.Create, c.RateLimit.Read)
	}
	if c.RateLimit.Window != time.Minute {
		t.Fatalf("window = %s", c.RateLimit.Window)
	}
	if err := Validate(c); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_VIEWS", "7")
	t.Setenv("MAX_EXPIRATION", "15")
	t.Setenv("SIZE_LIMIT_BYTES", "1048576")
	t.Setenv("RATE_LIMIT_CREATE", "3")
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.MaxViews != 7 {
		t.Fatalf("MaxViews = %d", c.MaxViews)
	}
	if c.MaxExpiration != 15*time.Minute {
		t.Fatalf("MaxExpiration = %s", c.MaxExpiration)
	}
	if c.SizeLimitBytes != 1048576 {
		t.Fatalf("SizeLimitBytes = %d", c.SizeLimitBytes)
	}
	if c.RateLimit.Create != 3 {
		t.Fatalf("RateLimit.Create = %d", c.RateLimit.Create)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Setenv("MAX_VIEWS", "many")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric MAX_VIEWS")
	}
}

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Cfg)
	}{
		{"bad port", func(c *Cfg) { c.Port = "http" }},
		{"bad redis scheme", func(c *Cfg) { c.RedisURL = "http://localhost" }},
		{"zero size limit", func(c *Cfg) { c.SizeLimitBytes = 0 }},
		{"zero max views", func(c *Cfg) { c.MaxViews = 0 }},
		{"tiny expiration", func(c *Cfg) { c.MaxExpiration = time.Second }},
		{"short id", func(c *Cfg) { c.IDLength = 8 }},
		{"zero create limit", func(c *Cfg) { c.RateLimit.Create = 0 }},
		{"bad proxy", func(c *Cfg) { c.TrustedProxies = []string{"not-an-ip"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Load()
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(c)
			if err := Validate(c); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSecretRedactsItself(t *testing.T) {
	s := NewSecret("hunter2")
	if s.String() != "***REDACTED***" {
		t.Fatalf("String() leaked: %s", s.String())
	}
	if s.Value() != "hunter2" {
		t.Fatal("Value() must return the secret")
	}
	s.Wipe()
	if s.Value() == "hunter2" {
		t.Fatal("Wipe() left the secret readable")
	}
}

func TestProductionRequiresMetricsAuth(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	c.Environment = "production"
	c.MetricsUser = ""
	if err := Validate(c); err == nil {
		t.Fatal("production without metrics auth must fail validation")
	}
	c.MetricsUser = "ops"
	c.MetricsPass = NewSecret("s3cret")
	if err := Validate(c); err != nil {
		t.Fatalf("expected valid production config: %v", err)
	}
}
