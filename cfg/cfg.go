package cfg

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Secret struct {
	value []byte
}

func NewSecret(s string) Secret {
	return Secret{value: []byte(s)}
}
func (s Secret) Value() string {
	return string(s.value)
}
func (s Secret) Wipe() {
	for i := range s.value {
		s.value[i] = 0
	}
}
func (s Secret) String() string {
	return "***REDACTED***"
}

type Cfg struct {
	Port           string
	Environment    string
	LogLevel       string
	Version        string
	RedisURL       string
	RedisTLS       bool
	RedisUsername  string
	RedisPassword  Secret
	RedisTimeout   time.Duration
	SizeLimitBytes int64
	MetaLimitBytes int64
	MaxViews       int
	MaxExpiration  time.Duration
	IDLength       int
	RateLimit      RateLimitCfg
	ContextTimeout time.Duration
	TrustedProxies []string
	AllowedOrigins []string
	MetricsUser    string
	MetricsPass    Secret
}

type RateLimitCfg struct {
	Create    int
	Read      int
	Window    time.Duration
	CacheSize int
}

func Load() (*Cfg, error) {
	c := &Cfg{}
	c.Port = getEnv("PORT", "8080")
	c.Environment = getEnv("ENVIRONMENT", "development")
	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.Version = getEnv("APP_VERSION", "3.0.0")
	c.RedisURL = getEnv("REDIS_URL", "")
	c.RedisTLS = getEnv("REDIS_TLS", "false") == "true"
	c.RedisUsername = getEnv("REDIS_USERNAME", "")
	c.RedisPassword = NewSecret(getEnv("REDIS_PASSWORD", ""))
	var err error
	c.RedisTimeout, err = getDuration("REDIS_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	c.SizeLimitBytes, err = getInt64("SIZE_LIMIT_BYTES", 80*1024*1024)
	if err != nil {
		return nil, err
	}
	c.MetaLimitBytes, err = getInt64("META_LIMIT_BYTES", 4*1024)
	if err != nil {
		return nil, err
	}
	c.MaxViews, err = getInt("MAX_VIEWS", 100)
	if err != nil {
		return nil, err
	}
	maxExpirationMinutes, err := getInt("MAX_EXPIRATION", 360)
	if err != nil {
		return nil, err
	}
	c.MaxExpiration = time.Duration(maxExpirationMinutes) * time.Minute
	c.IDLength, err = getInt("ID_LENGTH", 32)
	if err != nil {
		return nil, err
	}
	c.RateLimit.Create, err = getInt("RATE_LIMIT_CREATE", 20)
	if err != nil {
		return nil, err
	}
	c.RateLimit.Read, err = getInt("RATE_LIMIT_READ", 60)
	if err != nil {
		return nil, err
	}
	c.RateLimit.Window, err = getDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}
	c.RateLimit.CacheSize, err = getInt("LIMITER_CACHE_SIZE", 10000)
	if err != nil {
		return nil, err
	}
	c.ContextTimeout, err = getDuration("CONTEXT_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	c.TrustedProxies = getSlice("TRUSTED_PROXIES", []string{})
	c.AllowedOrigins = getSlice("ALLOWED_ORIGINS", []string{})
	c.MetricsUser = getEnv("METRICS_USER", "")
	c.MetricsPass = NewSecret(getEnv("METRICS_PASS", ""))
	return c, nil
}

func Validate(c *Cfg) error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("PORT must be a number")
	}
	if c.RedisURL != "" {
		if !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
			return errors.New("REDIS_URL must start with redis:// or rediss://")
		}
		if strings.HasPrefix(c.RedisURL, "rediss://") && !c.RedisTLS {
			return errors.New("REDIS_URL uses rediss:// but REDIS_TLS=false")
		}
	}
	if c.SizeLimitBytes <= 0 {
		return errors.New("SIZE_LIMIT_BYTES must be positive")
	}
	if c.MetaLimitBytes <= 0 {
		return errors.New("META_LIMIT_BYTES must be positive")
	}
	if c.MaxViews < 1 {
		return errors.New("MAX_VIEWS must be at least 1")
	}
	if c.MaxExpiration < time.Minute {
		return errors.New("MAX_EXPIRATION must be at least 1 minute")
	}
	if c.MaxExpiration > 30*24*time.Hour {
		return errors.New("MAX_EXPIRATION cannot exceed 30 days")
	}
	if c.IDLength < 16 {
		return errors.New("ID_LENGTH must be at least 16")
	}
	if c.IDLength > 128 {
		return errors.New("ID_LENGTH cannot exceed 128")
	}
	if c.RateLimit.Create <= 0 {
		return errors.New("RATE_LIMIT_CREATE must be positive")
	}
	if c.RateLimit.Read <= 0 {
		return errors.New("RATE_LIMIT_READ must be positive")
	}
	if c.RateLimit.Window < time.Second {
		return errors.New("RATE_LIMIT_WINDOW must be at least 1 second")
	}
	if c.RateLimit.CacheSize <= 0 {
		return errors.New("LIMITER_CACHE_SIZE must be positive")
	}
	if c.ContextTimeout < 100*time.Millisecond {
		return errors.New("CONTEXT_TIMEOUT must be at least 100ms")
	}
	for _, proxy := range c.TrustedProxies {
		if strings.Contains(proxy, "/") {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("invalid CIDR in TRUSTED_PROXIES: %s", proxy)
			}
		} else {
			if net.ParseIP(proxy) == nil {
				return fmt.Errorf("invalid IP in TRUSTED_PROXIES: %s", proxy)
			}
		}
	}
	if c.Environment == "production" {
		if c.MetricsUser == "" || c.MetricsPass.Value() == "" {
			return errors.New("METRICS_USER and METRICS_PASS are required in production")
		}
	}
	return nil
}

func (c *Cfg) Wipe() {
	c.RedisPassword.Wipe()
	c.MetricsPass.Wipe()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
func getInt(key string, fallback int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return v, nil
}
func getInt64(key string, fallback int64) (int64, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return v, nil
}
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return v, nil
}
func getSlice(key string, fallback []string) []string {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
