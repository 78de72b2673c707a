package test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"cinder/cfg"
	"cinder/svc/lim"
	"cinder/svc/note"
	"cinder/svc/store"
	"cinder/svc/util"
)

var envLoadOnce sync.Once

func loadTestEnv() {
	envLoadOnce.Do(func() {
		util.InitLog("error", false)

		paths := []string{
			".env.test",
			"../.env.test",
		}
		for _, p := range paths {
			if absPath, err := filepath.Abs(p); err == nil {
				if _, err := os.Stat(absPath); err == nil {
					if godotenv.Load(absPath) == nil {
						return
					}
				}
			}
		}
	})
}

func createTestConfig() *cfg.Cfg {
	loadTestEnv()

	c, err := cfg.Load()
	if err != nil {
		return &cfg.Cfg{
			Port:           "0",
			Environment:    "test",
			LogLevel:       "error",
			SizeLimitBytes: 1024 * 1024,
			MetaLimitBytes: 4 * 1024,
			MaxViews:       100,
			MaxExpiration:  time.Hour,
			IDLength:       32,
			RateLimit: cfg.RateLimitCfg{
				Create:    100000,
				Read:      100000,
				Window:    time.Minute,
				CacheSize: 1000,
			},
			ContextTimeout: 30 * time.Second,
		}
	}

	c.Port = "0"
	c.Environment = "test"
	c.LogLevel = "error"
	c.RateLimit.Create = 100000
	c.RateLimit.Read = 100000
	return c
}

func createTestBackend(t *testing.T) *store.Memory {
	t.Helper()
	backend := store.NewMemory(time.Minute)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func createTestService(t *testing.T, c *cfg.Cfg) *note.Service {
	t.Helper()
	backend := createTestBackend(t)
	s := note.NewStore(backend, note.PolicyFromCfg(c), c.IDLength)
	return note.NewService(s, lim.New(c.RateLimit, backend))
}

func intPtr(v int) *int { return &v }
