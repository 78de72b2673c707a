package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cinder/cfg"
	"cinder/metrics"
	"cinder/svc/api"
	"cinder/svc/lim"
	"cinder/svc/note"
	"cinder/svc/store"
	"cinder/svc/util"
)

func main() {
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		util.InitLog("info", true)
		util.Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	util.InitLog(c.LogLevel, c.Environment == "development")
	if err := cfg.Validate(c); err != nil {
		util.Fatal().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	defer c.Wipe()
	util.Info().Str("version", c.Version).Msg("starting cinder API")
	metrics.Init()

	var backend store.Backend
	if c.RedisURL != "" {
		rdb, err := store.NewRedis(c.RedisURL, c)
		if err != nil {
			util.Fatal().Err(err).Msg("failed to connect to redis")
			os.Exit(1)
		}
		backend = rdb
		util.Info().Msg("redis backend connected")
	} else {
		if c.Environment == "production" {
			util.Fatal().Msg("REDIS_URL is required in production")
			os.Exit(1)
		}
		backend = store.NewMemory(time.Minute)
		util.Warn().Msg("no REDIS_URL set, using in-memory backend (dev mode)")
	}
	defer backend.Close()

	noteStore := note.NewStore(backend, note.PolicyFromCfg(c), c.IDLength)
	limiter := lim.New(c.RateLimit, backend)
	util.Info().
		Int("create_per_window", c.RateLimit.Create).
		Int("read_per_window", c.RateLimit.Read).
		Dur("window", c.RateLimit.Window).
		Msg("rate limiter initialized")

	svc := note.NewService(noteStore, limiter)
	server := api.NewServer(c, svc, backend)

	util.Info().Str("port", c.Port).Str("environment", c.Environment).Msg("server starting")
	go func() {
		if err := server.Start(); err != nil {
			util.Fatal().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	util.Info().Msg("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		util.Error().Err(err).Msg("server shutdown error")
	}
	util.Info().Msg("shutdown complete")
}
