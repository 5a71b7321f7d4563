package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/marisklase/darkwatch/internal/cache"
	"github.com/marisklase/darkwatch/internal/cache/redisstore"
	"github.com/marisklase/darkwatch/internal/config"
	"github.com/marisklase/darkwatch/internal/history"
	"github.com/marisklase/darkwatch/internal/httpclient"
	"github.com/marisklase/darkwatch/internal/invalidation"
	"github.com/marisklase/darkwatch/internal/logger"
	"github.com/marisklase/darkwatch/internal/observability"
	"github.com/marisklase/darkwatch/internal/server"
	"github.com/marisklase/darkwatch/internal/upstream"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address (overrides ADDR)")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "darkwatch",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting darkwatch console",
		"addr", cfg.Addr,
		"version", Version,
		"upstream", cfg.UpstreamURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	up, err := upstream.New(appLog, httpclient.NewOutbound(), cfg.UpstreamURL, cfg.VesselCacheSize)
	if err != nil {
		appLog.Error("upstream client init failed", "err", err)
		return 1
	}

	// Redis is optional: without it every configs/boundary read goes upstream.
	var responses *cache.Responses
	if cfg.RedisAddr != "" {
		store, err := redisstore.New(ctx, cfg.RedisAddr,
			redisstore.WithDialTimeout(cfg.CacheOpTimeout*4),
			redisstore.WithReadTimeout(cfg.CacheOpTimeout))
		if err != nil {
			appLog.Error("redis init failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = store.Close() }()
		responses = cache.NewResponses(appLog, store, cfg.ConfigsTTL, cfg.BoundariesTTL)
	}

	if cfg.Invalidation.Enabled {
		if responses == nil {
			appLog.Warn("invalidation enabled without redis; skipping consumer")
		} else {
			consumer := invalidation.NewConsumer(cfg.Invalidation, appLog, responses)
			go func() {
				if err := consumer.Start(ctx); err != nil {
					appLog.Error("invalidation consumer exited", "err", err)
				}
			}()
		}
	}

	var hist *history.Store
	if cfg.HistoryDBPath != "" {
		hist, err = history.Open(cfg.HistoryDBPath)
		if err != nil {
			appLog.Error("history db init failed", "path", cfg.HistoryDBPath, "err", err)
			return 1
		}
	}

	srv := server.New(appLog, cfg, up, responses, hist)
	if err := server.Run(ctx, srv); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
