package main

import (
	"context"

	"github.com/vedicvivaha/backend/internal/app"
	"github.com/vedicvivaha/backend/internal/cache"
	"github.com/vedicvivaha/backend/internal/config"
	"github.com/vedicvivaha/backend/internal/db"
	"github.com/vedicvivaha/backend/internal/logger"
	"github.com/vedicvivaha/backend/internal/server"
	"github.com/vedicvivaha/backend/internal/service/admin"
	"github.com/vedicvivaha/backend/internal/service/members"
	"github.com/vedicvivaha/backend/internal/service/public"
	"github.com/vedicvivaha/backend/internal/service/registration"
	"github.com/vedicvivaha/backend/internal/service/share"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB (falls back to sqlite when the primary is unreachable)
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(cfg, database, redisCache, log)

	registrars := []server.Registrar{
		registration.NewRegistrar(appCtx),
		members.NewRegistrar(appCtx),
		share.NewRegistrar(appCtx),
		public.NewRegistrar(appCtx),
		admin.NewRegistrar(appCtx),
	}

	if cfg.App.Env == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
