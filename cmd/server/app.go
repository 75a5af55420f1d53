package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/xtrntr/marketplace/internal/api"
	"github.com/xtrntr/marketplace/internal/asset"
	"github.com/xtrntr/marketplace/internal/auth"
	"github.com/xtrntr/marketplace/internal/cache"
	"github.com/xtrntr/marketplace/internal/config"
	"github.com/xtrntr/marketplace/internal/db"
	"github.com/xtrntr/marketplace/internal/events"
	"github.com/xtrntr/marketplace/internal/exchange"
	"github.com/xtrntr/marketplace/internal/logging"
	"github.com/xtrntr/marketplace/internal/metrics"
	"github.com/xtrntr/marketplace/internal/token"
	"github.com/xtrntr/marketplace/migrations"
)

type app struct {
	router   http.Handler
	exchange *exchange.Exchange
	hub      *events.Hub
	closers  []func()
}

// newApp wires the marketplace. Postgres and Redis are used when configured; otherwise users, history and
// the listing cache stay in memory.
func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{}

	catalog := asset.NewCatalog()
	for _, id := range cfg.Collections {
		reg := asset.NewRegistry()
		if cfg.IsFingerprinted(id) {
			catalog.Register(id, reg)
		} else {
			catalog.Register(id, asset.Unpinned(reg))
		}
	}
	bank := token.NewBank()

	var (
		users   auth.UserStore
		history api.EventHistory
		journal events.Emitter
	)
	if cfg.DatabaseURL != "" {
		database, err := db.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { database.Close(context.Background()) })
		if err := database.Migrate(ctx, migrations.Schema); err != nil {
			a.Close()
			return nil, err
		}
		users = database
		history = database
		journal = db.Journal{DB: database, Logger: logger}
	} else {
		logger.Info().Msg("no database configured, keeping users and history in memory")
		rec := &events.Recorder{}
		users = auth.NewMemoryStore()
		history = rec
		journal = rec
	}

	var listings cache.Listings
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
		a.closers = append(a.closers, func() { rc.Close() })
		if err := rc.Ping(ctx); err != nil {
			logger.Error().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, listing cache requests will fail until it is up")
		}
		listings = rc
	} else {
		listings = cache.NewMemory(cfg.RedisTTL)
	}

	if cfg.Admin == "" {
		logger.Info().Msg("no market.admin configured, settings are read-only")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a.hub = events.NewHub(logger)
	a.exchange = exchange.NewExchange(cfg.Address, catalog, bank,
		exchange.WithAdmin(cfg.Admin),
		exchange.WithLogger(logger),
		exchange.WithMetrics(metrics.New(reg)),
		exchange.WithEmitter(events.Multi{
			journal,
			cache.Invalidator{Cache: listings, Logger: logger},
			a.hub,
		}),
	)

	authService := auth.NewAuthService(users, cfg.AuthSecret, cfg.TokenTTL)
	handler := api.NewHandler(a.exchange, authService, catalog, bank, listings, history, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ws", a.hub.ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	handler.Mount(r)

	a.router = r
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
