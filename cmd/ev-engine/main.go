package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/accounting"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/books"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/cache"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/consensus"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/logger"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/provider"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/service"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/contracts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	log.Info().Msg("=== Fortuna EV Engine v0 ===")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Redis is advisory: without it every read goes upstream and usage
	// counters and the durable fallback flag are off.
	var (
		store       cache.Store
		cachePinger handlers.Pinger
		serviceOpts []service.Option
	)
	clientOpts := []provider.Option{provider.WithLogger(log)}

	if cfg.Cache.URL == "" {
		log.Warn().Msg("no redis url configured, running without cache")
	} else if redisStore, err := cache.Connect(ctx, cfg.Cache.URL, cfg.Cache.Token); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without cache")
	} else {
		defer redisStore.Close()
		log.Info().Msg("connected to redis")

		store = redisStore
		cachePinger = redisStore
		counter := accounting.NewCounter(redisStore, cache.CounterTTL)
		clientOpts = append(clientOpts, provider.WithCounter(counter), provider.WithFlagStore(redisStore))
		serviceOpts = append(serviceOpts, service.WithCounter(counter))
	}

	client := provider.NewClient(cfg.OddsAPI.BaseURL, cfg.OddsAPI.APIKey, clientOpts...)
	if err := client.LoadMode(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load data source flag")
	}
	log.Info().Str("data_source", client.Mode().String()).Msg("odds client ready")

	// Sharp book lists come from Alexandria when configured
	var sharpBooks contracts.SharpBookSource = books.Static(consensus.DefaultSharpBooks)
	if cfg.AlexandriaDSN != "" {
		registry, err := books.Open(ctx, cfg.AlexandriaDSN, log)
		if err != nil {
			log.Warn().Err(err).Msg("alexandria unavailable, using default sharp books")
		} else {
			defer registry.Close()
			sharpBooks = registry
			log.Info().Msg("connected to alexandria")
		}
	}

	serviceOpts = append(serviceOpts,
		service.WithDataSource(client),
		service.WithSharpBookSource(sharpBooks),
		service.WithLogger(log),
	)
	svc := service.New(client, store, serviceOpts...)

	h := handlers.NewHandler(svc, cachePinger, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handlers.NewRouter(h, cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("ev engine listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal().Err(err).Msg("server error")

	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown failed")
			if err := srv.Close(); err != nil {
				log.Error().Err(err).Msg("could not stop server")
			}
		}
	}

	log.Info().Msg("shutdown complete")
}
