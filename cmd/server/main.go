package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"argotelabs/internal/config"
	"argotelabs/internal/infra"
	"argotelabs/internal/realtime"
	"argotelabs/internal/router"
	"argotelabs/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	configurarLogger(cfg)

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Redis carries notifications, sign-out and email jobs. Without it the API
	// still serves the ledger and jobs; those features degrade.
	var rdb *redis.Client
	if c, err := infra.NewRedis(cfg.RedisURL); err != nil {
		log.Warn().Err(err).Msg("redis no disponible: eventos locales, sin cola de email ni cierre de sesion")
	} else {
		rdb = c
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	var pub realtime.Publicador = realtime.NewHubPublicador(hub)
	var relay sync.WaitGroup
	if rdb != nil {
		pub = realtime.NewRedisPublicador(rdb)
		relay.Add(1)
		go func() {
			defer relay.Done()
			realtime.Relay(ctx, rdb, hub)
		}()
	}

	// Worker handlers are wired here (composition root) so the pool has the
	// mailer and its breaker.
	var pool *worker.Pool
	if rdb != nil {
		mailer := infra.NewMailer(cfg)
		if !mailer.Configurado() {
			log.Warn().Msg("SMTP no configurado: los avisos por email se descartan")
		}
		cbCfg := infra.DefaultCBConfig()
		cbCfg.OnStateChange = func(from, to infra.CBState) {
			log.Warn().Str("desde", from.String()).Str("hacia", to.String()).Msg("smtp circuit breaker")
		}
		pool = worker.NewPool(rdb)
		pool.Register(worker.QueueEmail, worker.JobEmail, worker.NewEmailWorker(mailer, infra.NewCircuitBreaker(cbCfg)))
		pool.Start(ctx, cfg.WorkerPoolSize)
	}

	r := router.New(cfg, db, rdb, hub, pub)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: SSE streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Argote Labs backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	// Closing the hub ends open SSE streams; Shutdown would otherwise wait on them.
	// Cancelling stops the workers and the relay.
	hub.Cerrar()
	cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if pool != nil {
		pool.Wait()
	}
	relay.Wait()
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}

// configurarLogger: dev gets pretty console output, prod gets JSON.
func configurarLogger(cfg *config.Config) {
	nivel, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		nivel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(nivel)
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
