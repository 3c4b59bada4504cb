package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/dividend-tracker/internal/clients/marketdata"
	"github.com/aristath/dividend-tracker/internal/config"
	"github.com/aristath/dividend-tracker/internal/database"
	"github.com/aristath/dividend-tracker/internal/events"
	"github.com/aristath/dividend-tracker/internal/locking"
	"github.com/aristath/dividend-tracker/internal/modules/holdings"
	"github.com/aristath/dividend-tracker/internal/modules/plans"
	"github.com/aristath/dividend-tracker/internal/modules/trends"
	"github.com/aristath/dividend-tracker/internal/modules/valuation"
	"github.com/aristath/dividend-tracker/internal/scheduler"
	"github.com/aristath/dividend-tracker/internal/server"
	"github.com/aristath/dividend-tracker/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info"})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting dividend tracker")

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(
		plans.PlansSchema,
		holdings.HoldingsSchema,
		marketdata.CacheSchema,
	); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	eventMgr := events.NewManager(log)
	lockManager := locking.New()

	priceCache := marketdata.NewCacheRepository(db.Conn(), log)
	prices := marketdata.NewClient(marketdata.Config{
		BaseURL:  cfg.MarketDataURL,
		APIKey:   cfg.MarketDataAPIKey,
		Cache:    priceCache,
		CacheTTL: time.Duration(cfg.PriceCacheTTL) * time.Hour,
	}, log)

	planRepo := plans.NewRepository(db.Conn(), log)
	planScheduler := plans.NewScheduler(log)
	holdingRepo := holdings.NewRepository(db.Conn(), planRepo, log)
	aggregator := holdings.NewAggregator(log)

	riskEstimator := valuation.NewHeuristicEstimator(
		valuation.NewStaticSectorLookup(valuation.DefaultSectors()),
		valuation.NewStaticBetaLookup(valuation.DefaultBetas()),
	)
	engine := valuation.NewEngine(prices, riskEstimator, log)
	sampler := trends.NewSampler(engine, log)

	sched := scheduler.New(log)
	reconcile := scheduler.NewReconcileJob(scheduler.ReconcileJobConfig{
		Log:         log,
		LockManager: lockManager,
		Repo:        planRepo,
		Scheduler:   planScheduler,
		Prices:      prices,
		EventMgr:    eventMgr,
	})
	if err := sched.AddJob(cfg.ReconcileSchedule, reconcile); err != nil {
		log.Fatal().Err(err).Msg("Failed to register reconcile job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		DevMode: cfg.DevMode,
		Modules: []server.RouteRegistrar{
			plans.NewHandlers(planRepo, planScheduler, prices, eventMgr, log),
			holdings.NewHandlers(holdingRepo, aggregator, log),
			valuation.NewHandlers(engine, holdingRepo, log),
			trends.NewHandlers(sampler, holdingRepo, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
