package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"

	chi "github.com/go-chi/chi/v5"

	"github.com/greenworld/eco-rewards-service/internal/api"
	"github.com/greenworld/eco-rewards-service/internal/api/handlers"
	"github.com/greenworld/eco-rewards-service/internal/api/middleware"
	"github.com/greenworld/eco-rewards-service/internal/config"
	"github.com/greenworld/eco-rewards-service/internal/events"
	"github.com/greenworld/eco-rewards-service/internal/logging"
	"github.com/greenworld/eco-rewards-service/internal/repository"
	"github.com/greenworld/eco-rewards-service/internal/scheduler"
	"github.com/greenworld/eco-rewards-service/internal/service"
	"github.com/greenworld/eco-rewards-service/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Logging)

	var (
		ledger      service.LedgerStore
		profiles    service.ProfileStore
		merchants   service.MerchantStore
		merchantTxs service.MerchantTxStore
		reports     service.ReportStore
		runs        scheduler.RunStore
		members     scheduler.MemberStore
	)

	dbCfg := db.LoadPostgresConfig()
	if dbCfg.Host != "" {
		conn, err := db.NewPostgresConnection(dbCfg)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer conn.Close()

		profileRepo := repository.NewProfileRepo(conn)
		reportRepo := repository.NewReportRepo(conn)
		ledger = repository.NewLedgerRepo(conn)
		merchants = repository.NewMerchantRepo(conn)
		merchantTxs = repository.NewMerchantTxRepo(conn)
		profiles = profileRepo
		members = profileRepo
		reports = reportRepo
		runs = reportRepo
	} else {
		logger.Warn("DB_HOST not set, using in-memory store")
		mem := repository.NewMemory()
		ledger = mem
		profiles = mem
		merchants = mem
		merchantTxs = mem
		reports = mem
		runs = mem
		members = mem
	}

	seeds := service.NewSeedService(ledger, profiles, logger)
	matching := service.NewMatchingService(merchants, merchantTxs, seeds, cfg.RewardRates, logger)
	location := service.NewLocationService(merchants)
	reportSvc := service.NewReportService(reports, seeds, logger)

	sched := scheduler.New(cfg.Scheduler, runs, members, reportSvc, logger)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	defer sched.Stop()

	bus := events.NewBus(logger, cfg.Events.Workers, cfg.Events.Buffer)
	bus.Subscribe(matching.HandleTransactionCreated)
	bus.Start(context.Background())
	defer bus.Close()

	handler := api.NewRouter(api.Handlers{
		Transactions: handlers.NewTransactionHandler(bus, logger),
		Merchants:    handlers.NewMerchantHandler(location, matching, cfg.RewardRates),
		Seeds:        handlers.NewSeedHandler(seeds),
		Scheduler:    handlers.NewSchedulerHandler(sched),
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger(logger))
	r.Mount("/", handler)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	logger.Info("starting eco-rewards service", "addr", cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("listen: %s", err)
	}

	<-idleConnsClosed
	logger.Info("server stopped")
}
