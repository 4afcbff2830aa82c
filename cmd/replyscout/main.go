package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/replyscout/replyscout/internal/adapter"
	_ "github.com/replyscout/replyscout/internal/adapter/noop"
	apihttp "github.com/replyscout/replyscout/internal/api/http"
	"github.com/replyscout/replyscout/internal/config"
	"github.com/replyscout/replyscout/internal/discovery"
	"github.com/replyscout/replyscout/internal/expiry"
	"github.com/replyscout/replyscout/internal/platform/logger"
	"github.com/replyscout/replyscout/internal/scheduler"
	"github.com/replyscout/replyscout/internal/store"
	"github.com/replyscout/replyscout/internal/store/postgres"
	"github.com/replyscout/replyscout/internal/store/sqlite"
)

func main() {
	// Optional build-target flag override (local | cloud-dev | cloud)
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud-dev, cloud)")
	flag.Parse()

	log := logger.New("replyscout")

	cfg, err := config.New(log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *buildTarget != "" {
		cfg.BuildTarget = *buildTarget
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid build-target override")
		}
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Discovery engine starting…")

	ctx := context.Background()

	// -------- Storage layer -----------------
	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Store unavailable")
	}
	defer func() { _ = st.Close() }()

	// -------- Platform adapter --------------
	platformAdapter, err := adapter.New(cfg.Adapter)
	if err != nil {
		log.Fatal().Err(err).Strs("registered", adapter.Registered()).Msg("Platform adapter unavailable")
	}

	// -------- Discovery + scheduler ---------
	disc := discovery.New(st, platformAdapter, log, discovery.Options{
		Limit:    cfg.DiscoveryLimit,
		Lookback: cfg.LookbackWindow,
		TTL:      cfg.OpportunityTTL,
	})

	sched := scheduler.New(st.Accounts(), disc, log)
	if err := sched.Initialize(ctx); err != nil {
		// Bad individual schedules are logged and skipped; the engine
		// still starts with the jobs that registered.
		log.Warn().Err(err).Msg("Some discovery jobs failed to register")
	}
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Scheduler failed to start")
	}
	defer sched.Stop()

	// -------- Expiry sweeper ----------------
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	sweeper := expiry.NewWorker(st, expiry.Config{
		Interval:  cfg.SweepInterval,
		BatchSize: cfg.SweepBatchSize,
	}, log)
	go func() {
		if err := sweeper.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Expiry worker exited")
		}
	}()

	// -------- Router & Server ---------------
	router := apihttp.NewRouter(
		log,
		apihttp.NewAccountHandler(st.Accounts()),
		apihttp.NewOpportunityHandler(st.Opportunities()),
		apihttp.NewDiscoveryHandler(sched),
		apihttp.NewHealthHandler(st),
	)
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down…")
	sched.Stop()
	stopWorker()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
		return postgres.NewWithDB(db), nil
	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := sqlite.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
		return sqlite.NewWithDB(db), nil
	}
}
