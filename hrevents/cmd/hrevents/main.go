package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/common/messaging"
	natsclient "github.com/hr-events/hr-events/common/messaging/nats"
	"github.com/hr-events/hr-events/hrevents/internal/app"
	"github.com/hr-events/hr-events/hrevents/internal/auth"
	"github.com/hr-events/hr-events/hrevents/internal/config"
	"github.com/hr-events/hr-events/hrevents/internal/handlers"
	"github.com/hr-events/hr-events/hrevents/internal/jobs"
	hrnats "github.com/hr-events/hr-events/hrevents/internal/nats"
	"github.com/hr-events/hr-events/hrevents/internal/scheduler"
	"github.com/hr-events/hr-events/hrevents/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	migrationsPath := flag.String("migrations", app.DefaultMigrationsPath, "migration source URL")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("hrevents"))
	logging.SetDefault(logger)

	slog.Info("Starting hrevents service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("database", cfg.Database.Type),
		slog.Bool("nats", cfg.NATS.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Type == "memory" {
		slog.Warn("Using in-memory repository (development only)")
	} else {
		slog.Info("Running database migrations")
		if err := app.Migrate(cfg, *migrationsPath, false); err != nil {
			slog.Error("Failed to run migrations", logging.Error(err))
			os.Exit(1)
		}
		slog.Info("Database migrations completed")
	}

	c, err := app.Build(ctx, cfg, logger.Logger)
	if err != nil {
		slog.Error("Failed to initialize service", logging.Error(err))
		os.Exit(1)
	}
	defer c.Close()

	checks := map[string]handlers.ReadinessCheck{"database": c.Repo.Ping}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}
	}

	// Job queue: NATS JetStream work queue, or an in-process queue without a broker
	var queue jobs.Queue
	if cfg.NATS.Enabled {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = "hrevents"
		natsCfg.MaxReconnects = cfg.NATS.MaxReconnects
		natsCfg.ReconnectWait = cfg.NATS.ReconnectWait

		js, err := natsclient.NewJetStreamClient(natsCfg)
		if err != nil {
			slog.Error("Failed to connect to NATS", slog.String("url", cfg.NATS.URL), logging.Error(err))
			os.Exit(1)
		}
		defer js.Close()

		if err := hrnats.Provision(ctx, js, cfg.NATS.AckWait); err != nil {
			slog.Error("Failed to provision job stream", logging.Error(err))
			os.Exit(1)
		}

		worker := hrnats.NewHandler(js, c.Runner, logger.Logger)
		if err := worker.Start(ctx); err != nil {
			slog.Error("Failed to start job consumer", logging.Error(err))
			os.Exit(1)
		}
		defer worker.Stop()

		queue = hrnats.NewPublisher(js, logger.Logger)
		checks["nats"] = func(ctx context.Context) error {
			if h := messaging.CheckPublisherHealth(ctx, js); !h.Connected {
				return errors.New(h.Error)
			}
			return nil
		}
		slog.Info("Connected to NATS", slog.String("url", cfg.NATS.URL))
	} else {
		slog.Warn("NATS disabled, jobs run on an in-process queue")
		local := jobs.NewLocalQueue(c.Runner, 16, logger.Logger)
		local.Start(ctx)
		defer local.Stop()
		queue = local
	}

	handler := handlers.NewHandler(queue, c.Identities, logger.Logger)
	for name, check := range checks {
		handler.WithReadinessCheck(name, check)
	}

	// Daily schedule
	sched := scheduler.NewScheduler(queue, c.Location, logger.Logger)
	if cfg.Reminders.Enabled {
		at, _ := config.ParseClock(cfg.Reminders.RunAt)
		sched.Add(jobs.NameReminders, at)
	}
	if cfg.Sync.ScheduleEnabled {
		at, _ := config.ParseClock(cfg.Sync.RunAt)
		sched.Add(jobs.NameSync, at)
	}
	go sched.Start(ctx)
	defer sched.Stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	router := server.NewRouter(handler, tokens, logger.Logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("hrevents service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", logging.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", logging.Error(err))
	}

	slog.Info("Server stopped gracefully")
}
