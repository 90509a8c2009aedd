// Package main is the entry point of the BrightSteps analytics worker.
//
// The worker hosts the longitudinal pipeline: nightly Z-score, risk, and
// recommendation batches over the active student population, plus a REST
// surface for querying results and triggering runs on demand.
//
// The architecture follows Clean Architecture / DDD layering:
//   - Domain: scoring, risk, recommendation, and trajectory logic
//   - Application: command and query handlers
//   - Infrastructure: PostgreSQL, Redis, scheduler
//   - Interface: HTTP endpoints
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brightsteps/brightsteps-analytics/config"
	"github.com/brightsteps/brightsteps-analytics/internal/application/command"
	"github.com/brightsteps/brightsteps-analytics/internal/application/query"
	"github.com/brightsteps/brightsteps-analytics/internal/infrastructure/persistence/postgres"
	"github.com/brightsteps/brightsteps-analytics/internal/infrastructure/persistence/redis"
	"github.com/brightsteps/brightsteps-analytics/internal/infrastructure/scheduler"
	"github.com/brightsteps/brightsteps-analytics/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/brightsteps/brightsteps-analytics/internal/interface/http"
	"github.com/brightsteps/brightsteps-analytics/internal/interface/http/handlers"
	"github.com/brightsteps/brightsteps-analytics/pkg/logger"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "brightsteps-analytics",
		Short:         "Longitudinal development analytics worker",
		Long:          "BrightSteps Analytics computes weekly age-normalized Z-scores, classifies developmental risk, recommends catalog activities, and projects trajectories for every active student.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(serveCmd(), seedNormsCmd(), runJobCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION WIRING
// ══════════════════════════════════════════════════════════════════════════════

// app holds the wired application components shared by the subcommands.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	slog  *slog.Logger
	db    *postgres.Connection
	cache *redis.ProfileCache
	redis *redis.Cache

	studentRepo *postgres.StudentRepository
	normRepo    *postgres.NormRepository
	scoreRepo   *postgres.ZProfileRepository
	riskRepo    *postgres.RiskRepository
	recRepo     *postgres.RecommendationRepository
	historyRepo *postgres.RunHistoryRepository

	zscoreJob *jobs.ZScoreRunJob
	riskJob   *jobs.RiskRunJob
	recJob    *jobs.RecommendationRunJob

	trajectoryHandler *query.PredictTrajectoryHandler
	recommendsHandler *query.GetRecommendationsHandler
	seedHandler       *command.SeedNormsHandler
}

// buildApp loads config, connects to the stores, runs migrations, and wires
// every handler and job.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.ParseLevel(cfg.Observability.LogLevel)
	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logLevel,
	})
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel(cfg.Observability.LogLevel),
	}))

	log.Info("starting BrightSteps Analytics",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	db, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	migrator := postgres.NewMigrator(db)
	if err := migrator.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache   *redis.Cache
		profileCache *redis.ProfileCache
	)
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			profileCache = redis.NewProfileCache(redisCache, log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Repositories
	// ─────────────────────────────────────────────────────────────────────────
	a := &app{
		cfg:         cfg,
		log:         log,
		slog:        slogger,
		db:          db,
		redis:       redisCache,
		cache:       profileCache,
		studentRepo: postgres.NewStudentRepository(db),
		normRepo:    postgres.NewNormRepository(db),
		scoreRepo:   postgres.NewZProfileRepository(db),
		riskRepo:    postgres.NewRiskRepository(db),
		recRepo:     postgres.NewRecommendationRepository(db),
		historyRepo: postgres.NewRunHistoryRepository(db),
	}
	obsRepo := postgres.NewObservationRepository(db)
	catalogRepo := postgres.NewActivityCatalogRepository(db)

	// ─────────────────────────────────────────────────────────────────────────
	// Application handlers
	// ─────────────────────────────────────────────────────────────────────────
	zprofileHandler := command.NewComputeZProfileHandler(a.studentRepo, obsRepo, a.normRepo, a.scoreRepo)
	riskHandler := command.NewComputeRiskHandler(a.scoreRepo, a.riskRepo)
	recommendHandler := command.NewRecommendActivitiesHandler(
		a.studentRepo, a.riskRepo, a.scoreRepo, a.normRepo, catalogRepo, a.recRepo)
	a.seedHandler = command.NewSeedNormsHandler(a.normRepo)

	var trajectoryCache query.TrajectoryCache
	var riskCache query.RiskCache
	if profileCache != nil {
		trajectoryCache = profileCache
		riskCache = profileCache
	}
	a.trajectoryHandler = query.NewPredictTrajectoryHandler(a.scoreRepo, trajectoryCache)
	a.recommendsHandler = query.NewGetRecommendationsHandler(a.recRepo, a.riskRepo, riskCache)

	// ─────────────────────────────────────────────────────────────────────────
	// Batch jobs
	// ─────────────────────────────────────────────────────────────────────────
	runner := jobs.NewBatchRunner(a.studentRepo, a.historyRepo, slogger, jobs.RunnerConfig{
		Concurrency:    cfg.Batch.Concurrency,
		StudentTimeout: cfg.Batch.StudentTimeout,
		RunTimeout:     cfg.Batch.RunTimeout,
	})

	var invalidator jobs.ProfileInvalidator
	if profileCache != nil {
		invalidator = profileCache
	}
	a.zscoreJob = jobs.NewZScoreRunJob(runner, zprofileHandler, a.normRepo)
	a.riskJob = jobs.NewRiskRunJob(runner, riskHandler, invalidator)
	a.recJob = jobs.NewRecommendationRunJob(runner, recommendHandler, cfg.Batch.RecommendationLimit)

	return a, nil
}

// close releases connections in reverse order of acquisition.
func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.db.Close()
}

// addMinutes shifts an HH:MM wall-clock slot forward, wrapping at midnight.
func addMinutes(hour, minute, delta int) (int, int) {
	total := (hour*60 + minute + delta) % (24 * 60)
	return total / 60, total % 60
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the worker: scheduler plus HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg

	// ─────────────────────────────────────────────────────────────────────────
	// Scheduler: nightly pipeline in dependency order. Risk runs half an
	// hour after scoring, recommendations half an hour after risk.
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{Logger: a.slog})

	if cfg.Scheduler.Enabled {
		hour, minute := cfg.Scheduler.NightlyRunHour, cfg.Scheduler.NightlyRunMinute
		riskHour, riskMinute := addMinutes(hour, minute, 30)
		recHour, recMinute := addMinutes(hour, minute, 60)

		if err := sched.Register(a.zscoreJob, scheduler.NewDailySchedule(hour, minute)); err != nil {
			return err
		}
		if err := sched.Register(a.riskJob, scheduler.NewDailySchedule(riskHour, riskMinute)); err != nil {
			return err
		}
		if err := sched.Register(a.recJob, scheduler.NewDailySchedule(recHour, recMinute)); err != nil {
			return err
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
		a.log.Info("scheduler started",
			logger.Int("nightly_hour", hour),
			logger.Int("nightly_minute", minute),
		)
	} else {
		a.log.Info("scheduler disabled, batch runs only via HTTP triggers")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	triggers := handlers.NewTriggerRegistry()
	triggers.Register(a.zscoreJob)
	triggers.Register(a.riskJob)
	triggers.Register(a.recJob)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", func(ctx context.Context) error {
		return a.db.Ping(ctx)
	})
	if a.redis != nil {
		health.AddNonCriticalCheck("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx)
		})
	}

	server := httpserver.NewServer(httpserver.Config{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
		TriggerSecretHash: cfg.HTTP.TriggerSecretHash,
		TriggerTimeout:    cfg.HTTP.TriggerTimeout,
	}, httpserver.Dependencies{
		GetRecommendationsHandler: a.recommendsHandler,
		PredictTrajectoryHandler:  a.trajectoryHandler,
		Triggers:                  triggers,
		Scheduler:                 sched,
		Logger:                    a.log,
		HealthChecker:             health,
	})

	serverErr := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http server shutdown failed", logger.Err(err))
	}

	a.log.Info("worker stopped")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SEED NORMS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

func seedNormsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-norms",
		Short: "Seed the norm table with the bundled reference dataset",
		Long:  "Inserts the bundled developmental norm dataset. Existing rows are never overwritten, so re-running after manual calibration is safe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.seedHandler.Handle(ctx, command.SeedNormsCommand{})
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			fmt.Printf("norm table seeded: %d inserted, %d already present, %d total\n",
				result.Inserted, result.Skipped, result.Total)
			return nil
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RUN COMMAND
// ══════════════════════════════════════════════════════════════════════════════

func runJobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <job>",
		Short: "Execute one batch pass and print the summary",
		Long:  "Runs a single batch job to completion: zscore_run, risk_run, or recommendation_run.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.IsProduction() {
				return fmt.Errorf("manual runs are disabled in production; use the authenticated POST /api/v1/runs/%s endpoint", args[0])
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			var summary any
			switch args[0] {
			case jobs.JobNameZScoreRun:
				summary, err = a.zscoreJob.RunBatch(ctx)
			case jobs.JobNameRiskRun:
				summary, err = a.riskJob.RunBatch(ctx)
			case jobs.JobNameRecommendationRun:
				summary, err = a.recJob.RunBatch(ctx)
			default:
				return fmt.Errorf("unknown job %q (want %s, %s, or %s)",
					args[0], jobs.JobNameZScoreRun, jobs.JobNameRiskRun, jobs.JobNameRecommendationRun)
			}
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			out, _ := json.MarshalIndent(summary, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}
