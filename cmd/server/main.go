package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/hcp-engage/internal/api"
	"github.com/ignite/hcp-engage/internal/config"
	"github.com/ignite/hcp-engage/internal/pkg/distlock"
	"github.com/ignite/hcp-engage/internal/repository/postgres"
	"github.com/ignite/hcp-engage/internal/service/constraints"
	"github.com/ignite/hcp-engage/internal/service/health"
	"github.com/ignite/hcp-engage/internal/service/monitor"
	"github.com/ignite/hcp-engage/internal/service/nba"
	"github.com/ignite/hcp-engage/internal/service/planner"
	"github.com/ignite/hcp-engage/internal/service/saturation"
	"github.com/ignite/hcp-engage/internal/storage"
	"github.com/ignite/hcp-engage/internal/worker"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database unreachable: %v", err)
	}
	pingCancel()
	log.Println("Connected to database")

	// Redis is optional; without it plan locking falls back to PG advisory locks.
	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unreachable, continuing without it: %v", err)
			redisClient = nil
		} else {
			log.Println("Connected to redis")
			defer redisClient.Close()
		}
	}

	// Repositories
	hcps := postgres.NewHCPRepo(db)
	plans := postgres.NewPlanRepo(db)
	allocs := postgres.NewAllocationRepo(db)
	capacity := postgres.NewCapacityRepo(db)
	contacts := postgres.NewContactRepo(db)
	compliance := postgres.NewComplianceRepo(db)
	budgets := postgres.NewBudgetRepo(db)
	territories := postgres.NewTerritoryRepo(db)
	exposures := postgres.NewExposureRepo(db)

	// Services
	thresholds := health.Thresholds(cfg.Health)
	satProvider := saturation.NewProvider(exposures)
	satProvider.SetTargetMSI(cfg.Saturation.TargetMSI)
	nbaSvc := nba.NewService(hcps, satProvider, thresholds, nba.Config(cfg.NBA))
	gate := constraints.NewManager(capacity, contacts, compliance, budgets, territories, hcps)
	if redisClient != nil {
		gate.SetCapacityGuard(worker.NewCapacityLimiter(redisClient))
		log.Println("Redis capacity guard enabled")
	}

	plannerSvc := planner.NewService(plans, allocs, gate, planner.NewSimulatedOutcomes(time.Now().UnixNano())).
		WithLocks(func(planID string) distlock.DistLock {
			return distlock.NewLock(redisClient, db, "plan-exec:"+planID, 10*time.Minute)
		})

	if cfg.Storage.Enabled && cfg.Storage.S3Bucket != "" {
		archiver, err := storage.NewReportArchiver(context.Background(),
			cfg.Storage.S3Bucket, cfg.Storage.S3Region, cfg.Storage.AWSProfile)
		if err != nil {
			log.Printf("Report archiver disabled: %v", err)
		} else {
			plannerSvc = plannerSvc.WithArchiver(archiver)
			log.Printf("Execution reports archived to s3://%s", cfg.Storage.S3Bucket)
		}
	}

	monitorSvc := monitor.NewService(plannerSvc)

	// Background scheduler executes due plans.
	var scheduler *worker.PlanScheduler
	if cfg.Scheduler.Enabled {
		scheduler = worker.NewPlanScheduler(plannerSvc, plans)
		scheduler.SetPollInterval(time.Duration(cfg.Scheduler.PollIntervalSeconds) * time.Second)
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start plan scheduler: %v", err)
		}
		log.Printf("Plan scheduler running (poll every %ds)", cfg.Scheduler.PollIntervalSeconds)
	}

	handlers := api.NewHandlers(hcps, nbaSvc, gate, plannerSvc, monitorSvc, satProvider, thresholds)
	handlers.SetComplianceWriter(compliance)
	server := api.NewServer(handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
