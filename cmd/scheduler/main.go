package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hibiken/asynq"
	"github.com/learnhub/backend/internal/badges"
	"github.com/learnhub/backend/internal/config"
	"github.com/learnhub/backend/internal/logger"
	"github.com/learnhub/backend/internal/repositories"
	"github.com/learnhub/backend/internal/services"
	"github.com/learnhub/backend/internal/sources"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting LearnHub scheduler")

	if err := checkDataSource(cfg.DataSource.Kind); err != nil {
		logger.Logger.Fatal("Unsupported data source", zap.Error(err))
	}

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Create Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	rules, err := badges.LoadRules(cfg.Badges.RulesPath)
	if err != nil {
		logger.Logger.Fatal("Failed to load badge rules", zap.Error(err))
	}

	source, err := sources.Open(cfg.DataSource, db, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to open data source", zap.Error(err))
	}

	// Initialize repositories and services
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	enrollmentRepo := repositories.NewEnrollmentRepository(db, logger.Logger)
	notificationRepo := repositories.NewNotificationRepository(db, logger.Logger)

	notificationService := services.NewNotificationService(notificationRepo, asynqClient, logger.Logger)
	progressService := services.NewProgressService(userRepo, source.Courses, source.Progress, enrollmentRepo, notificationService, badges.NewEvaluator(rules), logger.Logger)

	// Create scheduler instance
	scheduler := NewScheduler(userRepo, source.Progress, notificationService, progressService, logger.Logger)
	if err := scheduler.Register(cfg.Scheduler.StreakReminderCron, cfg.Scheduler.AchievementSweepCron); err != nil {
		logger.Logger.Fatal("Failed to register jobs", zap.Error(err))
	}

	// Start scheduler
	scheduler.Start()
	defer func() {
		logger.Logger.Info("Shutting down scheduler...")
		scheduler.Stop()
		logger.Logger.Info("Scheduler exited")
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
