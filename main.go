package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"appointment-service/internal/availability"
	"appointment-service/internal/config"
	"appointment-service/internal/events"
	"appointment-service/internal/handlers"
	"appointment-service/internal/logger"
	"appointment-service/internal/metrics"
	"appointment-service/internal/middleware"
	"appointment-service/internal/models"
	"appointment-service/internal/notification"
	"appointment-service/internal/routes"
	"appointment-service/internal/scheduling"
	"appointment-service/internal/store"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("appointments", reg)

	var (
		db               *gorm.DB
		appointmentStore scheduling.Store
		notificationRepo notification.Repository
	)
	if cfg.Database.Driver == "memory" {
		zlog.Warn("using in-memory store; data is lost on restart")
		appointmentStore = store.NewMemoryStore()
		notificationRepo = notification.NewMemoryRepository()
	} else {
		isolation, err := store.ParseIsolation(cfg.Database.TxIsolation)
		if err != nil {
			return err
		}
		db, err = models.InitDB(models.DatabaseConfig{
			Driver:          cfg.Database.Driver,
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		if isolation != sql.LevelSerializable {
			zlog.Warn("transaction isolation below serializable; overlapping bookings racing each other may both commit",
				zap.String("isolation", cfg.Database.TxIsolation))
		}
		appointmentStore = store.NewGormStore(db, isolation)
		notificationRepo = notification.NewGormRepository(db)
		zlog.Info("database connected",
			zap.String("driver", cfg.Database.Driver),
			zap.String("isolation", cfg.Database.TxIsolation),
		)
	}

	resolver, closeCache, err := buildAvailability(ctx, cfg, db, zlog)
	if err != nil {
		return err
	}

	emitter, closeBroker, err := buildEmitter(cfg, zlog)
	if err != nil {
		return err
	}
	asyncEmitter := events.NewAsyncEmitter(emitter, cfg.Broker.BufferSize, zlog, collector.EventDropped)

	notificationService := notification.NewService(notificationRepo, zlog.Named("notification"))
	schedulingService := scheduling.NewService(appointmentStore, zlog.Named("scheduling"), scheduling.Options{
		Availability:        resolver,
		Notifier:            notificationService,
		Emitter:             asyncEmitter,
		Recorder:            collector,
		EnforceTransitions:  cfg.Scheduling.EnforceTransitions,
		RequireAvailability: cfg.Scheduling.RequireAvailability,
		Location:            cfg.Scheduling.Location,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.Recovery(zlog),
		middleware.RequestID(),
		middleware.RequestLogger(zlog.Named("http")),
		middleware.Metrics(collector),
		middleware.Actor(),
	)

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader, middleware.ActorHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	h := routes.Handlers{
		Appointments:  handlers.NewAppointmentHandler(schedulingService, zlog.Named("handlers")),
		Notifications: handlers.NewNotificationHandler(notificationService, zlog.Named("handlers")),
	}
	if cfg.MetricsEnabled {
		h.Metrics = collector
	}
	routes.SetupRoutes(router, h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("server running", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("http shutdown", zap.Error(err))
	}
	if err := asyncEmitter.Shutdown(shutdownCtx); err != nil {
		zlog.Error("event drain", zap.Error(err))
	}
	if closeBroker != nil {
		if err := closeBroker(); err != nil {
			zlog.Error("closing broker connection", zap.Error(err))
		}
	}
	if closeCache != nil {
		if err := closeCache(); err != nil {
			zlog.Error("closing redis client", zap.Error(err))
		}
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return nil
}

// buildAvailability resolves working hours from the seed in memory mode, or
// from the doctor_availability table otherwise, with an optional redis cache.
// The returned close func is nil unless a redis client was opened.
func buildAvailability(ctx context.Context, cfg *config.Config, db *gorm.DB, zlog *zap.Logger) (scheduling.AvailabilityResolver, func() error, error) {
	seed, err := availability.ParseSeed(cfg.Scheduling.AvailabilitySeed)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing AVAILABILITY_SEED: %w", err)
	}
	if db == nil {
		return seed, nil, nil
	}

	dir := availability.NewDirectory(db)
	for _, doctorID := range seed.Doctors() {
		if err := dir.Replace(ctx, doctorID, seed.Slots(doctorID)); err != nil {
			return nil, nil, fmt.Errorf("seeding availability for %s: %w", doctorID, err)
		}
	}

	if cfg.Redis.URL == "" {
		return dir, nil, nil
	}
	client, err := availability.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		zlog.Warn("redis unavailable, serving availability from the database", zap.Error(err))
		return dir, nil, nil
	}
	cache := availability.NewCache(dir, client, cfg.Redis.AvailabilityTTL, zlog.Named("availability"))
	for _, doctorID := range seed.Doctors() {
		if err := cache.Invalidate(ctx, doctorID); err != nil {
			zlog.Warn("invalidating cached availability", zap.String("doctor_id", doctorID), zap.Error(err))
		}
	}
	return cache, cache.Close, nil
}

func buildEmitter(cfg *config.Config, zlog *zap.Logger) (scheduling.Emitter, func() error, error) {
	if cfg.Broker.URL == "" {
		return events.NewLogEmitter(zlog.Named("events")), nil, nil
	}
	rmq, err := events.DialRabbitMQ(cfg.Broker.URL, cfg.Broker.Exchange)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	zlog.Info("publishing events", zap.String("exchange", cfg.Broker.Exchange))
	return rmq, rmq.Close, nil
}
