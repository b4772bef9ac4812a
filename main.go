package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"vehicle_parking/internal/api"
	"vehicle_parking/internal/api/handler"
	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/config"
	"vehicle_parking/internal/events"
	"vehicle_parking/internal/lock"
	"vehicle_parking/internal/metrics"
	"vehicle_parking/internal/repository"
	"vehicle_parking/internal/repository/memory"
	"vehicle_parking/internal/repository/postgresql"
	"vehicle_parking/internal/service"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type repositories struct {
	users        repository.UserRepository
	lots         repository.ParkingLotRepository
	spots        repository.ParkingSpotRepository
	reservations repository.ReservationRepository
}

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	logger := newLogger(cfg)
	log.Logger = logger
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	health := map[string]handler.Pinger{}

	// 2. Storage
	var repos repositories
	if cfg.DBDriver == "memory" {
		store := memory.NewStore()
		repos = repositories{store.Users(), store.ParkingLots(), store.ParkingSpots(), store.Reservations()}
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
	} else {
		db, err := postgresql.NewDB(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()
		if cfg.DBAutoMigrate {
			if err := postgresql.Migrate(bgCtx, db); err != nil {
				logger.Fatal().Err(err).Msg("could not migrate database schema")
			}
		}
		repos = repositories{
			users:        postgresql.NewPgUserRepository(db),
			lots:         postgresql.NewPgParkingLotRepository(db),
			spots:        postgresql.NewPgParkingSpotRepository(db),
			reservations: postgresql.NewPgReservationRepository(db),
		}
		health["database"] = db
		logger.Info().Str("driver", cfg.DBDriver).Str("host", cfg.DBHost).Msg("connected to database")
	}

	// 3. Per-lot locking
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(bgCtx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("could not reach redis")
		}
		locker = lock.NewRedisLocker(rdb, cfg.LotLockTTL, logger)
		health["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis lot locks")
	}

	// 4. Event fan-out
	hub := events.NewHub(logger)
	go hub.Run(bgCtx)
	publishers := events.Multi{hub}

	if cfg.SQSEventQueueURL == "" {
		logger.Info().Msg("SQS_EVENT_QUEUE_URL not set, parking events stay local")
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(bgCtx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Fatal().Err(err).Msg("could not load AWS SDK config")
		}
		publishers = append(publishers, events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.SQSEventQueueURL, logger))
		logger.Info().Str("queue_url", cfg.SQSEventQueueURL).Str("region", cfg.AWSRegion).Msg("publishing parking events to SQS")
	}

	// 5. Services
	authService := service.NewAuthService(repos.users, cfg.JWTSecret, cfg.JWTExpirationHours, logger)
	parkingService := service.NewParkingService(repos.lots, repos.spots, repos.reservations, locker, publishers, time.Now, logger)
	reservationService := service.NewReservationService(repos.lots, repos.spots, repos.reservations, parkingService, locker, publishers, time.Now, logger)
	reportService := service.NewReportService(repos.lots, repos.spots, repos.reservations, logger)

	if _, err := authService.EnsureBootstrapAdmin(bgCtx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("could not ensure bootstrap admin")
	}

	// 6. Metrics and background jobs
	var wg sync.WaitGroup
	if cfg.MetricsEnabled {
		metrics.Register()
		wg.Add(1)
		go func() {
			defer wg.Done()
			startOccupancyGaugeJob(bgCtx, reportService, logger)
		}()
	}

	// 7. HTTP
	router, err := api.SetupRouter(api.Deps{
		Auth:         authService,
		Parking:      parkingService,
		Reservations: reservationService,
		Reports:      reportService,
		Hub:          hub,
		LoginLimiter: middleware.NewIPRateLimiter(cfg.LoginRatePerSecond, cfg.LoginRateBurst),
		HealthChecks: health,
		Metrics:      cfg.MetricsEnabled,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("could not set up router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.ServerPort).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shut down")
	}

	cancelBackground()
	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("background jobs did not stop in time")
	}

	logger.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Str("service", "vehicle_parking").Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// startOccupancyGaugeJob refreshes the per-lot spot gauges once a minute.
func startOccupancyGaugeJob(ctx context.Context, reports *service.ReportService, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	refresh := func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := reports.RefreshOccupancyGauges(jobCtx); err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Msg("could not refresh occupancy gauges")
		}
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
