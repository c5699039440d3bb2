package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"

	"ms-guests/internal/activity"
	"ms-guests/internal/analytics"
	analytics_api "ms-guests/internal/analytics/api"
	"ms-guests/internal/auth"
	"ms-guests/internal/config"
	"ms-guests/internal/database"
	"ms-guests/internal/database/migrations"
	guestdb "ms-guests/internal/guests/db"
	"ms-guests/internal/guests/guest_api"
	"ms-guests/internal/guests/qr"
	guestredis "ms-guests/internal/guests/redis"
	guests "ms-guests/internal/guests/service"
	"ms-guests/internal/httpjson"
	itinerarydb "ms-guests/internal/itinerary/db"
	itinerary "ms-guests/internal/itinerary/service"
	"ms-guests/internal/kafka"
	"ms-guests/internal/logger"
	"ms-guests/internal/models"
	planningdb "ms-guests/internal/planning/db"
	"ms-guests/internal/planning/planning_api"
	planning "ms-guests/internal/planning/service"
)

type activityPublisher interface {
	PublishGuestActivity(ctx context.Context, activity models.GuestActivity) error
}

func prepareSchema(ctx context.Context, cfg *config.Config, bunDB *bun.DB, log *logger.Logger) {
	if cfg.Database.Driver == database.DriverSQLite {
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to create SQLite schema: %v", err))
		}
		log.Info("DATABASE", "SQLite schema ready")
		return
	}

	if !cfg.Migrations.AutoMigrate {
		log.Info("MIGRATION", "Auto-migration disabled, skipping")
		return
	}
	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: cfg.Migrations.Dir,
		AutoMigrate:   true,
	}, log)
	if err := runner.Initialize(); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to initialize migrations: %v", err))
	}
	defer runner.Close()
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to run migrations: %v", err))
	}
}

// connectRedis returns nil when Redis is disabled or unreachable; token
// throttling is then off.
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Warn("REDIS", "Redis disabled, token lookup throttling is off")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("REDIS", fmt.Sprintf("Redis connection error, token lookup throttling is off: %v", err))
		client.Close()
		return nil
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Addr))
	return client
}

func agentAuth(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) func(http.Handler) http.Handler {
	var (
		mw  func(http.Handler) http.Handler
		err error
	)
	switch cfg.Mode {
	case "hs256":
		log.Warn("AUTH", "Using HS256 agent tokens; do not use in production")
		mw, err = auth.HMACMiddleware(cfg.HMACSecret)
	default:
		mw, err = auth.Middleware(ctx, cfg.OIDCIssuer)
	}
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("Failed to set up agent auth (%s): %v", cfg.Mode, err))
	}
	return mw
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}
	cfg := config.Load()

	log := logger.NewLogger(logger.Options{
		Service:  "guest-service",
		Dir:      cfg.Log.Dir,
		MinLevel: logger.ParseLevel(cfg.Log.Level),
	})
	defer log.Close()
	log.Info("APP", "Starting Guest Service initialization")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bunDB, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open database: %v", err))
	}
	defer bunDB.Close()
	prepareSchema(ctx, cfg, bunDB, log)

	redisClient := connectRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}
	throttle := guestredis.NewThrottle(redisClient, cfg.Redis.ThrottleLimit, cfg.Redis.ThrottleWindow, log)

	// Activity goes to Kafka for the email collaborator and comes back through
	// a consumer to feed the dashboard stream. Without Kafka the stream is fed
	// directly.
	emitter := activity.NewEmitter()
	var publisher activityPublisher = emitter
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}

		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log)
		defer producer.Close()
		publisher = producer

		host, _ := os.Hostname()
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), "guest-dashboard-"+host, log)
		defer consumer.Close()
		go consumer.Start(ctx, emitter.Emit)
		log.Info("KAFKA", "Kafka producer and dashboard consumer initialized")
	} else {
		log.Warn("KAFKA", "Kafka disabled, activity only reaches the live dashboard")
	}

	gDB := &guestdb.DB{Bun: bunDB}
	qrGen := qr.NewQRGenerator(cfg.Portal.BaseURL)

	itineraryService := itinerary.NewItineraryService(&itinerarydb.DB{Bun: bunDB}, gDB, publisher, log)
	guestService := guests.NewGuestService(gDB, itineraryService, publisher, log)
	planningService := planning.NewPlanningService(&planningdb.DB{Bun: bunDB}, gDB, qrGen, publisher, log)
	analyticsService := analytics.NewService(analytics.NewDB(bunDB))

	guestHandler := guest_api.NewHandler(guestService, itineraryService, qrGen, throttle, log)
	planningHandler := planning_api.NewHandler(planningService, itineraryService, guestService, log)
	analyticsHandler := analytics_api.NewHandler(analyticsService, log)
	streamHandler := &activity.StreamHandler{Logger: log, Emitter: emitter}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpjson.AccessLog(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := bunDB.PingContext(r.Context()); err != nil {
			httpjson.Send(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpjson.Send(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Guest portal: the access token is the credential ---
	guestHandler.RegisterRoutes(r)
	log.Info("ROUTER", "Guest portal routes registered under /api/guest")

	// --- Agent dashboard ---
	r.Route("/api/agent", func(r chi.Router) {
		r.Use(agentAuth(ctx, cfg.Auth, log))
		planningHandler.RegisterRoutes(r)
		analyticsHandler.RegisterRoutes(r)
		r.Get("/events/{eventID}/activity", streamHandler.ServeHTTP)
	})
	log.Info("ROUTER", "Agent routes registered under /api/agent")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Guest Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Guest Service shutdown complete")
	}
}
