package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yasarair/flightcore/config"
	"github.com/yasarair/flightcore/internal/bootstrap"
	"github.com/yasarair/flightcore/internal/cache"
	"github.com/yasarair/flightcore/internal/kafka"
	"github.com/yasarair/flightcore/internal/pricing"
	"github.com/yasarair/flightcore/internal/repository"
	"github.com/yasarair/flightcore/internal/service/admin"
	"github.com/yasarair/flightcore/internal/service/booking"
	"github.com/yasarair/flightcore/internal/service/flights"
	"github.com/yasarair/flightcore/internal/service/members"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	referenceTTL := time.Duration(cfg.Booking.ReferenceCacheTTL) * time.Second
	redisCache := cache.NewRedisCache(cfg.Redis, referenceTTL)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		// Cache is an optional capability; flight reads fall back to the database.
		logger.Warn("redis unavailable, reference cache disabled", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	publishTimeout := time.Duration(cfg.Booking.PublishTimeoutMS) * time.Millisecond

	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)

	topics := booking.Topics{
		NewMember:      cfg.Kafka.NewMemberTopic,
		BookingCreated: cfg.Kafka.BookingTopic,
		MilesAdded:     cfg.Kafka.MilesAddedTopic,
	}

	svc := bootstrap.Services{
		Flights:  flights.NewFlightService(flightRepo, redisCache, logger),
		Bookings: booking.NewBookingService(bookingRepo, flightRepo, memberRepo, producer, topics, publishTimeout, logger),
		Members:  members.NewMemberService(memberRepo, producer, cfg.Kafka.NewMemberTopic, publishTimeout, logger),
		Admin:    admin.NewAdminService(flightRepo, pricing.NewFormulaPredictor(), logger),
	}

	if err := bootstrap.Run(ctx, cfg, svc); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
