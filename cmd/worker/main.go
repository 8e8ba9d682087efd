package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/yasarair/flightcore/config"
	"github.com/yasarair/flightcore/internal/email"
	"github.com/yasarair/flightcore/internal/kafka"
	"github.com/yasarair/flightcore/internal/notification"
	"github.com/yasarair/flightcore/internal/repository"
	"github.com/yasarair/flightcore/internal/service/accrual"
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

	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)

	sender, err := email.NewSMTPSender(cfg.SMTP)
	if err != nil {
		logger.Fatal("init smtp sender", zap.Error(err))
	}
	defer sender.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	publishTimeout := time.Duration(cfg.Booking.PublishTimeoutMS) * time.Millisecond

	dispatcher := notification.NewDispatcher(bookingRepo, flightRepo, memberRepo, sender, logger)

	consume := func(topic string, handler func(context.Context, kafkaGo.Message) error) {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic)
		go func() {
			defer consumer.Close()
			if err := consumer.Consume(ctx, handler); err != nil {
				logger.Info("consumer stopped", zap.String("topic", topic), zap.Error(err))
			}
		}()
	}
	consume(cfg.Kafka.NewMemberTopic, dispatcher.HandleNewMember)
	consume(cfg.Kafka.BookingTopic, dispatcher.HandleBookingCreated)
	consume(cfg.Kafka.MilesAddedTopic, dispatcher.HandleMilesAdded)

	accrualSvc := accrual.NewAccrualService(bookingRepo, flightRepo, memberRepo, producer, cfg.Kafka.MilesAddedTopic, publishTimeout, logger)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("init scheduler", zap.Error(err))
	}
	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(cfg.Worker.AccrualHour), uint(cfg.Worker.AccrualMinute), 0))),
		gocron.NewTask(func() {
			credited, err := accrualSvc.RunSweep(ctx)
			if err != nil {
				logger.Error("accrual sweep failed", zap.Error(err))
				return
			}
			logger.Info("accrual sweep done", zap.Int("credited", credited))
		}),
	)
	if err != nil {
		logger.Fatal("schedule accrual sweep", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	<-ctx.Done()
	logger.Info("shutting down worker")
}
