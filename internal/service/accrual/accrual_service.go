package accrual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yasarair/flightcore/internal/domain"
	"github.com/yasarair/flightcore/internal/kafka"
	"github.com/yasarair/flightcore/internal/repository"
	"go.uber.org/zap"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// AccrualService is the nightly sweep crediting earned miles for completed
// flights. The flight_completed flag, flipped inside the same transaction as
// the credit, guarantees a booking is credited at most once even when runs
// overlap or repeat.
type AccrualService struct {
	bookings        repository.BookingRepository
	flights         repository.FlightRepository
	members         repository.MemberRepository
	producer        Producer
	milesAddedTopic string
	publishTimeout  time.Duration
	log             *zap.Logger
	now             func() time.Time
}

func NewAccrualService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	members repository.MemberRepository,
	producer Producer,
	milesAddedTopic string,
	publishTimeout time.Duration,
	log *zap.Logger,
) *AccrualService {
	return &AccrualService{
		bookings:        bookings,
		flights:         flights,
		members:         members,
		producer:        producer,
		milesAddedTopic: milesAddedTopic,
		publishTimeout:  publishTimeout,
		log:             log,
		now:             time.Now,
	}
}

// RunSweep credits 1 mile per currency unit of fare for every confirmed,
// uncredited member booking whose flight has departed. Per-booking failures
// are logged and the loop moves on; nothing aborts the batch.
func (s *AccrualService) RunSweep(ctx context.Context) (int, error) {
	cutoff := s.now().Truncate(24 * time.Hour)
	candidates, err := s.bookings.ListUncredited(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list uncredited bookings: %w", err)
	}

	credited := 0
	for _, b := range candidates {
		if b.MemberID == nil {
			continue
		}
		miles := b.TotalPriceCents / 100
		flightCode := s.flightCode(ctx, b.FlightID)

		newBalance, err := s.bookings.CreditCompleted(ctx, b.ID, *b.MemberID, miles,
			fmt.Sprintf("Miles earned from flight %s", flightCode))
		if errors.Is(err, repository.ErrAlreadyCredited) {
			continue
		}
		if err != nil {
			s.log.Error("failed to credit booking",
				zap.String("booking_number", b.BookingNumber), zap.Error(err))
			continue
		}
		credited++

		s.emitMilesAdded(ctx, b, miles, newBalance)
	}

	s.log.Info("accrual sweep finished",
		zap.Int("candidates", len(candidates)), zap.Int("credited", credited))
	return credited, nil
}

func (s *AccrualService) flightCode(ctx context.Context, flightID int64) string {
	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return fmt.Sprintf("#%d", flightID)
	}
	return flight.FlightCode
}

func (s *AccrualService) emitMilesAdded(ctx context.Context, b domain.Booking, miles, newBalance int64) {
	if s.producer == nil || s.milesAddedTopic == "" {
		return
	}
	publishCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.producer.Publish(publishCtx, s.milesAddedTopic, b.BookingNumber, kafka.MilesAddedEvent{
		MemberID:   *b.MemberID,
		MilesAdded: miles,
		TotalMiles: newBalance,
	}); err != nil {
		s.log.Warn("failed to publish miles added event",
			zap.String("booking_number", b.BookingNumber), zap.Error(err))
	}
}
