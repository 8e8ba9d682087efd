package booking

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

const (
	bookingNumberAttempts = 3
	userBookingsLimit     = 50
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*Confirmation, error)
	GetByNumber(ctx context.Context, bookingNumber string) (*domain.Booking, error)
	ListForSubject(ctx context.Context, subjectID string) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, bookingNumber string) (*domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Topics names the notification channels the orchestrator emits to.
type Topics struct {
	NewMember      string
	BookingCreated string
	MilesAdded     string
}

type CreateBookingInput struct {
	FlightID             int64
	SubjectID            string
	Email                string
	PassengerFirstName   string
	PassengerMiddleName  string
	PassengerLastName    string
	PassengerDateOfBirth *time.Time
	NumberOfPassengers   int
	UseMiles             bool
	EnrollMember         bool
}

// Confirmation is what the caller gets back: the externally visible booking
// number, the price actually charged, and the miles redeemed against it.
type Confirmation struct {
	BookingNumber   string
	TotalPriceCents int64
	MilesUsed       int64
}

type BookingService struct {
	bookings       repository.BookingRepository
	flights        repository.FlightRepository
	members        repository.MemberRepository
	producer       Producer
	topics         Topics
	publishTimeout time.Duration
	log            *zap.Logger
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	members repository.MemberRepository,
	producer Producer,
	topics Topics,
	publishTimeout time.Duration,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:       bookings,
		flights:        flights,
		members:        members,
		producer:       producer,
		topics:         topics,
		publishTimeout: publishTimeout,
		log:            log,
	}
}

// CreateBooking runs the whole reservation flow: capacity check, optional
// member enrollment, optional miles redemption, seat reservation, booking
// insert, notification emit. No partial booking survives a failure: a seat
// race after a miles debit triggers a compensating ledger credit.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*Confirmation, error) {
	if input.FlightID <= 0 {
		return nil, errors.New("flight id is required")
	}
	if input.PassengerFirstName == "" || input.PassengerLastName == "" {
		return nil, errors.New("passenger name is required")
	}
	if input.NumberOfPassengers < 1 {
		return nil, errors.New("number of passengers must be at least 1")
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if flight.AvailableSeats < input.NumberOfPassengers {
		return nil, &repository.InsufficientSeatsError{Available: flight.AvailableSeats}
	}

	member, err := s.resolveMember(ctx, input)
	if err != nil {
		return nil, err
	}

	totalPrice := flight.PriceCents * int64(input.NumberOfPassengers)
	var milesUsed int64
	paidWithMiles := false

	// Redemption: 1 mile covers 1 currency unit, floor-rounded. A short
	// balance is not an error here, the booking falls back to cash.
	if input.UseMiles && member != nil && member.MilesPoints*100 >= totalPrice {
		milesUsed = totalPrice / 100
		_, err := s.members.ApplyTransaction(ctx, member.ID, -milesUsed, domain.TransactionUsed,
			fmt.Sprintf("Used for booking %s", flight.FlightCode), nil)
		switch {
		case err == nil:
			paidWithMiles = true
			totalPrice = 0
		case errors.Is(err, repository.ErrInsufficientMiles):
			// Lost a race with another debit on the same member.
			milesUsed = 0
		default:
			return nil, fmt.Errorf("redeem miles: %w", err)
		}
	}

	if err := s.flights.ReserveSeats(ctx, flight.ID, input.NumberOfPassengers); err != nil {
		if paidWithMiles {
			s.refundMiles(ctx, member.ID, milesUsed, flight.FlightCode)
		}
		return nil, err
	}

	b := &domain.Booking{
		FlightID:             flight.ID,
		SubjectID:            input.SubjectID,
		PassengerFirstName:   input.PassengerFirstName,
		PassengerMiddleName:  input.PassengerMiddleName,
		PassengerLastName:    input.PassengerLastName,
		PassengerDateOfBirth: input.PassengerDateOfBirth,
		NumberOfPassengers:   input.NumberOfPassengers,
		TotalPriceCents:      totalPrice,
		PaidWithMiles:        paidWithMiles,
		MilesUsed:            milesUsed,
		Status:               domain.BookingStatusConfirmed,
	}
	if member != nil {
		b.MemberID = &member.ID
	}

	err = repository.ErrDuplicate
	for attempt := 0; attempt < bookingNumberAttempts && errors.Is(err, repository.ErrDuplicate); attempt++ {
		b.BookingNumber = domain.NewBookingNumber()
		err = s.bookings.Create(ctx, b)
	}
	if err != nil {
		if relErr := s.flights.ReleaseSeats(ctx, flight.ID, input.NumberOfPassengers); relErr != nil {
			s.log.Error("failed to release seats after booking insert failure",
				zap.Int64("flight_id", flight.ID), zap.Error(relErr))
		}
		if paidWithMiles {
			s.refundMiles(ctx, member.ID, milesUsed, flight.FlightCode)
		}
		return nil, fmt.Errorf("persist booking: %w", err)
	}

	s.emit(ctx, s.topics.BookingCreated, b.BookingNumber, kafka.BookingCreatedEvent{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		FlightID:      flight.ID,
		MemberID:      b.MemberID,
	})

	return &Confirmation{
		BookingNumber:   b.BookingNumber,
		TotalPriceCents: totalPrice,
		MilesUsed:       milesUsed,
	}, nil
}

// resolveMember looks up the caller's loyalty account and enrolls one on the
// fly when requested.
func (s *BookingService) resolveMember(ctx context.Context, input CreateBookingInput) (*domain.Member, error) {
	if input.SubjectID == "" {
		return nil, nil
	}

	member, err := s.members.GetBySubject(ctx, input.SubjectID)
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	if !input.EnrollMember {
		return nil, nil
	}

	member = &domain.Member{
		MemberNumber: domain.NewMemberNumber(),
		SubjectID:    input.SubjectID,
		FirstName:    input.PassengerFirstName,
		MiddleName:   input.PassengerMiddleName,
		LastName:     input.PassengerLastName,
		DateOfBirth:  input.PassengerDateOfBirth,
		Email:        input.Email,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("enroll member: %w", err)
	}

	s.emit(ctx, s.topics.NewMember, member.MemberNumber, kafka.NewMemberEvent{
		MemberID:     member.ID,
		MemberNumber: member.MemberNumber,
		Email:        member.Email,
		FirstName:    member.FirstName,
	})
	return member, nil
}

func (s *BookingService) GetByNumber(ctx context.Context, bookingNumber string) (*domain.Booking, error) {
	return s.bookings.GetByNumber(ctx, bookingNumber)
}

func (s *BookingService) ListForSubject(ctx context.Context, subjectID string) ([]domain.Booking, error) {
	return s.bookings.ListBySubject(ctx, subjectID, userBookingsLimit)
}

// CancelBooking releases the reserved seats and reverses any redeemed miles.
// Bookings whose flight has already been completed cannot be cancelled. The
// conditional status flip makes cancellation single-winner: only the request
// that moved confirmed to cancelled runs the release and the refund, so a
// concurrent duplicate can never double-release seats or double-refund miles.
func (s *BookingService) CancelBooking(ctx context.Context, bookingNumber string) (*domain.Booking, error) {
	current, err := s.bookings.GetByNumber(ctx, bookingNumber)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}
	if current.FlightCompleted {
		return nil, errors.New("booking flight already completed")
	}

	updated, err := s.bookings.UpdateStatusFrom(ctx, bookingNumber, domain.BookingStatusConfirmed, domain.BookingStatusCancelled)
	if errors.Is(err, repository.ErrNotFound) {
		// Lost the flip to a concurrent cancellation; the winner handles the
		// release and the refund.
		latest, rerr := s.bookings.GetByNumber(ctx, bookingNumber)
		if rerr != nil {
			return nil, rerr
		}
		if latest.Status == domain.BookingStatusCancelled {
			return latest, nil
		}
		return nil, fmt.Errorf("booking %s is not in a cancellable state", bookingNumber)
	}
	if err != nil {
		return nil, err
	}
	if err := s.flights.ReleaseSeats(ctx, updated.FlightID, updated.NumberOfPassengers); err != nil {
		s.log.Error("failed to release seats for cancelled booking",
			zap.String("booking_number", bookingNumber), zap.Error(err))
	}
	if updated.PaidWithMiles && updated.MemberID != nil {
		if _, err := s.members.ApplyTransaction(ctx, *updated.MemberID, updated.MilesUsed, domain.TransactionUsed,
			fmt.Sprintf("Reversal: booking %s cancelled", bookingNumber), &updated.ID); err != nil {
			s.log.Error("failed to reverse miles for cancelled booking",
				zap.String("booking_number", bookingNumber), zap.Error(err))
		}
	}
	return updated, nil
}

// refundMiles compensates a debit that can no longer be backed by a booking.
// A failure here is a reconciliation gap and is logged loudly.
func (s *BookingService) refundMiles(ctx context.Context, memberID, miles int64, flightCode string) {
	if _, err := s.members.ApplyTransaction(ctx, memberID, miles, domain.TransactionUsed,
		fmt.Sprintf("Reversal: seat reservation failed for %s", flightCode), nil); err != nil {
		s.log.Error("failed to refund miles after aborted booking",
			zap.Int64("member_id", memberID), zap.Int64("miles", miles), zap.Error(err))
	}
}

// emit publishes a notification event. Delivery is best-effort: the booking is
// already committed, so a broker failure is logged and never propagated.
func (s *BookingService) emit(ctx context.Context, topic, key string, payload interface{}) {
	if s.producer == nil || topic == "" {
		return
	}
	publishCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.producer.Publish(publishCtx, topic, key, payload); err != nil {
		s.log.Warn("failed to publish event", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
	}
}

var _ BookingUseCase = (*BookingService)(nil)
