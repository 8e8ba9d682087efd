package notification

import (
	"context"
	"encoding/json"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/yasarair/flightcore/internal/email"
	"github.com/yasarair/flightcore/internal/kafka"
	"github.com/yasarair/flightcore/internal/repository"
	"go.uber.org/zap"
)

// Dispatcher turns notification events into emails. Events arrive at least
// once and carry identifiers only; each handler re-reads current state, and a
// lookup miss or send failure is logged and the event dropped. A duplicate
// event at worst repeats an informational email.
type Dispatcher struct {
	bookings repository.BookingRepository
	flights  repository.FlightRepository
	members  repository.MemberRepository
	sender   email.Sender
	log      *zap.Logger
}

func NewDispatcher(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	members repository.MemberRepository,
	sender email.Sender,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{bookings: bookings, flights: flights, members: members, sender: sender, log: log}
}

func (d *Dispatcher) HandleNewMember(ctx context.Context, msg kafkaGo.Message) error {
	var event kafka.NewMemberEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		d.log.Error("failed to decode new member event", zap.Error(err))
		return nil
	}

	body := email.WelcomeBody(event.FirstName, event.MemberNumber)
	if err := d.sender.Send(ctx, event.Email, "Welcome to Miles&Smiles!", body); err != nil {
		d.log.Error("failed to send welcome email", zap.String("member_number", event.MemberNumber), zap.Error(err))
		return nil
	}
	d.log.Info("welcome email sent", zap.String("member_number", event.MemberNumber))
	return nil
}

func (d *Dispatcher) HandleBookingCreated(ctx context.Context, msg kafkaGo.Message) error {
	var event kafka.BookingCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		d.log.Error("failed to decode booking created event", zap.Error(err))
		return nil
	}

	booking, err := d.bookings.GetByNumber(ctx, event.BookingNumber)
	if err != nil {
		d.log.Warn("booking lookup failed, dropping event", zap.String("booking_number", event.BookingNumber), zap.Error(err))
		return nil
	}
	if booking.MemberID == nil {
		// Guest bookings have no address on file.
		return nil
	}
	member, err := d.members.GetByID(ctx, *booking.MemberID)
	if err != nil {
		d.log.Warn("member lookup failed, dropping event", zap.Int64("member_id", *booking.MemberID), zap.Error(err))
		return nil
	}
	flight, err := d.flights.GetByID(ctx, booking.FlightID)
	if err != nil {
		d.log.Warn("flight lookup failed, dropping event", zap.Int64("flight_id", booking.FlightID), zap.Error(err))
		return nil
	}

	body := email.BookingConfirmationBody(booking.PassengerFirstName, booking.BookingNumber,
		flight.FlightCode, flight.FromCity, flight.ToCity, flight.FlightDate,
		booking.NumberOfPassengers, booking.TotalPriceCents)
	if err := d.sender.Send(ctx, member.Email, "Booking Confirmation", body); err != nil {
		d.log.Error("failed to send booking confirmation", zap.String("booking_number", booking.BookingNumber), zap.Error(err))
		return nil
	}
	d.log.Info("booking confirmation sent", zap.String("booking_number", booking.BookingNumber))
	return nil
}

func (d *Dispatcher) HandleMilesAdded(ctx context.Context, msg kafkaGo.Message) error {
	var event kafka.MilesAddedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		d.log.Error("failed to decode miles added event", zap.Error(err))
		return nil
	}

	member, err := d.members.GetByID(ctx, event.MemberID)
	if err != nil {
		d.log.Warn("member lookup failed, dropping event", zap.Int64("member_id", event.MemberID), zap.Error(err))
		return nil
	}

	body := email.MilesAddedBody(member.FirstName, event.MilesAdded, event.TotalMiles)
	if err := d.sender.Send(ctx, member.Email, "Miles Added to Your Account", body); err != nil {
		d.log.Error("failed to send miles added email", zap.Int64("member_id", member.ID), zap.Error(err))
		return nil
	}
	d.log.Info("miles added email sent", zap.Int64("member_id", member.ID))
	return nil
}
