package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/yasarair/flightcore/internal/domain"
	"github.com/yasarair/flightcore/internal/pricing"
	"github.com/yasarair/flightcore/internal/repository"
	"go.uber.org/zap"
)

type AdminUseCase interface {
	SaveFlight(ctx context.Context, input SaveFlightInput) (*domain.Flight, error)
	ListFlights(ctx context.Context, page, limit int) ([]domain.Flight, int64, error)
	PredictPrice(ctx context.Context, fromCity, toCity string, durationMinutes int, flightDate time.Time) int64
}

type SaveFlightInput struct {
	FlightCode      string
	FromCity        string
	ToCity          string
	FlightDate      time.Time
	DurationMinutes int
	Capacity        int
	PriceCents      int64
	IsDirect        bool
}

type AdminService struct {
	flights   repository.FlightRepository
	predictor pricing.Predictor
	log       *zap.Logger
}

func NewAdminService(flights repository.FlightRepository, predictor pricing.Predictor, log *zap.Logger) *AdminService {
	return &AdminService{flights: flights, predictor: predictor, log: log}
}

func (s *AdminService) SaveFlight(ctx context.Context, input SaveFlightInput) (*domain.Flight, error) {
	if input.FlightCode == "" || input.FromCity == "" || input.ToCity == "" {
		return nil, fmt.Errorf("flight code and route are required")
	}
	if input.Capacity < 1 {
		return nil, fmt.Errorf("capacity must be at least 1")
	}
	if input.PriceCents < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}

	flight := &domain.Flight{
		FlightCode:      input.FlightCode,
		FromCity:        input.FromCity,
		ToCity:          input.ToCity,
		FlightDate:      input.FlightDate,
		DurationMinutes: input.DurationMinutes,
		Capacity:        input.Capacity,
		AvailableSeats:  input.Capacity,
		PriceCents:      input.PriceCents,
		IsDirect:        input.IsDirect,
	}
	if err := s.flights.Create(ctx, flight); err != nil {
		return nil, err
	}
	s.log.Info("flight created", zap.String("flight_code", flight.FlightCode), zap.Int64("flight_id", flight.ID))
	return flight, nil
}

func (s *AdminService) ListFlights(ctx context.Context, page, limit int) ([]domain.Flight, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.flights.ListPaged(ctx, limit, (page-1)*limit)
}

func (s *AdminService) PredictPrice(_ context.Context, fromCity, toCity string, durationMinutes int, flightDate time.Time) int64 {
	return s.predictor.Predict(fromCity, toCity, durationMinutes, flightDate)
}

var _ AdminUseCase = (*AdminService)(nil)
