package flights

import (
	"context"

	"github.com/yasarair/flightcore/internal/cache"
	"github.com/yasarair/flightcore/internal/domain"
	"github.com/yasarair/flightcore/internal/repository"
	"go.uber.org/zap"
)

type FlightUseCase interface {
	Search(ctx context.Context, q repository.FlightSearch) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Airports(ctx context.Context) ([]string, error)
	Destinations(ctx context.Context) ([]string, error)
}

type Cache interface {
	GetCities(ctx context.Context, key string) ([]string, error)
	SetCities(ctx context.Context, key string, cities []string) error
}

// fallbackAirports is served when both cache and database come up empty.
var fallbackAirports = []string{
	"Istanbul", "Ankara", "Izmir", "Antalya", "Bodrum",
	"London", "Paris", "Dubai", "Delhi", "Mumbai",
	"New York", "Tokyo", "Berlin", "Rome", "Madrid",
}

type FlightService struct {
	repo  repository.FlightRepository
	cache Cache
	log   *zap.Logger
}

func NewFlightService(repo repository.FlightRepository, cache Cache, log *zap.Logger) *FlightService {
	return &FlightService{repo: repo, cache: cache, log: log}
}

func (s *FlightService) Search(ctx context.Context, q repository.FlightSearch) ([]domain.Flight, error) {
	if q.Passengers < 1 {
		q.Passengers = 1
	}
	return s.repo.Search(ctx, q)
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) Airports(ctx context.Context) ([]string, error) {
	cities, err := s.cachedCities(ctx, cache.KeyAirports, s.repo.ListCities)
	if err != nil {
		return nil, err
	}
	if len(cities) == 0 {
		return fallbackAirports, nil
	}
	return cities, nil
}

func (s *FlightService) Destinations(ctx context.Context) ([]string, error) {
	return s.cachedCities(ctx, cache.KeyDestinations, s.repo.ListDestinations)
}

// cachedCities reads through the cache. Cache errors degrade to the database;
// the write-back after a miss is best-effort.
func (s *FlightService) cachedCities(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCities(ctx, key); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.log.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	cities, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(cities) > 0 {
		if err := s.cache.SetCities(ctx, key, cities); err != nil {
			s.log.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return cities, nil
}

var _ FlightUseCase = (*FlightService)(nil)
