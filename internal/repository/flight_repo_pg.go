package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yasarair/flightcore/internal/domain"
)

type FlightSearch struct {
	FromCity   string
	ToCity     string
	Date       time.Time
	Passengers int
	DirectOnly bool
	Flexible   bool
}

type FlightRepository interface {
	Search(ctx context.Context, q FlightSearch) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	ListPaged(ctx context.Context, limit, offset int) ([]domain.Flight, int64, error)
	ListCities(ctx context.Context) ([]string, error)
	ListDestinations(ctx context.Context) ([]string, error)
	ReserveSeats(ctx context.Context, flightID int64, count int) error
	ReleaseSeats(ctx context.Context, flightID int64, count int) error
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, flight_code, from_city, to_city, flight_date, duration_minutes, capacity, available_seats, price_cents, is_direct, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightCode, &f.FromCity, &f.ToCity, &f.FlightDate, &f.DurationMinutes, &f.Capacity, &f.AvailableSeats, &f.PriceCents, &f.IsDirect, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) Search(ctx context.Context, q FlightSearch) ([]domain.Flight, error) {
	// Flexible search widens the window to +/- 3 days around the requested date.
	start := q.Date.Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	if q.Flexible {
		start = start.AddDate(0, 0, -3)
		end = end.AddDate(0, 0, 3)
	}

	query := `SELECT ` + flightColumns + ` FROM flights
		WHERE from_city=$1 AND to_city=$2
		AND flight_date >= $3 AND flight_date < $4
		AND available_seats >= $5`
	args := []interface{}{q.FromCity, q.ToCity, start, end, q.Passengers}
	if q.DirectOnly {
		query += ` AND is_direct`
	}
	query += ` ORDER BY price_cents LIMIT 50`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.FlightCode, &f.FromCity, &f.ToCity, &f.FlightDate, &f.DurationMinutes, &f.Capacity, &f.AvailableSeats, &f.PriceCents, &f.IsDirect, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	return scanFlight(row)
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	err := r.db.QueryRow(ctx, `INSERT INTO flights (flight_code, from_city, to_city, flight_date, duration_minutes, capacity, available_seats, price_cents, is_direct)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		flight.FlightCode, flight.FromCity, flight.ToCity, flight.FlightDate, flight.DurationMinutes, flight.Capacity, flight.AvailableSeats, flight.PriceCents, flight.IsDirect).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PGFlightRepository) ListPaged(ctx context.Context, limit, offset int) ([]domain.Flight, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM flights`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY flight_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0, limit)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.FlightCode, &f.FromCity, &f.ToCity, &f.FlightDate, &f.DurationMinutes, &f.Capacity, &f.AvailableSeats, &f.PriceCents, &f.IsDirect, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, 0, err
		}
		flights = append(flights, f)
	}
	return flights, total, rows.Err()
}

func (r *PGFlightRepository) ListCities(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT from_city FROM flights UNION SELECT to_city FROM flights ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cities := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

func (r *PGFlightRepository) ListDestinations(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT to_city FROM flights ORDER BY to_city`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	destinations := make([]string, 0)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		destinations = append(destinations, d)
	}
	return destinations, rows.Err()
}

// ReserveSeats decrements the seat counter in a single conditional update so
// concurrent reservations on the same flight cannot oversell.
func (r *PGFlightRepository) ReserveSeats(ctx context.Context, flightID int64, count int) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET available_seats = available_seats - $2, updated_at = now() WHERE id=$1 AND available_seats >= $2`, flightID, count)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		var available int
		if err := r.db.QueryRow(ctx, `SELECT available_seats FROM flights WHERE id=$1`, flightID).Scan(&available); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return &InsufficientSeatsError{Available: available}
	}
	return nil
}

func (r *PGFlightRepository) ReleaseSeats(ctx context.Context, flightID int64, count int) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET available_seats = LEAST(available_seats + $2, capacity), updated_at = now() WHERE id=$1`, flightID, count)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ FlightRepository = (*PGFlightRepository)(nil)
