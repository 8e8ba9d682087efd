package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yasarair/flightcore/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByNumber(ctx context.Context, bookingNumber string) (*domain.Booking, error)
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.Booking, error)
	UpdateStatusFrom(ctx context.Context, bookingNumber string, from, to domain.BookingStatus) (*domain.Booking, error)
	ListUncredited(ctx context.Context, flightsBefore time.Time) ([]domain.Booking, error)
	CreditCompleted(ctx context.Context, bookingID, memberID, miles int64, description string) (int64, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, booking_number, flight_id, member_id, subject_id, passenger_first_name, passenger_middle_name, passenger_last_name, passenger_date_of_birth, number_of_passengers, total_price_cents, paid_with_miles, miles_used, status, flight_completed, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.BookingNumber, &b.FlightID, &b.MemberID, &b.SubjectID, &b.PassengerFirstName, &b.PassengerMiddleName, &b.PassengerLastName, &b.PassengerDateOfBirth, &b.NumberOfPassengers, &b.TotalPriceCents, &b.PaidWithMiles, &b.MilesUsed, &b.Status, &b.FlightCompleted, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (booking_number, flight_id, member_id, subject_id, passenger_first_name, passenger_middle_name, passenger_last_name, passenger_date_of_birth, number_of_passengers, total_price_cents, paid_with_miles, miles_used, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		booking.BookingNumber, booking.FlightID, booking.MemberID, booking.SubjectID,
		booking.PassengerFirstName, booking.PassengerMiddleName, booking.PassengerLastName, booking.PassengerDateOfBirth,
		booking.NumberOfPassengers, booking.TotalPriceCents, booking.PaidWithMiles, booking.MilesUsed, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PGBookingRepository) GetByNumber(ctx context.Context, bookingNumber string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_number=$1`, bookingNumber))
}

func (r *PGBookingRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE subject_id=$1 ORDER BY created_at DESC LIMIT $2`, subjectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.BookingNumber, &b.FlightID, &b.MemberID, &b.SubjectID, &b.PassengerFirstName, &b.PassengerMiddleName, &b.PassengerLastName, &b.PassengerDateOfBirth, &b.NumberOfPassengers, &b.TotalPriceCents, &b.PaidWithMiles, &b.MilesUsed, &b.Status, &b.FlightCompleted, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateStatusFrom flips the status only when the booking is still in the
// expected state, so concurrent transitions on the same booking cannot both
// win. Zero rows reports ErrNotFound; the caller re-reads to tell a missing
// booking from a lost race.
func (r *PGBookingRepository) UpdateStatusFrom(ctx context.Context, bookingNumber string, from, to domain.BookingStatus) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE booking_number=$2 AND status=$3 RETURNING `+bookingColumns, to, bookingNumber, from))
}

// ListUncredited returns confirmed member bookings whose flight has departed
// and which have not yet been credited by the accrual sweep.
func (r *PGBookingRepository) ListUncredited(ctx context.Context, flightsBefore time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.booking_number, b.flight_id, b.member_id, b.subject_id, b.passenger_first_name, b.passenger_middle_name, b.passenger_last_name, b.passenger_date_of_birth, b.number_of_passengers, b.total_price_cents, b.paid_with_miles, b.miles_used, b.status, b.flight_completed, b.created_at, b.updated_at
		FROM bookings b
		JOIN flights f ON f.id = b.flight_id
		WHERE b.status = $1 AND NOT b.flight_completed AND b.member_id IS NOT NULL AND f.flight_date < $2
		ORDER BY b.id`, domain.BookingStatusConfirmed, flightsBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.BookingNumber, &b.FlightID, &b.MemberID, &b.SubjectID, &b.PassengerFirstName, &b.PassengerMiddleName, &b.PassengerLastName, &b.PassengerDateOfBirth, &b.NumberOfPassengers, &b.TotalPriceCents, &b.PaidWithMiles, &b.MilesUsed, &b.Status, &b.FlightCompleted, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CreditCompleted credits earned miles for a completed flight. The flag flip,
// balance update and ledger insert commit as one transaction; the
// flight_completed guard makes a repeated run a no-op (ErrAlreadyCredited),
// so a booking can never be credited twice.
func (r *PGBookingRepository) CreditCompleted(ctx context.Context, bookingID, memberID, miles int64, description string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `UPDATE bookings SET flight_completed = true, updated_at = now() WHERE id=$1 AND NOT flight_completed`, bookingID)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected() == 0 {
		return 0, ErrAlreadyCredited
	}

	var newBalance int64
	if err := tx.QueryRow(ctx, `UPDATE members SET miles_points = miles_points + $2, updated_at = now() WHERE id=$1 RETURNING miles_points`, memberID, miles).Scan(&newBalance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO miles_transactions (member_id, booking_id, miles, transaction_type, description) VALUES ($1, $2, $3, $4, $5)`,
		memberID, bookingID, miles, domain.TransactionEarned, description); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
