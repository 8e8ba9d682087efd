package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yasarair/flightcore/internal/domain"
)

type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetBySubject(ctx context.Context, subjectID string) (*domain.Member, error)
	GetByNumber(ctx context.Context, memberNumber string) (*domain.Member, error)
	GetByID(ctx context.Context, id int64) (*domain.Member, error)
	ApplyTransaction(ctx context.Context, memberID, miles int64, kind domain.TransactionType, description string, bookingID *int64) (int64, error)
	ListTransactions(ctx context.Context, memberID int64, limit int) ([]domain.MilesTransaction, error)
}

type PGMemberRepository struct {
	db *pgxpool.Pool
}

func NewMemberRepository(db *pgxpool.Pool) MemberRepository {
	return &PGMemberRepository{db: db}
}

const memberColumns = `id, member_number, subject_id, first_name, middle_name, last_name, date_of_birth, email, miles_points, is_active, created_at, updated_at`

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	if err := row.Scan(&m.ID, &m.MemberNumber, &m.SubjectID, &m.FirstName, &m.MiddleName, &m.LastName, &m.DateOfBirth, &m.Email, &m.MilesPoints, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PGMemberRepository) Create(ctx context.Context, member *domain.Member) error {
	err := r.db.QueryRow(ctx, `INSERT INTO members (member_number, subject_id, first_name, middle_name, last_name, date_of_birth, email, miles_points, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, true)
		RETURNING id, miles_points, is_active, created_at, updated_at`,
		member.MemberNumber, member.SubjectID, member.FirstName, member.MiddleName, member.LastName, member.DateOfBirth, member.Email).
		Scan(&member.ID, &member.MilesPoints, &member.IsActive, &member.CreatedAt, &member.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PGMemberRepository) GetBySubject(ctx context.Context, subjectID string) (*domain.Member, error) {
	return scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE subject_id=$1`, subjectID))
}

func (r *PGMemberRepository) GetByNumber(ctx context.Context, memberNumber string) (*domain.Member, error) {
	return scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE member_number=$1`, memberNumber))
}

func (r *PGMemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	return scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id=$1`, id))
}

// ApplyTransaction updates the balance and appends the ledger entry in one
// transaction. The conditional update serializes concurrent debits against the
// same member and rejects any delta that would drive the balance negative.
func (r *PGMemberRepository) ApplyTransaction(ctx context.Context, memberID, miles int64, kind domain.TransactionType, description string, bookingID *int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var newBalance int64
	err = tx.QueryRow(ctx, `UPDATE members SET miles_points = miles_points + $2, updated_at = now() WHERE id=$1 AND miles_points + $2 >= 0 RETURNING miles_points`, memberID, miles).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		var balance int64
		if err := r.db.QueryRow(ctx, `SELECT miles_points FROM members WHERE id=$1`, memberID).Scan(&balance); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrNotFound
			}
			return 0, err
		}
		return 0, &InsufficientMilesError{Balance: balance}
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO miles_transactions (member_id, booking_id, miles, transaction_type, description) VALUES ($1, $2, $3, $4, $5)`,
		memberID, bookingID, miles, kind, description); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (r *PGMemberRepository) ListTransactions(ctx context.Context, memberID int64, limit int) ([]domain.MilesTransaction, error) {
	rows, err := r.db.Query(ctx, `SELECT id, member_id, booking_id, miles, transaction_type, description, created_at FROM miles_transactions WHERE member_id=$1 ORDER BY created_at DESC LIMIT $2`, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.MilesTransaction, 0)
	for rows.Next() {
		var t domain.MilesTransaction
		if err := rows.Scan(&t.ID, &t.MemberID, &t.BookingID, &t.Miles, &t.Type, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

var _ MemberRepository = (*PGMemberRepository)(nil)
