package domain

import "time"

type TransactionType string

const (
	TransactionEarned   TransactionType = "earned"
	TransactionUsed     TransactionType = "used"
	TransactionExternal TransactionType = "external"
)

type Member struct {
	ID           int64
	MemberNumber string
	SubjectID    string
	FirstName    string
	MiddleName   string
	LastName     string
	DateOfBirth  *time.Time
	Email        string
	MilesPoints  int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MilesTransaction is an immutable ledger entry. The sum of a member's
// entries always equals the member's current MilesPoints.
type MilesTransaction struct {
	ID          int64
	MemberID    int64
	BookingID   *int64
	Miles       int64
	Type        TransactionType
	Description string
	CreatedAt   time.Time
}
