package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID                   int64
	BookingNumber        string
	FlightID             int64
	MemberID             *int64
	SubjectID            string
	PassengerFirstName   string
	PassengerMiddleName  string
	PassengerLastName    string
	PassengerDateOfBirth *time.Time
	NumberOfPassengers   int
	TotalPriceCents      int64
	PaidWithMiles        bool
	MilesUsed            int64
	Status               BookingStatus
	FlightCompleted      bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
