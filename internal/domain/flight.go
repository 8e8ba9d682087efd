package domain

import "time"

type Flight struct {
	ID              int64
	FlightCode      string
	FromCity        string
	ToCity          string
	FlightDate      time.Time
	DurationMinutes int
	Capacity        int
	AvailableSeats  int
	PriceCents      int64
	IsDirect        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
