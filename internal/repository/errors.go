package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientSeats = errors.New("not enough seats available")
	ErrInsufficientMiles = errors.New("not enough miles")
	ErrDuplicate         = errors.New("duplicate record")
	ErrAlreadyCredited   = errors.New("booking already credited")
)

// InsufficientSeatsError carries the seats still available so the caller can
// tell the client what is left. Unwraps to ErrInsufficientSeats.
type InsufficientSeatsError struct {
	Available int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("not enough seats available: %d left", e.Available)
}

func (e *InsufficientSeatsError) Unwrap() error { return ErrInsufficientSeats }

// InsufficientMilesError carries the member's current balance. Unwraps to
// ErrInsufficientMiles.
type InsufficientMilesError struct {
	Balance int64
}

func (e *InsufficientMilesError) Error() string {
	return fmt.Sprintf("not enough miles: balance is %d", e.Balance)
}

func (e *InsufficientMilesError) Unwrap() error { return ErrInsufficientMiles }
