package domain

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Booking and member numbers are the externally visible identifiers: a short
// prefix, a time-based body and a random suffix. Uniqueness is ultimately
// enforced by the database; callers retry with a fresh number on collision.

func NewBookingNumber() string {
	u := uuid.New()
	suffix := binary.BigEndian.Uint32(u[:4]) % 100
	return fmt.Sprintf("BK%010d%02d", time.Now().UnixMilli()%1e10, suffix)
}

func NewMemberNumber() string {
	u := uuid.New()
	suffix := binary.BigEndian.Uint32(u[:4]) % 1000
	return fmt.Sprintf("MS%08d%03d", time.Now().UnixMilli()%1e8, suffix)
}
