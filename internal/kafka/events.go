package kafka

// Event payloads carry identifiers only; the notification dispatcher looks up
// current state before sending anything.

type NewMemberEvent struct {
	MemberID     int64  `json:"member_id"`
	MemberNumber string `json:"member_number"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
}

type BookingCreatedEvent struct {
	BookingID     int64  `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
	FlightID      int64  `json:"flight_id"`
	MemberID      *int64 `json:"member_id,omitempty"`
}

type MilesAddedEvent struct {
	MemberID   int64 `json:"member_id"`
	MilesAdded int64 `json:"miles_added"`
	TotalMiles int64 `json:"total_miles"`
}
