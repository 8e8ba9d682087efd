package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/yasarair/flightcore/internal/domain"
	"github.com/yasarair/flightcore/internal/repository"
	"go.uber.org/zap"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByNumber(ctx context.Context, bookingNumber string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.Booking, error) {
	args := m.Called(ctx, subjectID, limit)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatusFrom(ctx context.Context, bookingNumber string, from, to domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, bookingNumber, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListUncredited(ctx context.Context, flightsBefore time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, flightsBefore)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) CreditCompleted(ctx context.Context, bookingID, memberID, miles int64, description string) (int64, error) {
	args := m.Called(ctx, bookingID, memberID, miles, description)
	return args.Get(0).(int64), args.Error(1)
}

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Search(ctx context.Context, q repository.FlightSearch) ([]domain.Flight, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) ListPaged(ctx context.Context, limit, offset int) ([]domain.Flight, int64, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.Flight), args.Get(1).(int64), args.Error(2)
}

func (m *MockFlightRepository) ListCities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFlightRepository) ListDestinations(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFlightRepository) ReserveSeats(ctx context.Context, flightID int64, count int) error {
	args := m.Called(ctx, flightID, count)
	return args.Error(0)
}

func (m *MockFlightRepository) ReleaseSeats(ctx context.Context, flightID int64, count int) error {
	args := m.Called(ctx, flightID, count)
	return args.Error(0)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) GetBySubject(ctx context.Context, subjectID string) (*domain.Member, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) GetByNumber(ctx context.Context, memberNumber string) (*domain.Member, error) {
	args := m.Called(ctx, memberNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) ApplyTransaction(ctx context.Context, memberID, miles int64, kind domain.TransactionType, description string, bookingID *int64) (int64, error) {
	args := m.Called(ctx, memberID, miles, kind, description, bookingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberRepository) ListTransactions(ctx context.Context, memberID int64, limit int) ([]domain.MilesTransaction, error) {
	args := m.Called(ctx, memberID, limit)
	return args.Get(0).([]domain.MilesTransaction), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func newTestService(bookings *MockBookingRepository, flights *MockFlightRepository, members *MockMemberRepository, producer *MockProducer) *BookingService {
	return NewBookingService(bookings, flights, members, producer, Topics{
		NewMember:      "new_member",
		BookingCreated: "booking_created",
		MilesAdded:     "miles_added",
	}, time.Second, zap.NewNop())
}

func testFlight() *domain.Flight {
	return &domain.Flight{
		ID:             4,
		FlightCode:     "YA101",
		FromCity:       "Istanbul",
		ToCity:         "Ankara",
		FlightDate:     time.Now().Add(48 * time.Hour),
		Capacity:       180,
		AvailableSeats: 10,
		PriceCents:     50000,
	}
}

func TestBookingService_CreateBooking_CashSuccess(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockFlights, mockMembers, mockProducer)

	ctx := context.Background()
	mockFlights.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockFlights.On("ReserveSeats", ctx, int64(4), 2).Return(nil).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking_created", mock.Anything, mock.Anything).Return(nil).Once()

	confirmation, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:           4,
		PassengerFirstName: "Ada",
		PassengerLastName:  "Yilmaz",
		NumberOfPassengers: 2,
	})

	assert.NoError(t, err)
	assert.NotNil(t, confirmation)
	assert.Equal(t, int64(100000), confirmation.TotalPriceCents)
	assert.Equal(t, int64(0), confirmation.MilesUsed)
	assert.NotEmpty(t, confirmation.BookingNumber)

	mockFlights.AssertExpectations(t)
	mockBookings.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
	mockMembers.AssertNotCalled(t, "ApplyTransaction")
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	service := newTestService(&MockBookingRepository{}, &MockFlightRepository{}, &MockMemberRepository{}, &MockProducer{})
	ctx := context.Background()

	testCases := []struct {
		name        string
		input       CreateBookingInput
		expectedErr string
	}{
		{
			name:        "missing flight",
			input:       CreateBookingInput{PassengerFirstName: "Ada", PassengerLastName: "Yilmaz", NumberOfPassengers: 1},
			expectedErr: "flight id is required",
		},
		{
			name:        "missing name",
			input:       CreateBookingInput{FlightID: 4, NumberOfPassengers: 1},
			expectedErr: "passenger name is required",
		},
		{
			name:        "zero passengers",
			input:       CreateBookingInput{FlightID: 4, PassengerFirstName: "Ada", PassengerLastName: "Yilmaz"},
			expectedErr: "number of passengers must be at least 1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			confirmation, err := service.CreateBooking(ctx, tc.input)
			assert.Error(t, err)
			assert.Nil(t, confirmation)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestBookingService_CreateBooking_FlightNotFound(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	service := newTestService(mockBookings, mockFlights, mockMembers, &MockProducer{})

	ctx := context.Background()
	mockFlights.On("GetByID", ctx, int64(99)).Return(nil, repository.ErrNotFound).Once()

	confirmation, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:           99,
		PassengerFirstName: "Ada",
		PassengerLastName:  "Yilmaz",
		NumberOfPassengers: 1,
	})

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, confirmation)
	mockFlights.AssertExpectations(t)
}

func TestBookingService_CreateBooking_InsufficientCapacity_NoSideEffects(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	service := newTestService(mockBookings, mockFlights, mockMembers, &MockProducer{})

	ctx := context.Background()
	flight := testFlight()
	flight.AvailableSeats = 1
	mockFlights.On("GetByID", ctx, int64(4)).Return(flight, nil).Once()

	confirmation, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:           4,
		PassengerFirstName: "Ada",
		PassengerLastName:  "Yilmaz",
		NumberOfPassengers: 3,
	})

	assert.ErrorIs(t, err, repository.ErrInsufficientSeats)
	assert.Nil(t, confirmation)

	var seatsErr *repository.InsufficientSeatsError
	assert.ErrorAs(t, err, &seatsErr)
	assert.Equal(t, 1, seatsErr.Available)

	mockFlights.AssertNotCalled(t, "ReserveSeats")
	mockMembers.AssertNotCalled(t, "ApplyTransaction")
	mockBookings.AssertNotCalled(t, "Create")
}

func TestBookingService_CreateBooking_WithMiles(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockFlights, mockMembers, mockProducer)

	ctx := context.Background()
	member := &domain.Member{ID: 7, MemberNumber: "MS00000001001", SubjectID: "sub-7", MilesPoints: 600}

	mockFlights.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockMembers.On("GetBySubject", ctx, "sub-7").Return(member, nil).Once()
	mockMembers.On("ApplyTransaction", ctx, int64(7), int64(-500), domain.TransactionUsed, mock.Anything, (*int64)(nil)).
		Return(int64(100), nil).Once()
	mockFlights.On("ReserveSeats", ctx, int64(4), 1).Return(nil).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking_created", mock.Anything, mock.Anything).Return(nil).Once()

	confirmation, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:           4,
		SubjectID:          "sub-7",
		PassengerFirstName: "Ada",
		PassengerLastName:  "Yilmaz",
		NumberOfPassengers: 1,
		UseMiles:           true,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(0), confirmation.TotalPriceCents)
	assert.Equal(t, int64(500), confirmation.MilesUsed)

	mockMembers.AssertExpectations(t)
	mockFlights.AssertExpectations(t)
}

func TestBookingService_CreateBooking_InsufficientMilesFallsBackToCash(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockFlights, mockMembers, mockProducer)

	ctx := context.Background()
	member := &domain.Member{ID: 7, SubjectID: "sub-7", MilesPoints: 100}

	mockFlights.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockMembers.On("GetBySubject", ctx, "sub-7").Return(member, nil).Once()
	mockFlights.On("ReserveSeats", ctx, int64(4), 1).Return(nil).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking_created", mock.Anything, mock.Anything).Return(nil).Once()

	confirmation, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:           4,
		SubjectID:          "sub-7",
		PassengerFirstName: "Ada",
		PassengerLastName:  "Yilmaz",
		NumberOfPassengers: 1,
		UseMiles:           true,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(50000), confirmation.TotalPriceCents)
	assert.Equal(t, int64(0), confirmation.MilesUsed)
	mockMembers.AssertNotCalled(t, "ApplyTransaction")
}

// A booking that redeems miles and then loses the seat race must leave the
// member's balance unchanged.
func TestBookingService_CreateBooking_SeatRaceCompensatesMiles(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	service := newTestService(mockBookings, mockFlights, mockMembers, &MockProducer{})

	ctx := context.Background()
	member := &domain.Member{ID: 7, SubjectID: "sub-7", MilesPoints: 500}

	mockFlights.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockMembers.On("GetBySubject", ctx, "sub-7").Return(member, nil).Once()
	mockMembers.On("ApplyTransaction", ctx, int64(7), int64(-500), domain.TransactionUsed, mock.Anything, (*int64)(nil)).
		Return(int64(0), nil).Once()
	mockFlights.On("ReserveSeats", ctx, int64(4), 1).Return(repository.ErrInsufficientSeats).Once()
	mockMembers.On("ApplyTransaction", ctx, int64(7), int64(500), domain.TransactionUsed, mock.Anything, (*int64)(nil)).
		Return(int64(500), nil).Once()

	confirmation, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:           4,
		SubjectID:          "sub-7",
		PassengerFirstName: "Ada",
		PassengerLastName:  "Yilmaz",
		NumberOfPassengers: 1,
		UseMiles:           true,
	})

	assert.ErrorIs(t, err, repository.ErrInsufficientSeats)
	assert.Nil(t, confirmation)
	mockMembers.AssertExpectations(t)
	mockBookings.AssertNotCalled(t, "Create")
}

func TestBookingService_CreateBooking_NumberCollisionRetries(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockFlights, mockMembers, mockProducer)

	ctx := context.Background()
	mockFlights.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockFlights.On("ReserveSeats", ctx, int64(4), 1).Return(nil).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(repository.ErrDuplicate).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking_created", mock.Anything, mock.Anything).Return(nil).Once()

	confirmation, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:           4,
		PassengerFirstName: "Ada",
		PassengerLastName:  "Yilmaz",
		NumberOfPassengers: 1,
	})

	assert.NoError(t, err)
	assert.NotNil(t, confirmation)
	mockBookings.AssertExpectations(t)
}

func TestBookingService_CreateBooking_PersistFailureReleasesSeatsAndMiles(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	service := newTestService(mockBookings, mockFlights, mockMembers, &MockProducer{})

	ctx := context.Background()
	member := &domain.Member{ID: 7, SubjectID: "sub-7", MilesPoints: 500}
	dbErr := errors.New("connection reset")

	mockFlights.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockMembers.On("GetBySubject", ctx, "sub-7").Return(member, nil).Once()
	mockMembers.On("ApplyTransaction", ctx, int64(7), int64(-500), domain.TransactionUsed, mock.Anything, (*int64)(nil)).
		Return(int64(0), nil).Once()
	mockFlights.On("ReserveSeats", ctx, int64(4), 1).Return(nil).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(dbErr).Once()
	mockFlights.On("ReleaseSeats", ctx, int64(4), 1).Return(nil).Once()
	mockMembers.On("ApplyTransaction", ctx, int64(7), int64(500), domain.TransactionUsed, mock.Anything, (*int64)(nil)).
		Return(int64(500), nil).Once()

	confirmation, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:           4,
		SubjectID:          "sub-7",
		PassengerFirstName: "Ada",
		PassengerLastName:  "Yilmaz",
		NumberOfPassengers: 1,
		UseMiles:           true,
	})

	assert.Error(t, err)
	assert.Nil(t, confirmation)
	mockFlights.AssertExpectations(t)
	mockMembers.AssertExpectations(t)
}

func TestBookingService_CreateBooking_PublishFailureDoesNotFailBooking(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockFlights, mockMembers, mockProducer)

	ctx := context.Background()
	mockFlights.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockFlights.On("ReserveSeats", ctx, int64(4), 1).Return(nil).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking_created", mock.Anything, mock.Anything).
		Return(errors.New("broker unavailable")).Once()

	confirmation, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:           4,
		PassengerFirstName: "Ada",
		PassengerLastName:  "Yilmaz",
		NumberOfPassengers: 1,
	})

	assert.NoError(t, err)
	assert.NotNil(t, confirmation)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_EnrollsNewMember(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockFlights, mockMembers, mockProducer)

	ctx := context.Background()
	mockFlights.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockMembers.On("GetBySubject", ctx, "sub-new").Return(nil, repository.ErrNotFound).Once()
	mockMembers.On("Create", ctx, mock.AnythingOfType("*domain.Member")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Member).ID = 42
	}).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "new_member", mock.Anything, mock.Anything).Return(nil).Once()
	mockFlights.On("ReserveSeats", ctx, int64(4), 1).Return(nil).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Run(func(args mock.Arguments) {
		b := args.Get(1).(*domain.Booking)
		assert.NotNil(t, b.MemberID)
		assert.Equal(t, int64(42), *b.MemberID)
	}).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking_created", mock.Anything, mock.Anything).Return(nil).Once()

	confirmation, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:           4,
		SubjectID:          "sub-new",
		Email:              "ada@example.com",
		PassengerFirstName: "Ada",
		PassengerLastName:  "Yilmaz",
		NumberOfPassengers: 1,
		EnrollMember:       true,
	})

	assert.NoError(t, err)
	assert.NotNil(t, confirmation)
	mockMembers.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CancelBooking_ReleasesSeatsAndReversesMiles(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	service := newTestService(mockBookings, mockFlights, mockMembers, &MockProducer{})

	ctx := context.Background()
	memberID := int64(7)
	current := &domain.Booking{
		ID:                 11,
		BookingNumber:      "BK000000000101",
		FlightID:           4,
		MemberID:           &memberID,
		NumberOfPassengers: 2,
		PaidWithMiles:      true,
		MilesUsed:          500,
		Status:             domain.BookingStatusConfirmed,
	}
	cancelled := *current
	cancelled.Status = domain.BookingStatusCancelled

	mockBookings.On("GetByNumber", ctx, "BK000000000101").Return(current, nil).Once()
	mockBookings.On("UpdateStatusFrom", ctx, "BK000000000101", domain.BookingStatusConfirmed, domain.BookingStatusCancelled).
		Return(&cancelled, nil).Once()
	mockFlights.On("ReleaseSeats", ctx, int64(4), 2).Return(nil).Once()
	mockMembers.On("ApplyTransaction", ctx, int64(7), int64(500), domain.TransactionUsed, mock.Anything, &cancelled.ID).
		Return(int64(500), nil).Once()

	result, err := service.CancelBooking(ctx, "BK000000000101")

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, result.Status)
	mockFlights.AssertExpectations(t)
	mockMembers.AssertExpectations(t)
}

// Two racing cancellations of the same booking: both read confirmed, but the
// conditional flip lets only one through. Seats are released and miles
// refunded exactly once; the loser still gets the cancelled booking back.
func TestBookingService_CancelBooking_ConcurrentDuplicateRefundsOnce(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockFlights := &MockFlightRepository{}
	mockMembers := &MockMemberRepository{}
	service := newTestService(mockBookings, mockFlights, mockMembers, &MockProducer{})

	ctx := context.Background()
	memberID := int64(7)
	confirmed := &domain.Booking{
		ID:                 11,
		BookingNumber:      "BK000000000101",
		FlightID:           4,
		MemberID:           &memberID,
		NumberOfPassengers: 2,
		PaidWithMiles:      true,
		MilesUsed:          500,
		Status:             domain.BookingStatusConfirmed,
	}
	cancelled := *confirmed
	cancelled.Status = domain.BookingStatusCancelled

	// Both requests observe the booking as still confirmed.
	mockBookings.On("GetByNumber", ctx, "BK000000000101").Return(confirmed, nil).Twice()
	// The first flip wins; the second sees zero rows.
	mockBookings.On("UpdateStatusFrom", ctx, "BK000000000101", domain.BookingStatusConfirmed, domain.BookingStatusCancelled).
		Return(&cancelled, nil).Once()
	mockBookings.On("UpdateStatusFrom", ctx, "BK000000000101", domain.BookingStatusConfirmed, domain.BookingStatusCancelled).
		Return(nil, repository.ErrNotFound).Once()
	// The loser re-reads and finds the booking already cancelled.
	mockBookings.On("GetByNumber", ctx, "BK000000000101").Return(&cancelled, nil).Once()
	mockFlights.On("ReleaseSeats", ctx, int64(4), 2).Return(nil).Once()
	mockMembers.On("ApplyTransaction", ctx, int64(7), int64(500), domain.TransactionUsed, mock.Anything, &cancelled.ID).
		Return(int64(500), nil).Once()

	first, err := service.CancelBooking(ctx, "BK000000000101")
	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, first.Status)

	second, err := service.CancelBooking(ctx, "BK000000000101")
	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, second.Status)

	mockFlights.AssertNumberOfCalls(t, "ReleaseSeats", 1)
	mockMembers.AssertNumberOfCalls(t, "ApplyTransaction", 1)
	mockBookings.AssertExpectations(t)
}

func TestBookingService_CancelBooking_CompletedFlightRejected(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	service := newTestService(mockBookings, &MockFlightRepository{}, &MockMemberRepository{}, &MockProducer{})

	ctx := context.Background()
	mockBookings.On("GetByNumber", ctx, "BK1").Return(&domain.Booking{
		BookingNumber:   "BK1",
		Status:          domain.BookingStatusConfirmed,
		FlightCompleted: true,
	}, nil).Once()

	result, err := service.CancelBooking(ctx, "BK1")

	assert.Error(t, err)
	assert.Nil(t, result)
	mockBookings.AssertNotCalled(t, "UpdateStatusFrom")
}
