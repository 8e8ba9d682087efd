package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/yasarair/flightcore/internal/auth"
	"github.com/yasarair/flightcore/internal/domain"
	"github.com/yasarair/flightcore/internal/repository"
	"github.com/yasarair/flightcore/internal/service/booking"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*booking.Confirmation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Confirmation), args.Error(1)
}

func (m *MockBookingService) GetByNumber(ctx context.Context, bookingNumber string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) ListForSubject(ctx context.Context, subjectID string) ([]domain.Booking, error) {
	args := m.Called(ctx, subjectID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, bookingNumber string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

// fakeIdentity injects claims the way AuthMiddleware would after verifying a
// bearer token.
func fakeIdentity(subject, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(claimsKey, &auth.Claims{
			Email:            email,
			RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		})
		c.Next()
	}
}

func newBookingRouter(service *MockBookingService, middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/Booking", middleware...)
	NewBookingHandler(service).Register(group)
	return router
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingService{}
	router := newBookingRouter(mockService, fakeIdentity("sub-7", "ada@example.com"))

	mockService.On("CreateBooking", mock.Anything, mock.MatchedBy(func(input booking.CreateBookingInput) bool {
		return input.FlightID == 4 &&
			input.SubjectID == "sub-7" &&
			input.Email == "ada@example.com" &&
			input.NumberOfPassengers == 1 &&
			input.UseMiles
	})).Return(&booking.Confirmation{
		BookingNumber:   "BK000000000101",
		TotalPriceCents: 0,
		MilesUsed:       500,
	}, nil).Once()

	body, _ := json.Marshal(map[string]interface{}{
		"flight_id":            4,
		"passenger_first_name": "Ada",
		"passenger_last_name":  "Yilmaz",
		"use_miles":            true,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/Booking/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BK000000000101", resp["booking_number"])
	assert.Equal(t, float64(500), resp["miles_used"])
	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_MissingFields(t *testing.T) {
	mockService := &MockBookingService{}
	router := newBookingRouter(mockService, fakeIdentity("sub-7", "ada@example.com"))

	body := []byte(`{"flight_id": 4}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/Booking/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateBooking")
}

func TestBookingHandler_create_SoldOut(t *testing.T) {
	mockService := &MockBookingService{}
	router := newBookingRouter(mockService, fakeIdentity("sub-7", "ada@example.com"))

	mockService.On("CreateBooking", mock.Anything, mock.Anything).
		Return(nil, &repository.InsufficientSeatsError{Available: 2}).Once()

	body := []byte(`{"flight_id": 4, "passenger_first_name": "Ada", "passenger_last_name": "Yilmaz", "number_of_passengers": 3}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/Booking/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	// The conflict tells the client how many seats are left.
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["available_seats"])
}

func TestBookingHandler_create_NegativePassengers(t *testing.T) {
	mockService := &MockBookingService{}
	router := newBookingRouter(mockService, fakeIdentity("sub-7", "ada@example.com"))

	body := []byte(`{"flight_id": 4, "passenger_first_name": "Ada", "passenger_last_name": "Yilmaz", "number_of_passengers": -2}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/Booking/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateBooking")
}

func TestBookingHandler_listForUser(t *testing.T) {
	mockService := &MockBookingService{}
	router := newBookingRouter(mockService, fakeIdentity("sub-7", "ada@example.com"))

	mockService.On("ListForSubject", mock.Anything, "sub-7").
		Return([]domain.Booking{{BookingNumber: "BK000000000101"}}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/Booking/user/bookings", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "BK000000000101")
}

func TestBookingHandler_listForUser_NoIdentity(t *testing.T) {
	mockService := &MockBookingService{}
	router := newBookingRouter(mockService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/Booking/user/bookings", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "ListForSubject")
}

func TestBookingHandler_get_NotFound(t *testing.T) {
	mockService := &MockBookingService{}
	router := newBookingRouter(mockService)

	mockService.On("GetByNumber", mock.Anything, "BK404").Return(nil, repository.ErrNotFound).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/Booking/BK404", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingService{}
	router := newBookingRouter(mockService)

	mockService.On("CancelBooking", mock.Anything, "BK000000000101").
		Return(&domain.Booking{BookingNumber: "BK000000000101", Status: domain.BookingStatusCancelled}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/Booking/BK000000000101", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(domain.BookingStatusCancelled))
	mockService.AssertExpectations(t)
}
