package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yasarair/flightcore/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	FlightID             int64  `json:"flight_id" binding:"required"`
	PassengerFirstName   string `json:"passenger_first_name" binding:"required"`
	PassengerMiddleName  string `json:"passenger_middle_name"`
	PassengerLastName    string `json:"passenger_last_name" binding:"required"`
	PassengerDateOfBirth string `json:"passenger_date_of_birth"`
	NumberOfPassengers   int    `json:"number_of_passengers"`
	UseMiles             bool   `json:"use_miles"`
	CreateMember         bool   `json:"create_member"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/create", h.create)
	router.GET("/user/bookings", h.listForUser)
	router.GET("/:bookingNumber", h.get)
	router.DELETE("/:bookingNumber", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.NumberOfPassengers == 0 {
		req.NumberOfPassengers = 1
	}
	if req.NumberOfPassengers < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "number_of_passengers must be at least 1"})
		return
	}

	var dob *time.Time
	if req.PassengerDateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.PassengerDateOfBirth)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid passenger_date_of_birth, expected YYYY-MM-DD"})
			return
		}
		dob = &parsed
	}

	input := booking.CreateBookingInput{
		FlightID:             req.FlightID,
		PassengerFirstName:   req.PassengerFirstName,
		PassengerMiddleName:  req.PassengerMiddleName,
		PassengerLastName:    req.PassengerLastName,
		PassengerDateOfBirth: dob,
		NumberOfPassengers:   req.NumberOfPassengers,
		UseMiles:             req.UseMiles,
		EnrollMember:         req.CreateMember,
	}
	if claims := currentClaims(c); claims != nil {
		input.SubjectID = claims.Subject
		input.Email = claims.Email
	}

	confirmation, err := h.service.CreateBooking(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking_number":    confirmation.BookingNumber,
		"total_price_cents": confirmation.TotalPriceCents,
		"miles_used":        confirmation.MilesUsed,
		"message":           "Booking created successfully",
	})
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetByNumber(c.Request.Context(), c.Param("bookingNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

func (h *BookingHandler) listForUser(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	bookings, err := h.service.ListForSubject(c.Request.Context(), claims.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("bookingNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}
