package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yasarair/flightcore/internal/service/admin"
)

type AdminHandler struct {
	service admin.AdminUseCase
}

type saveFlightRequest struct {
	FlightCode      string `json:"flight_code" binding:"required"`
	FromCity        string `json:"from_city" binding:"required"`
	ToCity          string `json:"to_city" binding:"required"`
	FlightDate      string `json:"flight_date" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
	Capacity        int    `json:"capacity" binding:"required"`
	PriceCents      int64  `json:"price_cents" binding:"required"`
	IsDirect        *bool  `json:"is_direct"`
}

type predictPriceRequest struct {
	FromCity        string `json:"from_city" binding:"required"`
	ToCity          string `json:"to_city" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
	FlightDate      string `json:"flight_date" binding:"required"`
}

func NewAdminHandler(service admin.AdminUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/save-flight", h.saveFlight)
	router.POST("/predict-price", h.predictPrice)
	router.GET("/flights", h.listFlights)
}

func parseFlightDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (h *AdminHandler) saveFlight(c *gin.Context) {
	var req saveFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	flightDate, ok := parseFlightDate(req.FlightDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flight_date"})
		return
	}

	isDirect := true
	if req.IsDirect != nil {
		isDirect = *req.IsDirect
	}

	flight, err := h.service.SaveFlight(c.Request.Context(), admin.SaveFlightInput{
		FlightCode:      req.FlightCode,
		FromCity:        req.FromCity,
		ToCity:          req.ToCity,
		FlightDate:      flightDate,
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
		PriceCents:      req.PriceCents,
		IsDirect:        isDirect,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          flight.ID,
		"flight_code": flight.FlightCode,
		"message":     "Flight saved successfully",
	})
}

func (h *AdminHandler) predictPrice(c *gin.Context) {
	var req predictPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	flightDate, ok := parseFlightDate(req.FlightDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flight_date"})
		return
	}

	price := h.service.PredictPrice(c.Request.Context(), req.FromCity, req.ToCity, req.DurationMinutes, flightDate)
	c.JSON(http.StatusOK, gin.H{"predicted_price_cents": price})
}

func (h *AdminHandler) listFlights(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	flights, total, err := h.service.ListFlights(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flights": flights,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}
