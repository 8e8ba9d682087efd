package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yasarair/flightcore/internal/repository"
	"github.com/yasarair/flightcore/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
	router.GET("/airports", h.airports)
	router.GET("/destinations", h.destinations)
	router.GET("/:id", h.get)
}

func (h *FlightHandler) search(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	dateStr := c.Query("date")
	if from == "" || to == "" || dateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required parameters: from, to, date"})
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	passengers, _ := strconv.Atoi(c.DefaultQuery("passengers", "1"))

	result, err := h.service.Search(c.Request.Context(), repository.FlightSearch{
		FromCity:   from,
		ToCity:     to,
		Date:       date,
		Passengers: passengers,
		DirectOnly: c.Query("direct") == "true",
		Flexible:   c.Query("flexible") == "true",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flights": result})
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight": flight})
}

func (h *FlightHandler) airports(c *gin.Context) {
	airports, err := h.service.Airports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"airports": airports})
}

func (h *FlightHandler) destinations(c *gin.Context) {
	destinations, err := h.service.Destinations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"destinations": destinations})
}
