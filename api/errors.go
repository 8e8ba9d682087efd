package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yasarair/flightcore/internal/repository"
)

// respondError maps domain failures to HTTP statuses. Capacity and balance
// conflicts include what is left so the client can adjust the request.
// Anything unrecognized is a generic 500; the caller may retry.
func respondError(c *gin.Context, err error) {
	var seatsErr *repository.InsufficientSeatsError
	var milesErr *repository.InsufficientMilesError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &seatsErr):
		c.JSON(http.StatusConflict, gin.H{"error": "not enough seats available", "available_seats": seatsErr.Available})
	case errors.Is(err, repository.ErrInsufficientSeats):
		c.JSON(http.StatusConflict, gin.H{"error": "not enough seats available"})
	case errors.As(err, &milesErr):
		c.JSON(http.StatusConflict, gin.H{"error": "not enough miles", "miles_balance": milesErr.Balance})
	case errors.Is(err, repository.ErrInsufficientMiles):
		c.JSON(http.StatusConflict, gin.H{"error": "not enough miles"})
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
