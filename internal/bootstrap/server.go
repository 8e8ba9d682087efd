package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yasarair/flightcore/api"
	"github.com/yasarair/flightcore/config"
	"github.com/yasarair/flightcore/internal/auth"
	"github.com/yasarair/flightcore/internal/service/admin"
	"github.com/yasarair/flightcore/internal/service/booking"
	"github.com/yasarair/flightcore/internal/service/flights"
	"github.com/yasarair/flightcore/internal/service/members"
)

type Services struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	Members  members.MemberUseCase
	Admin    admin.AdminUseCase
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services) error {
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	flightGroup := v1.Group("/Flight")
	api.NewFlightHandler(svc.Flights).Register(flightGroup)

	authed := api.AuthMiddleware(verifier)

	bookingGroup := v1.Group("/Booking", authed)
	api.NewBookingHandler(svc.Bookings).Register(bookingGroup)

	memberGroup := v1.Group("/Member", authed)
	api.NewMemberHandler(svc.Members).Register(memberGroup)

	adminGroup := v1.Group("/Admin", authed, api.RequireAdmin())
	api.NewAdminHandler(svc.Admin).Register(adminGroup)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
