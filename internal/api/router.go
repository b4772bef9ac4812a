package api

import (
	"vehicle_parking/internal/api/handler"
	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/events"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps is everything the router needs to wire its handlers.
type Deps struct {
	Auth         *service.AuthService
	Parking      *service.ParkingService
	Reservations *service.ReservationService
	Reports      *service.ReportService
	Hub          *events.Hub
	LoginLimiter *middleware.IPRateLimiter
	HealthChecks map[string]handler.Pinger
	Metrics      bool
	Logger       zerolog.Logger
}

func SetupRouter(d Deps) (*gin.Engine, error) {
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.CORS())

	r.GET("/healthz", handler.NewHealthHandler(d.HealthChecks).Health)
	if d.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	if d.Hub != nil {
		r.GET("/ws", handler.NewWebSocketHandler(d.Hub).HandleWebSocket)
	}

	authHandler := handler.NewAuthHandler(d.Auth)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		if d.LoginLimiter != nil {
			authRoutes.POST("/login", d.LoginLimiter.Middleware(), authHandler.Login)
		} else {
			authRoutes.POST("/login", authHandler.Login)
		}
	}

	authMw := middleware.NewAuthMiddleware(d.Auth)
	lotH := handler.NewParkingLotHandler(d.Parking)
	spotH := handler.NewParkingSpotHandler(d.Parking, d.Reservations)
	resH := handler.NewReservationHandler(d.Reservations)
	reportH := handler.NewReportHandler(d.Reports)

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		v1.GET("/me", authHandler.Me)
		v1.GET("/parking-lots", lotH.GetAllParkingLots)
		v1.GET("/parking-lots/:id", lotH.GetParkingLotByID)
		v1.GET("/parking-lots/:id/spots", spotH.GetSpotsByLotID)
		v1.GET("/reservations/:id", resH.GetReservation)

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.POST("/parking-lots", lotH.CreateParkingLot)
			admin.PUT("/parking-lots/:id", lotH.UpdateParkingLot)
			admin.DELETE("/parking-lots/:id", lotH.DeleteParkingLot)
			admin.GET("/parking-spots/:spot_id", spotH.GetSpotDetail)
			admin.DELETE("/parking-spots/:spot_id", spotH.DeleteParkingSpot)
			admin.GET("/users", authHandler.ListUsers)
			admin.GET("/search", lotH.AdminSearch)
			admin.GET("/summary", reportH.AdminSummary)
			admin.GET("/summary.xlsx", reportH.AdminSummaryXLSX)
		}

		user := v1.Group("/user")
		user.Use(middleware.RequireUser())
		{
			user.GET("/dashboard", resH.Dashboard)
			user.GET("/parking-lots/:id/book", resH.PreviewBooking)
			user.POST("/parking-lots/:id/book", resH.Book)
			user.POST("/reservations/:id/release", resH.Release)
			user.GET("/summary", reportH.UserSummary)
			user.GET("/summary.xlsx", reportH.UserSummaryXLSX)
		}

		// Admins and the owning user may both estimate a spot's running cost.
		v1.GET("/parking-spots/:spot_id/estimate", spotH.EstimateCost)
	}
	return r, nil
}
