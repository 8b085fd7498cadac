package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"appointment-booking-server/internal/config"
	"appointment-booking-server/internal/handlers"
	"appointment-booking-server/internal/metrics"
	"appointment-booking-server/internal/middleware"
	"appointment-booking-server/internal/models"
	"appointment-booking-server/internal/notify"
	"appointment-booking-server/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the wired components the routes dispatch to.
type Dependencies struct {
	Config       *config.Config
	Auth         *services.AuthService
	Users        *services.UserService
	Appointments *services.AppointmentService
	Hub          *notify.Hub
	Metrics      *metrics.Metrics
	AuthLimiter  *middleware.RateLimiter
	Store        Pinger
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Auth)
	userHandler := handlers.NewUserHandler(deps.Users)
	appointmentHandler := handlers.NewAppointmentHandler(deps.Appointments, deps.Hub)

	api := router.Group("/api")

	// Public routes (no authentication required)
	authRoutes := api.Group("/auth")
	if deps.AuthLimiter != nil {
		authRoutes.Use(deps.AuthLimiter.Middleware())
	}
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)

	// Browsers cannot send headers on a websocket upgrade, so the stream
	// authenticates from the query string.
	api.GET("/appointments/stream", middleware.StreamAuthMiddleware(deps.Config), appointmentHandler.Stream)

	// Authenticated routes
	private := api.Group("")
	private.Use(middleware.AuthMiddleware(deps.Config))
	{
		private.GET("/auth/me", authHandler.Me)

		// Anyone may list doctors; other roles are checked by the service.
		private.GET("/users", userHandler.GetUsers)

		patient := middleware.RoleAuthMiddleware(models.RolePatient)
		doctor := middleware.RoleAuthMiddleware(models.RoleDoctor)
		admin := middleware.RoleAuthMiddleware(models.RoleAdmin)

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.GET("", middleware.RoleAuthMiddleware(models.RolePatient, models.RoleDoctor), appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.POST("", patient, appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("/all", admin, appointmentHandler.GetAllAppointments)

			doctorRoutes := appointmentRoutes.Group("/doctor", doctor)
			{
				doctorRoutes.GET("/unseen", appointmentHandler.GetUnseenAppointments)
				doctorRoutes.GET("/unseen/count", appointmentHandler.GetUnseenCount)
				doctorRoutes.PATCH("/mark-all-seen", appointmentHandler.MarkAllSeen)
				doctorRoutes.POST("/mark-seen", appointmentHandler.MarkAllSeen)
			}

			// Ownership is checked by the access policy in the service.
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id/status", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/seen", doctor, appointmentHandler.MarkSeen)
			appointmentRoutes.DELETE("/:id", admin, appointmentHandler.DeleteAppointment)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		if deps.Store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Store.Ping(ctx); err != nil {
				middleware.LoggerFrom(c).WarnContext(ctx, "health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
}
