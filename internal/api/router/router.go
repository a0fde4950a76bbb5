package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"remindly/config"
	"remindly/internal/api/handler"
	"remindly/internal/api/middleware"
	"remindly/internal/model"
	"remindly/pkg/jwt"
	"remindly/pkg/redis"
)

// Setup builds the Gin engine with all routes.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// auth (no token required)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// authenticated routes
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// events
			events := authorized.Group("/events")
			{
				events.POST("", h.Event.CreateEvent)
				events.GET("", h.Event.ListEvents)
				events.GET("/:id", h.Event.GetEvent)
				events.PUT("/:id", h.Event.UpdateEvent)
				events.DELETE("/:id", h.Event.DeleteEvent)
				events.PUT("/:id/date", h.Event.MoveEventDate)
				events.PUT("/:id/occurrence", h.Event.MoveOccurrence)
			}

			// calendar
			calendar := authorized.Group("/calendar")
			{
				calendar.GET("", h.Calendar.GetCalendar)
				calendar.GET("/feed.ics", h.Calendar.GetICSFeed)
			}

			// reminders
			authorized.GET("/reminders", h.Reminder.ListReminders)

			// exports
			authorized.GET("/export/agenda", h.Export.ExportAgenda)

			// admin
			admin := authorized.Group("/admin", middleware.RoleAuth(model.RoleAdmin))
			{
				admin.GET("/events", h.Event.ListAllEvents)
				admin.GET("/events/stats", h.Event.EventsPerDay)
			}
		}
	}

	return r
}
