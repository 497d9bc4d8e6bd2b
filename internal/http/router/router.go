package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/telehealth-backend/internal/config"
	"github.com/ignatzorin/telehealth-backend/internal/http/handlers"
	"github.com/ignatzorin/telehealth-backend/internal/http/middleware"
	"github.com/ignatzorin/telehealth-backend/internal/models"
	"github.com/ignatzorin/telehealth-backend/internal/service"
)

// Deps - всё, что нужно роутеру.
type Deps struct {
	Config           *config.Config
	TokenManager     *service.TokenManager
	RateLimitStore   limiter.Store
	MetricsGatherer  prometheus.Gatherer
	HealthHandler    *handlers.HealthHandler
	WSHandler        *handlers.WSHandler
	AppointmentAdmin *handlers.AdminAppointmentHandler
}

func SetupRouter(d Deps) *gin.Engine {
	if d.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(d.Config.AllowedOrigins))

	r.GET("/health", d.HealthHandler.Health)
	if d.MetricsGatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/ws", d.WSHandler.Handle)

	admin := api.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(d.TokenManager),
		middleware.RequireRole(models.RoleAdmin),
		middleware.RateLimitMiddleware(d.RateLimitStore, d.Config.RateLimitLimit, d.Config.RateLimitPeriod),
	)
	{
		appointments := admin.Group("/appointments")
		appointments.GET("", d.AppointmentAdmin.List)
		appointments.GET("/:id", middleware.UUIDValidator("id"), d.AppointmentAdmin.Get)
		appointments.GET("/:id/payouts", middleware.UUIDValidator("id"), d.AppointmentAdmin.ListPayouts)
		appointments.POST("/:id/resolve", middleware.UUIDValidator("id"), d.AppointmentAdmin.Resolve)
	}

	return r
}
