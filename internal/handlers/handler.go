package handlers

import (
	"bed_temperature/internal/logger"
	"bed_temperature/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services   *service.Service
	log        *logger.Logger
	cronSecret string
}

// NewHandler constructs a new HTTP handler with dependencies. cronSecret
// guards the reconciliation trigger.
func NewHandler(services *service.Service, log *logger.Logger, cronSecret string) *Handler {
	return &Handler{services: services, log: log, cronSecret: cronSecret}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)
	h.registerCronRoutes(router)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
		auth.GET("/session", h.userMiddleware, h.session)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userMiddleware)
	{
		h.registerProfileRoutes(api)
		api.GET("/status", h.getStatus)
		api.GET("/events", h.getEvents)
		api.GET("/ws", h.wsConnect)
	}
}

func (h *Handler) registerProfileRoutes(api *gin.RouterGroup) {
	profile := api.Group("/profile")
	{
		profile.GET("", h.getProfile)
		// Body example: {"bed_time":"22:00","wake_time":"07:00","timezone":"Europe/Berlin","initial_level":30,"mid_level":-10,"final_level":20}
		profile.PUT("", h.putProfile)
		profile.DELETE("", h.deleteProfile)
	}
}

func (h *Handler) registerCronRoutes(r *gin.Engine) {
	cron := r.Group("/api/cron", h.cronMiddleware)
	{
		cron.GET("/temperature", h.triggerTemperature)
	}
}
