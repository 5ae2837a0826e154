package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"villarent/internal/infra/config"
	"villarent/internal/infra/obs"
)

type VillaHTTP interface {
	Catalog(c *gin.Context)
	Detail(c *gin.Context)
	Calendar(c *gin.Context)
}

type QuoteHTTP interface {
	Quote(c *gin.Context)
	Live(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Lookup(c *gin.Context)
	Get(c *gin.Context)
	Cancel(c *gin.Context)
}

type AdminVillaHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	ListImages(c *gin.Context)
	UploadImage(c *gin.Context)
	UpdateImage(c *gin.Context)
	DeleteImage(c *gin.Context)
	ListPricingRules(c *gin.Context)
	CreatePricingRule(c *gin.Context)
	DeletePricingRule(c *gin.Context)
	ListBlackouts(c *gin.Context)
	CreateBlackout(c *gin.Context)
	DeleteBlackout(c *gin.Context)
}

type AdminBookingHTTP interface {
	List(c *gin.Context)
	Update(c *gin.Context)
}

type Handlers struct {
	Villa          VillaHTTP
	Quote          QuoteHTTP
	Booking        BookingHTTP
	AdminVilla     AdminVillaHTTP
	AdminBooking   AdminBookingHTTP
	Auth           AuthHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine without touching the global gin mode.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(obsMW.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Villa != nil {
		api.GET("/villas", h.Villa.Catalog)
		api.GET("/villas/:slug", h.Villa.Detail)
		api.GET("/villas/:slug/calendar", h.Villa.Calendar)
	}
	if h.Quote != nil {
		api.POST("/quotes", h.Quote.Quote)
		api.GET("/quotes/live", h.Quote.Live)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings", h.Booking.Lookup)
		api.GET("/bookings/:id", h.Booking.Get)
		api.DELETE("/bookings/:id", h.Booking.Cancel)
	}

	admin := api.Group("/admin", requireAdmin)
	if h.AdminVilla != nil {
		villas := admin.Group("/villas")
		villas.GET("", h.AdminVilla.List)
		villas.POST("", h.AdminVilla.Create)
		villas.GET("/:id", h.AdminVilla.Get)
		villas.PUT("/:id", h.AdminVilla.Update)
		villas.DELETE("/:id", h.AdminVilla.Delete)
		villas.GET("/:id/images", h.AdminVilla.ListImages)
		villas.POST("/:id/images", h.AdminVilla.UploadImage)
		villas.PUT("/:id/images/:imageId", h.AdminVilla.UpdateImage)
		villas.DELETE("/:id/images/:imageId", h.AdminVilla.DeleteImage)
		villas.GET("/:id/pricing-rules", h.AdminVilla.ListPricingRules)
		villas.POST("/:id/pricing-rules", h.AdminVilla.CreatePricingRule)
		villas.DELETE("/:id/pricing-rules/:ruleId", h.AdminVilla.DeletePricingRule)
		villas.GET("/:id/blackout-dates", h.AdminVilla.ListBlackouts)
		villas.POST("/:id/blackout-dates", h.AdminVilla.CreateBlackout)
		villas.DELETE("/:id/blackout-dates/:blackoutId", h.AdminVilla.DeleteBlackout)
	}
	if h.AdminBooking != nil {
		admin.GET("/bookings", h.AdminBooking.List)
		admin.PUT("/bookings/:id", h.AdminBooking.Update)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
