package routes

import (
	"net/http"
	"slices"
	"time"

	"github.com/01moynul/farmers-market-api/internal/handlers"
	"github.com/01moynul/farmers-market-api/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options carries the router's non-handler dependencies.
type Options struct {
	Tokens         middleware.TokenValidator
	Log            *zap.Logger
	Registry       *prometheus.Registry
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// corsConfig allows every origin when "*" is listed, otherwise exactly the
// configured ones.
func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID}
	config.ExposeHeaders = []string{middleware.HeaderRequestID}
	config.MaxAge = 12 * time.Hour
	return config
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()

	// --- Global Middleware ---
	// Order matters: the error handler sits inside the logger and metrics so
	// they observe the final status code.
	metrics := middleware.NewMetrics(opts.Registry)
	router.Use(
		middleware.Recovery(opts.Log),
		middleware.RequestID(),
		middleware.Logger(opts.Log),
		metrics.Handler(),
		cors.New(corsConfig(opts.CORSOrigins)),
		middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst),
		middleware.ErrorHandler(opts.Log),
	)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	// --- Operational Routes (Public) ---
	router.GET("/ping", h.Ping)
	router.GET("/healthz", h.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	requireAuth := middleware.Auth(opts.Tokens)
	requireAdmin := middleware.Admin()

	api := router.Group("/api")
	{
		// --- Auth ---
		api.POST("/auth/login", h.Login)

		// --- Products ---
		products := api.Group("/products")
		{
			products.GET("", h.GetAllProducts)
			products.GET("/:id", h.GetProduct)
			products.POST("", requireAuth, h.CreateProduct)
			products.PUT("/:id", requireAuth, h.UpdateProduct)
			products.DELETE("/:id", requireAuth, requireAdmin, h.DeleteProduct)
		}

		// --- Farmers ---
		farmers := api.Group("/farmers")
		{
			farmers.GET("", h.GetAllFarmers)
			farmers.GET("/:id", h.GetFarmer)
			farmers.GET("/:id/products", h.GetFarmerProducts)
			farmers.POST("", requireAuth, h.CreateFarmer)
			farmers.PUT("/:id", requireAuth, h.UpdateFarmer)
			farmers.DELETE("/:id", requireAuth, requireAdmin, h.DeleteFarmer)
		}

		// --- Users ---
		users := api.Group("/users")
		{
			users.POST("", h.CreateUser)
			users.GET("", requireAuth, requireAdmin, h.GetAllUsers)
			users.GET("/:id", requireAuth, h.GetUser)
			users.PUT("/:id", requireAuth, h.UpdateUser)
			users.DELETE("/:id", requireAuth, requireAdmin, h.DeleteUser)
		}
	}

	return router
}
