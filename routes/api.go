package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/postal-parser/app/controllers"
)

// Controllers gom các controller cần cho routing
type Controllers struct {
	Address *controllers.AddressController
	Admin   *controllers.AdminController
	Locale  *controllers.LocaleController
}

// SetupAPIRoutes thiết lập tất cả API routes
func SetupAPIRoutes(router *gin.Engine, ctrl Controllers) {
	v1 := router.Group("/v1")
	{
		// Address parsing routes
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/parse", ctrl.Address.ParseAddress)
			addresses.POST("/jobs", ctrl.Address.BatchParse)
			addresses.GET("/jobs/:jobID/status", ctrl.Address.GetJobStatus)
			addresses.GET("/jobs/:jobID/results", ctrl.Address.GetJobResults)
			addresses.GET("/search", ctrl.Address.SearchAddresses)
			addresses.GET("/stats", ctrl.Address.GetServiceStats)
		}

		// Locale lookups
		locales := v1.Group("/locales")
		{
			locales.GET("/countries/:code", ctrl.Locale.GetCountry)
			locales.GET("/countries/:code/states", ctrl.Locale.GetStates)
		}

		// Admin routes
		admin := v1.Group("/admin")
		{
			admin.GET("/stats", ctrl.Admin.GetStats)
			admin.POST("/cache/invalidate", ctrl.Admin.InvalidateCache)
			admin.GET("/reviews", ctrl.Admin.ListReviews)
			admin.POST("/reviews/:id/resolve", ctrl.Admin.ResolveReview)
			admin.POST("/indexes/build", ctrl.Admin.BuildIndexes)
			admin.GET("/export/:type", ctrl.Admin.ExportData)
		}

		v1.GET("/health", ctrl.Address.HealthCheck)
	}
}

// SetupHealthRoutes thiết lập health check routes
func SetupHealthRoutes(router *gin.Engine, addressController *controllers.AddressController) {
	router.GET("/health", addressController.HealthCheck)
	router.GET("/ready", addressController.ReadyCheck)
	router.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
}

// SetupAllRoutes thiết lập tất cả routes
func SetupAllRoutes(router *gin.Engine, ctrl Controllers) {
	setupMiddleware(router)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, ctrl.Address)
	SetupAPIRoutes(router, ctrl)

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

// setupMiddleware thiết lập middleware cho router
func setupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	if gin.Mode() != gin.TestMode {
		router.Use(gin.Logger())
	}
}
