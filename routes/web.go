package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/postal-parser/app/controllers"
)

// SetupWebRoutes thiết lập web routes
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Postal Address Parser Service",
				"version": controllers.Version,
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "Postal Address Parser API v1",
				"endpoints": map[string]string{
					"parse":          "POST /v1/addresses/parse",
					"batch":          "POST /v1/addresses/jobs",
					"job_status":     "GET /v1/addresses/jobs/:jobID/status",
					"job_results":    "GET /v1/addresses/jobs/:jobID/results?format=ndjson&gzip=1",
					"search":         "GET /v1/addresses/search?q=&country=&state=",
					"service_stats":  "GET /v1/addresses/stats",
					"country":        "GET /v1/locales/countries/:code",
					"states":         "GET /v1/locales/countries/:code/states?q=",
					"stats":          "GET /v1/admin/stats",
					"reviews":        "GET /v1/admin/reviews",
					"resolve_review": "POST /v1/admin/reviews/:id/resolve",
					"health":         "GET /v1/health",
				},
			})
		})

		web.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "running",
				"service": "Postal Address Parser",
			})
		})
	}
}
