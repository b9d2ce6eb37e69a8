package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/postal-parser/app/controllers"
	"github.com/postal-parser/app/services"
	"github.com/postal-parser/internal/locale"
	"github.com/postal-parser/internal/parser"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	table := locale.Default()

	addressService := services.NewAddressService(parser.NewAddressParser(table, logger), logger)
	adminService := services.NewAdminService(nil, addressService, nil, nil, logger)

	router := gin.New()
	SetupAllRoutes(router, Controllers{
		Address: controllers.NewAddressController(addressService, logger),
		Admin:   controllers.NewAdminController(adminService, nil, logger),
		Locale:  controllers.NewLocaleController(table, locale.NewSuggester(table, 0, 0), 5, logger),
	})
	return router
}

func TestRoutes(t *testing.T) {
	router := newRouter()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/docs", http.StatusOK},
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/v1/health", http.StatusOK},
		{http.MethodGet, "/v1/locales/countries/US", http.StatusOK},
		{http.MethodGet, "/v1/addresses/jobs/nope/status", http.StatusNotFound},
		{http.MethodGet, "/v1/admin/stats", http.StatusOK},
		{http.MethodGet, "/v1/addresses/stats", http.StatusOK},
		{http.MethodGet, "/v1/admin/reviews", http.StatusServiceUnavailable},
		{http.MethodPost, "/v1/admin/indexes/build", http.StatusServiceUnavailable},
		{http.MethodGet, "/v1/admin/export/address_cache", http.StatusServiceUnavailable},
		{http.MethodGet, "/v1/admin/export/other", http.StatusBadRequest},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
