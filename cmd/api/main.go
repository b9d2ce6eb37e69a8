package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/postal-parser/app/config"
	"github.com/postal-parser/app/controllers"
	"github.com/postal-parser/app/services"
	"github.com/postal-parser/internal/locale"
	"github.com/postal-parser/internal/parser"
	"github.com/postal-parser/internal/search"
	"github.com/postal-parser/routes"
)

func main() {
	configPath := flag.String("config", "", "path to app.yaml")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	// 2. Khởi tạo logger
	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting Postal Address Parser Service", zap.String("env", cfg.App.Env))

	// 3. Locale tables và parser
	table := locale.Default()
	addressParser := parser.NewAddressParser(table, logger)
	suggester := locale.NewSuggester(table, cfg.Suggest.JWWeight, cfg.Suggest.LevWeight)

	// 4. Kết nối MongoDB (tùy chọn)
	var mongoDB *mongo.Database
	if cfg.Mongo.Enabled {
		mongoDB, err = initMongoDB(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}()
	}

	// 5. Cache: Redis hoặc bộ nhớ làm L1, MongoDB làm L2
	cacheService := initCache(cfg, mongoDB, table.Version(), logger)
	defer cacheService.Close()

	// 6. Meilisearch (tùy chọn)
	var addressIndex *search.AddressIndex
	if cfg.Meilisearch.Enabled {
		addressIndex, err = search.NewAddressIndex(search.SearchConfig{
			Host:          cfg.Meilisearch.URL,
			APIKey:        cfg.Meilisearch.MasterKey,
			IndexName:     cfg.Meilisearch.Index,
			Timeout:       cfg.Meilisearch.Timeout,
			MaxCandidates: cfg.Meilisearch.MaxHits,
		}, logger)
		if err != nil {
			logger.Warn("Meilisearch unavailable, search disabled", zap.Error(err))
			addressIndex = nil
		} else if err := addressIndex.BuildIndexes(); err != nil {
			logger.Warn("Failed to build Meilisearch indexes", zap.Error(err))
		}
	}

	// 7. Khởi tạo services
	opts := []services.AddressServiceOption{
		services.WithCache(cacheService),
		services.WithWorkers(cfg.Batch.Workers),
	}
	var indexBuilder services.IndexBuilder
	if addressIndex != nil {
		opts = append(opts, services.WithIndex(addressIndex))
		indexBuilder = addressIndex
	}
	var reviewService *services.ReviewService
	if mongoDB != nil {
		reviewService = services.NewReviewService(mongoDB, cacheService, table, logger)
		opts = append(opts, services.WithReviewQueue(reviewService))
	}
	addressService := services.NewAddressService(addressParser, logger, opts...)
	adminService := services.NewAdminService(mongoDB, addressService, cacheService, indexBuilder, logger)

	// 8. Khởi tạo controllers
	addressController := controllers.NewAddressController(addressService, logger)
	if mongoDB != nil {
		addressController.AddHealthCheck("mongodb", func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return mongoDB.Client().Ping(ctx, nil) == nil
		})
	}
	if addressIndex != nil {
		addressController.AddHealthCheck("meilisearch", addressIndex.Healthy)
	}
	adminController := controllers.NewAdminController(adminService, reviewService, logger)
	localeController := controllers.NewLocaleController(table, suggester, cfg.Suggest.Limit, logger)

	// 9. Khởi tạo Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, routes.Controllers{
		Address: addressController,
		Admin:   adminController,
		Locale:  localeController,
	})

	// 10. Khởi động server
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}
	go func() {
		logger.Info("Postal Address Parser Service starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

// initLogger khởi tạo structured logger
func initLogger(cfg *config.Config) *zap.Logger {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	return logger
}

// initMongoDB khởi tạo kết nối MongoDB
func initMongoDB(cfg *config.Config, logger *zap.Logger) (*mongo.Database, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.Mongo.URL))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))
	return client.Database(cfg.Mongo.Database), nil
}

// initCache chọn tầng cache theo cấu hình
func initCache(cfg *config.Config, mongoDB *mongo.Database, localeVersion string, logger *zap.Logger) services.ICacheService {
	var l1 services.ICacheService = services.NewCacheService(cfg.Cache.L1Size, cfg.Cache.TTL)
	if cfg.Redis.Enabled {
		redisCache, err := services.NewRedisCacheService(cfg.Redis.URL, localeVersion, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory L1 cache", zap.Error(err))
		} else {
			l1 = redisCache
		}
	}

	if mongoDB == nil {
		return l1
	}

	mongoCache, err := services.NewMongoCacheService(mongoDB, cfg.Cache.L1Size, logger)
	if err != nil {
		logger.Warn("MongoDB cache unavailable, using L1 only", zap.Error(err))
		return l1
	}
	if cfg.Cache.WarmUp > 0 {
		if err := mongoCache.WarmUp(context.Background(), localeVersion, cfg.Cache.WarmUp); err != nil {
			logger.Warn("Failed to warm up cache", zap.Error(err))
		}
	}
	return services.NewHybridCacheService(l1, mongoCache, logger)
}
