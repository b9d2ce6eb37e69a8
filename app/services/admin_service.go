package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/postal-parser/app/models"
)

var (
	// ErrStorageUnavailable is returned by operations that need MongoDB when none is configured.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUnsupportedExport is returned for an unknown export type or format.
	ErrUnsupportedExport = errors.New("unsupported export type or format")
)

// IndexBuilder cấu hình index của sổ địa chỉ
type IndexBuilder interface {
	BuildIndexes() error
}

// AdminService service quản lý admin functions
type AdminService struct {
	db        *mongo.Database
	addresses *AddressService
	cache     ICacheService
	index     IndexBuilder
	logger    *zap.Logger
}

// SystemStats thống kê hệ thống
type SystemStats struct {
	MatchRate           float64                `json:"match_rate"`
	AvgProcessingTimeMs float64                `json:"avg_processing_time_ms"`
	TotalProcessed      int64                  `json:"total_processed"`
	ReviewQueueSize     int64                  `json:"review_queue_size"`
	CacheHitRate        float64                `json:"cache_hit_rate"`
	LocaleVersion       string                 `json:"locale_version"`
	Uptime              string                 `json:"uptime"`
	MemoryUsage         map[string]interface{} `json:"memory_usage"`
	Goroutines          int                    `json:"goroutines"`
	DatabaseStats       DatabaseStats          `json:"database_stats"`
}

// DatabaseStats thống kê database
type DatabaseStats struct {
	AddressCache  int64 `json:"address_cache"`
	AddressReview int64 `json:"address_review"`
}

// NewAdminService tạo mới AdminService. db, cache and index may be nil.
func NewAdminService(db *mongo.Database, addresses *AddressService, cache ICacheService, index IndexBuilder, logger *zap.Logger) *AdminService {
	return &AdminService{
		db:        db,
		addresses: addresses,
		cache:     cache,
		index:     index,
		logger:    logger,
	}
}

// BuildIndexes build tất cả indexes
func (as *AdminService) BuildIndexes() error {
	if as.index == nil {
		return ErrIndexUnavailable
	}
	if err := as.index.BuildIndexes(); err != nil {
		return fmt.Errorf("lỗi build Meilisearch indexes: %w", err)
	}

	as.logger.Info("All indexes built successfully")
	return nil
}

// InvalidateCache xóa các kết quả cache không thuộc phiên bản locale hiện tại
func (as *AdminService) InvalidateCache(ctx context.Context) (string, error) {
	version := as.addresses.LocaleVersion()
	if as.cache == nil {
		return version, nil
	}
	if err := as.cache.InvalidateByLocaleVersion(ctx, version); err != nil {
		return version, fmt.Errorf("lỗi invalidate cache: %w", err)
	}
	return version, nil
}

// GetSystemStats lấy thống kê hệ thống
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	parse := as.addresses.Stats()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		AvgProcessingTimeMs: parse.AvgProcessingTimeMs,
		TotalProcessed:      parse.TotalParsed,
		LocaleVersion:       as.addresses.LocaleVersion(),
		Uptime:              time.Since(as.addresses.GetStartTime()).Round(time.Second).String(),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
		Goroutines: runtime.NumGoroutine(),
	}
	if parse.TotalParsed > 0 {
		stats.MatchRate = float64(parse.Matched) / float64(parse.TotalParsed)
	}

	if as.cache != nil {
		if cacheStats, err := as.cache.GetStats(ctx); err != nil {
			as.logger.Warn("Lỗi lấy cache stats", zap.Error(err))
		} else {
			stats.CacheHitRate = cacheStats.HitRate
		}
	}

	if as.db != nil {
		dbStats, pending, err := as.getDatabaseStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("lỗi lấy database stats: %w", err)
		}
		stats.DatabaseStats = *dbStats
		stats.ReviewQueueSize = pending
	}

	return stats, nil
}

// getDatabaseStats lấy thống kê database
func (as *AdminService) getDatabaseStats(ctx context.Context) (*DatabaseStats, int64, error) {
	stats := &DatabaseStats{}

	count, err := as.db.Collection("address_cache").CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	stats.AddressCache = count

	count, err = as.db.Collection("address_review").CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	stats.AddressReview = count

	pending, err := as.db.Collection("address_review").CountDocuments(ctx, bson.M{"status": models.ReviewStatusPending})
	if err != nil {
		return nil, 0, err
	}
	return stats, pending, nil
}

// ExportData export dữ liệu để backup (json hoặc csv)
func (as *AdminService) ExportData(ctx context.Context, dataType string, format string, limit int) ([]byte, error) {
	if format != "json" && format != "csv" {
		return nil, fmt.Errorf("%w: format %q", ErrUnsupportedExport, format)
	}
	if dataType != "address_cache" && dataType != "address_review" {
		return nil, fmt.Errorf("%w: type %q", ErrUnsupportedExport, dataType)
	}
	if as.db == nil {
		return nil, ErrStorageUnavailable
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := as.db.Collection(dataType).Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("lỗi query data: %w", err)
	}
	defer cursor.Close(ctx)

	switch dataType {
	case "address_cache":
		var entries []models.AddressCache
		if err := cursor.All(ctx, &entries); err != nil {
			return nil, fmt.Errorf("lỗi decode results: %w", err)
		}
		if format == "csv" {
			return cacheEntriesCSV(entries)
		}
		return json.MarshalIndent(entries, "", "  ")
	default:
		var reviews []models.AddressReview
		if err := cursor.All(ctx, &reviews); err != nil {
			return nil, fmt.Errorf("lỗi decode results: %w", err)
		}
		if format == "csv" {
			return reviewsCSV(reviews)
		}
		return json.MarshalIndent(reviews, "", "  ")
	}
}

var addressColumns = []string{"address_to", "street_address", "municipality", "state", "country", "postal_code"}

func addressCells(a *models.PostalAddress) []string {
	if a == nil {
		return make([]string, len(addressColumns))
	}
	return []string{a.AddressTo, a.StreetAddress, a.Municipality, a.State, a.Country, a.PostalCode}
}

func cacheEntriesCSV(entries []models.AddressCache) ([]byte, error) {
	header := append([]string{"raw_fingerprint", "status", "locale_version", "manually_verified", "access_count"}, addressColumns...)
	header = append(header, "raw")

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		row := []string{
			e.RawFingerprint,
			e.Status,
			e.LocaleVersion,
			fmt.Sprint(e.ManuallyVerified),
			fmt.Sprint(e.AccessCount),
		}
		row = append(row, addressCells(e.ParsedResult.Address)...)
		row = append(row, e.RawAddress)
		rows = append(rows, row)
	}
	return writeCSV(header, rows)
}

func reviewsCSV(reviews []models.AddressReview) ([]byte, error) {
	header := append([]string{"id", "status", "reason", "reviewer_id", "created_at"}, addressColumns...)
	header = append(header, "raw")

	rows := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		reviewer := ""
		if r.ReviewerID != nil {
			reviewer = *r.ReviewerID
		}
		row := []string{r.ID.Hex(), r.Status, r.Reason, reviewer, r.CreatedAt.UTC().Format(time.RFC3339)}
		row = append(row, addressCells(r.ManualResult)...)
		row = append(row, r.RawAddress)
		rows = append(rows, row)
	}
	return writeCSV(header, rows)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		for i, cell := range row {
			// multi-line street blocks stay on one CSV row
			row[i] = strings.ReplaceAll(cell, "\n", " | ")
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Helper functions
func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
