package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postal-parser/app/config"
	"github.com/postal-parser/app/models"
	"github.com/postal-parser/app/requests"
	"github.com/postal-parser/app/responses"
	"github.com/postal-parser/app/services"
)

// AdminController controller xử lý các request admin
type AdminController struct {
	adminService  *services.AdminService
	reviewService *services.ReviewService
	logger        *zap.Logger
}

// NewAdminController tạo mới AdminController. reviewService may be nil when
// MongoDB is disabled.
func NewAdminController(adminService *services.AdminService, reviewService *services.ReviewService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService:  adminService,
		reviewService: reviewService,
		logger:        logger,
	}
}

// InvalidateCache xóa cache tính theo dữ liệu locale cũ
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	startTime := time.Now()

	version, err := ac.adminService.InvalidateCache(c.Request.Context())
	if err != nil {
		ac.logger.Error("Lỗi invalidate cache", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "INVALIDATE_ERROR", "Lỗi invalidate cache: "+err.Error(), nil)
		return
	}

	processingTime := time.Since(startTime)
	ac.logger.Info("Invalidate cache thành công",
		zap.String("locale_version", version),
		zap.Duration("duration", processingTime))

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "Invalidate cache thành công",
		Data: map[string]interface{}{
			"locale_version":     version,
			"processing_time_ms": processingTime.Milliseconds(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// GetStats lấy thống kê hệ thống
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		ac.logger.Error("Lỗi lấy stats", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "STATS_ERROR", "Lỗi lấy stats: "+err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, responses.SystemStatsResponse{
		CacheHitRate:        stats.CacheHitRate,
		MatchRate:           stats.MatchRate,
		AvgProcessingTimeMs: stats.AvgProcessingTimeMs,
		TotalProcessed:      stats.TotalProcessed,
		ReviewQueueSize:     stats.ReviewQueueSize,
		SystemInfo: responses.SystemInfo{
			Version:       Version,
			LocaleVersion: stats.LocaleVersion,
			Environment:   config.C.App.Env,
			Uptime:        stats.Uptime,
			MemoryUsage:   stats.MemoryUsage,
			Goroutines:    stats.Goroutines,
		},
		DatabaseStats: responses.DatabaseStats{
			AddressCache:  stats.DatabaseStats.AddressCache,
			AddressReview: stats.DatabaseStats.AddressReview,
		},
	})
}

// BuildIndexes build lại toàn bộ indexes
func (ac *AdminController) BuildIndexes(c *gin.Context) {
	startTime := time.Now()

	if err := ac.adminService.BuildIndexes(); err != nil {
		if errors.Is(err, services.ErrIndexUnavailable) {
			errorJSON(c, http.StatusServiceUnavailable, "INDEX_UNAVAILABLE", err.Error(), nil)
			return
		}
		ac.logger.Error("Lỗi build indexes", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "BUILD_ERROR", "Lỗi build indexes: "+err.Error(), nil)
		return
	}

	processingTime := time.Since(startTime)
	ac.logger.Info("Build indexes thành công", zap.Duration("duration", processingTime))

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "Build indexes thành công",
		Data: map[string]interface{}{
			"processing_time_ms": processingTime.Milliseconds(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// ExportData export dữ liệu để backup
func (ac *AdminController) ExportData(c *gin.Context) {
	dataType := c.Param("type") // address_cache, address_review

	format := c.DefaultQuery("format", "json") // json, csv

	limit := 10000
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	data, err := ac.adminService.ExportData(c.Request.Context(), dataType, format, limit)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedExport):
			errorJSON(c, http.StatusBadRequest, "UNSUPPORTED_EXPORT", err.Error(), nil)
		case errors.Is(err, services.ErrStorageUnavailable):
			errorJSON(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", err.Error(), nil)
		default:
			ac.logger.Error("Lỗi export data", zap.Error(err))
			errorJSON(c, http.StatusInternalServerError, "EXPORT_ERROR", "Lỗi export data: "+err.Error(), nil)
		}
		return
	}

	filename := fmt.Sprintf("%s_export_%s.%s", dataType, time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	contentType := "application/json"
	if format == "csv" {
		contentType = "text/csv"
	}
	c.Data(http.StatusOK, contentType, data)
}

// ListReviews lấy danh sách địa chỉ chờ review
func (ac *AdminController) ListReviews(c *gin.Context) {
	if ac.reviewService == nil {
		errorJSON(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", services.ErrStorageUnavailable.Error(), nil)
		return
	}

	status := c.DefaultQuery("status", models.ReviewStatusPending)
	if status == "all" {
		status = ""
	}
	limit, offset := 50, 0
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o > 0 {
		offset = o
	}

	ctx := c.Request.Context()
	reviews, total, err := ac.reviewService.List(ctx, status, limit, offset)
	if err != nil {
		ac.logger.Error("Lỗi lấy danh sách review", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "REVIEW_ERROR", err.Error(), nil)
		return
	}
	pending, err := ac.reviewService.CountPending(ctx)
	if err != nil {
		ac.logger.Warn("Lỗi đếm review đang chờ", zap.Error(err))
	}

	c.JSON(http.StatusOK, responses.ReviewListResponse{
		Reviews: reviews,
		Total:   total,
		Pending: pending,
		Limit:   limit,
		Offset:  offset,
	})
}

// ResolveReview duyệt (kèm địa chỉ đã sửa) hoặc từ chối một review
func (ac *AdminController) ResolveReview(c *gin.Context) {
	if ac.reviewService == nil {
		errorJSON(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", services.ErrStorageUnavailable.Error(), nil)
		return
	}

	var req requests.ReviewResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
		return
	}
	if !req.Reject && req.ManualResult == nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "manual_result hoặc reject là bắt buộc", nil)
		return
	}

	reviewID := c.Param("id")
	ctx := c.Request.Context()
	resp := responses.ReviewActionResponse{Success: true, ReviewID: reviewID}

	var err error
	if req.Reject {
		resp.Action = "reject"
		err = ac.reviewService.Reject(ctx, reviewID, req.ReviewerID)
	} else {
		resp.Action = "approve"
		resp.Result, err = ac.reviewService.Approve(ctx, reviewID, *req.ManualResult, req.ReviewerID)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReviewNotFound):
			errorJSON(c, http.StatusNotFound, "REVIEW_NOT_FOUND", err.Error(), nil)
		case errors.Is(err, services.ErrReviewClosed):
			errorJSON(c, http.StatusConflict, "REVIEW_CLOSED", err.Error(), nil)
		case errors.Is(err, models.ErrIncompleteAddress):
			errorJSON(c, http.StatusBadRequest, "INCOMPLETE_ADDRESS", err.Error(), nil)
		case errors.Is(err, services.ErrUnknownCountry):
			errorJSON(c, http.StatusBadRequest, "UNKNOWN_COUNTRY", err.Error(), nil)
		default:
			ac.logger.Error("Lỗi xử lý review", zap.Error(err))
			errorJSON(c, http.StatusInternalServerError, "REVIEW_ERROR", err.Error(), nil)
		}
		return
	}

	resp.Message = "Review đã được xử lý"
	resp.UpdatedAt = time.Now().Format(time.RFC3339)
	c.JSON(http.StatusOK, resp)
}
