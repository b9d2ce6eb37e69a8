package controllers

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postal-parser/app/config"
	"github.com/postal-parser/app/models"
	"github.com/postal-parser/app/requests"
	"github.com/postal-parser/app/responses"
	"github.com/postal-parser/app/services"
	"github.com/postal-parser/helpers/utils"
	"github.com/postal-parser/internal/parser"
	"github.com/postal-parser/internal/search"
)

// Version phiên bản service
const Version = "1.0.0"

// AddressController controller xử lý các request liên quan đến địa chỉ
type AddressController struct {
	addressService *services.AddressService
	logger         *zap.Logger
	checks         map[string]func() bool
}

// NewAddressController tạo mới AddressController
func NewAddressController(addressService *services.AddressService, logger *zap.Logger) *AddressController {
	return &AddressController{
		addressService: addressService,
		logger:         logger,
		checks:         make(map[string]func() bool),
	}
}

// AddHealthCheck đăng ký kiểm tra sức khỏe cho một dependency
func (ac *AddressController) AddHealthCheck(name string, check func() bool) {
	ac.checks[name] = check
}

func errorJSON(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// ParseAddress parse địa chỉ đơn lẻ
func (ac *AddressController) ParseAddress(c *gin.Context) {
	var req requests.ParseAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout())
	defer cancel()

	startTime := time.Now()
	result, cacheHit, err := ac.addressService.ParseAddress(ctx, req.Address, req.Options)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyAddress):
			errorJSON(c, http.StatusBadRequest, "EMPTY_ADDRESS", err.Error(), nil)
		case errors.Is(err, parser.ErrAmbiguousAddress):
			var candidates []models.Candidate
			if result != nil {
				candidates = result.Candidates
			}
			errorJSON(c, http.StatusUnprocessableEntity, "AMBIGUOUS_ADDRESS", err.Error(), candidates)
		default:
			ac.logger.Error("Lỗi parse địa chỉ", zap.Error(err))
			errorJSON(c, http.StatusInternalServerError, "PARSE_ERROR", "Lỗi parse địa chỉ: "+err.Error(), nil)
		}
		return
	}

	c.JSON(http.StatusOK, responses.ParseAddressResponse{
		LocaleVersion:    ac.addressService.LocaleVersion(),
		Results:          []models.AddressResult{*result},
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		CacheHit:         cacheHit,
	})
}

// BatchParse parse hàng loạt địa chỉ
func (ac *AddressController) BatchParse(c *gin.Context) {
	var req requests.BatchParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
		return
	}

	if limit := config.C.Batch.MaxAddresses; limit > 0 && len(req.Addresses) > limit {
		errorJSON(c, http.StatusBadRequest, "TOO_MANY_ADDRESSES",
			fmt.Sprintf("Số lượng địa chỉ vượt quá giới hạn (%d)", limit), nil)
		return
	}

	estimatedTime := ac.addressService.EstimateBatchProcessingTime(len(req.Addresses))
	jobID := ac.addressService.StartBatchJob(req.Addresses, req.Options)

	c.JSON(http.StatusAccepted, responses.BatchParseResponse{
		JobID:            jobID,
		EstimatedSeconds: estimatedTime,
		TotalAddresses:   len(req.Addresses),
		Message:          "Job đã được tạo và đang xử lý",
	})
}

// GetJobStatus lấy trạng thái job
func (ac *AddressController) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")
	if !utils.IsUUID(jobID) {
		errorJSON(c, http.StatusNotFound, "JOB_NOT_FOUND", "Không tìm thấy job: "+jobID, nil)
		return
	}

	status, err := ac.addressService.GetJobStatus(jobID)
	if err != nil {
		errorJSON(c, http.StatusNotFound, "JOB_NOT_FOUND", "Không tìm thấy job: "+jobID, nil)
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              jobID,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Matched:            status.Matched,
		Total:              status.Total,
		EstimatedRemaining: status.EstimatedRemaining,
		Message:            status.Message,
	})
}

// GetJobResults lấy kết quả job với hỗ trợ NDJSON + gzip streaming
func (ac *AddressController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")

	if c.Query("format") == "ndjson" {
		ac.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}

	results, err := ac.addressService.GetJobResults(jobID)
	if err != nil {
		ac.jobError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "Lấy kết quả thành công",
		Data:      results,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (ac *AddressController) jobError(c *gin.Context, jobID string, err error) {
	if errors.Is(err, services.ErrJobNotFinished) {
		errorJSON(c, http.StatusConflict, "JOB_NOT_FINISHED", "Job chưa hoàn thành: "+jobID, nil)
		return
	}
	errorJSON(c, http.StatusNotFound, "JOB_NOT_FOUND", "Không tìm thấy job: "+jobID, nil)
}

// SearchAddresses tìm kiếm trong sổ địa chỉ
func (ac *AddressController) SearchAddresses(c *gin.Context) {
	var req requests.SearchAddressRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
		return
	}

	docs, err := ac.addressService.Search(c.Request.Context(), search.SearchRequest{
		Query:   req.Query,
		Country: req.Country,
		State:   req.State,
		Limit:   req.Limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			errorJSON(c, http.StatusBadRequest, "EMPTY_QUERY", err.Error(), nil)
		case errors.Is(err, services.ErrIndexUnavailable):
			errorJSON(c, http.StatusServiceUnavailable, "INDEX_UNAVAILABLE", err.Error(), nil)
		default:
			ac.logger.Error("Lỗi tìm kiếm địa chỉ", zap.Error(err))
			errorJSON(c, http.StatusBadGateway, "SEARCH_ERROR", err.Error(), nil)
		}
		return
	}

	c.JSON(http.StatusOK, responses.SearchAddressResponse{
		Query: req.Query,
		Hits:  docs,
		Total: len(docs),
	})
}

// GetServiceStats thống kê parse và job của service
func (ac *AddressController) GetServiceStats(c *gin.Context) {
	c.JSON(http.StatusOK, ac.addressService.GetStats())
}

// HealthCheck kiểm tra sức khỏe service
func (ac *AddressController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, ac.health())
}

// ReadyCheck trả về 503 khi có dependency không hoạt động
func (ac *AddressController) ReadyCheck(c *gin.Context) {
	health := ac.health()
	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

func (ac *AddressController) health() responses.HealthCheckResponse {
	servicesStatus := map[string]string{"address_parser": "healthy"}
	overall := "healthy"

	names := make([]string, 0, len(ac.checks))
	for name := range ac.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ac.checks[name]() {
			servicesStatus[name] = "healthy"
		} else {
			servicesStatus[name] = "unhealthy"
			overall = "degraded"
		}
	}

	return responses.HealthCheckResponse{
		Status:    overall,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(ac.addressService.GetStartTime()).Round(time.Second).String(),
		Version:   Version,
		Services:  servicesStatus,
	}
}

// streamNDJSONResults stream kết quả theo format NDJSON với hỗ trợ gzip
func (ac *AddressController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := ac.addressService.GetJobResultsStream(c.Request.Context(), jobID)
	if err != nil {
		ac.jobError(c, jobID, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzWriter:       gzWriter,
		}
	}
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(writer)
	for result := range resultChannel {
		if err := encoder.Encode(result); err != nil {
			ac.logger.Error("Lỗi encode NDJSON", zap.Error(err))
			break
		}
		writer.Flush()
	}
}

// gzipResponseWriter wrapper cho gzip writer
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.gzWriter.Write([]byte(s))
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}
