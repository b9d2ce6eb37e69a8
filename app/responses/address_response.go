package responses

import (
	"github.com/postal-parser/app/models"
	"github.com/postal-parser/internal/locale"
)

// ParseAddressResponse response parse địa chỉ đơn lẻ
type ParseAddressResponse struct {
	LocaleVersion    string                 `json:"locale_version"`     // Phiên bản dữ liệu bang/tỉnh
	Results          []models.AddressResult `json:"results"`            // Kết quả parse
	ProcessingTimeMs int64                  `json:"processing_time_ms"` // Thời gian xử lý (ms)
	CacheHit         bool                   `json:"cache_hit"`          // Có hit cache không
}

// BatchParseResponse response parse hàng loạt địa chỉ
type BatchParseResponse struct {
	JobID            string `json:"job_id"`            // ID của job
	EstimatedSeconds int    `json:"estimated_seconds"` // Thời gian ước tính (giây)
	TotalAddresses   int    `json:"total_addresses"`   // Tổng số địa chỉ
	Message          string `json:"message"`           // Thông báo
}

// JobStatusResponse response trạng thái job
type JobStatusResponse struct {
	JobID              string  `json:"job_id"`              // ID của job
	Status             string  `json:"status"`              // Trạng thái job
	Progress           float64 `json:"progress"`            // Tiến độ (0.0 - 1.0)
	Processed          int     `json:"processed"`           // Số địa chỉ đã xử lý
	Matched            int     `json:"matched"`             // Số địa chỉ parse thành công
	Total              int     `json:"total"`               // Tổng số địa chỉ
	EstimatedRemaining int     `json:"estimated_remaining"` // Thời gian còn lại ước tính (giây)
	Message            string  `json:"message"`             // Thông báo
}

// SearchAddressResponse kết quả tìm kiếm sổ địa chỉ
type SearchAddressResponse struct {
	Query string                   `json:"query"`
	Hits  []models.AddressDocument `json:"hits"`
	Total int                      `json:"total"`
}

// ReviewListResponse response danh sách review
type ReviewListResponse struct {
	Reviews []models.AddressReview `json:"reviews"` // Danh sách review
	Total   int64                  `json:"total"`   // Tổng số review khớp bộ lọc
	Pending int64                  `json:"pending"` // Số review đang chờ
	Limit   int                    `json:"limit"`   // Giới hạn số lượng
	Offset  int                    `json:"offset"`  // Offset
}

// ReviewActionResponse response thao tác review
type ReviewActionResponse struct {
	Success   bool                  `json:"success"`          // Thao tác có thành công không
	ReviewID  string                `json:"review_id"`        // ID của review
	Action    string                `json:"action"`           // Hành động thực hiện
	Result    *models.AddressResult `json:"result,omitempty"` // Kết quả được cache sau khi duyệt
	Message   string                `json:"message"`          // Thông báo
	UpdatedAt string                `json:"updated_at"`       // Thời gian cập nhật
}

// CountryResponse thông tin một quốc gia
type CountryResponse struct {
	Code     string `json:"code"`
	Alpha3   string `json:"alpha3"`
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
	States   int    `json:"states"` // Số bang/tỉnh có trong bảng alias
}

// StatesResponse danh sách bang/tỉnh của một quốc gia
type StatesResponse struct {
	Country     string              `json:"country"`
	Query       string              `json:"query,omitempty"`
	States      []string            `json:"states,omitempty"`
	Suggestions []locale.Suggestion `json:"suggestions,omitempty"`
}

// ErrorResponse response lỗi
type ErrorResponse struct {
	Error     string      `json:"error"`             // Mã lỗi
	Message   string      `json:"message"`           // Thông báo lỗi
	Details   interface{} `json:"details,omitempty"` // Chi tiết lỗi
	Timestamp string      `json:"timestamp"`         // Thời gian xảy ra lỗi
}

// SuccessResponse response thành công
type SuccessResponse struct {
	Success   bool        `json:"success"`        // Có thành công không
	Message   string      `json:"message"`        // Thông báo
	Data      interface{} `json:"data,omitempty"` // Dữ liệu
	Timestamp string      `json:"timestamp"`      // Thời gian
}

// HealthCheckResponse response kiểm tra sức khỏe
type HealthCheckResponse struct {
	Status    string            `json:"status"`    // Trạng thái sức khỏe
	Timestamp string            `json:"timestamp"` // Thời gian kiểm tra
	Uptime    string            `json:"uptime"`    // Thời gian hoạt động
	Version   string            `json:"version"`   // Phiên bản
	Services  map[string]string `json:"services"`  // Trạng thái các service
}

// SystemStatsResponse response thống kê hệ thống
type SystemStatsResponse struct {
	CacheHitRate        float64       `json:"cache_hit_rate"`         // Tỷ lệ hit cache
	MatchRate           float64       `json:"match_rate"`             // Tỷ lệ parse thành công
	AvgProcessingTimeMs float64       `json:"avg_processing_time_ms"` // Thời gian xử lý trung bình (ms)
	TotalProcessed      int64         `json:"total_processed"`        // Tổng số địa chỉ đã xử lý
	ReviewQueueSize     int64         `json:"review_queue_size"`      // Số lượng review đang chờ
	SystemInfo          SystemInfo    `json:"system_info"`            // Thông tin hệ thống
	DatabaseStats       DatabaseStats `json:"database_stats"`         // Thống kê database
}

// SystemInfo thông tin hệ thống
type SystemInfo struct {
	Version       string                 `json:"version"`        // Phiên bản
	LocaleVersion string                 `json:"locale_version"` // Phiên bản dữ liệu bang/tỉnh
	Environment   string                 `json:"environment"`    // Môi trường
	Uptime        string                 `json:"uptime"`         // Thời gian hoạt động
	MemoryUsage   map[string]interface{} `json:"memory_usage"`   // Sử dụng memory
	Goroutines    int                    `json:"goroutines"`     // Số goroutine đang chạy
}

// DatabaseStats thống kê database
type DatabaseStats struct {
	AddressCache  int64 `json:"address_cache"`  // Số lượng address cache
	AddressReview int64 `json:"address_review"` // Số lượng address review
}
