package requests

import "github.com/postal-parser/app/models"

// ParseAddressRequest request parse địa chỉ đơn lẻ
type ParseAddressRequest struct {
	Address string       `json:"address" binding:"required"` // Địa chỉ cần parse
	Options ParseOptions `json:"options,omitempty"`          // Tùy chọn parse
}

// ParseOptions tùy chọn parse
type ParseOptions struct {
	UseCache         bool `json:"use_cache,omitempty"`         // Có sử dụng cache không
	ReturnCandidates bool `json:"return_candidates,omitempty"` // Có trả về candidates không
	Index            bool `json:"index,omitempty"`             // Có lưu vào sổ địa chỉ không
	SkipReview       bool `json:"skip_review,omitempty"`       // Không đưa địa chỉ lỗi vào hàng chờ review
}

// BatchParseRequest request parse hàng loạt địa chỉ
type BatchParseRequest struct {
	Addresses []string     `json:"addresses" binding:"required,min=1,max=20000"` // Danh sách địa chỉ (tối đa 20k)
	Options   ParseOptions `json:"options,omitempty"`                            // Tùy chọn parse
}

// SearchAddressRequest query tìm kiếm sổ địa chỉ
type SearchAddressRequest struct {
	Query   string `form:"q"`
	Country string `form:"country"`
	State   string `form:"state"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ReviewResolveRequest request xử lý một review: duyệt với địa chỉ đúng, hoặc từ chối
type ReviewResolveRequest struct {
	ReviewerID   string                `json:"reviewer_id" binding:"required"` // ID người review
	Reject       bool                  `json:"reject,omitempty"`               // Từ chối địa chỉ
	ManualResult *models.PostalAddress `json:"manual_result,omitempty"`        // Địa chỉ đã chỉnh sửa
}
