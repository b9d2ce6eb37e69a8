package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressReview địa chỉ không parse được, chờ người xử lý
type AddressReview struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RawAddress     string             `bson:"raw_address" json:"raw_address"`                         // Địa chỉ gốc
	RawFingerprint string             `bson:"raw_fingerprint" json:"raw_fingerprint"`                 // Fingerprint của địa chỉ
	Reason         string             `bson:"reason" json:"reason"`                                   // Lý do parse thất bại
	Candidates     []Candidate        `bson:"candidates" json:"candidates"`                           // Danh sách ứng viên
	Status         string             `bson:"status" json:"status"`                                   // Trạng thái review
	ManualResult   *PostalAddress     `bson:"manual_result,omitempty" json:"manual_result,omitempty"` // Kết quả review thủ công
	ReviewerID     *string            `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`     // ID người review
	ReviewedAt     *time.Time         `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`     // Thời gian review
	LocaleVersion  string             `bson:"locale_version" json:"locale_version"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"` // Thời gian tạo
}

// Status constants
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// NewAddressReview tạo mới một AddressReview từ kết quả thất bại
func NewAddressReview(result AddressResult) *AddressReview {
	return &AddressReview{
		RawAddress:     result.Raw,
		RawFingerprint: result.RawFingerprint,
		Reason:         result.Error,
		Candidates:     result.Candidates,
		Status:         ReviewStatusPending,
		LocaleVersion:  result.LocaleVersion,
		CreatedAt:      time.Now(),
	}
}

// Reject từ chối, địa chỉ không thể xử lý
func (ar *AddressReview) Reject(reviewerID string) {
	ar.Status = ReviewStatusRejected
	ar.ReviewerID = &reviewerID
	now := time.Now()
	ar.ReviewedAt = &now
}

// SetManualResult thiết lập kết quả review thủ công
func (ar *AddressReview) SetManualResult(address PostalAddress, reviewerID string) {
	ar.ManualResult = &address
	ar.Status = ReviewStatusApproved
	ar.ReviewerID = &reviewerID
	now := time.Now()
	ar.ReviewedAt = &now
}

// IsPending kiểm tra có đang chờ review không
func (ar *AddressReview) IsPending() bool {
	return ar.Status == ReviewStatusPending
}

// ToResult converts an approved review into a result that can be cached in
// place of the failed parse.
func (ar *AddressReview) ToResult() *AddressResult {
	if ar.ManualResult == nil {
		return nil
	}
	address := *ar.ManualResult
	return &AddressResult{
		Raw:            ar.RawAddress,
		RawFingerprint: ar.RawFingerprint,
		Address:        &address,
		Status:         StatusReviewed,
		LocaleVersion:  ar.LocaleVersion,
	}
}
