package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressCache cache kết quả parse địa chỉ
type AddressCache struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RawFingerprint   string             `bson:"raw_fingerprint" json:"raw_fingerprint"` // Fingerprint của địa chỉ
	RawAddress       string             `bson:"raw_address" json:"raw_address"`         // Địa chỉ gốc
	ParsedResult     AddressResult      `bson:"parsed_result" json:"parsed_result"`     // Kết quả parse
	Status           string             `bson:"status" json:"status"`
	LocaleVersion    string             `bson:"locale_version" json:"locale_version"`       // Phiên bản dữ liệu locale
	ManuallyVerified bool               `bson:"manually_verified" json:"manually_verified"` // Đã được xác minh thủ công
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`               // Thời gian tạo
	LastAccessed     time.Time          `bson:"last_accessed" json:"last_accessed"`         // Lần truy cập cuối
	AccessCount      int                `bson:"access_count" json:"access_count"`           // Số lần truy cập
}

// NewAddressCache tạo mới một AddressCache
func NewAddressCache(result AddressResult) *AddressCache {
	now := time.Now()
	return &AddressCache{
		RawFingerprint:   result.RawFingerprint,
		RawAddress:       result.Raw,
		ParsedResult:     result,
		Status:           result.Status,
		LocaleVersion:    result.LocaleVersion,
		ManuallyVerified: result.Status == StatusReviewed,
		CreatedAt:        now,
		LastAccessed:     now,
		AccessCount:      1,
	}
}
