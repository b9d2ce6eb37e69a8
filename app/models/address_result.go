package models

import (
	"errors"
	"fmt"
	"strings"
)

// PostalAddress địa chỉ đã được tách thành các trường
type PostalAddress struct {
	AddressTo     string `bson:"address_to" json:"address_to"`         // Người nhận (dòng đầu tiên)
	StreetAddress string `bson:"street_address" json:"street_address"` // Địa chỉ đường, có thể nhiều dòng
	Municipality  string `bson:"municipality" json:"municipality"`     // Thành phố
	State         string `bson:"state" json:"state"`                   // Tên chuẩn của bang/tỉnh
	Country       string `bson:"country" json:"country"`               // Mã ISO alpha-2
	CountryName   string `bson:"country_name" json:"country_name"`
	PostalCode    string `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
}

// ErrIncompleteAddress is returned by Validate when a required field is empty.
var ErrIncompleteAddress = errors.New("incomplete postal address")

// Validate kiểm tra các trường bắt buộc
func (a *PostalAddress) Validate() error {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(a.AddressTo) == "" {
		missing = append(missing, "address_to")
	}
	if strings.TrimSpace(a.StreetAddress) == "" {
		missing = append(missing, "street_address")
	}
	if strings.TrimSpace(a.Municipality) == "" {
		missing = append(missing, "municipality")
	}
	if strings.TrimSpace(a.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteAddress, strings.Join(missing, ", "))
	}
	return nil
}

// String renders the address the way it is written on an envelope.
func (a *PostalAddress) String() string {
	country := a.CountryName
	if country == "" {
		country = a.Country
	}
	return a.AddressTo + "\n" +
		a.StreetAddress + "\n" +
		a.Municipality + ", " + a.State + ", " + country + "\n" +
		a.PostalCode
}

// AddressResult kết quả parse địa chỉ
type AddressResult struct {
	Raw            string         `bson:"raw" json:"raw"`                                   // Địa chỉ gốc
	RawFingerprint string         `bson:"raw_fingerprint" json:"raw_fingerprint"`           // Fingerprint của địa chỉ
	Address        *PostalAddress `bson:"address,omitempty" json:"address,omitempty"`       // Địa chỉ đã tách
	Score          int            `bson:"score" json:"score"`                               // Điểm phạt của ứng viên thắng, càng thấp càng tốt
	Status         string         `bson:"status" json:"status"`                             // Trạng thái xử lý
	Error          string         `bson:"error,omitempty" json:"error,omitempty"`           // Lý do thất bại
	Candidates     []Candidate    `bson:"candidates,omitempty" json:"candidates,omitempty"` // Danh sách ứng viên
	LocaleVersion  string         `bson:"locale_version" json:"locale_version"`             // Phiên bản dữ liệu bang/tỉnh
}

// Candidate ứng viên đã chấm điểm
type Candidate struct {
	Country         string `bson:"country" json:"country"`
	State           string `bson:"state" json:"state"`
	Municipality    string `bson:"municipality,omitempty" json:"municipality,omitempty"`
	PostalCode      string `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
	HasCountryToken bool   `bson:"has_country_token" json:"has_country_token"`
	StateToken      int    `bson:"state_token" json:"state_token"`
	Score           int    `bson:"score" json:"score"`
}

// Status constants
const (
	StatusMatched   = "matched"
	StatusAmbiguous = "ambiguous"
	StatusReviewed  = "reviewed"
)

// IsMatched reports whether the result carries a complete address.
func (ar *AddressResult) IsMatched() bool {
	return ar.Address != nil && (ar.Status == StatusMatched || ar.Status == StatusReviewed)
}
