package models

import (
	"strings"
	"time"
)

// AddressDocument bản ghi địa chỉ trong sổ địa chỉ (Meilisearch)
type AddressDocument struct {
	ID            string    `json:"id"` // Fingerprint dạng hex, dùng làm primary key
	AddressTo     string    `json:"address_to"`
	StreetAddress string    `json:"street_address"`
	Municipality  string    `json:"municipality"`
	State         string    `json:"state"`
	Country       string    `json:"country"`
	CountryName   string    `json:"country_name"`
	PostalCode    string    `json:"postal_code,omitempty"`
	Raw           string    `json:"raw"`
	IndexedAt     time.Time `json:"indexed_at"`
}

// NewAddressDocument tạo document từ kết quả parse thành công
func NewAddressDocument(result *AddressResult) *AddressDocument {
	if result == nil || result.Address == nil {
		return nil
	}
	a := result.Address
	return &AddressDocument{
		ID:            DocumentID(result.RawFingerprint),
		AddressTo:     a.AddressTo,
		StreetAddress: a.StreetAddress,
		Municipality:  a.Municipality,
		State:         a.State,
		Country:       a.Country,
		CountryName:   a.CountryName,
		PostalCode:    a.PostalCode,
		Raw:           result.Raw,
		IndexedAt:     time.Now().UTC(),
	}
}

// DocumentID strips the "sha256:" prefix; Meilisearch ids only allow
// alphanumerics, hyphens and underscores.
func DocumentID(fingerprint string) string {
	return strings.TrimPrefix(fingerprint, "sha256:")
}

// ToPostalAddress chuyển document về PostalAddress
func (d *AddressDocument) ToPostalAddress() PostalAddress {
	return PostalAddress{
		AddressTo:     d.AddressTo,
		StreetAddress: d.StreetAddress,
		Municipality:  d.Municipality,
		State:         d.State,
		Country:       d.Country,
		CountryName:   d.CountryName,
		PostalCode:    d.PostalCode,
	}
}
