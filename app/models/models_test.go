package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostalAddress_String(t *testing.T) {
	a := PostalAddress{
		AddressTo:     "Simplex Grinnell",
		StreetAddress: "1 Town Sq",
		Municipality:  "Orange",
		State:         "California",
		Country:       "US",
		CountryName:   "United States",
		PostalCode:    "92865",
	}
	assert.Equal(t, "Simplex Grinnell\n1 Town Sq\nOrange, California, United States\n92865", a.String())

	a.CountryName = ""
	a.PostalCode = ""
	assert.Equal(t, "Simplex Grinnell\n1 Town Sq\nOrange, California, US\n", a.String())
}

func TestPostalAddress_Validate(t *testing.T) {
	complete := PostalAddress{AddressTo: "a", StreetAddress: "b", Municipality: "c", State: "d", Country: "CA"}
	assert.NoError(t, complete.Validate())

	incomplete := complete
	incomplete.Municipality = "  "
	incomplete.Country = ""
	err := incomplete.Validate()
	require.ErrorIs(t, err, ErrIncompleteAddress)
	assert.Contains(t, err.Error(), "municipality, country")
}

func TestAddressReview_Lifecycle(t *testing.T) {
	review := NewAddressReview(AddressResult{
		Raw:            "Acme\n1 Pike Street\nSeattle, WA",
		RawFingerprint: "sha256:abc",
		Error:          "tie",
		Status:         StatusAmbiguous,
		LocaleVersion:  "2024.1",
	})
	require.True(t, review.IsPending())
	assert.Nil(t, review.ToResult())

	review.SetManualResult(PostalAddress{AddressTo: "Acme", StreetAddress: "1 Pike Street",
		Municipality: "Seattle", State: "Washington", Country: "US"}, "ops-1")
	assert.False(t, review.IsPending())
	assert.Equal(t, ReviewStatusApproved, review.Status)

	result := review.ToResult()
	require.NotNil(t, result)
	assert.True(t, result.IsMatched())
	assert.Equal(t, StatusReviewed, result.Status)
	assert.Equal(t, "sha256:abc", result.RawFingerprint)

	rejected := NewAddressReview(AddressResult{Raw: "x"})
	rejected.Reject("ops-2")
	assert.Equal(t, ReviewStatusRejected, rejected.Status)
	require.NotNil(t, rejected.ReviewedAt)
}
