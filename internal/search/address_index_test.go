package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postal-parser/app/models"
)

func TestFilterCountryState(t *testing.T) {
	testCases := []struct {
		name     string
		country  string
		state    string
		expected string
	}{
		{"empty", "", "", ""},
		{"country only", "ca", "", `country = "CA"`},
		{"state only", "", "Ontario", `state = "Ontario"`},
		{"both", "US", "New York", `country = "US" AND state = "New York"`},
		{"quotes are escaped", "", `Bad "State"`, `state = "Bad \"State\""`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FilterCountryState(tc.country, tc.state))
		})
	}
	assert.Equal(t, `country = "MX"`, FilterCountryState("mx", ""))
}

func TestParseSearchHits(t *testing.T) {
	indexedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	hits := []interface{}{
		map[string]interface{}{
			"id":             "abc123",
			"address_to":     "CLassic Fire Protection",
			"street_address": "645 Garyray Drive",
			"municipality":   "North York",
			"state":          "Ontario",
			"country":        "CA",
			"postal_code":    "M9L 1P9",
			"indexed_at":     indexedAt.Format(time.RFC3339Nano),
			"_rankingScore":  0.97,
		},
		"not a document",
		map[string]interface{}{"id": "def456", "state": 12},
	}

	docs := parseSearchHits(hits)
	require.Len(t, docs, 2)

	assert.Equal(t, "abc123", docs[0].ID)
	assert.Equal(t, "North York", docs[0].Municipality)
	assert.Equal(t, "M9L 1P9", docs[0].PostalCode)
	assert.True(t, indexedAt.Equal(docs[0].IndexedAt))

	address := docs[0].ToPostalAddress()
	assert.Equal(t, "CLassic Fire Protection", address.AddressTo)
	assert.Equal(t, "CA", address.Country)

	assert.Equal(t, "def456", docs[1].ID)
	assert.Empty(t, docs[1].State)
	assert.True(t, docs[1].IndexedAt.IsZero())
}

func TestNewAddressIndex_Defaults(t *testing.T) {
	ai := newAddressIndex(nil, SearchConfig{}, zap.NewNop())

	assert.Equal(t, "addresses", ai.IndexName())
	assert.Equal(t, 20, ai.maxHits)
	assert.Equal(t, 1000, ai.batchSize)
	assert.Equal(t, 30*time.Second, ai.timeout)
}

func TestAddressIndex_NoRemoteCallForEmptyInput(t *testing.T) {
	ai := newAddressIndex(nil, SearchConfig{IndexName: "test"}, zap.NewNop())
	ctx := context.Background()

	_, err := ai.Search(ctx, SearchRequest{})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	sent, err := ai.IndexAddresses(ctx, []*models.AddressDocument{nil, {Raw: "no id"}})
	require.NoError(t, err)
	assert.Zero(t, sent)
}
