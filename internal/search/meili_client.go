// Package search provides the Meilisearch address book
package search

import (
	"fmt"
	"strings"

	ms "github.com/meilisearch/meilisearch-go"
)

// ClientWrapper wraps Meilisearch client with the few calls the address book needs
type ClientWrapper struct {
	cli ms.ServiceManager
}

// NewClientWrapper creates new Meilisearch client wrapper
func NewClientWrapper(url, key string) *ClientWrapper {
	return &ClientWrapper{cli: ms.New(url, ms.WithAPIKey(key))}
}

// SearchIndex performs a filtered search on one index
func (c *ClientWrapper) SearchIndex(index string, q string, filter string, limit int64) (*ms.SearchResponse, error) {
	req := &ms.SearchRequest{Limit: limit}
	if filter != "" {
		req.Filter = filter
	}
	return c.cli.Index(index).Search(q, req)
}

// Healthy reports whether the server answers its health endpoint
func (c *ClientWrapper) Healthy() bool {
	_, err := c.cli.Health()
	return err == nil
}

// Index returns the index manager for uid
func (c *ClientWrapper) Index(uid string) ms.IndexManager {
	return c.cli.Index(uid)
}

// FilterCountryState creates a filter string for country and state; empty
// values are left out.
func FilterCountryState(country, state string) string {
	var parts []string
	if country != "" {
		parts = append(parts, fmt.Sprintf("country = %q", strings.ToUpper(country)))
	}
	if state != "" {
		parts = append(parts, fmt.Sprintf("state = %q", state))
	}
	return strings.Join(parts, " AND ")
}
