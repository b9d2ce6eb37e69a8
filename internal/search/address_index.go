package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/postal-parser/app/models"
)

// ErrEmptyQuery is returned by Search when neither a query nor a filter is given.
var ErrEmptyQuery = errors.New("search query and filters are empty")

// SearchConfig cấu hình cho Meilisearch
type SearchConfig struct {
	Host          string
	APIKey        string
	IndexName     string
	Timeout       time.Duration
	MaxCandidates int
	BatchSize     int
}

// SearchRequest tìm kiếm trong sổ địa chỉ
type SearchRequest struct {
	Query   string
	Country string
	State   string
	Limit   int
}

// AddressIndex sổ địa chỉ đã parse, lưu trong Meilisearch
type AddressIndex struct {
	client    *ClientWrapper
	logger    *zap.Logger
	indexName string
	timeout   time.Duration
	maxHits   int
	batchSize int
}

// NewAddressIndex tạo mới AddressIndex với Meilisearch client
func NewAddressIndex(config SearchConfig, logger *zap.Logger) (*AddressIndex, error) {
	client := NewClientWrapper(config.Host, config.APIKey)
	if _, err := client.cli.Health(); err != nil {
		return nil, fmt.Errorf("không thể kết nối Meilisearch: %w", err)
	}
	return newAddressIndex(client, config, logger), nil
}

func newAddressIndex(client *ClientWrapper, config SearchConfig, logger *zap.Logger) *AddressIndex {
	if config.IndexName == "" {
		config.IndexName = "addresses"
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 20
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 1000
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &AddressIndex{
		client:    client,
		logger:    logger,
		indexName: config.IndexName,
		timeout:   config.Timeout,
		maxHits:   config.MaxCandidates,
		batchSize: config.BatchSize,
	}
}

// IndexName returns the Meilisearch index uid
func (ai *AddressIndex) IndexName() string {
	return ai.indexName
}

// Healthy reports whether Meilisearch is reachable
func (ai *AddressIndex) Healthy() bool {
	return ai.client.Healthy()
}

// BuildIndexes cấu hình index Meilisearch cho sổ địa chỉ
func (ai *AddressIndex) BuildIndexes() error {
	index := ai.client.Index(ai.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"address_to", "street_address", "municipality", "state", "postal_code", "raw"},
		FilterableAttributes: []string{"country", "state", "municipality"},
		SortableAttributes:   []string{"indexed_at"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		Synonyms: map[string][]string{
			"st":  {"street", "saint"},
			"ave": {"avenue"},
			"rd":  {"road"},
			"dr":  {"drive"},
		},
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  4,
				TwoTypos: 8,
			},
			// postal codes must match exactly
			DisableOnAttributes: []string{"postal_code"},
		},
	})
	if err != nil {
		return fmt.Errorf("lỗi cấu hình index: %w", err)
	}

	ai.logger.Info("Configured address index", zap.String("index", ai.indexName), zap.Int64("task_uid", task.TaskUID))
	return nil
}

// IndexAddresses nạp các địa chỉ vào Meilisearch theo batch, trả về số document đã gửi
func (ai *AddressIndex) IndexAddresses(ctx context.Context, docs []*models.AddressDocument) (int, error) {
	batch := make([]*models.AddressDocument, 0, len(docs))
	for _, d := range docs {
		if d != nil && d.ID != "" {
			batch = append(batch, d)
		}
	}
	if len(batch) == 0 {
		return 0, nil
	}

	index := ai.client.Index(ai.indexName)
	sent := 0
	for i := 0; i < len(batch); i += ai.batchSize {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		end := i + ai.batchSize
		if end > len(batch) {
			end = len(batch)
		}

		task, err := index.AddDocuments(batch[i:end], "id")
		if err != nil {
			return sent, fmt.Errorf("lỗi thêm documents batch %d-%d: %w", i, end, err)
		}
		sent += end - i

		ai.logger.Debug("Queued address documents",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}

	ai.logger.Info("Indexed addresses", zap.Int("total_documents", sent))
	return sent, nil
}

// Search tìm kiếm địa chỉ trong sổ địa chỉ
func (ai *AddressIndex) Search(ctx context.Context, req SearchRequest) ([]models.AddressDocument, error) {
	filter := FilterCountryState(req.Country, req.State)
	if req.Query == "" && filter == "" {
		return nil, ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 || limit > ai.maxHits {
		limit = ai.maxHits
	}

	result, err := ai.client.SearchIndex(ai.indexName, req.Query, filter, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm kiếm Meilisearch: %w", err)
	}
	return parseSearchHits(result.Hits), nil
}

// Clear xóa toàn bộ document của sổ địa chỉ
func (ai *AddressIndex) Clear() error {
	if _, err := ai.client.Index(ai.indexName).DeleteAllDocuments(); err != nil {
		return fmt.Errorf("lỗi xóa documents: %w", err)
	}
	ai.logger.Info("Cleared address index", zap.String("index", ai.indexName))
	return nil
}

// parseSearchHits parse kết quả từ Meilisearch thành AddressDocument
func parseSearchHits(hits []interface{}) []models.AddressDocument {
	docs := make([]models.AddressDocument, 0, len(hits))
	for _, hit := range hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		doc := models.AddressDocument{
			ID:            stringField(hitMap, "id"),
			AddressTo:     stringField(hitMap, "address_to"),
			StreetAddress: stringField(hitMap, "street_address"),
			Municipality:  stringField(hitMap, "municipality"),
			State:         stringField(hitMap, "state"),
			Country:       stringField(hitMap, "country"),
			CountryName:   stringField(hitMap, "country_name"),
			PostalCode:    stringField(hitMap, "postal_code"),
			Raw:           stringField(hitMap, "raw"),
		}
		if ts, err := time.Parse(time.RFC3339Nano, stringField(hitMap, "indexed_at")); err == nil {
			doc.IndexedAt = ts
		}
		docs = append(docs, doc)
	}
	return docs
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
