package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postal-parser/app/models"
	"github.com/postal-parser/app/requests"
	"github.com/postal-parser/internal/parser"
	"github.com/postal-parser/internal/search"
)

const (
	trimen  = "Trimen Food Service Equipment Inc.\nAutorente 20 and Tourane St\nBoucherville, QC"
	classic = "CLassic Fire Protection\n645 Garyray Drive\nNorth York, ON M9L 1P9"
	seattle = "Acme Supply\n1 Pike Street\nSeattle, WA"
)

type fakeIndexer struct {
	mu    sync.Mutex
	calls int
	docs  []*models.AddressDocument
}

func (f *fakeIndexer) IndexAddresses(ctx context.Context, docs []*models.AddressDocument) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.docs = append(f.docs, docs...)
	return len(docs), nil
}

func (f *fakeIndexer) Search(ctx context.Context, req search.SearchRequest) ([]models.AddressDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AddressDocument
	for _, d := range f.docs {
		if req.Country == "" || d.Country == req.Country {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeReviewQueue struct {
	mu      sync.Mutex
	results []*models.AddressResult
}

func (f *fakeReviewQueue) Enqueue(ctx context.Context, result *models.AddressResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	return nil
}

func (f *fakeReviewQueue) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

func newTestService(opts ...AddressServiceOption) *AddressService {
	return NewAddressService(parser.NewAddressParser(nil, nil), zap.NewNop(), opts...)
}

func TestAddressService_ParseAddress(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input", func(t *testing.T) {
		_, _, err := newTestService().ParseAddress(ctx, "  \n ", requests.ParseOptions{})
		assert.ErrorIs(t, err, ErrEmptyAddress)
	})

	t.Run("matched", func(t *testing.T) {
		result, hit, err := newTestService().ParseAddress(ctx, classic, requests.ParseOptions{ReturnCandidates: true})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, models.StatusMatched, result.Status)
		assert.Equal(t, "North York", result.Address.Municipality)
		assert.Equal(t, "M9L 1P9", result.Address.PostalCode)
		assert.NotEmpty(t, result.Candidates)
	})

	t.Run("ambiguous input is queued for review", func(t *testing.T) {
		reviews := &fakeReviewQueue{}
		svc := newTestService(WithReviewQueue(reviews))

		result, _, err := svc.ParseAddress(ctx, seattle, requests.ParseOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, parser.ErrAmbiguousAddress))
		assert.Equal(t, models.StatusAmbiguous, result.Status)
		assert.Equal(t, 1, reviews.len())

		_, _, err = svc.ParseAddress(ctx, seattle, requests.ParseOptions{SkipReview: true})
		require.Error(t, err)
		assert.Equal(t, 1, reviews.len())
	})
}

func TestAddressService_Cache(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(100, time.Hour)
	svc := newTestService(WithCache(cache))
	opts := requests.ParseOptions{UseCache: true}

	first, hit, err := svc.ParseAddress(ctx, trimen, opts)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.ParseAddress(ctx, trimen, opts)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Address, second.Address)

	// whitespace differences share one fingerprint
	_, hit, err = svc.ParseAddress(ctx, "Trimen Food Service Equipment Inc.\nAutorente 20 and Tourane St\nBoucherville,   QC", opts)
	require.NoError(t, err)
	assert.True(t, hit)

	_, hit, err = svc.ParseAddress(ctx, trimen, requests.ParseOptions{})
	require.NoError(t, err)
	assert.False(t, hit)

	// failures are never cached
	_, _, _ = svc.ParseAddress(ctx, seattle, opts)
	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalItems)

	assert.Equal(t, int64(2), svc.Stats().CacheHits)
	assert.Equal(t, int64(5), svc.Stats().TotalParsed)
	assert.Equal(t, int64(4), svc.Stats().Matched)
}

func TestAddressService_IndexAndSearch(t *testing.T) {
	ctx := context.Background()

	_, err := newTestService().Search(ctx, search.SearchRequest{Query: "fire"})
	assert.ErrorIs(t, err, ErrIndexUnavailable)

	index := &fakeIndexer{}
	svc := newTestService(WithIndex(index))

	result, _, err := svc.ParseAddress(ctx, classic, requests.ParseOptions{Index: true})
	require.NoError(t, err)
	require.Len(t, index.docs, 1)
	assert.Equal(t, models.DocumentID(result.RawFingerprint), index.docs[0].ID)
	assert.Equal(t, "Ontario", index.docs[0].State)

	_, _, err = svc.ParseAddress(ctx, trimen, requests.ParseOptions{})
	require.NoError(t, err)
	assert.Len(t, index.docs, 1)

	docs, err := svc.Search(ctx, search.SearchRequest{Country: "CA"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "CLassic Fire Protection", docs[0].AddressTo)
}

func TestAddressService_BatchJob(t *testing.T) {
	ctx := context.Background()
	index := &fakeIndexer{}
	svc := newTestService(WithIndex(index), WithWorkers(2))
	addresses := []string{trimen, seattle, classic, "   "}

	svc.ProcessBatchJob(ctx, "job-1", addresses, requests.ParseOptions{Index: true})

	status, err := svc.GetJobStatus("job-1")
	require.NoError(t, err)
	assert.Equal(t, JobStatusDone, status.Status)
	assert.Equal(t, 4, status.Processed)
	assert.Equal(t, 2, status.Matched)
	assert.Equal(t, 1.0, status.Progress)

	results, err := svc.GetJobResults("job-1")
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "Boucherville", results[0].Address.Municipality)
	assert.Equal(t, models.StatusAmbiguous, results[1].Status)
	assert.Equal(t, "North York", results[2].Address.Municipality)
	assert.Equal(t, models.StatusAmbiguous, results[3].Status)
	assert.NotEmpty(t, results[3].Error)

	// one index call per batch, matched results only
	assert.Equal(t, 1, index.calls)
	assert.Len(t, index.docs, 2)

	stream, err := svc.GetJobResultsStream(ctx, "job-1")
	require.NoError(t, err)
	var streamed []string
	for r := range stream {
		streamed = append(streamed, r.Raw)
	}
	assert.Equal(t, addresses, streamed)
}

func TestAddressService_BatchMatchesSequential(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(WithWorkers(8))

	var addresses []string
	for i := 0; i < 25; i++ {
		addresses = append(addresses, trimen, classic, seattle)
	}
	svc.ProcessBatchJob(ctx, "job-det", addresses, requests.ParseOptions{SkipReview: true})
	results, err := svc.GetJobResults("job-det")
	require.NoError(t, err)

	sequential := parser.NewAddressParser(nil, nil).ParseAddresses(addresses)
	require.Len(t, results, len(sequential))
	for i := range results {
		assert.Equal(t, sequential[i].Address, results[i].Address, i)
		assert.Equal(t, sequential[i].Status, results[i].Status, i)
	}
}

func TestAddressService_JobErrors(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetJobStatus("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.GetJobResults("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	svc.registerJob("pending", 10)
	_, err = svc.GetJobResults("pending")
	assert.ErrorIs(t, err, ErrJobNotFinished)
	_, err = svc.GetJobResultsStream(context.Background(), "pending")
	assert.ErrorIs(t, err, ErrJobNotFinished)
}

func TestAddressService_StartBatchJob(t *testing.T) {
	svc := newTestService()
	jobID := svc.StartBatchJob([]string{trimen, classic}, requests.ParseOptions{})
	require.NotEmpty(t, jobID)

	assert.Eventually(t, func() bool {
		status, err := svc.GetJobStatus(jobID)
		return err == nil && status.Status == JobStatusDone
	}, 5*time.Second, 10*time.Millisecond)

	assert.GreaterOrEqual(t, svc.EstimateBatchProcessingTime(1000), 1)
	assert.Equal(t, 1, svc.GetStats()["jobs"])
}
