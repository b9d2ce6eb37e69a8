package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/postal-parser/app/models"
	"github.com/postal-parser/app/requests"
	"github.com/postal-parser/helpers/utils"
	"github.com/postal-parser/internal/normalizer"
	"github.com/postal-parser/internal/parser"
	"github.com/postal-parser/internal/search"
)

var (
	// ErrEmptyAddress is returned for blank input before any parsing happens.
	ErrEmptyAddress = errors.New("address must not be empty")
	// ErrJobNotFound is returned for an unknown batch job id.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobNotFinished is returned when results are requested for a running job.
	ErrJobNotFinished = errors.New("job still running")
	// ErrIndexUnavailable is returned by Search when no address index is configured.
	ErrIndexUnavailable = errors.New("address index unavailable")
)

// Job status constants
const (
	JobStatusRunning = "running"
	JobStatusDone    = "done"
)

// AddressIndexer sổ địa chỉ mà AddressService ghi vào và tìm kiếm
type AddressIndexer interface {
	IndexAddresses(ctx context.Context, docs []*models.AddressDocument) (int, error)
	Search(ctx context.Context, req search.SearchRequest) ([]models.AddressDocument, error)
}

// AddressService service xử lý logic parse địa chỉ
type AddressService struct {
	parser    *parser.AddressParser
	cache     ICacheService
	index     AddressIndexer
	reviews   ReviewQueue
	logger    *zap.Logger
	workers   int
	startTime time.Time
	mu        sync.RWMutex

	// Job management
	jobs       map[string]*JobStatus
	jobResults map[string][]*models.AddressResult

	parsed    atomic.Int64
	matched   atomic.Int64
	cacheHits atomic.Int64
	parseTime atomic.Int64 // nanoseconds
}

// JobStatus trạng thái của job
type JobStatus struct {
	JobID              string
	Status             string
	Progress           float64
	Processed          int
	Matched            int
	Total              int
	EstimatedRemaining int
	Message            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ParseStats thống kê parse từ lúc khởi động
type ParseStats struct {
	TotalParsed         int64
	Matched             int64
	CacheHits           int64
	AvgProcessingTimeMs float64
}

// AddressServiceOption tùy chọn khi tạo AddressService
type AddressServiceOption func(*AddressService)

// WithCache bật cache kết quả parse
func WithCache(cache ICacheService) AddressServiceOption {
	return func(as *AddressService) { as.cache = cache }
}

// WithIndex bật lưu địa chỉ vào sổ địa chỉ
func WithIndex(index AddressIndexer) AddressServiceOption {
	return func(as *AddressService) { as.index = index }
}

// WithReviewQueue đưa địa chỉ parse thất bại vào hàng chờ review
func WithReviewQueue(reviews ReviewQueue) AddressServiceOption {
	return func(as *AddressService) { as.reviews = reviews }
}

// WithWorkers số goroutine xử lý batch job
func WithWorkers(n int) AddressServiceOption {
	return func(as *AddressService) {
		if n > 0 {
			as.workers = n
		}
	}
}

// NewAddressService tạo mới AddressService
func NewAddressService(addressParser *parser.AddressParser, logger *zap.Logger, opts ...AddressServiceOption) *AddressService {
	as := &AddressService{
		parser:     addressParser,
		logger:     logger,
		workers:    4,
		startTime:  time.Now(),
		jobs:       make(map[string]*JobStatus),
		jobResults: make(map[string][]*models.AddressResult),
	}
	for _, opt := range opts {
		opt(as)
	}
	return as
}

// LocaleVersion phiên bản dữ liệu bang/tỉnh đang dùng
func (as *AddressService) LocaleVersion() string {
	return as.parser.Table().Version()
}

// ParseAddress parse một địa chỉ. A failed parse still returns its result,
// with status ambiguous, alongside an error matching
// parser.ErrAmbiguousAddress. The bool reports a cache hit.
func (as *AddressService) ParseAddress(ctx context.Context, rawAddress string, options requests.ParseOptions) (*models.AddressResult, bool, error) {
	if strings.TrimSpace(rawAddress) == "" {
		return nil, false, ErrEmptyAddress
	}

	start := time.Now()
	key := normalizer.Fingerprint(rawAddress, as.LocaleVersion())

	if options.UseCache && as.cache != nil {
		cached, found, err := as.cache.Get(ctx, key)
		if err != nil {
			as.logger.Warn("Cache lookup failed", zap.Error(err))
		} else if found && cached.IsMatched() {
			as.cacheHits.Add(1)
			as.record(start, true)
			return cached, true, nil
		}
	}

	result, err := as.parser.ParseAddress(rawAddress, options.ReturnCandidates)
	as.record(start, err == nil)
	if err != nil {
		if !options.SkipReview {
			as.enqueueReview(ctx, result)
		}
		return result, false, err
	}

	if options.UseCache && as.cache != nil {
		if err := as.cache.Set(ctx, key, result); err != nil {
			as.logger.Warn("Cache write failed", zap.Error(err))
		}
	}
	if options.Index {
		as.indexResults(ctx, []*models.AddressResult{result})
	}
	return result, false, nil
}

func (as *AddressService) record(start time.Time, matched bool) {
	as.parsed.Add(1)
	if matched {
		as.matched.Add(1)
	}
	as.parseTime.Add(int64(time.Since(start)))
}

func (as *AddressService) enqueueReview(ctx context.Context, result *models.AddressResult) {
	if as.reviews == nil || result == nil {
		return
	}
	if err := as.reviews.Enqueue(ctx, result); err != nil {
		as.logger.Warn("Failed to queue address for review", zap.Error(err))
	}
}

func (as *AddressService) indexResults(ctx context.Context, results []*models.AddressResult) {
	if as.index == nil {
		return
	}
	docs := make([]*models.AddressDocument, 0, len(results))
	for _, r := range results {
		if doc := models.NewAddressDocument(r); doc != nil {
			docs = append(docs, doc)
		}
	}
	if _, err := as.index.IndexAddresses(ctx, docs); err != nil {
		as.logger.Warn("Failed to index addresses", zap.Error(err))
	}
}

// Search tìm kiếm trong sổ địa chỉ
func (as *AddressService) Search(ctx context.Context, req search.SearchRequest) ([]models.AddressDocument, error) {
	if as.index == nil {
		return nil, ErrIndexUnavailable
	}
	return as.index.Search(ctx, req)
}

// EstimateBatchProcessingTime ước tính thời gian xử lý batch (giây)
func (as *AddressService) EstimateBatchProcessingTime(addressCount int) int {
	avg := as.Stats().AvgProcessingTimeMs
	if avg <= 0 {
		avg = 1
	}
	seconds := int(avg * float64(addressCount) / float64(as.workers) / 1000)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// StartBatchJob tạo job và xử lý trong background, trả về job id
func (as *AddressService) StartBatchJob(addresses []string, options requests.ParseOptions) string {
	jobID := utils.GenerateUUID()
	as.registerJob(jobID, len(addresses))
	go as.ProcessBatchJob(context.Background(), jobID, addresses, options)
	return jobID
}

func (as *AddressService) registerJob(jobID string, total int) {
	now := time.Now()
	as.mu.Lock()
	as.jobs[jobID] = &JobStatus{
		JobID:     jobID,
		Status:    JobStatusRunning,
		Total:     total,
		Message:   "Đang xử lý...",
		CreatedAt: now,
		UpdatedAt: now,
	}
	as.mu.Unlock()
}

// ProcessBatchJob parse danh sách địa chỉ song song; kết quả giữ đúng thứ tự đầu vào
func (as *AddressService) ProcessBatchJob(ctx context.Context, jobID string, addresses []string, options requests.ParseOptions) {
	as.mu.RLock()
	_, exists := as.jobs[jobID]
	as.mu.RUnlock()
	if !exists {
		as.registerJob(jobID, len(addresses))
	}

	// indexing happens once per batch below, not per address
	perAddress := options
	perAddress.Index = false

	results := make([]*models.AddressResult, len(addresses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(as.workers)

	for i, address := range addresses {
		i, address := i, address
		g.Go(func() error {
			result, _, err := as.ParseAddress(gctx, address, perAddress)
			if result == nil {
				result = &models.AddressResult{
					Raw:           address,
					Status:        models.StatusAmbiguous,
					LocaleVersion: as.LocaleVersion(),
				}
				if err != nil {
					result.Error = err.Error()
				}
			}
			results[i] = result
			as.advanceJob(jobID, result.IsMatched())
			return nil
		})
	}
	_ = g.Wait()

	if options.Index {
		as.indexResults(ctx, results)
	}

	as.mu.Lock()
	as.jobResults[jobID] = results
	if job, exists := as.jobs[jobID]; exists {
		job.Status = JobStatusDone
		job.Progress = 1
		job.EstimatedRemaining = 0
		job.Message = "Hoàn thành xử lý"
		job.UpdatedAt = time.Now()
	}
	as.mu.Unlock()

	as.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.Int("total_addresses", len(addresses)))
}

func (as *AddressService) advanceJob(jobID string, matched bool) {
	as.mu.Lock()
	defer as.mu.Unlock()

	job, exists := as.jobs[jobID]
	if !exists {
		return
	}
	job.Processed++
	if matched {
		job.Matched++
	}
	job.UpdatedAt = time.Now()
	if job.Total > 0 {
		job.Progress = float64(job.Processed) / float64(job.Total)
		perItem := job.UpdatedAt.Sub(job.CreatedAt) / time.Duration(job.Processed)
		job.EstimatedRemaining = int((perItem * time.Duration(job.Total-job.Processed)).Seconds())
	}
}

// GetJobStatus lấy trạng thái job
func (as *AddressService) GetJobStatus(jobID string) (*JobStatus, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	job, exists := as.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// GetJobResults lấy kết quả job
func (as *AddressService) GetJobResults(jobID string) ([]*models.AddressResult, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	if _, exists := as.jobs[jobID]; !exists {
		return nil, ErrJobNotFound
	}
	results, exists := as.jobResults[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFinished, jobID)
	}
	return results, nil
}

// GetJobResultsStream lấy kết quả job dưới dạng channel để stream
func (as *AddressService) GetJobResultsStream(ctx context.Context, jobID string) (<-chan *models.AddressResult, error) {
	results, err := as.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}

	resultChannel := make(chan *models.AddressResult, 100)
	go func() {
		defer close(resultChannel)
		for _, result := range results {
			select {
			case resultChannel <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return resultChannel, nil
}

// GetStartTime lấy thời gian khởi động service
func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}

// Stats lấy thống kê parse
func (as *AddressService) Stats() ParseStats {
	stats := ParseStats{
		TotalParsed: as.parsed.Load(),
		Matched:     as.matched.Load(),
		CacheHits:   as.cacheHits.Load(),
	}
	if stats.TotalParsed > 0 {
		stats.AvgProcessingTimeMs = float64(as.parseTime.Load()) / float64(stats.TotalParsed) / float64(time.Millisecond)
	}
	return stats
}

// GetStats lấy thống kê service
func (as *AddressService) GetStats() map[string]interface{} {
	as.mu.RLock()
	jobs := len(as.jobs)
	as.mu.RUnlock()

	stats := as.Stats()
	return map[string]interface{}{
		"uptime_seconds": int64(time.Since(as.startTime).Seconds()),
		"start_time":     as.startTime.Format(time.RFC3339),
		"status":         "running",
		"locale_version": as.LocaleVersion(),
		"total_parsed":   stats.TotalParsed,
		"matched":        stats.Matched,
		"cache_hits":     stats.CacheHits,
		"jobs":           jobs,
	}
}
