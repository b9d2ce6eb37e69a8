package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/postal-parser/app/models"
	"github.com/postal-parser/internal/locale"
)

var (
	// ErrReviewNotFound is returned for an unknown or malformed review id.
	ErrReviewNotFound = errors.New("review not found")
	// ErrReviewClosed is returned when resolving a review that is no longer pending.
	ErrReviewClosed = errors.New("review already resolved")
	// ErrUnknownCountry is returned when a reviewed address names no known country.
	ErrUnknownCountry = errors.New("unknown country code")
)

// ReviewQueue nhận các địa chỉ parse thất bại
type ReviewQueue interface {
	Enqueue(ctx context.Context, result *models.AddressResult) error
}

// ReviewService hàng chờ review thủ công trên MongoDB
type ReviewService struct {
	collection *mongo.Collection
	cache      ICacheService
	table      *locale.Table
	logger     *zap.Logger
}

// NewReviewService tạo mới ReviewService. cache may be nil; a nil table means
// locale.Default().
func NewReviewService(db *mongo.Database, cache ICacheService, table *locale.Table, logger *zap.Logger) *ReviewService {
	if table == nil {
		table = locale.Default()
	}
	collection := db.Collection("address_review")

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "raw_fingerprint", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Failed to create address_review indexes", zap.Error(err))
	}

	return &ReviewService{collection: collection, cache: cache, table: table, logger: logger}
}

// Enqueue thêm địa chỉ vào hàng chờ; một địa chỉ chỉ có một review đang chờ
func (rs *ReviewService) Enqueue(ctx context.Context, result *models.AddressResult) error {
	review := models.NewAddressReview(*result)

	filter := bson.M{
		"raw_fingerprint": review.RawFingerprint,
		"status":          models.ReviewStatusPending,
	}
	update := bson.M{"$setOnInsert": review}
	res, err := rs.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to enqueue review: %w", err)
	}

	if res.UpsertedCount > 0 {
		rs.logger.Info("Queued address for review",
			zap.String("fingerprint", review.RawFingerprint),
			zap.String("reason", review.Reason))
	}
	return nil
}

// List lấy danh sách review theo trạng thái (rỗng = tất cả), mới nhất trước
func (rs *ReviewService) List(ctx context.Context, status string, limit, offset int) ([]models.AddressReview, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := rs.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := rs.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]models.AddressReview, 0, limit)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, total, nil
}

// CountPending đếm số review đang chờ
func (rs *ReviewService) CountPending(ctx context.Context) (int64, error) {
	return rs.collection.CountDocuments(ctx, bson.M{"status": models.ReviewStatusPending})
}

// Get lấy một review theo id
func (rs *ReviewService) Get(ctx context.Context, id string) (*models.AddressReview, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	var review models.AddressReview
	if err := rs.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	return &review, nil
}

// Approve duyệt review với địa chỉ đã chỉnh sửa và ghi kết quả vào cache
// để lần parse sau trả về ngay.
func (rs *ReviewService) Approve(ctx context.Context, id string, address models.PostalAddress, reviewerID string) (*models.AddressResult, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}
	country := locale.Country(strings.ToUpper(strings.TrimSpace(address.Country)))
	if !rs.table.Known(country) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCountry, address.Country)
	}
	address.Country = string(country)
	if address.CountryName == "" {
		address.CountryName = rs.table.CountryName(country)
	}

	review, err := rs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.IsPending() {
		return nil, ErrReviewClosed
	}

	review.SetManualResult(address, reviewerID)
	if err := rs.save(ctx, review); err != nil {
		return nil, err
	}

	result := review.ToResult()
	if rs.cache != nil {
		if err := rs.cache.Set(ctx, review.RawFingerprint, result); err != nil {
			rs.logger.Warn("Failed to cache reviewed address", zap.Error(err))
		}
	}

	rs.logger.Info("Review approved", zap.String("review_id", id), zap.String("reviewer_id", reviewerID))
	return result, nil
}

// Reject từ chối review
func (rs *ReviewService) Reject(ctx context.Context, id string, reviewerID string) error {
	review, err := rs.Get(ctx, id)
	if err != nil {
		return err
	}
	if !review.IsPending() {
		return ErrReviewClosed
	}

	review.Reject(reviewerID)
	if err := rs.save(ctx, review); err != nil {
		return err
	}

	rs.logger.Info("Review rejected", zap.String("review_id", id), zap.String("reviewer_id", reviewerID))
	return nil
}

func (rs *ReviewService) save(ctx context.Context, review *models.AddressReview) error {
	update := bson.M{"$set": bson.M{
		"status":        review.Status,
		"manual_result": review.ManualResult,
		"reviewer_id":   review.ReviewerID,
		"reviewed_at":   review.ReviewedAt,
	}}
	if _, err := rs.collection.UpdateByID(ctx, review.ID, update); err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	return nil
}
