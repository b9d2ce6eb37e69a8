package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"github.com/postal-parser/app/models"
)

func reviewDoc(t require.TestingT, review *models.AddressReview) bson.D {
	raw, err := bson.Marshal(review)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func pendingReview() *models.AddressReview {
	review := models.NewAddressReview(models.AddressResult{
		Raw:            seattle,
		RawFingerprint: "fp-seattle",
		Status:         models.StatusAmbiguous,
		Error:          "2 candidates tie at score 2",
		LocaleVersion:  "2024.1",
	})
	review.ID = primitive.NewObjectID()
	return review
}

func reviewedAddress(country string) models.PostalAddress {
	return models.PostalAddress{
		AddressTo:     "Acme Supply",
		StreetAddress: "1 Pike Street",
		Municipality:  "Seattle",
		State:         "Washington",
		Country:       country,
	}
}

func TestReviewService(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	newService := func(mt *mtest.T, cache ICacheService) *ReviewService {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		return NewReviewService(mt.DB, cache, nil, zap.NewNop())
	}

	mt.Run("enqueue upserts a pending review", func(mt *mtest.T) {
		rs := newService(mt, nil)
		mt.ClearEvents()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: primitive.NewObjectID()}}}},
		))

		err := rs.Enqueue(ctx, &models.AddressResult{Raw: seattle, RawFingerprint: "fp-seattle", Status: models.StatusAmbiguous})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
	})

	mt.Run("enqueue reports write errors", func(mt *mtest.T) {
		rs := newService(mt, nil)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := rs.Enqueue(ctx, &models.AddressResult{Raw: seattle, RawFingerprint: "fp-seattle"})
		assert.Error(mt, err)
	})

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		rs := newService(mt, nil)
		_, err := rs.Get(ctx, "not-an-object-id")
		assert.True(mt, errors.Is(err, ErrReviewNotFound))
	})

	mt.Run("approve rejects an unknown country", func(mt *mtest.T) {
		rs := newService(mt, nil)
		_, err := rs.Approve(ctx, primitive.NewObjectID().Hex(), reviewedAddress("ZZ"), "reviewer-1")
		assert.True(mt, errors.Is(err, ErrUnknownCountry))
	})

	mt.Run("approve caches the reviewed result", func(mt *mtest.T) {
		cache := NewCacheService(10, time.Hour)
		rs := newService(mt, cache)
		review := pendingReview()
		ns := mt.DB.Name() + ".address_review"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, reviewDoc(mt, review)),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		result, err := rs.Approve(ctx, review.ID.Hex(), reviewedAddress("us"), "reviewer-1")
		require.NoError(mt, err)
		assert.Equal(mt, models.StatusReviewed, result.Status)
		assert.Equal(mt, "US", result.Address.Country)
		assert.NotEmpty(mt, result.Address.CountryName)

		cached, found, err := cache.Get(ctx, "fp-seattle")
		require.NoError(mt, err)
		require.True(mt, found)
		assert.Equal(mt, result, cached)
	})

	mt.Run("approve refuses a closed review", func(mt *mtest.T) {
		rs := newService(mt, nil)
		review := pendingReview()
		review.Reject("reviewer-0")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".address_review", mtest.FirstBatch, reviewDoc(mt, review)))

		_, err := rs.Approve(ctx, review.ID.Hex(), reviewedAddress("US"), "reviewer-1")
		assert.True(mt, errors.Is(err, ErrReviewClosed))
	})
}
