package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/repository"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

// These tests run against the driver's mock deployment, so they need no
// server. Each mocked reply answers exactly one command in order.

func ordersNS(mt *mtest.T) string {
	return mt.DB.Name() + "." + ordersCollection
}

func orderBSON(mt *mtest.T, o *domain.Order) bson.D {
	raw, err := bson.Marshal(toOrderDocument(o))
	require.NoError(mt, err)
	var d bson.D
	require.NoError(mt, bson.Unmarshal(raw, &d))
	return d
}

func countReply(mt *mtest.T, n int32) bson.D {
	if n == 0 {
		return mtest.CreateCursorResponse(0, ordersNS(mt), mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ordersNS(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func replaceReply(matched int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: matched},
	)
}

func duplicateKeyReply() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: orders index: uniq_active_cart",
	})
}

func sampleCart(owner string) *domain.Order {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.NewCart(owner, now)
}

func TestOrderRepository_Mock_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("first cart gets version one", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}))

		cart := sampleCart("owner-1")
		require.NoError(mt, repo.Create(context.Background(), cart))
		assert.Equal(mt, int64(1), cart.Version)
	})

	mt.Run("second active cart is a version conflict", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(duplicateKeyReply())

		cart := sampleCart("owner-1")
		err := repo.Create(context.Background(), cart)
		assert.ErrorIs(mt, err, repository.ErrVersionConflict)
		assert.ErrorIs(mt, err, apperrors.ErrConflict)
		assert.Zero(mt, cart.Version)
	})

	mt.Run("other write errors are store failures", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 121, Message: "document failed validation"}))

		err := repo.Create(context.Background(), sampleCart("owner-1"))
		assert.ErrorIs(mt, err, apperrors.ErrStoreFailure)
		assert.NotErrorIs(mt, err, repository.ErrVersionConflict)
	})
}

func TestOrderRepository_Mock_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matching version is replaced and bumped", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(replaceReply(1))

		cart := sampleCart("owner-1")
		cart.Version = 3
		require.NoError(mt, repo.Update(context.Background(), cart, 3))
		assert.Equal(mt, int64(4), cart.Version)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
	})

	mt.Run("stale version on an existing order is a conflict", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(replaceReply(0), countReply(mt, 1))

		cart := sampleCart("owner-1")
		cart.Version = 2
		err := repo.Update(context.Background(), cart, 2)
		assert.ErrorIs(mt, err, repository.ErrVersionConflict)
		assert.Equal(mt, int64(2), cart.Version)
	})

	mt.Run("missing order is not found", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(replaceReply(0), countReply(mt, 0))

		err := repo.Update(context.Background(), sampleCart("owner-1"), 1)
		assert.ErrorIs(mt, err, apperrors.ErrNotFound)
		assert.NotErrorIs(mt, err, repository.ErrVersionConflict)
	})

	mt.Run("reopening a second cart is a conflict", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(duplicateKeyReply())

		err := repo.Update(context.Background(), sampleCart("owner-1"), 1)
		assert.ErrorIs(mt, err, repository.ErrVersionConflict)
	})

	mt.Run("failed recount is a store failure", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(replaceReply(0), mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    8000,
			Name:    "AtlasError",
			Message: "boom",
		}))

		err := repo.Update(context.Background(), sampleCart("owner-1"), 1)
		assert.ErrorIs(mt, err, apperrors.ErrStoreFailure)
	})
}

func TestOrderRepository_Mock_GetAndDelete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get decodes the stored order", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		want := sampleCart("owner-1")
		want.Version = 7
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ordersNS(mt), mtest.FirstBatch, orderBSON(mt, want)))

		got, err := repo.GetByID(context.Background(), want.ID)
		require.NoError(mt, err)
		assert.Equal(mt, want, got)
	})

	mt.Run("get of a missing order is not found", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ordersNS(mt), mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(mt, err, apperrors.ErrNotFound)
	})

	mt.Run("missing active cart is not found", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ordersNS(mt), mtest.FirstBatch))

		_, err := repo.GetActiveCart(context.Background(), "owner-1")
		assert.ErrorIs(mt, err, apperrors.ErrNotFound)
	})

	mt.Run("delete of a missing order is not found", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}))

		err := repo.Delete(context.Background(), "missing")
		assert.ErrorIs(mt, err, apperrors.ErrNotFound)
	})
}

func TestOrderRepository_Mock_ListExcludesCarts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("history query filters out the cart", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)

		placed := sampleCart("owner-1")
		require.NoError(mt, placed.AddOrIncrement(domain.ProductSnapshot{ProductRef: "p1", Name: "Lamp", UnitPrice: 1500}, 1, placed.CreatedAt))
		require.NoError(mt, placed.Checkout("1 Main St", domain.PaymentCash, placed.CreatedAt))
		placed.Version = 3

		mt.AddMockResponses(
			countReply(mt, 1),
			mtest.CreateCursorResponse(0, ordersNS(mt), mtest.FirstBatch, orderBSON(mt, placed)),
		)

		got, total, err := repo.List(context.Background(), repository.OrderFilter{
			OwnerID:     "owner-1",
			ExcludeCart: true,
			Page:        pagination.DefaultParams(),
		})
		require.NoError(mt, err)
		assert.Equal(mt, 1, total)
		require.Len(mt, got, 1)
		assert.Equal(mt, domain.StatusPlaced, got[0].Status)

		count := mt.GetStartedEvent()
		require.NotNil(mt, count)
		assert.Equal(mt, "aggregate", count.CommandName)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		require.Equal(mt, "find", find.CommandName)
		filter := find.Command.Lookup("filter").Document()
		assert.Equal(mt, "owner-1", filter.Lookup("owner_id").StringValue())
		assert.Equal(mt, string(domain.StatusCart), filter.Lookup("status", "$ne").StringValue())
	})
}

func TestOrderListFilter(t *testing.T) {
	tests := []struct {
		name string
		in   repository.OrderFilter
		want bson.M
	}{
		{"empty", repository.OrderFilter{}, bson.M{}},
		{"owner only", repository.OrderFilter{OwnerID: "o1"}, bson.M{"owner_id": "o1"}},
		{"exclude cart", repository.OrderFilter{OwnerID: "o1", ExcludeCart: true},
			bson.M{"owner_id": "o1", "status": bson.M{"$ne": "cart"}}},
		{"status wins over exclude cart", repository.OrderFilter{Status: domain.StatusShipped, ExcludeCart: true},
			bson.M{"status": "shipped"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderListFilter(tt.in))
		})
	}
}
