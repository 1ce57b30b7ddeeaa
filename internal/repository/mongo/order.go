package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/repository"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
)

// OrderRepository implements repository.OrderRepository on a MongoDB
// collection. Updates are conditional on the stored version.
type OrderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository creates a MongoDB-backed order repository.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(ordersCollection)}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	doc := toOrderDocument(order)
	doc.Version = 1

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrVersionConflict
		}
		return storeErr("insert order", err)
	}
	order.Version = 1
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, storeErr("find order", err)
	}
	return doc.toDomain(), nil
}

func (r *OrderRepository) GetActiveCart(ctx context.Context, ownerID string) (*domain.Order, error) {
	var doc orderDocument
	filter := bson.M{"owner_id": ownerID, "status": string(domain.StatusCart)}
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("cart", ownerID)
		}
		return nil, storeErr("find cart", err)
	}
	return doc.toDomain(), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order, expectedVersion int64) error {
	doc := toOrderDocument(order)
	doc.Version = expectedVersion + 1

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": order.ID, "version": expectedVersion}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrVersionConflict
		}
		return storeErr("replace order", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": order.ID})
		if err != nil {
			return storeErr("count order", err)
		}
		if n == 0 {
			return apperrors.NotFound("order", order.ID)
		}
		return repository.ErrVersionConflict
	}

	order.Version = doc.Version
	return nil
}

// orderListFilter translates f into a query. An explicit status wins over
// ExcludeCart.
func orderListFilter(f repository.OrderFilter) bson.M {
	filter := bson.M{}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	switch {
	case f.Status != "":
		filter["status"] = string(f.Status)
	case f.ExcludeCart:
		filter["status"] = bson.M{"$ne": string(domain.StatusCart)}
	}
	return filter
}

func (r *OrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, int, error) {
	filter := orderListFilter(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, storeErr("count orders", err)
	}

	cur, err := r.coll.Find(ctx, filter, findPage(f.Page, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, storeErr("find orders", err)
	}
	orders, err := decodeAll(ctx, cur, func(d orderDocument) domain.Order { return *d.toDomain() })
	if err != nil {
		return nil, 0, storeErr("decode orders", err)
	}
	return orders, int(total), nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr("delete order", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}
