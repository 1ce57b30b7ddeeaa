// Package mongo implements the repository interfaces on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

const (
	ordersCollection   = "orders"
	productsCollection = "products"
	accountsCollection = "accounts"
)

// EnsureIndexes creates the indexes the repositories rely on. The partial
// unique index on orders is what keeps one active cart per owner.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		ordersCollection: {
			{
				Keys: bson.D{{Key: "owner_id", Value: 1}},
				Options: options.Index().
					SetName("uniq_active_cart").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "cart"}),
			},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "category_key", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "featured", Value: 1}}},
		},
		accountsCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_email").SetUnique(true),
			},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func categoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func findPage(p pagination.Params, sort bson.D) *options.FindOptions {
	p = p.Normalize()
	return options.Find().
		SetSort(sort).
		SetSkip(int64(p.Offset())).
		SetLimit(int64(p.PerPage))
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// decodeAll drains cur into out through the conversion function.
func decodeAll[D any, T any](ctx context.Context, cur *mongo.Cursor, convert func(D) T) ([]T, error) {
	defer cur.Close(ctx)

	out := make([]T, 0)
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, convert(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func storeErr(op string, err error) error {
	return apperrors.StoreFailure(op, err)
}
