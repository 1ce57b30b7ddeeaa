package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/utafrali/ShopyKart/internal/domain"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

// AccountRepository implements repository.AccountRepository on MongoDB.
// Email uniqueness comes from the uniq_email index.
type AccountRepository struct {
	coll *mongo.Collection
}

// NewAccountRepository creates a MongoDB-backed account repository.
func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountsCollection)}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	if _, err := r.coll.InsertOne(ctx, toAccountDocument(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.AlreadyExists("account", "email", a.Email)
		}
		return storeErr("insert account", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M, key string) (*domain.Account, error) {
	var doc accountDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("account", key)
		}
		return nil, storeErr("find account", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) List(ctx context.Context, p pagination.Params) ([]domain.Account, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, storeErr("count accounts", err)
	}

	cur, err := r.coll.Find(ctx, bson.M{}, findPage(p, bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, 0, storeErr("find accounts", err)
	}
	accounts, err := decodeAll(ctx, cur, func(d accountDocument) domain.Account { return *d.toDomain() })
	if err != nil {
		return nil, 0, storeErr("decode accounts", err)
	}
	return accounts, int(total), nil
}
