package repository

import (
	"context"
	"fmt"

	"github.com/utafrali/ShopyKart/internal/domain"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

// ErrVersionConflict is returned by conditional writes that lost a race:
// the stored version no longer matches, or a second active cart was about to
// be created for the same owner. It matches apperrors.ErrConflict.
var ErrVersionConflict = fmt.Errorf("order write raced: %w", apperrors.ErrConflict)

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	OwnerID     string
	Status      domain.OrderStatus
	ExcludeCart bool
	Page        pagination.Params
}

// OrderRepository persists cart/order aggregates.
type OrderRepository interface {
	// Create inserts a new aggregate and sets its Version to 1. Inserting a
	// second cart-state aggregate for an owner fails with ErrVersionConflict.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetActiveCart returns the owner's cart-state aggregate or NotFound.
	GetActiveCart(ctx context.Context, ownerID string) (*domain.Order, error)
	// Update replaces the aggregate only if its stored version still equals
	// expectedVersion, then sets order.Version to expectedVersion+1.
	Update(ctx context.Context, order *domain.Order, expectedVersion int64) error
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
	Delete(ctx context.Context, id string) error
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Category string
	Featured *bool
	Page     pagination.Params
}

// ProductRepository persists catalog products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
}

// AccountRepository persists storefront accounts.
type AccountRepository interface {
	// Create fails with AlreadyExists when the email is taken.
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, page pagination.Params) ([]domain.Account, int, error)
}
