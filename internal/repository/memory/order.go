package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/repository"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
)

// OrderRepository is an in-process repository.OrderRepository. Values are
// deep-copied on the way in and out, so callers never share state with the
// store.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	// activeCarts maps owner ID to the ID of its cart-state order.
	activeCarts map[string]string
}

// NewOrderRepository creates an empty store.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:      make(map[string]*domain.Order),
		activeCarts: make(map[string]string),
	}
}

// Create inserts order with version 1.
func (r *OrderRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return apperrors.AlreadyExists("order", "id", order.ID)
	}
	if order.IsCart() {
		if _, taken := r.activeCarts[order.OwnerID]; taken {
			return repository.ErrVersionConflict
		}
		r.activeCarts[order.OwnerID] = order.ID
	}

	order.Version = 1
	r.orders[order.ID] = order.Clone()
	return nil
}

// GetByID returns a copy of the order.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return o.Clone(), nil
}

// GetActiveCart returns a copy of the owner's cart.
func (r *OrderRepository) GetActiveCart(_ context.Context, ownerID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.activeCarts[ownerID]
	if !ok {
		return nil, apperrors.NotFound("cart", ownerID)
	}
	return r.orders[id].Clone(), nil
}

// Update is a compare-and-swap on Version.
func (r *OrderRepository) Update(_ context.Context, order *domain.Order, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[order.ID]
	if !ok {
		return apperrors.NotFound("order", order.ID)
	}
	if current.Version != expectedVersion {
		return repository.ErrVersionConflict
	}

	if current.IsCart() && !order.IsCart() {
		delete(r.activeCarts, current.OwnerID)
	}

	order.Version = expectedVersion + 1
	r.orders[order.ID] = order.Clone()
	return nil
}

// List returns matching orders, newest first.
func (r *OrderRepository) List(_ context.Context, f repository.OrderFilter) ([]domain.Order, int, error) {
	r.mu.RLock()
	matched := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		switch {
		case f.OwnerID != "" && o.OwnerID != f.OwnerID:
			continue
		case f.Status != "" && o.Status != f.Status:
			continue
		case f.ExcludeCart && o.IsCart():
			continue
		}
		matched = append(matched, *o.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return page(matched, f.Page), len(matched), nil
}

// Delete removes the order in any state.
func (r *OrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return apperrors.NotFound("order", id)
	}
	if o.IsCart() {
		delete(r.activeCarts, o.OwnerID)
	}
	delete(r.orders, id)
	return nil
}
