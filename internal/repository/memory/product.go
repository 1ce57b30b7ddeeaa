package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/repository"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
)

// ProductRepository is an in-process catalog store.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewProductRepository creates an empty catalog.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]domain.Product)}
}

func cloneProduct(p domain.Product) domain.Product {
	p.Specifications = maps.Clone(p.Specifications)
	return p
}

func (r *ProductRepository) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; exists {
		return apperrors.AlreadyExists("product", "id", p.ID)
	}
	r.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *ProductRepository) Update(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID]; !ok {
		return apperrors.NotFound("product", p.ID)
	}
	r.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(r.products, id)
	return nil
}

// List filters by category (case-insensitive) and featured flag, newest
// first.
func (r *ProductRepository) List(_ context.Context, f repository.ProductFilter) ([]domain.Product, int, error) {
	r.mu.RLock()
	matched := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		matched = append(matched, cloneProduct(p))
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return page(matched, f.Page), len(matched), nil
}
