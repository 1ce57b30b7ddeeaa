package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/event"
	"github.com/utafrali/ShopyKart/internal/repository"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/slug"
)

// ProductService implements catalog management.
type ProductService struct {
	repo     repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a catalog service.
func NewProductService(repo repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// CreateProductInput holds the fields of a new product.
type CreateProductInput struct {
	Name           string
	Category       string
	Brand          string
	Description    string
	Specifications map[string]string
	ImageRef       string
	Price          int64
	OriginalPrice  int64
	Discount       int
	Stock          int
	Featured       bool
	Rating         float64
}

// UpdateProductInput holds a partial product update. Nil fields are kept.
type UpdateProductInput struct {
	Name           *string
	Category       *string
	Brand          *string
	Description    *string
	Specifications map[string]string
	ImageRef       *string
	Price          *int64
	OriginalPrice  *int64
	Discount       *int
	Stock          *int
	Sold           *int
	Featured       *bool
	Rating         *float64
}

func validateProduct(p *domain.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return apperrors.InvalidInput("product name is required")
	case strings.TrimSpace(p.Category) == "":
		return apperrors.InvalidInput("product category is required")
	case p.Price < 0 || p.Price > domain.MaxUnitPrice:
		return apperrors.InvalidInput("price is out of range")
	case p.OriginalPrice < 0:
		return apperrors.InvalidInput("original price must not be negative")
	case p.Discount < 0 || p.Discount > 100:
		return apperrors.InvalidInput("discount must be between 0 and 100")
	case p.Stock < 0:
		return apperrors.InvalidInput("stock must not be negative")
	case p.Sold < 0:
		return apperrors.InvalidInput("sold must not be negative")
	case p.Rating < 0 || p.Rating > 5:
		return apperrors.InvalidInput("rating must be between 0 and 5")
	}
	return nil
}

// CreateProduct validates and stores a new product with a generated slug.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	now := time.Now().UTC()
	id := uuid.New().String()
	p := &domain.Product{
		ID:             id,
		Name:           strings.TrimSpace(input.Name),
		Slug:           slug.WithSuffix(input.Name, id),
		Category:       strings.TrimSpace(input.Category),
		Brand:          input.Brand,
		Description:    input.Description,
		Specifications: maps.Clone(input.Specifications),
		ImageRef:       input.ImageRef,
		Price:          input.Price,
		OriginalPrice:  input.OriginalPrice,
		Discount:       input.Discount,
		Stock:          input.Stock,
		Featured:       input.Featured,
		Rating:         input.Rating,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("slug", p.Slug),
	)
	if err := s.producer.PublishProductCreated(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
	return p, nil
}

// GetProduct returns a product by ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListProducts returns a page of products, newest first.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	filter.Page = filter.Page.Normalize()
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct applies a partial update. Renaming regenerates the slug.
// Existing cart lines keep the snapshot they were added with.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
		p.Slug = slug.WithSuffix(p.Name, p.ID)
	}
	if input.Category != nil {
		p.Category = strings.TrimSpace(*input.Category)
	}
	if input.Brand != nil {
		p.Brand = *input.Brand
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Specifications != nil {
		p.Specifications = maps.Clone(input.Specifications)
	}
	if input.ImageRef != nil {
		p.ImageRef = *input.ImageRef
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.OriginalPrice != nil {
		p.OriginalPrice = *input.OriginalPrice
	}
	if input.Discount != nil {
		p.Discount = *input.Discount
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}
	if input.Sold != nil {
		p.Sold = *input.Sold
	}
	if input.Featured != nil {
		p.Featured = *input.Featured
	}
	if input.Rating != nil {
		p.Rating = *input.Rating
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", p.ID))
	if err := s.producer.PublishProductUpdated(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
	return p, nil
}

// DeleteProduct removes a product from the catalog.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
