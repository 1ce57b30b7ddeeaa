package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/event"
	"github.com/utafrali/ShopyKart/internal/repository"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
)

// DefaultMaxRetries bounds the read-modify-write loop when none is configured.
const DefaultMaxRetries = 5

// CartService implements cart mutation and checkout. Every mutation reads the
// owner's active cart, applies the change to that copy and writes it back
// conditionally on the version it read.
type CartService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	producer   *event.Producer
	logger     *slog.Logger
	maxRetries int
	now        func() time.Time
}

// NewCartService creates a cart service. maxRetries below 1 uses
// DefaultMaxRetries.
func NewCartService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	producer *event.Producer,
	logger *slog.Logger,
	maxRetries int,
) *CartService {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	return &CartService{
		orders:     orders,
		products:   products,
		producer:   producer,
		logger:     logger,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// GetActiveCart returns the owner's cart or NotFound.
func (s *CartService) GetActiveCart(ctx context.Context, ownerID string) (*domain.Order, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	cart, err := s.orders.GetActiveCart(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get active cart: %w", err)
	}
	return cart, nil
}

// AddProduct resolves productID in the catalog and adds quantity units of
// its current snapshot to the owner's cart.
func (s *CartService) AddProduct(ctx context.Context, ownerID, productID string, quantity int) (*domain.Order, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !p.InStock() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("product %q is out of stock", p.Name))
	}
	return s.AddOrIncrement(ctx, ownerID, p.Snapshot(), quantity)
}

// AddOrIncrement adds the snapshot to the owner's cart, creating the cart on
// first use.
func (s *CartService) AddOrIncrement(ctx context.Context, ownerID string, product domain.ProductSnapshot, quantity int) (*domain.Order, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	cart, err := s.mutateCart(ctx, ownerID, "add", true, func(c *domain.Order, now time.Time) error {
		return c.AddOrIncrement(product, quantity, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("owner_id", ownerID),
		slog.String("cart_id", cart.ID),
		slog.String("product_ref", product.ProductRef),
		slog.Int("quantity", quantity),
	)
	s.publishCartUpdated(ctx, cart)
	return cart, nil
}

// SetQuantity replaces the quantity of one line. Zero removes it.
func (s *CartService) SetQuantity(ctx context.Context, ownerID, productRef string, quantity int) (*domain.Order, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	cart, err := s.mutateCart(ctx, ownerID, "set_quantity", false, func(c *domain.Order, now time.Time) error {
		return c.SetQuantity(productRef, quantity, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart quantity updated",
		slog.String("owner_id", ownerID),
		slog.String("cart_id", cart.ID),
		slog.String("product_ref", productRef),
		slog.Int("quantity", quantity),
	)
	s.publishCartUpdated(ctx, cart)
	return cart, nil
}

// RemoveLineItem drops one line from the owner's cart.
func (s *CartService) RemoveLineItem(ctx context.Context, ownerID, productRef string) (*domain.Order, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	cart, err := s.mutateCart(ctx, ownerID, "remove", false, func(c *domain.Order, now time.Time) error {
		return c.RemoveLineItem(productRef, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("owner_id", ownerID),
		slog.String("cart_id", cart.ID),
		slog.String("product_ref", productRef),
	)
	s.publishCartUpdated(ctx, cart)
	return cart, nil
}

// Checkout places the owner's active cart as an order.
func (s *CartService) Checkout(ctx context.Context, ownerID, deliveryAddress string, paymentType domain.PaymentType) (*domain.Order, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	order, err := s.mutateCart(ctx, ownerID, "checkout", false, func(c *domain.Order, now time.Time) error {
		return c.Checkout(deliveryAddress, paymentType, now)
	})
	if err != nil {
		return nil, err
	}

	checkoutsTotal.WithLabelValues(string(order.PaymentType)).Inc()
	s.logger.InfoContext(ctx, "order placed",
		slog.String("owner_id", ownerID),
		slog.String("order_id", order.ID),
		slog.String("payment_type", string(order.PaymentType)),
		slog.Int64("total_amount", order.TotalAmount),
	)

	if err := s.producer.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	return order, nil
}

// mutateCart runs mutate against a fresh read of the owner's cart and writes
// the result back, retrying on version conflicts. With create set, a missing
// cart is started instead of reported as NotFound.
func (s *CartService) mutateCart(
	ctx context.Context,
	ownerID, op string,
	create bool,
	mutate func(c *domain.Order, now time.Time) error,
) (*domain.Order, error) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		now := s.now().UTC()

		cart, err := s.orders.GetActiveCart(ctx, ownerID)
		isNew := false
		if err != nil {
			if !create || !errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("get active cart: %w", err)
			}
			cart = domain.NewCart(ownerID, now)
			isNew = true
		}

		expected := cart.Version
		if err := mutate(cart, now); err != nil {
			return nil, err
		}

		if isNew {
			err = s.orders.Create(ctx, cart)
		} else {
			err = s.orders.Update(ctx, cart, expected)
		}
		if err == nil {
			cartMutations.WithLabelValues(op).Inc()
			return cart, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("save cart: %w", err)
		}

		versionConflicts.WithLabelValues(op).Inc()
		s.logger.DebugContext(ctx, "cart write conflicted, retrying",
			slog.String("owner_id", ownerID),
			slog.String("operation", op),
			slog.Int("attempt", attempt),
		)
	}

	s.logger.WarnContext(ctx, "cart retries exhausted",
		slog.String("owner_id", ownerID),
		slog.String("operation", op),
		slog.Int("attempts", s.maxRetries),
	)
	return nil, apperrors.Conflict("cart was modified concurrently, please retry")
}

func (s *CartService) publishCartUpdated(ctx context.Context, cart *domain.Order) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("cart_id", cart.ID),
			slog.String("error", err.Error()),
		)
	}
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return apperrors.InvalidInput("owner id is required")
	}
	return nil
}
