package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/event"
	"github.com/utafrali/ShopyKart/internal/repository"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

// OrderService implements order lookups and the administrative status
// updates that follow checkout.
type OrderService struct {
	repo       repository.OrderRepository
	producer   *event.Producer
	logger     *slog.Logger
	maxRetries int
	now        func() time.Time
}

// NewOrderService creates an order service. maxRetries below 1 uses
// DefaultMaxRetries.
func NewOrderService(repo repository.OrderRepository, producer *event.Producer, logger *slog.Logger, maxRetries int) *OrderService {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	return &OrderService{
		repo:       repo,
		producer:   producer,
		logger:     logger,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// UpdateOrderInput holds an administrative change. Nil fields are left as
// they are.
type UpdateOrderInput struct {
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
}

// GetOrder returns an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// GetOrderFor returns the order only if requesterID owns it or admin is set.
// Orders belonging to someone else are reported as NotFound.
func (s *OrderService) GetOrderFor(ctx context.Context, id, requesterID string, admin bool) (*domain.Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && o.OwnerID != requesterID {
		return nil, apperrors.NotFound("order", id)
	}
	return o, nil
}

// ListOrders returns a page of orders matching filter.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	filter.Page = filter.Page.Normalize()
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// ListOwnerOrders returns the owner's order history. The active cart is not
// part of it.
func (s *OrderService) ListOwnerOrders(ctx context.Context, ownerID string, page pagination.Params) ([]domain.Order, int, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, 0, err
	}
	return s.ListOrders(ctx, repository.OrderFilter{OwnerID: ownerID, ExcludeCart: true, Page: page})
}

// AdvanceFulfillment moves an order to status along the transition table.
// Requesting the current status is an InvalidTransition.
func (s *OrderService) AdvanceFulfillment(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return s.update(ctx, id, UpdateOrderInput{Status: &status}, true)
}

// UpdatePaymentStatus records a payment outcome on a placed order.
// Requesting the current payment status is an InvalidTransition.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Order, error) {
	return s.update(ctx, id, UpdateOrderInput{PaymentStatus: &status}, true)
}

// UpdateOrder applies a status change, a payment change or both in one
// conditional write. Requesting the current value is a no-op for that field.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, input UpdateOrderInput) (*domain.Order, error) {
	return s.update(ctx, id, input, false)
}

// update runs the CAS write loop. With strict set, every requested field goes
// through the domain transition check even when it equals the current value.
func (s *OrderService) update(ctx context.Context, id string, input UpdateOrderInput, strict bool) (*domain.Order, error) {
	if input.Status == nil && input.PaymentStatus == nil {
		return nil, apperrors.InvalidInput("nothing to update")
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		o, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get order for update: %w", err)
		}

		oldStatus, oldPayment := o.Status, o.PaymentStatus
		expected := o.Version
		now := s.now().UTC()

		if input.Status != nil && (strict || *input.Status != o.Status) {
			if err := o.AdvanceFulfillment(*input.Status, now); err != nil {
				return nil, err
			}
		}
		if input.PaymentStatus != nil && (strict || *input.PaymentStatus != o.PaymentStatus) {
			if err := o.SetPaymentStatus(*input.PaymentStatus, now); err != nil {
				return nil, err
			}
		}
		if o.Status == oldStatus && o.PaymentStatus == oldPayment {
			return o, nil
		}

		err = s.repo.Update(ctx, o, expected)
		if errors.Is(err, repository.ErrVersionConflict) {
			versionConflicts.WithLabelValues("update_order").Inc()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update order: %w", err)
		}

		if o.Status != oldStatus {
			fulfillmentTransitions.WithLabelValues(string(oldStatus), string(o.Status)).Inc()
		}
		s.logger.InfoContext(ctx, "order updated",
			slog.String("order_id", o.ID),
			slog.String("old_status", string(oldStatus)),
			slog.String("new_status", string(o.Status)),
			slog.String("old_payment_status", string(oldPayment)),
			slog.String("new_payment_status", string(o.PaymentStatus)),
		)
		if err := s.producer.PublishOrderStatusChanged(ctx, o, oldStatus, oldPayment); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
				slog.String("order_id", o.ID),
				slog.String("error", err.Error()),
			)
		}
		return o, nil
	}

	return nil, apperrors.Conflict("order was modified concurrently, please retry")
}

// DeleteOrder removes an order in any state.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get order for delete: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("order_id", id),
		slog.String("status", string(o.Status)),
	)
	if err := s.producer.PublishOrderDeleted(ctx, o); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.deleted event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
