package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/event"
	"github.com/utafrali/ShopyKart/internal/repository"
	"github.com/utafrali/ShopyKart/internal/repository/memory"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

type orderFixture struct {
	orders *OrderService
	carts  *CartService
	repo   *memory.OrderRepository
	events *recordingPublisher
}

func newOrderFixture() *orderFixture {
	repo := memory.NewOrderRepository()
	producer, rec := newTestProducer()
	orders := NewOrderService(repo, producer, newTestLogger(), 0)
	orders.now = func() time.Time { return testNow }
	carts := NewCartService(repo, memory.NewProductRepository(), producer, newTestLogger(), 0)
	return &orderFixture{orders: orders, carts: carts, repo: repo, events: rec}
}

func (f *orderFixture) place(t *testing.T, owner string, pt domain.PaymentType) *domain.Order {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddOrIncrement(ctx, owner, mouse(), 2)
	require.NoError(t, err)
	o, err := f.carts.Checkout(ctx, owner, "1 Main St", pt)
	require.NoError(t, err)
	return o
}

func TestOrder_AdvanceFulfillment_CashSettlesOnDelivery(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := f.place(t, "u1", domain.PaymentCash)

	shipped, err := f.orders.AdvanceFulfillment(ctx, o.ID, domain.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, shipped.Status)
	assert.Equal(t, domain.PaymentPending, shipped.PaymentStatus)

	delivered, err := f.orders.AdvanceFulfillment(ctx, o.ID, domain.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, delivered.Status)
	assert.Equal(t, domain.PaymentPaid, delivered.PaymentStatus)

	assert.Contains(t, f.events.Topics(), event.TopicOrderStatusChanged)
}

func TestOrder_AdvanceFulfillment_InvalidTransitions(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := f.place(t, "u1", domain.PaymentCard)

	_, err := f.orders.AdvanceFulfillment(ctx, o.ID, domain.StatusDelivered)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "cannot skip shipped")

	_, err = f.orders.AdvanceFulfillment(ctx, o.ID, domain.StatusCart)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = f.orders.AdvanceFulfillment(ctx, o.ID, domain.StatusCancelled)
	require.NoError(t, err)

	_, err = f.orders.AdvanceFulfillment(ctx, o.ID, domain.StatusShipped)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "cancelled is terminal")

	stored, err := f.orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
}

func TestOrder_AdvanceFulfillment_CartCannotBePlacedDirectly(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	cart, err := f.carts.AddOrIncrement(ctx, "u1", mouse(), 1)
	require.NoError(t, err)

	_, err = f.orders.AdvanceFulfillment(ctx, cart.ID, domain.StatusPlaced)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestOrder_SelfTransitionsRejected(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	cash := f.place(t, "u1", domain.PaymentCash)
	_, err := f.orders.AdvanceFulfillment(ctx, cash.ID, domain.StatusPlaced)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "placed -> placed")

	_, err = f.orders.AdvanceFulfillment(ctx, cash.ID, domain.StatusShipped)
	require.NoError(t, err)
	_, err = f.orders.AdvanceFulfillment(ctx, cash.ID, domain.StatusShipped)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "shipped -> shipped")

	_, err = f.orders.UpdatePaymentStatus(ctx, cash.ID, domain.PaymentPending)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "pending -> pending")

	card := f.place(t, "u2", domain.PaymentCard)
	before, err := f.repo.GetByID(ctx, card.ID)
	require.NoError(t, err)
	_, err = f.orders.UpdatePaymentStatus(ctx, card.ID, domain.PaymentPaid)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "paid -> paid")
	after, err := f.repo.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version, "rejected update does not write")

	cart, err := f.carts.AddOrIncrement(ctx, "u3", mouse(), 1)
	require.NoError(t, err)
	_, err = f.orders.AdvanceFulfillment(ctx, cart.ID, domain.StatusCart)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "cart -> cart")
}

func TestOrder_AdvanceFulfillment_NotFound(t *testing.T) {
	f := newOrderFixture()
	_, err := f.orders.AdvanceFulfillment(context.Background(), "missing", domain.StatusShipped)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrder_UpdatePaymentStatus_NeverRegresses(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := f.place(t, "u1", domain.PaymentCash)

	failed, err := f.orders.UpdatePaymentStatus(ctx, o.ID, domain.PaymentFailed)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, failed.PaymentStatus)

	_, err = f.orders.UpdatePaymentStatus(ctx, o.ID, domain.PaymentPending)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	paid, err := f.orders.UpdatePaymentStatus(ctx, o.ID, domain.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, paid.PaymentStatus)

	_, err = f.orders.UpdatePaymentStatus(ctx, o.ID, domain.PaymentFailed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestOrder_UpdateOrder(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := f.place(t, "u1", domain.PaymentCash)

	shipped := domain.StatusShipped
	paid := domain.PaymentPaid
	got, err := f.orders.UpdateOrder(ctx, o.ID, UpdateOrderInput{Status: &shipped, PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, got.Status)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, o.Version+1, got.Version)

	same, err := f.orders.UpdateOrder(ctx, o.ID, UpdateOrderInput{Status: &shipped})
	require.NoError(t, err)
	assert.Equal(t, got.Version, same.Version, "no-op update does not write")

	_, err = f.orders.UpdateOrder(ctx, o.ID, UpdateOrderInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestOrder_UpdateOrder_RetriesOnConflict(t *testing.T) {
	repo := new(mockOrderRepository)
	producer, _ := newTestProducer()
	svc := NewOrderService(repo, producer, newTestLogger(), 2)
	ctx := context.Background()

	placed := domain.NewCart("u1", testNow)
	require.NoError(t, placed.AddOrIncrement(mouse(), 1, testNow))
	require.NoError(t, placed.Checkout("addr", domain.PaymentCard, testNow))
	placed.Version = 2

	repo.On("GetByID", ctx, placed.ID).Return(placed, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Order"), int64(2)).Return(repository.ErrVersionConflict)

	_, err := svc.AdvanceFulfillment(ctx, placed.ID, domain.StatusShipped)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	repo.AssertNumberOfCalls(t, "Update", 2)
}

func TestOrder_GetOrderFor_HidesOtherOwners(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := f.place(t, "u1", domain.PaymentCard)

	got, err := f.orders.GetOrderFor(ctx, o.ID, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.orders.GetOrderFor(ctx, o.ID, "u2", false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.orders.GetOrderFor(ctx, o.ID, "admin-1", true)
	assert.NoError(t, err)
}

func TestOrder_ListOwnerOrders_ExcludesCart(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	f.place(t, "u1", domain.PaymentCard)
	f.place(t, "u1", domain.PaymentCash)
	f.place(t, "u2", domain.PaymentCash)
	_, err := f.carts.AddOrIncrement(ctx, "u1", keyboard(), 1)
	require.NoError(t, err)

	orders, total, err := f.orders.ListOwnerOrders(ctx, "u1", pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, o := range orders {
		assert.Equal(t, "u1", o.OwnerID)
		assert.NotEqual(t, domain.StatusCart, o.Status)
	}

	all, total, err := f.orders.ListOrders(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, all, 4)
}

func TestOrder_DeleteOrder(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o := f.place(t, "u1", domain.PaymentCard)

	require.NoError(t, f.orders.DeleteOrder(ctx, o.ID))
	_, err := f.orders.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, f.events.Topics(), event.TopicOrderDeleted)

	assert.ErrorIs(t, f.orders.DeleteOrder(ctx, o.ID), apperrors.ErrNotFound)
}
