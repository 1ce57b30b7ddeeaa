package service

import (
	"context"
	"sync"
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
)

type cartFixture struct {
	svc      *CartService
	orders   *memory.OrderRepository
	products *memory.ProductRepository
	events   *recordingPublisher
}

func newCartFixture(maxRetries int) *cartFixture {
	orders := memory.NewOrderRepository()
	products := memory.NewProductRepository()
	producer, rec := newTestProducer()
	svc := NewCartService(orders, products, producer, newTestLogger(), maxRetries)
	svc.now = func() time.Time { return testNow }
	return &cartFixture{svc: svc, orders: orders, products: products, events: rec}
}

func assertTotalMatchesLines(t *testing.T, o *domain.Order) {
	t.Helper()
	assert.Equal(t, o.SumLineTotals(), o.TotalAmount)
}

func TestCart_Scenario_AddSetCheckoutThenNewCart(t *testing.T) {
	f := newCartFixture(0)
	ctx := context.Background()

	cart, err := f.svc.AddOrIncrement(ctx, "u1", mouse(), 2)
	require.NoError(t, err)
	require.Len(t, cart.LineItems, 1)
	assert.Equal(t, 2, cart.LineItems[0].Quantity)
	assert.Equal(t, int64(40), cart.TotalAmount)
	assert.Equal(t, domain.StatusCart, cart.Status)
	assert.Equal(t, domain.PaymentCash, cart.PaymentType)
	assert.Equal(t, domain.PaymentPending, cart.PaymentStatus)
	assert.Empty(t, cart.DeliveryAddress)

	cart, err = f.svc.SetQuantity(ctx, "u1", "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(100), cart.TotalAmount)

	order, err := f.svc.Checkout(ctx, "u1", "221B Baker St", domain.PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaced, order.Status)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "221B Baker St", order.DeliveryAddress)
	require.NotNil(t, order.PlacedAt)

	next, err := f.svc.AddOrIncrement(ctx, "u1", keyboard(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, order.ID, next.ID)
	assert.Equal(t, domain.StatusCart, next.Status)
	assert.Equal(t, int64(45), next.TotalAmount)

	placed, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaced, placed.Status)
	assert.Equal(t, int64(100), placed.TotalAmount)

	assert.Equal(t, []string{
		event.TopicCartUpdated,
		event.TopicCartUpdated,
		event.TopicOrderPlaced,
		event.TopicCartUpdated,
	}, f.events.Topics())
}

func TestCart_RepeatedAddIncrementsOneLine(t *testing.T) {
	f := newCartFixture(0)
	ctx := context.Background()

	var cart *domain.Order
	var err error
	for range 3 {
		cart, err = f.svc.AddOrIncrement(ctx, "u1", mouse(), 1)
		require.NoError(t, err)
	}

	require.Len(t, cart.LineItems, 1)
	assert.Equal(t, 3, cart.LineItems[0].Quantity)
	assert.Equal(t, int64(60), cart.TotalAmount)
	assert.Equal(t, int64(3), cart.Version)
}

func TestCart_RemoveLastLineLeavesEmptyCart(t *testing.T) {
	f := newCartFixture(0)
	ctx := context.Background()

	_, err := f.svc.AddOrIncrement(ctx, "u1", mouse(), 2)
	require.NoError(t, err)

	cart, err := f.svc.RemoveLineItem(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Empty(t, cart.LineItems)
	assert.Zero(t, cart.TotalAmount)

	active, err := f.svc.GetActiveCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, active.ID)
}

func TestCart_SetQuantityZeroRemoves(t *testing.T) {
	f := newCartFixture(0)
	ctx := context.Background()

	_, err := f.svc.AddOrIncrement(ctx, "u1", mouse(), 2)
	require.NoError(t, err)
	_, err = f.svc.AddOrIncrement(ctx, "u1", keyboard(), 1)
	require.NoError(t, err)

	cart, err := f.svc.SetQuantity(ctx, "u1", "p1", 0)
	require.NoError(t, err)
	require.Len(t, cart.LineItems, 1)
	assert.Equal(t, "p2", cart.LineItems[0].ProductRef)
	assertTotalMatchesLines(t, cart)
}

func TestCart_SetQuantity_MissingLineLeavesStateUnchanged(t *testing.T) {
	f := newCartFixture(0)
	ctx := context.Background()

	before, err := f.svc.AddOrIncrement(ctx, "u1", mouse(), 2)
	require.NoError(t, err)

	_, err = f.svc.SetQuantity(ctx, "u1", "missing", 3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	after, err := f.svc.GetActiveCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before.TotalAmount, after.TotalAmount)
	assert.Equal(t, before.Version, after.Version)
}

func TestCart_NoActiveCart(t *testing.T) {
	f := newCartFixture(0)
	ctx := context.Background()

	_, err := f.svc.GetActiveCart(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.SetQuantity(ctx, "u1", "p1", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.RemoveLineItem(ctx, "u1", "p1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Checkout(ctx, "u1", "addr", domain.PaymentCard)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, f.events.Topics())
}

func TestCart_Checkout_Validation(t *testing.T) {
	f := newCartFixture(0)
	ctx := context.Background()

	_, err := f.svc.AddOrIncrement(ctx, "u1", mouse(), 1)
	require.NoError(t, err)
	_, err = f.svc.RemoveLineItem(ctx, "u1", "p1")
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, "u1", "addr", domain.PaymentCard)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "empty cart")

	_, err = f.svc.AddOrIncrement(ctx, "u1", mouse(), 1)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, "u1", "   ", domain.PaymentCard)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "blank address")

	_, err = f.svc.Checkout(ctx, "u1", "addr", domain.PaymentType("cheque"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "unknown payment type")

	order, err := f.svc.Checkout(ctx, "u1", "addr", domain.PaymentUPI)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)
}

func TestCart_InvalidQuantity(t *testing.T) {
	f := newCartFixture(0)
	ctx := context.Background()

	_, err := f.svc.AddOrIncrement(ctx, "u1", mouse(), 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.svc.AddOrIncrement(ctx, "u1", mouse(), domain.MaxLineQuantity+1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.svc.GetActiveCart(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "failed add must not leave a cart behind")
}

func TestCart_RequiresOwner(t *testing.T) {
	f := newCartFixture(0)

	_, err := f.svc.AddOrIncrement(context.Background(), " ", mouse(), 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCart_AddProduct_UsesCatalogSnapshot(t *testing.T) {
	f := newCartFixture(0)
	ctx := context.Background()

	require.NoError(t, f.products.Create(ctx, &domain.Product{ID: "prod-1", Name: "Lamp", Price: 1500, Stock: 3, ImageRef: "lamp.png"}))
	require.NoError(t, f.products.Create(ctx, &domain.Product{ID: "prod-2", Name: "Sold Out", Price: 900}))

	cart, err := f.svc.AddProduct(ctx, "u1", "prod-1", 2)
	require.NoError(t, err)
	require.Len(t, cart.LineItems, 1)
	assert.Equal(t, "Lamp", cart.LineItems[0].Name)
	assert.Equal(t, "lamp.png", cart.LineItems[0].ImageRef)
	assert.Equal(t, int64(3000), cart.TotalAmount)

	_, err = f.svc.AddProduct(ctx, "u1", "prod-2", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.svc.AddProduct(ctx, "u1", "missing", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCart_PriceChangeDoesNotRewriteSnapshot(t *testing.T) {
	f := newCartFixture(0)
	ctx := context.Background()

	p := &domain.Product{ID: "prod-1", Name: "Lamp", Price: 1500, Stock: 3}
	require.NoError(t, f.products.Create(ctx, p))
	_, err := f.svc.AddProduct(ctx, "u1", "prod-1", 1)
	require.NoError(t, err)

	p.Price = 9999
	require.NoError(t, f.products.Update(ctx, p))

	cart, err := f.svc.AddProduct(ctx, "u1", "prod-1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), cart.LineItems[0].UnitPrice)
	assert.Equal(t, int64(3000), cart.TotalAmount)
}

func TestCart_ConcurrentAddsAreAllCounted(t *testing.T) {
	f := newCartFixture(100)
	ctx := context.Background()

	const writers = 12
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.AddOrIncrement(ctx, "u1", mouse(), 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	cart, err := f.svc.GetActiveCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.LineItems, 1)
	assert.Equal(t, writers, cart.LineItems[0].Quantity)
	assert.Equal(t, int64(writers*20), cart.TotalAmount)

	_, total, err := f.orders.List(ctx, repository.OrderFilter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "exactly one active cart")
}

func TestCart_RetriesOnVersionConflict(t *testing.T) {
	repo := new(mockOrderRepository)
	producer, _ := newTestProducer()
	svc := NewCartService(repo, memory.NewProductRepository(), producer, newTestLogger(), 3)
	ctx := context.Background()

	cart := domain.NewCart("u1", testNow)
	cart.Version = 4

	repo.On("GetActiveCart", ctx, "u1").Return(cart, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Order"), int64(4)).Return(repository.ErrVersionConflict).Once()
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Order"), int64(4)).Return(nil).Once()

	got, err := svc.AddOrIncrement(ctx, "u1", mouse(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Version)
	assert.Equal(t, int64(20), got.TotalAmount)

	repo.AssertNumberOfCalls(t, "GetActiveCart", 2)
	repo.AssertExpectations(t)
}

func TestCart_RetriesExhausted(t *testing.T) {
	repo := new(mockOrderRepository)
	producer, rec := newTestProducer()
	svc := NewCartService(repo, memory.NewProductRepository(), producer, newTestLogger(), 3)
	ctx := context.Background()

	cart := domain.NewCart("u1", testNow)
	cart.Version = 1

	repo.On("GetActiveCart", ctx, "u1").Return(cart, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Order"), int64(1)).Return(repository.ErrVersionConflict)

	_, err := svc.AddOrIncrement(ctx, "u1", mouse(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	repo.AssertNumberOfCalls(t, "Update", 3)
	assert.Empty(t, rec.Topics())
}

func TestCart_LostCreateRaceRetriesIntoWinnersCart(t *testing.T) {
	repo := new(mockOrderRepository)
	producer, _ := newTestProducer()
	svc := NewCartService(repo, memory.NewProductRepository(), producer, newTestLogger(), 3)
	ctx := context.Background()

	winner := domain.NewCart("u1", testNow)
	winner.Version = 1

	repo.On("GetActiveCart", ctx, "u1").Return(nil, apperrors.NotFound("cart", "u1")).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(repository.ErrVersionConflict).Once()
	repo.On("GetActiveCart", ctx, "u1").Return(winner, nil).Once()
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Order"), int64(1)).Return(nil).Once()

	got, err := svc.AddOrIncrement(ctx, "u1", mouse(), 1)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
	repo.AssertExpectations(t)
}

func TestCart_StoreFailureIsNotRetried(t *testing.T) {
	repo := new(mockOrderRepository)
	producer, _ := newTestProducer()
	svc := NewCartService(repo, memory.NewProductRepository(), producer, newTestLogger(), 3)
	ctx := context.Background()

	repo.On("GetActiveCart", ctx, "u1").Return(nil, apperrors.StoreFailure("find cart", assert.AnError))

	_, err := svc.AddOrIncrement(ctx, "u1", mouse(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStoreFailure)
	repo.AssertNumberOfCalls(t, "GetActiveCart", 1)
}
