package domain

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
)

// OrderStatus is the lifecycle state of an order aggregate.
type OrderStatus string

const (
	StatusCart      OrderStatus = "cart"
	StatusPlaced    OrderStatus = "placed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Limits applied to every cart mutation.
const (
	MaxLineQuantity = 100
	MaxLineItems    = 50
	MaxUnitPrice    = int64(100_000_000_000)
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusCart:      {StatusPlaced, StatusCancelled},
	StatusPlaced:    {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ParseOrderStatus accepts a status name in any letter case.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := orderTransitions[st]; !ok {
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", s))
	}
	return st, nil
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether target is directly reachable from s.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return slices.Contains(orderTransitions[s], target)
}

// ProductSnapshot is the catalog data copied into a line item when a
// product is first added. Later catalog changes never touch it.
type ProductSnapshot struct {
	ProductRef string `json:"product_ref"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unit_price"`
	ImageRef   string `json:"image_ref,omitempty"`
}

// LineItem is one product line inside an order.
type LineItem struct {
	ProductRef string `json:"product_ref"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unit_price"`
	ImageRef   string `json:"image_ref,omitempty"`
	Quantity   int    `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (li LineItem) LineTotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// Order is the cart/order aggregate. While Status is StatusCart it is the
// owner's active cart; after checkout its line items are frozen.
//
// TotalAmount is maintained incrementally by every mutation and always equals
// the sum of LineTotal over LineItems. Version is bumped by the store on each
// successful write.
type Order struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"owner_id"`
	LineItems       []LineItem    `json:"line_items"`
	DeliveryAddress string        `json:"delivery_address"`
	TotalAmount     int64         `json:"total_amount"`
	PaymentType     PaymentType   `json:"payment_type"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	Status          OrderStatus   `json:"order_status"`
	Version         int64         `json:"version"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	PlacedAt        *time.Time    `json:"placed_at,omitempty"`
}

// NewCart creates an empty active cart for ownerID.
func NewCart(ownerID string, now time.Time) *Order {
	return &Order{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		LineItems:     []LineItem{},
		PaymentType:   PaymentCash,
		PaymentStatus: PaymentPending,
		Status:        StatusCart,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a deep copy so a failed mutation never leaks into the
// caller's copy.
func (o *Order) Clone() *Order {
	c := *o
	c.LineItems = slices.Clone(o.LineItems)
	if c.LineItems == nil {
		c.LineItems = []LineItem{}
	}
	if o.PlacedAt != nil {
		t := *o.PlacedAt
		c.PlacedAt = &t
	}
	return &c
}

// IsCart reports whether the aggregate is still an active cart.
func (o *Order) IsCart() bool {
	return o.Status == StatusCart
}

// ItemCount returns the total quantity across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, li := range o.LineItems {
		n += li.Quantity
	}
	return n
}

// SumLineTotals recomputes the total from scratch. Mutations never use it;
// it exists to check the running total.
func (o *Order) SumLineTotals() int64 {
	var sum int64
	for _, li := range o.LineItems {
		sum += li.LineTotal()
	}
	return sum
}

func (o *Order) findLine(productRef string) int {
	return slices.IndexFunc(o.LineItems, func(li LineItem) bool { return li.ProductRef == productRef })
}

// AddOrIncrement adds quantity units of the product. An existing line for the
// same product is incremented using its original price snapshot; otherwise a
// new line is appended. The total grows by the added delta only.
func (o *Order) AddOrIncrement(p ProductSnapshot, quantity int, now time.Time) error {
	if err := o.requireCart(); err != nil {
		return err
	}
	if err := validateQuantity(quantity, 1); err != nil {
		return err
	}

	if i := o.findLine(p.ProductRef); i >= 0 {
		line := &o.LineItems[i]
		if line.Quantity+quantity > MaxLineQuantity {
			return apperrors.InvalidInput(fmt.Sprintf("quantity per line cannot exceed %d", MaxLineQuantity))
		}
		line.Quantity += quantity
		o.TotalAmount += line.UnitPrice * int64(quantity)
		o.UpdatedAt = now
		return nil
	}

	if err := validateSnapshot(p); err != nil {
		return err
	}
	if len(o.LineItems) >= MaxLineItems {
		return apperrors.InvalidInput(fmt.Sprintf("a cart holds at most %d distinct products", MaxLineItems))
	}
	o.LineItems = append(o.LineItems, LineItem{
		ProductRef: p.ProductRef,
		Name:       p.Name,
		UnitPrice:  p.UnitPrice,
		ImageRef:   p.ImageRef,
		Quantity:   quantity,
	})
	o.TotalAmount += p.UnitPrice * int64(quantity)
	o.UpdatedAt = now
	return nil
}

// SetQuantity replaces a line's quantity. Zero removes the line. The old line
// total is subtracted before the new one is added.
func (o *Order) SetQuantity(productRef string, quantity int, now time.Time) error {
	if err := o.requireCart(); err != nil {
		return err
	}
	if err := validateQuantity(quantity, 0); err != nil {
		return err
	}
	i := o.findLine(productRef)
	if i < 0 {
		return apperrors.NotFound("line item", productRef)
	}
	if quantity == 0 {
		o.removeAt(i)
		o.UpdatedAt = now
		return nil
	}

	line := &o.LineItems[i]
	o.TotalAmount -= line.LineTotal()
	line.Quantity = quantity
	o.TotalAmount += line.LineTotal()
	o.UpdatedAt = now
	return nil
}

// RemoveLineItem drops the line for productRef and its contribution to the
// total. Removing the last line leaves an empty cart in place.
func (o *Order) RemoveLineItem(productRef string, now time.Time) error {
	if err := o.requireCart(); err != nil {
		return err
	}
	i := o.findLine(productRef)
	if i < 0 {
		return apperrors.NotFound("line item", productRef)
	}
	o.removeAt(i)
	o.UpdatedAt = now
	return nil
}

func (o *Order) removeAt(i int) {
	o.TotalAmount -= o.LineItems[i].LineTotal()
	o.LineItems = slices.Delete(o.LineItems, i, i+1)
}

// Checkout turns the active cart into a placed order. Pay-on-delivery orders
// start with a pending payment; every prepaid method is recorded as paid.
func (o *Order) Checkout(address string, paymentType PaymentType, now time.Time) error {
	if !o.IsCart() {
		return apperrors.InvalidTransition("order", string(o.Status), string(StatusPlaced))
	}
	if len(o.LineItems) == 0 {
		return apperrors.InvalidInput("cart is empty")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return apperrors.InvalidInput("delivery address is required")
	}
	if !paymentType.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("unknown payment type %q", paymentType))
	}

	o.DeliveryAddress = address
	o.PaymentType = paymentType
	if paymentType.PayOnDelivery() {
		o.PaymentStatus = PaymentPending
	} else {
		o.PaymentStatus = PaymentPaid
	}
	o.Status = StatusPlaced
	o.PlacedAt = &now
	o.UpdatedAt = now
	return nil
}

// AdvanceFulfillment moves the order to target along the transition table.
// StatusPlaced is only reachable through Checkout. Delivering a
// pay-on-delivery order settles its pending payment.
func (o *Order) AdvanceFulfillment(target OrderStatus, now time.Time) error {
	if target == StatusPlaced || !o.Status.CanTransitionTo(target) {
		return apperrors.InvalidTransition("order", string(o.Status), string(target))
	}

	o.Status = target
	if target == StatusDelivered && o.PaymentType.PayOnDelivery() && o.PaymentStatus == PaymentPending {
		o.PaymentStatus = PaymentPaid
	}
	o.UpdatedAt = now
	return nil
}

// SetPaymentStatus records a payment outcome. Payment never regresses: paid
// is final and nothing returns to pending.
func (o *Order) SetPaymentStatus(target PaymentStatus, now time.Time) error {
	if o.IsCart() {
		return apperrors.InvalidTransition("payment", string(o.PaymentStatus), string(target))
	}
	if !o.PaymentStatus.CanTransitionTo(target) {
		return apperrors.InvalidTransition("payment", string(o.PaymentStatus), string(target))
	}
	o.PaymentStatus = target
	o.UpdatedAt = now
	return nil
}

func (o *Order) requireCart() error {
	if o.IsCart() {
		return nil
	}
	return &apperrors.AppError{
		Code:    "ORDER_LOCKED",
		Message: fmt.Sprintf("line items cannot change once the order is %s", o.Status),
		Status:  http.StatusConflict,
		Err:     apperrors.ErrInvalidTransition,
	}
}

func validateQuantity(q, min int) error {
	if q < min {
		if min == 0 {
			return apperrors.InvalidInput("quantity cannot be negative")
		}
		return apperrors.InvalidInput("quantity must be a positive integer")
	}
	if q > MaxLineQuantity {
		return apperrors.InvalidInput(fmt.Sprintf("quantity per line cannot exceed %d", MaxLineQuantity))
	}
	return nil
}

func validateSnapshot(p ProductSnapshot) error {
	switch {
	case strings.TrimSpace(p.ProductRef) == "":
		return apperrors.InvalidInput("product reference is required")
	case strings.TrimSpace(p.Name) == "":
		return apperrors.InvalidInput("product name is required")
	case p.UnitPrice < 0 || p.UnitPrice > MaxUnitPrice:
		return apperrors.InvalidInput("unit price is out of range")
	}
	return nil
}
