package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ShopyKart/internal/domain"
	pkgkafka "github.com/utafrali/ShopyKart/pkg/kafka"
	"github.com/utafrali/ShopyKart/pkg/logger"
)

// Kafka topics for storefront domain events.
const (
	TopicCartUpdated        = "ecommerce.cart.updated"
	TopicOrderPlaced        = "ecommerce.order.placed"
	TopicOrderStatusChanged = "ecommerce.order.status_changed"
	TopicOrderDeleted       = "ecommerce.order.deleted"
	TopicProductCreated     = "ecommerce.product.created"
	TopicProductUpdated     = "ecommerce.product.updated"
	TopicProductDeleted     = "ecommerce.product.deleted"
	TopicAccountRegistered  = "ecommerce.account.registered"
)

// Aggregate types.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeProduct = "product"
	AggregateTypeAccount = "account"
)

// SourceStorefront identifies events emitted by this service.
const SourceStorefront = "storefront"

// Publisher delivers an envelope to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

type discard struct{}

func (discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// Discard drops every event. It is used when Kafka is disabled.
var Discard Publisher = discard{}

// LineItemData is a line item inside an order payload.
type LineItemData struct {
	ProductRef string `json:"product_ref"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unit_price"`
	Quantity   int    `json:"quantity"`
}

// OrderData is the order snapshot carried by cart and order events.
type OrderData struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"owner_id"`
	Status          string         `json:"order_status"`
	PaymentType     string         `json:"payment_type"`
	PaymentStatus   string         `json:"payment_status"`
	TotalAmount     int64          `json:"total_amount"`
	DeliveryAddress string         `json:"delivery_address,omitempty"`
	LineItems       []LineItemData `json:"line_items"`
}

// OrderStatusChangedData is the payload for order.status_changed.
type OrderStatusChangedData struct {
	OrderID          string `json:"order_id"`
	OwnerID          string `json:"owner_id"`
	OldStatus        string `json:"old_status"`
	NewStatus        string `json:"new_status"`
	OldPaymentStatus string `json:"old_payment_status"`
	NewPaymentStatus string `json:"new_payment_status"`
}

// OrderDeletedData is the payload for order.deleted.
type OrderDeletedData struct {
	OrderID string `json:"order_id"`
	OwnerID string `json:"owner_id"`
	Status  string `json:"order_status"`
}

// ProductData is the payload for product.created and product.updated.
type ProductData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
}

// AccountRegisteredData is the payload for account.registered.
type AccountRegisteredData struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Producer publishes storefront domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a producer. A nil publisher drops events.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	if publisher == nil {
		publisher = Discard
	}
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

func orderData(o *domain.Order) OrderData {
	items := make([]LineItemData, len(o.LineItems))
	for i, li := range o.LineItems {
		items[i] = LineItemData{
			ProductRef: li.ProductRef,
			Name:       li.Name,
			UnitPrice:  li.UnitPrice,
			Quantity:   li.Quantity,
		}
	}
	return OrderData{
		ID:              o.ID,
		OwnerID:         o.OwnerID,
		Status:          string(o.Status),
		PaymentType:     string(o.PaymentType),
		PaymentStatus:   string(o.PaymentStatus),
		TotalAmount:     o.TotalAmount,
		DeliveryAddress: o.DeliveryAddress,
		LineItems:       items,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, version int, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, version, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	evt.WithMetadata(pkgkafka.MetadataActor, logger.AccountIDFromContext(ctx))

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishCartUpdated publishes the cart snapshot after a mutation.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Order) error {
	return p.publish(ctx, TopicCartUpdated, cart.ID, AggregateTypeOrder, int(cart.Version), orderData(cart))
}

// PublishOrderPlaced publishes the order snapshot after checkout.
func (p *Producer) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderPlaced, order.ID, AggregateTypeOrder, int(order.Version), orderData(order))
}

// PublishOrderStatusChanged publishes a fulfillment or payment change.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, oldStatus domain.OrderStatus, oldPayment domain.PaymentStatus) error {
	data := OrderStatusChangedData{
		OrderID:          order.ID,
		OwnerID:          order.OwnerID,
		OldStatus:        string(oldStatus),
		NewStatus:        string(order.Status),
		OldPaymentStatus: string(oldPayment),
		NewPaymentStatus: string(order.PaymentStatus),
	}
	return p.publish(ctx, TopicOrderStatusChanged, order.ID, AggregateTypeOrder, int(order.Version), data)
}

// PublishOrderDeleted publishes the removal of an order.
func (p *Producer) PublishOrderDeleted(ctx context.Context, order *domain.Order) error {
	data := OrderDeletedData{OrderID: order.ID, OwnerID: order.OwnerID, Status: string(order.Status)}
	return p.publish(ctx, TopicOrderDeleted, order.ID, AggregateTypeOrder, int(order.Version), data)
}

func productData(pr *domain.Product) ProductData {
	return ProductData{
		ID:       pr.ID,
		Name:     pr.Name,
		Slug:     pr.Slug,
		Category: pr.Category,
		Price:    pr.Price,
		Stock:    pr.Stock,
	}
}

func (p *Producer) PublishProductCreated(ctx context.Context, pr *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, pr.ID, AggregateTypeProduct, 1, productData(pr))
}

func (p *Producer) PublishProductUpdated(ctx context.Context, pr *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, pr.ID, AggregateTypeProduct, 1, productData(pr))
}

func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicProductDeleted, id, AggregateTypeProduct, 1, map[string]string{"product_id": id})
}

// PublishAccountRegistered announces a new account. The password hash is
// never part of the payload.
func (p *Producer) PublishAccountRegistered(ctx context.Context, a *domain.Account) error {
	data := AccountRegisteredData{AccountID: a.ID, Email: a.Email, Role: string(a.Role)}
	return p.publish(ctx, TopicAccountRegistered, a.ID, AggregateTypeAccount, 1, data)
}
