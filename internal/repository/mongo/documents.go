package mongo

import (
	"time"

	"github.com/utafrali/ShopyKart/internal/domain"
)

type lineItemDocument struct {
	ProductRef string `bson:"product_ref"`
	Name       string `bson:"name"`
	UnitPrice  int64  `bson:"unit_price"`
	ImageRef   string `bson:"image_ref,omitempty"`
	Quantity   int    `bson:"quantity"`
}

type orderDocument struct {
	ID              string             `bson:"_id"`
	OwnerID         string             `bson:"owner_id"`
	LineItems       []lineItemDocument `bson:"line_items"`
	DeliveryAddress string             `bson:"delivery_address"`
	TotalAmount     int64              `bson:"total_amount"`
	PaymentType     string             `bson:"payment_type"`
	PaymentStatus   string             `bson:"payment_status"`
	Status          string             `bson:"status"`
	Version         int64              `bson:"version"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
	PlacedAt        *time.Time         `bson:"placed_at,omitempty"`
}

func toOrderDocument(o *domain.Order) orderDocument {
	items := make([]lineItemDocument, len(o.LineItems))
	for i, li := range o.LineItems {
		items[i] = lineItemDocument{
			ProductRef: li.ProductRef,
			Name:       li.Name,
			UnitPrice:  li.UnitPrice,
			ImageRef:   li.ImageRef,
			Quantity:   li.Quantity,
		}
	}
	return orderDocument{
		ID:              o.ID,
		OwnerID:         o.OwnerID,
		LineItems:       items,
		DeliveryAddress: o.DeliveryAddress,
		TotalAmount:     o.TotalAmount,
		PaymentType:     string(o.PaymentType),
		PaymentStatus:   string(o.PaymentStatus),
		Status:          string(o.Status),
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		PlacedAt:        o.PlacedAt,
	}
}

func (d orderDocument) toDomain() *domain.Order {
	items := make([]domain.LineItem, len(d.LineItems))
	for i, li := range d.LineItems {
		items[i] = domain.LineItem{
			ProductRef: li.ProductRef,
			Name:       li.Name,
			UnitPrice:  li.UnitPrice,
			ImageRef:   li.ImageRef,
			Quantity:   li.Quantity,
		}
	}
	return &domain.Order{
		ID:              d.ID,
		OwnerID:         d.OwnerID,
		LineItems:       items,
		DeliveryAddress: d.DeliveryAddress,
		TotalAmount:     d.TotalAmount,
		PaymentType:     domain.PaymentType(d.PaymentType),
		PaymentStatus:   domain.PaymentStatus(d.PaymentStatus),
		Status:          domain.OrderStatus(d.Status),
		Version:         d.Version,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
		PlacedAt:        d.PlacedAt,
	}
}

type productDocument struct {
	ID             string            `bson:"_id"`
	Name           string            `bson:"name"`
	Slug           string            `bson:"slug"`
	Category       string            `bson:"category"`
	CategoryKey    string            `bson:"category_key"`
	Brand          string            `bson:"brand,omitempty"`
	Description    string            `bson:"description,omitempty"`
	Specifications map[string]string `bson:"specifications,omitempty"`
	ImageRef       string            `bson:"image_ref,omitempty"`
	Price          int64             `bson:"price"`
	OriginalPrice  int64             `bson:"original_price,omitempty"`
	Discount       int               `bson:"discount,omitempty"`
	Stock          int               `bson:"stock"`
	Sold           int               `bson:"sold"`
	Featured       bool              `bson:"featured"`
	Rating         float64           `bson:"rating"`
	CreatedAt      time.Time         `bson:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at"`
}

func toProductDocument(p *domain.Product) productDocument {
	return productDocument{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Category:       p.Category,
		CategoryKey:    categoryKey(p.Category),
		Brand:          p.Brand,
		Description:    p.Description,
		Specifications: p.Specifications,
		ImageRef:       p.ImageRef,
		Price:          p.Price,
		OriginalPrice:  p.OriginalPrice,
		Discount:       p.Discount,
		Stock:          p.Stock,
		Sold:           p.Sold,
		Featured:       p.Featured,
		Rating:         p.Rating,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d productDocument) toDomain() *domain.Product {
	return &domain.Product{
		ID:             d.ID,
		Name:           d.Name,
		Slug:           d.Slug,
		Category:       d.Category,
		Brand:          d.Brand,
		Description:    d.Description,
		Specifications: d.Specifications,
		ImageRef:       d.ImageRef,
		Price:          d.Price,
		OriginalPrice:  d.OriginalPrice,
		Discount:       d.Discount,
		Stock:          d.Stock,
		Sold:           d.Sold,
		Featured:       d.Featured,
		Rating:         d.Rating,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

type accountDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toAccountDocument(a *domain.Account) accountDocument {
	return accountDocument{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (d accountDocument) toDomain() *domain.Account {
	return &domain.Account{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}
