package domain

import "time"

// Product is a catalog entry.
type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Slug           string            `json:"slug"`
	Category       string            `json:"category"`
	Brand          string            `json:"brand,omitempty"`
	Description    string            `json:"description,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	ImageRef       string            `json:"image_ref,omitempty"`
	Price          int64             `json:"price"`
	OriginalPrice  int64             `json:"original_price,omitempty"`
	Discount       int               `json:"discount,omitempty"`
	Stock          int               `json:"stock"`
	Sold           int               `json:"sold"`
	Featured       bool              `json:"featured"`
	Rating         float64           `json:"rating"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// InStock reports whether any units are available.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Snapshot copies the display data a cart line keeps.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ProductRef: p.ID,
		Name:       p.Name,
		UnitPrice:  p.Price,
		ImageRef:   p.ImageRef,
	}
}
