package seed

import (
	"fmt"
	"math/rand/v2"
)

type productDef struct {
	name        string
	description string
	category    string
	brand       string
	price       int64
}

var productDefs = []productDef{
	// Electronics
	{"Wireless Bluetooth Headphones", "Noise-cancelling over-ear headphones with 30-hour battery life.", "electronics", "TechBrand", 7999},
	{"USB-C Hub Adapter", "7-in-1 hub with HDMI 4K output, SD card reader and 100W power delivery.", "electronics", "TechBrand", 3499},
	{"Mechanical Keyboard", "RGB backlit mechanical keyboard with tactile switches and a detachable wrist rest.", "electronics", "TechBrand", 8999},
	{"4K Webcam", "Ultra HD webcam with auto-focus and a privacy shutter.", "electronics", "TechBrand", 12999},
	{"Portable SSD 1TB", "External solid state drive with USB 3.2 Gen 2 and shock-resistant housing.", "electronics", "TechBrand", 9999},
	{"Wireless Mouse", "Ergonomic wireless mouse with silent clicks.", "electronics", "TechBrand", 2499},
	// Clothing
	{"Classic Cotton T-Shirt", "Everyday tee made from organic cotton.", "clothing", "StyleCo", 2499},
	{"Slim Fit Jeans", "Stretch denim jeans with classic 5-pocket styling.", "clothing", "StyleCo", 4999},
	{"Wool Sweater", "Merino wool pullover with ribbed cuffs and hem.", "clothing", "StyleCo", 5999},
	{"Rain Jacket", "Waterproof breathable jacket with an adjustable hood.", "clothing", "StyleCo", 7999},
	// Home & Kitchen
	{"Stainless Steel Cookware Set", "10-piece tri-ply cookware set with glass lids.", "home-kitchen", "HomeEssentials", 14999},
	{"Coffee Maker", "12-cup programmable drip coffee brewer with thermal carafe.", "home-kitchen", "HomeEssentials", 4999},
	{"Knife Set", "8-piece forged high-carbon stainless steel knife collection.", "home-kitchen", "HomeEssentials", 7999},
	// Sports & Outdoors
	{"Yoga Mat", "Non-slip 6mm exercise mat with carrying strap.", "sports-outdoors", "SportPro", 2999},
	{"Camping Tent", "Two-person waterproof dome tent with quick setup.", "sports-outdoors", "SportPro", 11999},
	{"Adjustable Dumbbells", "Pair of dumbbells adjustable from 2 to 24 kg.", "sports-outdoors", "SportPro", 19999},
	// Books
	{"The Go Programming Language", "A thorough introduction to Go.", "books", "BookWorld", 3999},
	{"Designing Data-Intensive Applications", "The big ideas behind reliable, scalable systems.", "books", "BookWorld", 4499},
}

// Catalog returns count demo products. The same seed always yields the same
// catalog; names repeat with a numeric suffix once the base list runs out.
func Catalog(count int, seed uint64) []Product {
	if count <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed)) // #nosec G404 -- demo data

	products := make([]Product, 0, count)
	for i := range count {
		def := productDefs[i%len(productDefs)]
		name := def.name
		if round := i / len(productDefs); round > 0 {
			name = fmt.Sprintf("%s %d", def.name, round+1)
		}

		p := Product{
			Name:        name,
			Category:    def.category,
			Brand:       def.brand,
			Description: def.description,
			Price:       def.price,
			Stock:       rng.IntN(200),
			Featured:    rng.IntN(5) == 0,
			Rating:      float64(30+rng.IntN(21)) / 10,
		}
		if rng.IntN(3) == 0 {
			p.Discount = 5 * (1 + rng.IntN(6))
			p.OriginalPrice = def.price
			p.Price = def.price * int64(100-p.Discount) / 100
		}
		products = append(products, p)
	}
	return products
}
