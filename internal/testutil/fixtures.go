package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/vitrine/pkg/models"
)

// NewProductInput returns a valid create payload with unique SKU, suitable
// for test fixtures. Override individual fields via options.
func NewProductInput(opts ...func(*models.CreateProductInput)) models.CreateProductInput {
	in := models.CreateProductInput{
		Name:  "test-product",
		Price: 9.99,
		SKU:   "SKU-" + uuid.New().String()[:8],
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

// WithName sets the product name.
func WithName(name string) func(*models.CreateProductInput) {
	return func(in *models.CreateProductInput) { in.Name = name }
}

// WithDescription sets the product description.
func WithDescription(desc string) func(*models.CreateProductInput) {
	return func(in *models.CreateProductInput) { in.Description = &desc }
}

// WithPrice sets the product price.
func WithPrice(price float64) func(*models.CreateProductInput) {
	return func(in *models.CreateProductInput) { in.Price = price }
}

// WithDiscountedPrice sets the discounted price.
func WithDiscountedPrice(price float64) func(*models.CreateProductInput) {
	return func(in *models.CreateProductInput) { in.DiscountedPrice = &price }
}

// WithSKU sets the product SKU.
func WithSKU(sku string) func(*models.CreateProductInput) {
	return func(in *models.CreateProductInput) { in.SKU = sku }
}

// NewProduct returns a fully populated Product value for cache-level tests
// that don't go through a repository.
func NewProduct(id int64, opts ...func(*models.Product)) models.Product {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := models.Product{
		ID:        id,
		Name:      "test-product",
		Price:     9.99,
		SKU:       "SKU-" + uuid.New().String()[:8],
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithPhotoURL sets the product photo URL.
func WithPhotoURL(url string) func(*models.Product) {
	return func(p *models.Product) { p.PhotoURL = &url }
}
