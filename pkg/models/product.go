// Package models defines the catalog domain types shared between the server,
// the HTTP client, and the cache synchronizer.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Product is a single catalog item. Description, DiscountedPrice, and
// PhotoURL are nullable and serialize as JSON null when absent.
type Product struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	Price           float64   `json:"price"`
	DiscountedPrice *float64  `json:"discountedPrice"`
	SKU             string    `json:"sku"`
	PhotoURL        *string   `json:"photoUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ValidationError reports a malformed create or update payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Optional distinguishes an absent JSON field from one that is present but
// null. Absent fields are left untouched by partial updates; explicit nulls
// clear nullable columns.
type Optional[T any] struct {
	Set   bool
	Value *T // nil when the JSON value was null
}

// UnmarshalJSON is only invoked for fields present in the payload, so Set
// remains false for absent keys.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON round-trips the value; unset and null both encode as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// CreateProductInput is the payload for creating a product.
type CreateProductInput struct {
	Name            string   `json:"name"`
	Description     *string  `json:"description"`
	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discountedPrice"`
	SKU             string   `json:"sku"`
}

// Validate checks required fields and positivity constraints.
// DiscountedPrice is not required to be below Price; the store is permissive
// about the relation between the two.
func (in CreateProductInput) Validate() error {
	if in.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if in.SKU == "" {
		return &ValidationError{Field: "sku", Reason: "must not be empty"}
	}
	if in.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if in.DiscountedPrice != nil && *in.DiscountedPrice <= 0 {
		return &ValidationError{Field: "discountedPrice", Reason: "must be positive"}
	}
	return nil
}

// UpdateProductInput is a partial update. Absent fields leave the product
// unchanged; Description and DiscountedPrice accept explicit null to clear.
type UpdateProductInput struct {
	Name            Optional[string]  `json:"name"`
	Description     Optional[string]  `json:"description"`
	Price           Optional[float64] `json:"price"`
	DiscountedPrice Optional[float64] `json:"discountedPrice"`
	SKU             Optional[string]  `json:"sku"`
}

// Validate checks only the fields present in the payload. Name, SKU, and
// Price are non-nullable columns, so explicit null is rejected for them.
func (in UpdateProductInput) Validate() error {
	if in.Name.Set && (in.Name.Value == nil || *in.Name.Value == "") {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if in.SKU.Set && (in.SKU.Value == nil || *in.SKU.Value == "") {
		return &ValidationError{Field: "sku", Reason: "must not be empty"}
	}
	if in.Price.Set && (in.Price.Value == nil || *in.Price.Value <= 0) {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if in.DiscountedPrice.Set && in.DiscountedPrice.Value != nil && *in.DiscountedPrice.Value <= 0 {
		return &ValidationError{Field: "discountedPrice", Reason: "must be positive"}
	}
	return nil
}

// Apply copies the present fields onto p. Callers must Validate first.
func (in UpdateProductInput) Apply(p *Product) {
	if in.Name.Set {
		p.Name = *in.Name.Value
	}
	if in.Description.Set {
		p.Description = in.Description.Value
	}
	if in.Price.Set {
		p.Price = *in.Price.Value
	}
	if in.DiscountedPrice.Set {
		p.DiscountedPrice = in.DiscountedPrice.Value
	}
	if in.SKU.Set {
		p.SKU = *in.SKU.Value
	}
}
