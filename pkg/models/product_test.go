package models_test

import (
	"encoding/json"
	"testing"

	"github.com/avolkov/vitrine/pkg/models"
)

func TestCreateProductInput_Validate(t *testing.T) {
	negative := -1.0
	zero := 0.0
	valid := 5.0

	tests := []struct {
		name    string
		input   models.CreateProductInput
		wantErr bool
	}{
		{
			name:  "valid minimal",
			input: models.CreateProductInput{Name: "Widget", Price: 9.99, SKU: "W-1"},
		},
		{
			name:  "valid with discount",
			input: models.CreateProductInput{Name: "Widget", Price: 9.99, SKU: "W-1", DiscountedPrice: &valid},
		},
		{
			name:    "empty name",
			input:   models.CreateProductInput{Price: 9.99, SKU: "W-1"},
			wantErr: true,
		},
		{
			name:    "empty sku",
			input:   models.CreateProductInput{Name: "Widget", Price: 9.99},
			wantErr: true,
		},
		{
			name:    "zero price",
			input:   models.CreateProductInput{Name: "Widget", Price: 0, SKU: "W-1"},
			wantErr: true,
		},
		{
			name:    "negative price",
			input:   models.CreateProductInput{Name: "Widget", Price: -1, SKU: "W-1"},
			wantErr: true,
		},
		{
			name:    "negative discount",
			input:   models.CreateProductInput{Name: "Widget", Price: 9.99, SKU: "W-1", DiscountedPrice: &negative},
			wantErr: true,
		},
		{
			name:    "zero discount",
			input:   models.CreateProductInput{Name: "Widget", Price: 9.99, SKU: "W-1", DiscountedPrice: &zero},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateProductInput_DiscountAbovePriceAllowed(t *testing.T) {
	discount := 100.0
	in := models.CreateProductInput{Name: "Widget", Price: 9.99, SKU: "W-1", DiscountedPrice: &discount}
	if err := in.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for discount above price", err)
	}
}

func TestOptional_AbsentVsNullVsValue(t *testing.T) {
	var in models.UpdateProductInput
	payload := `{"name":"Renamed","description":null}`
	if err := json.Unmarshal([]byte(payload), &in); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !in.Name.Set {
		t.Error("Name.Set = false, want true for present field")
	}
	if in.Name.Value == nil || *in.Name.Value != "Renamed" {
		t.Errorf("Name.Value = %v, want Renamed", in.Name.Value)
	}

	if !in.Description.Set {
		t.Error("Description.Set = false, want true for explicit null")
	}
	if in.Description.Value != nil {
		t.Errorf("Description.Value = %v, want nil for explicit null", *in.Description.Value)
	}

	if in.Price.Set {
		t.Error("Price.Set = true, want false for absent field")
	}
	if in.SKU.Set {
		t.Error("SKU.Set = true, want false for absent field")
	}
}

func TestUpdateProductInput_Validate(t *testing.T) {
	set := func(v float64) models.Optional[float64] {
		return models.Optional[float64]{Set: true, Value: &v}
	}
	setStr := func(v string) models.Optional[string] {
		return models.Optional[string]{Set: true, Value: &v}
	}
	null := models.Optional[float64]{Set: true}
	nullStr := models.Optional[string]{Set: true}

	tests := []struct {
		name    string
		input   models.UpdateProductInput
		wantErr bool
	}{
		{name: "empty update", input: models.UpdateProductInput{}},
		{name: "rename", input: models.UpdateProductInput{Name: setStr("New")}},
		{name: "clear description", input: models.UpdateProductInput{Description: nullStr}},
		{name: "clear discount", input: models.UpdateProductInput{DiscountedPrice: null}},
		{name: "null name rejected", input: models.UpdateProductInput{Name: nullStr}, wantErr: true},
		{name: "empty name rejected", input: models.UpdateProductInput{Name: setStr("")}, wantErr: true},
		{name: "null sku rejected", input: models.UpdateProductInput{SKU: nullStr}, wantErr: true},
		{name: "null price rejected", input: models.UpdateProductInput{Price: null}, wantErr: true},
		{name: "zero price rejected", input: models.UpdateProductInput{Price: set(0)}, wantErr: true},
		{name: "negative discount rejected", input: models.UpdateProductInput{DiscountedPrice: set(-2)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateProductInput_Apply(t *testing.T) {
	desc := "old description"
	discount := 5.0
	p := models.Product{
		ID:              1,
		Name:            "Widget",
		Description:     &desc,
		Price:           9.99,
		DiscountedPrice: &discount,
		SKU:             "W-1",
	}

	var in models.UpdateProductInput
	payload := `{"name":"Gadget","discountedPrice":null}`
	if err := json.Unmarshal([]byte(payload), &in); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	in.Apply(&p)

	if p.Name != "Gadget" {
		t.Errorf("Name = %q, want %q", p.Name, "Gadget")
	}
	if p.DiscountedPrice != nil {
		t.Errorf("DiscountedPrice = %v, want nil after explicit null", *p.DiscountedPrice)
	}
	if p.Description == nil || *p.Description != desc {
		t.Error("Description changed by absent field")
	}
	if p.Price != 9.99 {
		t.Errorf("Price = %v, want unchanged 9.99", p.Price)
	}
	if p.SKU != "W-1" {
		t.Errorf("SKU = %q, want unchanged W-1", p.SKU)
	}
}

func TestProduct_JSONShape(t *testing.T) {
	p := models.Product{ID: 7, Name: "Widget", Price: 9.99, SKU: "W-1"}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for _, key := range []string{"id", "name", "description", "price", "discountedPrice", "sku", "photoUrl", "createdAt", "updatedAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing JSON key %q", key)
		}
	}
	if string(m["description"]) != "null" {
		t.Errorf("description = %s, want null", m["description"])
	}
	if string(m["photoUrl"]) != "null" {
		t.Errorf("photoUrl = %s, want null", m["photoUrl"])
	}
}
