package product

import (
	"testing"

	"github.com/lib/pq"

	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
)

func TestValidateCreate(t *testing.T) {
	valid := CreateInput{
		SKU:      "SKU-1",
		Name:     "Wireless Earbuds",
		Category: enums.CategoryElectronics,
		Price:    1999,
		Stock:    25,
		IsActive: true,
	}
	if err := validateCreate(valid); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing sku", func(in *CreateInput) { in.SKU = "  " }},
		{"missing name", func(in *CreateInput) { in.Name = "" }},
		{"zero price", func(in *CreateInput) { in.Price = 0 }},
		{"negative stock", func(in *CreateInput) { in.Stock = -1 }},
		{"bad category", func(in *CreateInput) { in.Category = "vehicles" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := valid
			tc.mutate(&input)
			err := validateCreate(input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error code, got %v", err)
			}
		})
	}
}

func TestSummaryFromModelUsesPrimaryImage(t *testing.T) {
	mrp := 2999
	model := models.Product{
		SKU:      "SKU-2",
		Name:     "Desk Lamp",
		Category: enums.CategoryHome,
		Price:    1499,
		MRP:      &mrp,
		Stock:    4,
		Images:   pq.StringArray{"first.jpg", "second.jpg"},
		IsActive: true,
	}

	summary := summaryFromModel(model)
	if summary.Image != "first.jpg" {
		t.Fatalf("expected primary image, got %q", summary.Image)
	}
	if summary.MRP == nil || *summary.MRP != mrp {
		t.Fatalf("expected mrp %d, got %v", mrp, summary.MRP)
	}
}

func TestDetailFromModelCopiesImages(t *testing.T) {
	model := &models.Product{
		Images: pq.StringArray{"a.jpg"},
	}
	detail := detailFromModel(model)
	detail.Images[0] = "mutated.jpg"
	if model.Images[0] != "a.jpg" {
		t.Fatal("detail must not alias the model's image slice")
	}
}
