package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	"github.com/viraldeals/viraldeals-backend/pkg/pagination"
)

// Summary is the storefront listing shape for browse pages.
type Summary struct {
	ID        uuid.UUID             `json:"id"`
	SKU       string                `json:"sku"`
	Name      string                `json:"name"`
	Category  enums.ProductCategory `json:"category"`
	Price     int                   `json:"price"`
	MRP       *int                  `json:"mrp,omitempty"`
	Stock     int                   `json:"stock"`
	Image     string                `json:"image,omitempty"`
	Rating    *float64              `json:"rating,omitempty"`
	IsActive  bool                  `json:"is_active"`
	CreatedAt time.Time             `json:"created_at"`
}

// Detail is the full product shape for the detail page.
type Detail struct {
	Summary
	Description *string   `json:"description,omitempty"`
	Images      []string  `json:"images"`
	Source      *string   `json:"source,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category *enums.ProductCategory `json:"category,omitempty"`
	PriceMin *int                   `json:"price_min,omitempty"`
	PriceMax *int                   `json:"price_max,omitempty"`
	InStock  *bool                  `json:"in_stock,omitempty"`
	Query    string                 `json:"q,omitempty"`
}

// ListInput captures the inputs needed to paginate and filter the catalog.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
	// IncludeInactive is an admin-only escape hatch.
	IncludeInactive bool
}

// ListResult is one catalog page plus the cursor for the next.
type ListResult struct {
	Products   []Summary `json:"products"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// CreateInput holds the validated payload to create a product.
type CreateInput struct {
	SKU         string
	Name        string
	Description *string
	Category    enums.ProductCategory
	Price       int
	MRP         *int
	Stock       int
	Images      []string
	Rating      *float64
	IsActive    bool
	Source      *string
}

// UpdateInput holds optional mutation values for a product.
type UpdateInput struct {
	Name        *string
	Description *string
	Category    *enums.ProductCategory
	Price       *int
	MRP         *int
	Stock       *int
	Images      *[]string
	Rating      *float64
	IsActive    *bool
}

func detailFromModel(p *models.Product) *Detail {
	return &Detail{
		Summary:     summaryFromModel(*p),
		Description: p.Description,
		Images:      append([]string{}, p.Images...),
		Source:      p.Source,
		UpdatedAt:   p.UpdatedAt,
	}
}
