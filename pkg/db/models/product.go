package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/viraldeals/viraldeals-backend/pkg/enums"
)

// Product is a catalog listing. Prices are whole rupees.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string                `gorm:"column:sku;not null;uniqueIndex"`
	Name        string                `gorm:"column:name;not null"`
	Description *string               `gorm:"column:description"`
	Category    enums.ProductCategory `gorm:"column:category;not null;default:'other'"`
	Price       int                   `gorm:"column:price;not null"`
	MRP         *int                  `gorm:"column:mrp"`
	Stock       int                   `gorm:"column:stock;not null;default:0"`
	Images      pq.StringArray        `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Rating      *float64              `gorm:"column:rating;type:numeric(3,2)"`
	IsActive    bool                  `gorm:"column:is_active;not null;default:true"`
	Source      *string               `gorm:"column:source"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// PrimaryImage returns the first image reference, or empty when none exist.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
