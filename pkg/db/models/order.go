package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	"github.com/viraldeals/viraldeals-backend/pkg/types"
)

// Order snapshots a placed cart together with its pricing breakdown.
// Amounts are whole rupees, computed once at placement.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null"`
	ShippingAddress *types.Address      `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Subtotal        int                 `gorm:"column:subtotal;not null"`
	GSTAmount       int                 `gorm:"column:gst_amount;not null"`
	ShippingCost    int                 `gorm:"column:shipping_cost;not null"`
	Discount        int                 `gorm:"column:discount;not null;default:0"`
	Total           int                 `gorm:"column:total;not null"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *Payment            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
