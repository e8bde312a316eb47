package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/viraldeals/viraldeals-backend/pkg/enums"
)

// Payment records a payment attempt against an order.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Method        enums.PaymentMethod `gorm:"column:method;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	Amount        int                 `gorm:"column:amount;not null"`
	TransactionID *string             `gorm:"column:transaction_id;uniqueIndex"`
	FailureReason *string             `gorm:"column:failure_reason"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
