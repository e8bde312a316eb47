package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
)

// Repository exposes payment row persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByOrderID loads the payment row for an order.
func (r *Repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByTransactionID loads the payment carrying the gateway transaction id.
func (r *Repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "transaction_id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkInitiated stamps the gateway transaction id and moves the row to initiated.
func (r *Repository) MarkInitiated(ctx context.Context, paymentID uuid.UUID, transactionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]any{
			"transaction_id": transactionID,
			"status":         enums.PaymentStatusInitiated,
		}).
		Error
}

// UpdateStatus moves the payment to the provided status.
func (r *Repository) UpdateStatus(ctx context.Context, paymentID uuid.UUID, status enums.PaymentStatus, failureReason *string) error {
	updates := map[string]any{"status": status}
	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Updates(updates).
		Error
}

// ListPollable returns initiated prepaid payments for the polling worker,
// oldest first.
func (r *Repository) ListPollable(ctx context.Context, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND method = ? AND transaction_id IS NOT NULL", enums.PaymentStatusInitiated, enums.PaymentMethodPhonePe).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}
