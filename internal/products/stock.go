package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
)

// StockTx applies stock movements inside a caller-owned transaction. Order
// placement and cancellation go through this so stock, order rows, and
// payment rows commit or roll back together.
type StockTx struct{}

// Load reads the product row inside the transaction.
func (StockTx) Load(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	return NewRepository(tx).FindByID(ctx, productID)
}

// Decrement reduces stock and reports whether enough units were available.
func (StockTx) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	return NewRepository(tx).DecrementStock(ctx, productID, qty)
}

// Restore returns units after a cancellation.
func (StockTx) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return NewRepository(tx).RestoreStock(ctx, productID, qty)
}
