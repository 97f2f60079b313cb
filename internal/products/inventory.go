package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inventory reserves and releases product stock inside a caller's transaction.
type Inventory struct{}

func NewInventory() *Inventory {
	return &Inventory{}
}

// Reserve takes qty units with the stock >= qty guard. It reports false when
// not enough units remain.
func (Inventory) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	return NewRepository(tx).DecrementStock(ctx, productID, qty)
}

// Release puts qty units back.
func (Inventory) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return NewRepository(tx).RestoreStock(ctx, productID, qty)
}
