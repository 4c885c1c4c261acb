package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldbreeze/storefront/internal/models"
)

var ErrOutOfStock = errors.New("out of stock")

// Availability is the answer to "can N more units be committed".
type Availability struct {
	OK        bool  `json:"ok"`
	Available int64 `json:"available"`
}

type Ledger struct {
	DB *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// CheckAvailability is the advisory, read-only check performed at cart
// mutation time. Committed quantity is the sum across the requesting user's
// own cart items on the same variant+size; carts of other users are not
// counted and not locked. The hard guarantee lives in Decrement.
func (l *Ledger) CheckAvailability(ctx context.Context, userID, variantSizeID uuid.UUID, requested int64) (Availability, error) {
	var vs models.ProductVariantSize
	if err := l.DB.WithContext(ctx).First(&vs, "id = ?", variantSizeID).Error; err != nil {
		return Availability{}, fmt.Errorf("stock lookup: %w", err)
	}

	var committed int64
	err := l.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ? AND cart_items.product_variant_size_id = ?", userID, variantSizeID).
		Select("COALESCE(SUM(cart_items.quantity), 0)").
		Scan(&committed).Error
	if err != nil {
		return Availability{}, fmt.Errorf("stock committed sum: %w", err)
	}

	available := vs.Stock - committed
	if available < 0 {
		available = 0
	}
	if committed+requested > vs.Stock {
		return Availability{OK: false, Available: available}, ErrOutOfStock
	}
	return Availability{OK: true, Available: available}, nil
}

// Decrement debits stock inside the caller's transaction. The conditional
// update makes oversell impossible: if another checkout got there first and
// stock is short, zero rows match and the whole transaction rolls back.
func (l *Ledger) Decrement(tx *gorm.DB, variantSizeID uuid.UUID, qty int64) error {
	res := tx.Model(&models.ProductVariantSize{}).
		Where("id = ? AND stock >= ?", variantSizeID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("stock decrement: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOutOfStock
	}
	return nil
}
