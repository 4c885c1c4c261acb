package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldbreeze/storefront/internal/coupon"
	"github.com/coldbreeze/storefront/internal/logging"
	"github.com/coldbreeze/storefront/internal/models"
	"github.com/coldbreeze/storefront/internal/pricing"
	"github.com/coldbreeze/storefront/internal/stock"
)

var (
	ErrCartNotFound           = errors.New("cart not found")
	ErrShippingAddressMissing = errors.New("shipping address missing")
	ErrShippingMethodMissing  = errors.New("shipping method missing")
	ErrEmptyCart              = errors.New("cart has no items")
)

// DefaultDebounceWindow collapses near-simultaneous duplicate finalize calls
// into one order when the caller supplies no idempotency key.
const DefaultDebounceWindow = 5 * time.Second

// Finalizer turns a cart into an order inside a single transaction.
type Finalizer struct {
	DB             *gorm.DB
	Coupons        *coupon.Validator
	Stock          *stock.Ledger
	Now            func() time.Time
	DebounceWindow time.Duration

	// beforeTx, when set, runs after the duplicate guards and the cart load,
	// right before the order transaction. Tests interleave concurrent calls
	// through it.
	beforeTx func()
}

func NewFinalizer(db *gorm.DB) *Finalizer {
	return &Finalizer{
		DB:             db,
		Coupons:        coupon.NewValidator(db),
		Stock:          stock.NewLedger(db),
		Now:            time.Now,
		DebounceWindow: DefaultDebounceWindow,
	}
}

// Finalize converts the user's cart into an immutable order and returns the
// order id.
//
// Duplicate submissions are absorbed twice over: a caller-supplied
// idempotency key is replayed exactly (unique per user+key), and without a
// key the most recent order inside the debounce window is returned instead
// of creating a second one. Two keyless calls racing inside the window
// before either commits can still both land; that gap is demonstrated by
// test, not hidden.
//
// Inside the transaction every unit price is re-read from the live variant,
// stock is debited conditionally, and order creation plus cart deletion
// commit together or not at all.
func (f *Finalizer) Finalize(ctx context.Context, userID uuid.UUID, couponCode, idempotencyKey string) (uuid.UUID, error) {
	if idempotencyKey != "" {
		var prior models.Order
		err := f.DB.WithContext(ctx).
			Where("user_id = ? AND idempotency_key = ?", userID, idempotencyKey).
			First(&prior).Error
		if err == nil {
			return prior.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fmt.Errorf("idempotency lookup: %w", err)
		}
	}

	var recent models.Order
	err := f.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&recent).Error
	if err == nil && f.Now().Sub(recent.CreatedAt) < f.DebounceWindow {
		// the cart was likely consumed by the call that created this order
		return recent.ID, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, fmt.Errorf("recent order lookup: %w", err)
	}

	var cart models.Cart
	err = f.DB.WithContext(ctx).
		Preload("Items").
		Preload("ShippingAddress").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrCartNotFound
		}
		return uuid.Nil, fmt.Errorf("load cart: %w", err)
	}

	if cart.ShippingAddress == nil {
		return uuid.Nil, ErrShippingAddressMissing
	}
	if cart.ShippingPriceInCents == nil {
		return uuid.Nil, ErrShippingMethodMissing
	}
	if len(cart.Items) == 0 {
		return uuid.Nil, ErrEmptyCart
	}

	addr := cart.ShippingAddress
	shippingCents := *cart.ShippingPriceInCents

	if f.beforeTx != nil {
		f.beforeTx()
	}

	var orderID uuid.UUID
	txErr := f.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		priceItems := make([]pricing.Item, 0, len(cart.Items))
		orderItems := make([]models.OrderItem, 0, len(cart.Items))

		for _, it := range cart.Items {
			// never trust a cached price: re-read the variant now and
			// capture this price permanently on the order item
			var variant models.ProductVariant
			if err := tx.First(&variant, "id = ?", it.ProductVariantID).Error; err != nil {
				return fmt.Errorf("load variant %s: %w", it.ProductVariantID, err)
			}

			if it.ProductVariantSizeID != nil {
				if err := f.Stock.Decrement(tx, *it.ProductVariantSizeID, it.Quantity); err != nil {
					return err
				}
			}

			priceItems = append(priceItems, pricing.Item{
				UnitPriceInCents: variant.PriceInCents,
				Quantity:         it.Quantity,
			})
			variantID := it.ProductVariantID
			orderItems = append(orderItems, models.OrderItem{
				ProductVariantID:     &variantID,
				ProductVariantSizeID: it.ProductVariantSizeID,
				Quantity:             it.Quantity,
				PriceInCents:         variant.PriceInCents,
			})
		}

		// coupon failure at checkout is not fatal: proceed undiscounted
		var snap *pricing.CouponSnapshot
		var couponID *uuid.UUID
		if couponCode != "" {
			s, err := f.Coupons.Apply(ctx, couponCode)
			if err == nil {
				snap = &s
				couponID = &s.ID
			} else if !errors.Is(err, coupon.ErrInvalidOrExpired) {
				return err
			}
		}

		totals := pricing.ComputeTotals(priceItems, snap, shippingCents)

		addrID := addr.ID
		order := models.Order{
			UserID:            userID,
			ShippingAddressID: &addrID,
			CouponID:          couponID,

			RecipientName: addr.RecipientName,
			Street:        addr.Street,
			Number:        addr.Number,
			Complement:    addr.Complement,
			Neighborhood:  addr.Neighborhood,
			City:          addr.City,
			State:         addr.State,
			ZipCode:       addr.ZipCode,
			Country:       addr.Country,
			Phone:         addr.Phone,
			Email:         addr.Email,
			CpfOrCnpj:     addr.CpfOrCnpj,

			SubtotalInCents: totals.SubtotalInCents,
			DiscountInCents: totals.DiscountInCents,
			ShippingInCents: totals.ShippingInCents,
			TotalInCents:    totals.TotalInCents,
			Status:          models.OrderStatusPending,
			CreatedAt:       f.Now(),
		}
		if idempotencyKey != "" {
			key := idempotencyKey
			order.IdempotencyKey = &key
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		// cart consumption and order creation commit together or not at all
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}
		if err := tx.Delete(&models.Cart{}, "id = ?", cart.ID).Error; err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}

		orderID = order.ID
		return nil
	})
	if txErr != nil {
		return uuid.Nil, txErr
	}

	logging.FromContext(ctx).Info("order finalized",
		"order_id", orderID, "user_id", userID, "items", len(cart.Items))
	return orderID, nil
}
