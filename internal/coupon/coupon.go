package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/coldbreeze/storefront/internal/models"
	"github.com/coldbreeze/storefront/internal/pricing"
)

// ErrInvalidOrExpired is the policy rejection for unknown, disabled or
// expired codes.
var ErrInvalidOrExpired = errors.New("invalid or expired coupon")

type Validator struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewValidator(db *gorm.DB) *Validator {
	return &Validator{DB: db, Now: time.Now}
}

// Apply looks up the code case-insensitively and returns an immutable
// snapshot. A coupon is valid iff it is active and now is strictly before
// its expiry: a coupon expiring exactly now is already expired.
func (v *Validator) Apply(ctx context.Context, code string) (pricing.CouponSnapshot, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return pricing.CouponSnapshot{}, ErrInvalidOrExpired
	}

	var c models.Coupon
	err := v.DB.WithContext(ctx).Where("code = ?", normalized).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pricing.CouponSnapshot{}, ErrInvalidOrExpired
		}
		return pricing.CouponSnapshot{}, fmt.Errorf("coupon lookup: %w", err)
	}

	if !c.IsActive || !v.Now().Before(c.ExpiresAt) {
		return pricing.CouponSnapshot{}, ErrInvalidOrExpired
	}

	return pricing.CouponSnapshot{
		ID:    c.ID,
		Code:  c.Code,
		Type:  c.DiscountType,
		Value: c.DiscountValue,
	}, nil
}
