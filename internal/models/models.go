package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	Name         string    `gorm:"not null"                   json:"name"`
	Email        string    `gorm:"unique;not null"            json:"email"`
	PasswordHash string    `gorm:"not null"                   json:"-"`
	Role         string    `gorm:"not null;default:user"      json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	Token     string    `gorm:"unique;not null"     json:"token"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"            json:"expires_at"`
	Revoked   bool      `gorm:"default:false"       json:"revoked"`
}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null"             json:"name"`
	Slug        string    `gorm:"unique;not null"      json:"slug"`
	Description string    `gorm:"not null"             json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProductVariant struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	ProductID    uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Slug         string    `gorm:"unique;not null"          json:"slug"`
	Color        string    `json:"color"`
	PriceInCents int64     `gorm:"not null"                 json:"price_in_cents"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
}

type ProductSize struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null"             json:"name"`
	Slug      string    `gorm:"unique;not null"      json:"slug"`
	SortOrder int       `gorm:"default:0"            json:"sort_order"`
}

// ProductVariantSize is the stock-bearing entity: one row per variant+size
// combination carrying the authoritative stock counter.
type ProductVariantSize struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	ProductVariantID uuid.UUID `gorm:"type:uuid;index;not null" json:"product_variant_id"`
	SizeID           uuid.UUID `gorm:"type:uuid;not null"       json:"size_id"`
	Stock            int64     `gorm:"not null;default:0"       json:"stock"`
}

type ShippingAddress struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	RecipientName string    `gorm:"not null" json:"recipient_name"`
	Street        string    `gorm:"not null" json:"street"`
	Number        string    `gorm:"not null" json:"number"`
	Complement    string    `json:"complement"`
	Neighborhood  string    `gorm:"not null" json:"neighborhood"`
	City          string    `gorm:"not null" json:"city"`
	State         string    `gorm:"not null" json:"state"`
	ZipCode       string    `gorm:"not null" json:"zip_code"`
	Country       string    `gorm:"not null" json:"country"`
	Phone         string    `gorm:"not null" json:"phone"`
	Email         string    `gorm:"not null" json:"email"`
	CpfOrCnpj     string    `gorm:"not null" json:"cpf_or_cnpj"`
	CreatedAt     time.Time `json:"created_at"`
}

// Cart is the per-user pre-purchase container. At most one row per user.
// Shipping method name/price stay empty until the user picks a method; the
// captured price is what finalization charges for shipping.
type Cart struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey"        json:"id"`
	UserID               uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	ShippingAddressID    *uuid.UUID       `gorm:"type:uuid"                   json:"shipping_address_id"`
	ShippingAddress      *ShippingAddress `gorm:"foreignKey:ShippingAddressID" json:"shipping_address,omitempty"`
	ShippingMethod       string           `json:"shipping_method"`
	ShippingPriceInCents *int64           `json:"shipping_price_in_cents"`
	Items                []CartItem       `gorm:"foreignKey:CartID"           json:"items"`
	CreatedAt            time.Time        `json:"created_at"`
}

type CartItem struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CartID               uuid.UUID  `gorm:"type:uuid;index;not null;uniqueIndex:ux_cart_items_combo" json:"cart_id"`
	ProductVariantID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_cart_items_combo"       json:"product_variant_id"`
	ProductVariantSizeID *uuid.UUID `gorm:"type:uuid;uniqueIndex:ux_cart_items_combo"                json:"product_variant_size_id"`
	Quantity             int64      `gorm:"not null;check:quantity>0" json:"quantity"`
	CreatedAt            time.Time  `json:"created_at"`
}

type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
)

type Coupon struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Code          string       `gorm:"unique;not null"      json:"code"`
	Description   string       `json:"description"`
	DiscountType  DiscountType `gorm:"type:text;not null"   json:"discount_type"`
	DiscountValue int64        `gorm:"not null"             json:"discount_value"`
	IsActive      bool         `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt     time.Time    `gorm:"not null"             json:"expires_at"`
	CreatedAt     time.Time    `json:"created_at"`
}

type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "pending"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusOnTheWay     OrderStatus = "on_the_way"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCanceled     OrderStatus = "canceled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProduction, OrderStatusOnTheWay,
		OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// Order is the immutable priced record created from a cart. The address
// fields are a snapshot copied at creation time; ShippingAddressID is only a
// best-effort back-reference and may be nulled when the address is deleted.
// Totals are fixed at creation and never recomputed.
type Order struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"           json:"id"`
	UserID            uuid.UUID  `gorm:"type:uuid;index;not null;uniqueIndex:ux_orders_user_idem" json:"user_id"`
	ShippingAddressID *uuid.UUID `gorm:"type:uuid"                      json:"shipping_address_id"`
	CouponID          *uuid.UUID `gorm:"type:uuid"                      json:"coupon_id"`
	IdempotencyKey    *string    `gorm:"uniqueIndex:ux_orders_user_idem" json:"-"`

	RecipientName string `gorm:"not null" json:"recipient_name"`
	Street        string `gorm:"not null" json:"street"`
	Number        string `gorm:"not null" json:"number"`
	Complement    string `json:"complement"`
	Neighborhood  string `gorm:"not null" json:"neighborhood"`
	City          string `gorm:"not null" json:"city"`
	State         string `gorm:"not null" json:"state"`
	ZipCode       string `gorm:"not null" json:"zip_code"`
	Country       string `gorm:"not null" json:"country"`
	Phone         string `gorm:"not null" json:"phone"`
	Email         string `gorm:"not null" json:"email"`
	CpfOrCnpj     string `gorm:"not null" json:"cpf_or_cnpj"`

	SubtotalInCents int64       `gorm:"not null" json:"subtotal_in_cents"`
	DiscountInCents int64       `gorm:"not null" json:"discount_in_cents"`
	ShippingInCents int64       `gorm:"not null" json:"shipping_in_cents"`
	TotalInCents    int64       `gorm:"not null" json:"total_in_cents"`
	Status          OrderStatus `gorm:"type:text;not null;default:pending;index" json:"status"`
	Items           []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time   `gorm:"index" json:"created_at"`
}

// OrderItem carries the unit price captured permanently at order-creation
// time. Variant and size references are nullable so they survive catalog
// deletions.
type OrderItem struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey"     json:"id"`
	OrderID              uuid.UUID  `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductVariantID     *uuid.UUID `gorm:"type:uuid"                json:"product_variant_id"`
	ProductVariantSizeID *uuid.UUID `gorm:"type:uuid"                json:"product_variant_size_id"`
	Quantity             int64      `gorm:"not null"                 json:"quantity"`
	PriceInCents         int64      `gorm:"not null"                 json:"price_in_cents"`
	CreatedAt            time.Time  `json:"created_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error               { ensureID(&u.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error            { ensureID(&p.ID); return nil }
func (v *ProductVariant) BeforeCreate(*gorm.DB) error     { ensureID(&v.ID); return nil }
func (s *ProductSize) BeforeCreate(*gorm.DB) error        { ensureID(&s.ID); return nil }
func (v *ProductVariantSize) BeforeCreate(*gorm.DB) error { ensureID(&v.ID); return nil }
func (a *ShippingAddress) BeforeCreate(*gorm.DB) error    { ensureID(&a.ID); return nil }
func (c *Cart) BeforeCreate(*gorm.DB) error               { ensureID(&c.ID); return nil }
func (i *CartItem) BeforeCreate(*gorm.DB) error           { ensureID(&i.ID); return nil }
func (c *Coupon) BeforeCreate(*gorm.DB) error             { ensureID(&c.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error              { ensureID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error          { ensureID(&i.ID); return nil }

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &RefreshToken{},
		&Product{}, &ProductVariant{}, &ProductSize{}, &ProductVariantSize{},
		&ShippingAddress{}, &Cart{}, &CartItem{},
		&Coupon{}, &Order{}, &OrderItem{},
	}
}
