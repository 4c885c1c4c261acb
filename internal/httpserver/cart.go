package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/coldbreeze/storefront/internal/auth"
	"github.com/coldbreeze/storefront/internal/models"
	"github.com/coldbreeze/storefront/internal/mykafka"
	"github.com/coldbreeze/storefront/internal/pricing"
	"github.com/coldbreeze/storefront/internal/shipping"
	"github.com/coldbreeze/storefront/internal/stock"
)

type CartHandler struct {
	DB       *gorm.DB
	Stock    *stock.Ledger
	Producer *mykafka.Producer
}

type cartResponse struct {
	Cart   models.Cart    `json:"cart"`
	Totals pricing.Totals `json:"totals"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	var cart models.Cart
	err = h.DB.Preload("Items").Preload("ShippingAddress").
		Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusOK, cartResponse{})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}

	// preview totals from live variant prices; no coupon at this stage
	items := make([]pricing.Item, 0, len(cart.Items))
	for _, it := range cart.Items {
		var variant models.ProductVariant
		if err := h.DB.First(&variant, "id = ?", it.ProductVariantID).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "try again")
		}
		items = append(items, pricing.Item{UnitPriceInCents: variant.PriceInCents, Quantity: it.Quantity})
	}
	var shippingCents int64
	if cart.ShippingPriceInCents != nil {
		shippingCents = *cart.ShippingPriceInCents
	}

	return c.JSON(http.StatusOK, cartResponse{
		Cart:   cart,
		Totals: pricing.ComputeTotals(items, nil, shippingCents),
	})
}

func (h *CartHandler) AddItem(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductVariantID     uuid.UUID  `json:"product_variant_id"`
		ProductVariantSizeID *uuid.UUID `json:"product_variant_size_id"`
		Quantity             int64      `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var variant models.ProductVariant
	if err := h.DB.First(&variant, "id = ?", req.ProductVariantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product variant not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}

	if req.ProductVariantSizeID != nil {
		var vs models.ProductVariantSize
		err := h.DB.Where("id = ? AND product_variant_id = ?", req.ProductVariantSizeID, req.ProductVariantID).
			First(&vs).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid size for variant")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "try again")
		}
		if _, err := h.Stock.CheckAvailability(c.Request().Context(), userID, vs.ID, req.Quantity); err != nil {
			if errors.Is(err, stock.ErrOutOfStock) {
				return echo.NewHTTPError(http.StatusConflict, "not enough stock")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "try again")
		}
	}

	// cart is created lazily on first add
	var cart models.Cart
	err = h.DB.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		if err := h.DB.Create(&cart).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "try again")
		}
	} else if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}

	// same variant+size merges into the existing row
	query := h.DB.Where("cart_id = ? AND product_variant_id = ?", cart.ID, req.ProductVariantID)
	if req.ProductVariantSizeID != nil {
		query = query.Where("product_variant_size_id = ?", req.ProductVariantSizeID)
	} else {
		query = query.Where("product_variant_size_id IS NULL")
	}
	var item models.CartItem
	err = query.First(&item).Error
	if err == nil {
		item.Quantity += req.Quantity
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "try again")
		}
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		item = models.CartItem{
			CartID:               cart.ID,
			ProductVariantID:     req.ProductVariantID,
			ProductVariantSizeID: req.ProductVariantSizeID,
			Quantity:             req.Quantity,
		}
		if err := h.DB.Create(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "try again")
		}
	} else {
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}

	h.publish(c, userID, map[string]any{
		"type":     "cart_item_added",
		"userID":   userID,
		"itemID":   item.ID,
		"quantity": item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Quantity < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, httpErr := h.loadOwnedItem(c, itemID, userID)
	if httpErr != nil {
		return httpErr
	}

	if req.Quantity == 0 {
		if err := h.DB.Delete(&models.CartItem{}, "id = ?", item.ID).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "try again")
		}
		h.publish(c, userID, map[string]any{"type": "cart_item_removed", "userID": userID, "itemID": item.ID})
		return c.JSON(http.StatusOK, map[string]any{"deleted_item": item.ID})
	}

	if delta := req.Quantity - item.Quantity; delta > 0 && item.ProductVariantSizeID != nil {
		if _, err := h.Stock.CheckAvailability(c.Request().Context(), userID, *item.ProductVariantSizeID, delta); err != nil {
			if errors.Is(err, stock.ErrOutOfStock) {
				return echo.NewHTTPError(http.StatusConflict, "not enough stock")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "try again")
		}
	}

	item.Quantity = req.Quantity
	if err := h.DB.Save(item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	h.publish(c, userID, map[string]any{
		"type": "cart_item_updated", "userID": userID,
		"itemID": item.ID, "quantity": item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	item, httpErr := h.loadOwnedItem(c, itemID, userID)
	if httpErr != nil {
		return httpErr
	}
	if err := h.DB.Delete(&models.CartItem{}, "id = ?", item.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	h.publish(c, userID, map[string]any{"type": "cart_item_removed", "userID": userID, "itemID": item.ID})
	return c.JSON(http.StatusOK, map[string]any{"deleted_item": item.ID})
}

func (h *CartHandler) CreateAddress(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	var addr models.ShippingAddress
	if err := c.Bind(&addr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	addr.ID = uuid.Nil
	addr.UserID = userID
	if addr.RecipientName == "" || addr.Street == "" || addr.City == "" || addr.State == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "incomplete address")
	}
	if err := h.DB.Create(&addr).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	return c.JSON(http.StatusOK, addr)
}

func (h *CartHandler) DeleteAddress(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	addrID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var addr models.ShippingAddress
	if err := h.DB.First(&addr, "id = ?", addrID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "address not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	if addr.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "address belongs to another user")
	}

	// orders keep their denormalized snapshot; only the live references are
	// cleared before the row goes
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		cartUpdates := map[string]any{
			"shipping_address_id":     nil,
			"shipping_method":         "",
			"shipping_price_in_cents": nil,
		}
		if err := tx.Model(&models.Cart{}).
			Where("shipping_address_id = ?", addr.ID).
			Updates(cartUpdates).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).
			Where("shipping_address_id = ?", addr.ID).
			Update("shipping_address_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ShippingAddress{}, "id = ?", addr.ID).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted_address": addr.ID})
}

func (h *CartHandler) SetAddress(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	var req struct {
		ShippingAddressID uuid.UUID `json:"shipping_address_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var addr models.ShippingAddress
	if err := h.DB.First(&addr, "id = ?", req.ShippingAddressID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "address not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	if addr.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "address belongs to another user")
	}

	var cart models.Cart
	if err := h.DB.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "cart not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}

	// changing the destination invalidates any previously captured rate
	updates := map[string]any{
		"shipping_address_id":     addr.ID,
		"shipping_method":         "",
		"shipping_price_in_cents": nil,
	}
	if err := h.DB.Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	return c.JSON(http.StatusOK, map[string]any{"shipping_address_id": addr.ID})
}

func (h *CartHandler) SetShippingMethod(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	var req struct {
		MethodID string `json:"method_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var cart models.Cart
	err = h.DB.Preload("ShippingAddress").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "cart not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	if cart.ShippingAddress == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "add a shipping address first")
	}

	methods := shipping.Quote(cart.ShippingAddress.City, cart.ShippingAddress.State)
	var chosen *shipping.Method
	for i := range methods {
		if methods[i].MethodID == req.MethodID {
			chosen = &methods[i]
			break
		}
	}
	if chosen == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown shipping method")
	}

	// price is captured once here; finalization charges this figure
	updates := map[string]any{
		"shipping_method":         chosen.Name,
		"shipping_price_in_cents": chosen.PriceInCents,
	}
	if err := h.DB.Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	return c.JSON(http.StatusOK, chosen)
}

func (h *CartHandler) loadOwnedItem(c echo.Context, itemID, userID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := h.DB.
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "item not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	return &item, nil
}

func (h *CartHandler) publish(c echo.Context, userID uuid.UUID, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(userID), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
