package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coldbreeze/storefront/internal/auth"
	"github.com/coldbreeze/storefront/internal/checkout"
	"github.com/coldbreeze/storefront/internal/mykafka"
	"github.com/coldbreeze/storefront/internal/stock"
)

type CheckoutHandler struct {
	Finalizer *checkout.Finalizer
	Producer  *mykafka.Producer
}

// Finalize converts the caller's cart into an order. Totals are always
// computed server-side from stored cart, coupon and shipping state; the
// client supplies at most a coupon code and an idempotency key.
func (h *CheckoutHandler) Finalize(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		CouponCode string `json:"coupon_code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	idempotencyKey := c.Request().Header.Get("Idempotency-Key")

	orderID, err := h.Finalizer.Finalize(c.Request().Context(), userID, req.CouponCode, idempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrCartNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "cart not found")
		case errors.Is(err, checkout.ErrShippingAddressMissing):
			return echo.NewHTTPError(http.StatusBadRequest, "add a shipping address")
		case errors.Is(err, checkout.ErrShippingMethodMissing):
			return echo.NewHTTPError(http.StatusBadRequest, "select a shipping method")
		case errors.Is(err, checkout.ErrEmptyCart):
			return echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
		case errors.Is(err, stock.ErrOutOfStock):
			return echo.NewHTTPError(http.StatusConflict, "not enough stock")
		default:
			c.Logger().Errorf("finalize error: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "try again")
		}
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": orderID,
	})
	return c.JSON(http.StatusOK, map[string]any{"order_id": orderID})
}

func (h *CheckoutHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
