package httpserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v78"

	"github.com/coldbreeze/storefront/internal/orders"
	"github.com/coldbreeze/storefront/internal/payment"
)

type WebhookHandler struct {
	Orders        *orders.Service
	WebhookSecret string
}

// HandleStripe consumes provider-signed payment events. The signature is
// verified before the payload is trusted; a failed check is a 4xx and no
// state changes. A completed checkout moves the tagged order from pending to
// in_production.
func (h *WebhookHandler) HandleStripe(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	sig := c.Request().Header.Get("Stripe-Signature")
	if sig == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing signature")
	}

	event, err := payment.VerifyEvent(payload, sig, h.WebhookSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "signature verification failed")
	}

	if event.Type == "checkout.session.completed" {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unparsable event payload")
		}
		rawID := session.Metadata["orderId"]
		if rawID == "" {
			c.Logger().Errorf("checkout.session.completed without orderId metadata")
			return c.JSON(http.StatusOK, map[string]bool{"ok": true})
		}
		orderID, err := uuid.Parse(rawID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid orderId metadata")
		}
		if err := h.Orders.MarkPaid(c.Request().Context(), orderID); err != nil {
			c.Logger().Errorf("mark paid failed for %s: %v", orderID, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "try again")
		}
	}

	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
