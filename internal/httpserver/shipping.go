package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coldbreeze/storefront/internal/shipping"
)

type ShippingHandler struct{}

func (h *ShippingHandler) Quote(c echo.Context) error {
	city := c.QueryParam("city")
	state := c.QueryParam("state")
	if city == "" || state == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "city and state are required")
	}
	return c.JSON(http.StatusOK, shipping.Quote(city, state))
}
