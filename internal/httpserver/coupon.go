package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coldbreeze/storefront/internal/coupon"
)

type CouponHandler struct {
	Validator *coupon.Validator
}

// Apply is the pre-checkout preview: unlike finalization, an invalid code
// here fails loudly, because the user explicitly asked for it.
func (h *CouponHandler) Apply(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	snap, err := h.Validator.Apply(c.Request().Context(), req.Code)
	if err != nil {
		if errors.Is(err, coupon.ErrInvalidOrExpired) {
			return echo.NewHTTPError(http.StatusBadRequest, "coupon invalid or expired")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	return c.JSON(http.StatusOK, snap)
}
