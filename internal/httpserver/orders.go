package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coldbreeze/storefront/internal/auth"
	"github.com/coldbreeze/storefront/internal/models"
	"github.com/coldbreeze/storefront/internal/mykafka"
	"github.com/coldbreeze/storefront/internal/orders"
)

type OrderHandler struct {
	Svc      *orders.Service
	Producer *mykafka.Producer
}

func (h *OrderHandler) List(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	list, err := h.Svc.ListForUser(c.Request().Context(), userID, page, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
	return c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Cancel(c.Request().Context(), orderID, userID); err != nil {
		return h.mapError(c, err)
	}
	h.publish(c, userID, map[string]any{
		"type": "order_status_changed", "orderID": orderID, "status": models.OrderStatusCanceled,
	})
	return c.JSON(http.StatusOK, map[string]string{"status": "canceled"})
}

func (h *OrderHandler) Delete(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Delete(c.Request().Context(), orderID, userID); err != nil {
		return h.mapError(c, err)
	}
	h.publish(c, userID, map[string]any{"type": "order_deleted", "orderID": orderID})
	return c.JSON(http.StatusOK, map[string]any{"deleted_order": orderID})
}

func (h *OrderHandler) CreatePaymentSession(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	sess, err := h.Svc.CreatePaymentSession(c.Request().Context(), orderID, userID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"id": sess.ID, "url": sess.URL})
}

// AdminSetStatus applies any status unconditionally: the manual-correction
// escape hatch, guarded by the admin capability at the router.
func (h *OrderHandler) AdminSetStatus(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.AdminSetStatus(c.Request().Context(), orderID, req.Status); err != nil {
		return h.mapError(c, err)
	}
	h.publish(c, uuid.Nil, map[string]any{
		"type": "order_status_changed", "orderID": orderID, "status": req.Status, "actor": "admin",
	})
	return c.JSON(http.StatusOK, map[string]any{"order_id": orderID, "status": req.Status})
}

func (h *OrderHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not your order")
	case errors.Is(err, orders.ErrNotCancelable):
		return echo.NewHTTPError(http.StatusConflict, "order can no longer be canceled")
	case errors.Is(err, orders.ErrNotDeletable):
		return echo.NewHTTPError(http.StatusConflict, "only canceled or delivered orders can be deleted")
	case errors.Is(err, orders.ErrNotPayable):
		return echo.NewHTTPError(http.StatusConflict, "order is not awaiting payment")
	case errors.Is(err, orders.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	default:
		c.Logger().Errorf("order error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "try again")
	}
}

func (h *OrderHandler) publish(c echo.Context, userID uuid.UUID, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(userID), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
