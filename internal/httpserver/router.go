package httpserver

import (
	"github.com/labstack/echo/v4"
)

type Deps struct {
	JWTSecret []byte

	AuthHandler     *AuthHandler
	CartHandler     *CartHandler
	CouponHandler   *CouponHandler
	CheckoutHandler *CheckoutHandler
	OrderHandler    *OrderHandler
	ShippingHandler *ShippingHandler
	WebhookHandler  *WebhookHandler
}

func Register(e *echo.Echo, d *Deps, requireLogin, requireAdmin echo.MiddlewareFunc) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.POST("/webhooks/stripe", d.WebhookHandler.HandleStripe)

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)

	v1.GET("/shipping", d.ShippingHandler.Quote)
	v1.POST("/coupons/apply", d.CouponHandler.Apply)

	user := v1.Group("", requireLogin)

	user.POST("/addresses", d.CartHandler.CreateAddress)
	user.DELETE("/addresses/:id", d.CartHandler.DeleteAddress)

	user.GET("/cart", d.CartHandler.GetCart)
	user.POST("/cart/items", d.CartHandler.AddItem)
	user.PATCH("/cart/items/:id", d.CartHandler.UpdateItem)
	user.DELETE("/cart/items/:id", d.CartHandler.RemoveItem)
	user.PUT("/cart/address", d.CartHandler.SetAddress)
	user.PUT("/cart/shipping-method", d.CartHandler.SetShippingMethod)

	user.POST("/checkout", d.CheckoutHandler.Finalize)

	user.GET("/orders", d.OrderHandler.List)
	user.POST("/orders/:id/cancel", d.OrderHandler.Cancel)
	user.DELETE("/orders/:id", d.OrderHandler.Delete)
	user.POST("/orders/:id/payment", d.OrderHandler.CreatePaymentSession)

	admin := v1.Group("/admin", requireAdmin)
	admin.PATCH("/orders/:id/status", d.OrderHandler.AdminSetStatus)
}
