package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/coldbreeze/storefront/internal/models"
)

func seedAddress(t *testing.T, env *testEnv, userID uuid.UUID) models.ShippingAddress {
	t.Helper()
	addr := models.ShippingAddress{
		UserID:        userID,
		RecipientName: "Buyer", Street: "Rua A", Number: "1", Neighborhood: "Centro",
		City: "Osasco", State: "SP", ZipCode: "06000-000", Country: "BR",
		Phone: "+55", Email: "b@example.com", CpfOrCnpj: "0",
	}
	require.NoError(t, env.DB.Create(&addr).Error)
	return addr
}

func TestCouponApplyEndpoint(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.DB.Create(&models.Coupon{
		Code: "WELCOME10", DiscountType: models.DiscountPercent, DiscountValue: 10,
		IsActive: true, ExpiresAt: time.Now().Add(24 * time.Hour),
	}).Error)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/coupons/apply", map[string]string{"code": "welcome10"})
	require.NoError(t, env.Coupon.Apply(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap struct {
		Code  string `json:"code"`
		Value int64  `json:"discount_value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, "WELCOME10", snap.Code)
	require.Equal(t, int64(10), snap.Value)
}

func TestCouponApplyEndpointRejectsUnknownCode(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/coupons/apply", map[string]string{"code": "NOPE"})
	err := env.Coupon.Apply(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestShippingQuoteEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/shipping/quote?city=Osasco&state=SP", nil)
	require.NoError(t, env.Shipping.Quote(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, c = env.doJSONRequest(http.MethodGet, "/api/v1/shipping/quote?city=Osasco", nil)
	err := env.Shipping.Quote(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCartAddItemMergesSameVariantAndSize(t *testing.T) {
	env := newTestEnv(t)
	variant, vs := env.seedCatalog(t)
	userID := uuid.New()

	body := map[string]any{
		"product_variant_id":      variant.ID,
		"product_variant_size_id": vs.ID,
		"quantity":                1,
	}
	for i := 0; i < 2; i++ {
		rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/items", body)
		env.asUser(c, userID)
		require.NoError(t, env.Cart.AddItem(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var items []models.CartItem
	require.NoError(t, env.DB.Find(&items).Error)
	require.Len(t, items, 1, "same variant+size must merge, not duplicate")
	require.Equal(t, int64(2), items[0].Quantity)
}

func TestCartAddItemRejectsOversell(t *testing.T) {
	env := newTestEnv(t)
	variant, vs := env.seedCatalog(t) // stock 10
	userID := uuid.New()

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_variant_id":      variant.ID,
		"product_variant_size_id": vs.ID,
		"quantity":                11,
	})
	env.asUser(c, userID)
	err := env.Cart.AddItem(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestCartAddItemUnknownVariant(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_variant_id": uuid.New(),
		"quantity":           1,
	})
	env.asUser(c, userID)
	err := env.Cart.AddItem(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestSetAddressResetsShippingMethod(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	addr := seedAddress(t, env, userID)

	price := int64(1290)
	cart := models.Cart{UserID: userID, ShippingMethod: "Standard", ShippingPriceInCents: &price}
	require.NoError(t, env.DB.Create(&cart).Error)

	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/cart/address",
		map[string]any{"shipping_address_id": addr.ID})
	env.asUser(c, userID)
	require.NoError(t, env.Cart.SetAddress(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var after models.Cart
	require.NoError(t, env.DB.First(&after, "id = ?", cart.ID).Error)
	require.Equal(t, addr.ID, *after.ShippingAddressID)
	require.Empty(t, after.ShippingMethod, "changing destination must drop the captured rate")
	require.Nil(t, after.ShippingPriceInCents)
}

func TestSetAddressForeignAddress(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	foreign := seedAddress(t, env, uuid.New())
	require.NoError(t, env.DB.Create(&models.Cart{UserID: userID}).Error)

	_, c := env.doJSONRequest(http.MethodPut, "/api/v1/cart/address",
		map[string]any{"shipping_address_id": foreign.ID})
	env.asUser(c, userID)
	err := env.Cart.SetAddress(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestDeleteAddressKeepsOrderSnapshot(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	addr := seedAddress(t, env, userID)

	addrID := addr.ID
	order := models.Order{
		UserID: userID, ShippingAddressID: &addrID,
		RecipientName: addr.RecipientName, Street: addr.Street, Number: addr.Number,
		Neighborhood: addr.Neighborhood, City: addr.City, State: addr.State,
		ZipCode: addr.ZipCode, Country: addr.Country, Phone: addr.Phone,
		Email: addr.Email, CpfOrCnpj: addr.CpfOrCnpj,
		SubtotalInCents: 10000, ShippingInCents: 1000, TotalInCents: 11000,
		Status: models.OrderStatusDelivered,
	}
	require.NoError(t, env.DB.Create(&order).Error)

	price := int64(1290)
	cart := models.Cart{
		UserID: userID, ShippingAddressID: &addrID,
		ShippingMethod: "Standard", ShippingPriceInCents: &price,
	}
	require.NoError(t, env.DB.Create(&cart).Error)

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/addresses/"+addr.ID.String(), nil)
	env.asUser(c, userID)
	c.SetParamNames("id")
	c.SetParamValues(addr.ID.String())
	require.NoError(t, env.Cart.DeleteAddress(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var addrCount int64
	env.DB.Model(&models.ShippingAddress{}).Where("id = ?", addr.ID).Count(&addrCount)
	require.Zero(t, addrCount)

	// the order survives with its snapshot intact, only the back-reference
	// is gone
	var after models.Order
	require.NoError(t, env.DB.First(&after, "id = ?", order.ID).Error)
	require.Equal(t, "Buyer", after.RecipientName)
	require.Equal(t, "Osasco", after.City)
	require.Equal(t, int64(11000), after.TotalInCents)
	require.Nil(t, after.ShippingAddressID)

	// the cart loses both the address and the captured rate
	var cartAfter models.Cart
	require.NoError(t, env.DB.First(&cartAfter, "id = ?", cart.ID).Error)
	require.Nil(t, cartAfter.ShippingAddressID)
	require.Empty(t, cartAfter.ShippingMethod)
	require.Nil(t, cartAfter.ShippingPriceInCents)
}

func TestDeleteAddressForeignAddress(t *testing.T) {
	env := newTestEnv(t)
	foreign := seedAddress(t, env, uuid.New())

	_, c := env.doJSONRequest(http.MethodDelete, "/api/v1/addresses/"+foreign.ID.String(), nil)
	env.asUser(c, uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(foreign.ID.String())
	err := env.Cart.DeleteAddress(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusForbidden, he.Code)

	var count int64
	env.DB.Model(&models.ShippingAddress{}).Where("id = ?", foreign.ID).Count(&count)
	require.Equal(t, int64(1), count)
}

func TestSetShippingMethodCapturesQuotedPrice(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	addr := seedAddress(t, env, userID)
	cart := models.Cart{UserID: userID, ShippingAddressID: &addr.ID}
	require.NoError(t, env.DB.Create(&cart).Error)

	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/cart/shipping-method",
		map[string]any{"method_id": "standard"})
	env.asUser(c, userID)
	require.NoError(t, env.Cart.SetShippingMethod(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var after models.Cart
	require.NoError(t, env.DB.First(&after, "id = ?", cart.ID).Error)
	require.NotEmpty(t, after.ShippingMethod)
	require.NotNil(t, after.ShippingPriceInCents)
	require.Equal(t, int64(1290), *after.ShippingPriceInCents)
}

func TestCheckoutEndpointCreatesOrder(t *testing.T) {
	env := newTestEnv(t)
	variant, vs := env.seedCatalog(t)
	userID := uuid.New()
	addr := seedAddress(t, env, userID)

	price := int64(1000)
	cart := models.Cart{
		UserID: userID, ShippingAddressID: &addr.ID,
		ShippingMethod: "Standard", ShippingPriceInCents: &price,
	}
	require.NoError(t, env.DB.Create(&cart).Error)
	require.NoError(t, env.DB.Create(&models.CartItem{
		CartID: cart.ID, ProductVariantID: variant.ID, ProductVariantSizeID: &vs.ID, Quantity: 2,
	}).Error)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", map[string]string{})
	env.asUser(c, userID)
	require.NoError(t, env.Checkout.Finalize(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OrderID uuid.UUID `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	var order models.Order
	require.NoError(t, env.DB.First(&order, "id = ?", resp.OrderID).Error)
	require.Equal(t, int64(10000), order.SubtotalInCents)
	require.Equal(t, int64(11000), order.TotalInCents)
	require.Equal(t, models.OrderStatusPending, order.Status)
}

func TestCheckoutEndpointWithoutCart(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", map[string]string{})
	env.asUser(c, uuid.New())
	err := env.Checkout.Finalize(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusNotFound, he.Code)
}
