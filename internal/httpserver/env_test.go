package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coldbreeze/storefront/internal/checkout"
	"github.com/coldbreeze/storefront/internal/coupon"
	"github.com/coldbreeze/storefront/internal/models"
	"github.com/coldbreeze/storefront/internal/orders"
	"github.com/coldbreeze/storefront/internal/stock"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB

	Cart     *CartHandler
	Coupon   *CouponHandler
	Checkout *CheckoutHandler
	Orders   *OrderHandler
	Shipping *ShippingHandler
	Webhook  *WebhookHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	orderService := orders.NewService(db, nil, "https://shop.example")

	return &testEnv{
		T:        t,
		E:        echo.New(),
		DB:       db,
		Cart:     &CartHandler{DB: db, Stock: stock.NewLedger(db)},
		Coupon:   &CouponHandler{Validator: coupon.NewValidator(db)},
		Checkout: &CheckoutHandler{Finalizer: checkout.NewFinalizer(db)},
		Orders:   &OrderHandler{Svc: orderService},
		Shipping: &ShippingHandler{},
		Webhook:  &WebhookHandler{Orders: orderService, WebhookSecret: "whsec_test"},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser mimics what auth.RequireLogin puts on the context.
func (env *testEnv) asUser(c echo.Context, userID uuid.UUID) {
	c.Set("userID", userID)
	c.Set("role", "user")
}

func (env *testEnv) seedCatalog(t *testing.T) (models.ProductVariant, models.ProductVariantSize) {
	t.Helper()
	product := models.Product{Name: "Hoodie", Slug: "hoodie", Description: "warm"}
	require.NoError(t, env.DB.Create(&product).Error)
	variant := models.ProductVariant{ProductID: product.ID, Name: "Black", Slug: "hoodie-black", PriceInCents: 5000}
	require.NoError(t, env.DB.Create(&variant).Error)
	size := models.ProductSize{Name: "M", Slug: "m"}
	require.NoError(t, env.DB.Create(&size).Error)
	vs := models.ProductVariantSize{ProductVariantID: variant.ID, SizeID: size.ID, Stock: 10}
	require.NoError(t, env.DB.Create(&vs).Error)
	return variant, vs
}
